//go:build !semengine

package cli

import (
	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/errors"
)

func newNativeEngine() (engine.Engine, error) {
	return nil, errors.New(errors.ErrCodeUnsupported,
		"this binary was built without the native engine (rebuild with -tags semengine)")
}
