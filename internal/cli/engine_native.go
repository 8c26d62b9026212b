//go:build semengine

package cli

import (
	"github.com/quantfocus/semsim/pkg/buildinfo"
	"github.com/quantfocus/semsim/pkg/engine"
)

func init() { buildinfo.Engine = "native" }

func newNativeEngine() (engine.Engine, error) {
	return engine.NewNative(), nil
}
