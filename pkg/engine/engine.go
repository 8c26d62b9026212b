// Package engine is the gateway to the external scattering engine.
//
// The engine is a process-wide, stateful and non-re-entrant resource: a
// second job's Init overwrites the first job's in-flight state, and every
// buffer it hands out is only valid until the next Init or Run. This
// package owns that rule. [Client] is the single owning handle; the only
// way to talk to the engine is through a [Sequence] obtained from
// [Client.Acquire], which holds the engine lock until it is released:
//
//	seq := client.Acquire()
//	defer seq.Release()
//	seq.Initialize(p)
//	if err := seq.Execute(); err != nil {
//	    return err
//	}
//	scatter, err := seq.FetchScatterGrid()
//	...
//	rendered, err := seq.FetchRenderedGrid()
//
// [Client.Simulate] does exactly that in one call.
//
// Buffers are copied into caller-owned storage before a fetch returns, so
// grids never alias engine memory.
package engine

import (
	"fmt"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/params"
)

// Engine is the command interface of the external simulation engine. One
// call per step, all synchronous. Implementations are not expected to be
// safe for concurrent use; [Client] serializes access.
type Engine interface {
	// Init configures global simulation state. The argument order and units
	// are fixed per calibration mode, see params.Set.EngineArgs.
	Init(mode params.Mode, energy, p2, p3, p4 float64)

	// Run executes the configured simulation to completion.
	Run()

	// ScatterData returns the flattened scattering output. The slice is
	// engine-owned and valid only until the next Init or Run. A nil slice
	// stands for a null result pointer.
	ScatterData() (data []float64, rows, cols int)

	// ImageData returns the engine's rendered 2-D image buffer under the
	// same ownership rule as ScatterData.
	ImageData() (data []float64, width, height int)
}

// ModeSupporter is implemented by engines that only accept some
// calibration modes.
type ModeSupporter interface {
	Supports(mode params.Mode) bool
}

// Namer is implemented by engines that report a stable identity, used in
// logs and cache keys.
type Namer interface {
	Name() string
}

// ScatterGrid is the raw scattering output of one run, row-major.
type ScatterGrid struct {
	Data []float64
	Rows int
	Cols int
}

// RenderedGrid is the engine's own floating-point image of one run,
// row-major. Its dimensions may differ from the scatter grid.
type RenderedGrid struct {
	Data   []float64
	Width  int
	Height int
}

// copyOut validates a foreign buffer and copies the first n = a*b values.
func copyOut(op string, data []float64, a, b int) ([]float64, error) {
	if data == nil {
		return nil, &errors.EngineContractError{Op: op, Detail: "null result buffer"}
	}
	if a <= 0 || b <= 0 {
		return nil, &errors.EngineContractError{Op: op, Detail: fmt.Sprintf("non-positive dimensions %dx%d", a, b)}
	}
	n := a * b
	if n/a != b {
		return nil, &errors.EngineContractError{Op: op, Detail: fmt.Sprintf("dimensions %dx%d overflow", a, b)}
	}
	if len(data) < n {
		return nil, &errors.EngineContractError{
			Op:     op,
			Detail: fmt.Sprintf("buffer holds %d values, dimensions %dx%d need %d", len(data), a, b, n),
		}
	}
	out := make([]float64, n)
	copy(out, data[:n])
	return out, nil
}
