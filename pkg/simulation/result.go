package simulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
)

// Result is the outcome of one completed job. It is created once and not
// modified afterwards; grids and raster are exclusively owned by it.
type Result struct {
	ID     uuid.UUID
	Index  int
	Params params.Set

	Scatter  *engine.ScatterGrid
	Rendered *engine.RenderedGrid
	Raster   *imaging.Raster

	// Cached reports whether the grids came from the cache instead of the
	// engine.
	Cached bool

	Stats Stats
}

// Stats contains per-job timings.
type Stats struct {
	EngineWait    time.Duration // time spent waiting for the engine lock
	EngineTime    time.Duration // initialize through both fetches
	FormationTime time.Duration
}

// JobError reports the failure of one queued job.
type JobError struct {
	Index  int
	Params params.Set
	Err    error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %d (%s): %v", e.Index, e.Params, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }
