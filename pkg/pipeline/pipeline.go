// Package pipeline provides the simulate → form → export pipeline for
// semsim.
//
// This package ties the engine client, the simulation manager and the
// exporter together so the CLI commands share one code path.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Simulate: run every job through the engine in FIFO order and form
//     its raster (see [simulation.Manager])
//  2. Export: write each raster in the configured formats, with the
//     parameter records embedded
//
// # Usage
//
//	runner := pipeline.NewRunner(client, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Jobs:      cfg.Jobs,
//	    Formation: cfg.Formation,
//	    OutputDir: "out",
//	    Formats:   []export.Format{export.FormatPNG},
//	})
//	for _, e := range result.Exports {
//	    fmt.Println(e.Paths)
//	}
//
// A failing job does not stop the batch: its slot in Result.Jobs is nil,
// it has no export, and its error is joined into the returned error.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/export"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
	"github.com/quantfocus/semsim/pkg/simulation"
)

// DefaultOutputDir is the directory images are written to when Options
// leaves it empty.
const DefaultOutputDir = "out"

// Options contains all configuration for one pipeline run.
type Options struct {
	// Jobs are run in order. Materials, if set, labels each job in logs
	// and must have the same length.
	Jobs      []params.Set
	Materials []string

	Formation imaging.Config
	OutputDir string
	Formats   []export.Format

	// Workers bounds both the formation and the export pool. Zero means
	// GOMAXPROCS.
	Workers int

	// Refresh ignores cached grids. Fresh grids are still stored.
	Refresh bool

	// NoExport skips the export stage; results are returned in memory only.
	NoExport bool

	Logger *log.Logger

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Jobs has one slot per job, in order. Failed jobs are nil.
	Jobs []*simulation.Result

	// Exports has one entry per successful job, in job order.
	Exports []Export

	Stats     Stats
	CacheInfo CacheInfo
}

// Export records the files written for one job.
type Export struct {
	Index int
	Paths []string
	Err   error
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Jobs         int
	Failed       int
	SimulateTime time.Duration
	ExportTime   time.Duration
}

// CacheInfo tracks how many jobs took their grids from the cache.
type CacheInfo struct {
	Hits   int
	Misses int
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Jobs) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no jobs to run")
	}
	if o.Materials != nil && len(o.Materials) != len(o.Jobs) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"%d material labels for %d jobs", len(o.Materials), len(o.Jobs))
	}
	for i, p := range o.Jobs {
		if p.IsZero() {
			return errors.New(errors.ErrCodeInvalidConfig, "job %d has no parameters", i)
		}
	}
	if o.Formation.Gamma == 0 {
		o.Formation.Gamma = 1
	}
	if err := o.Formation.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("formation: %w", err)
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if len(o.Formats) == 0 {
		o.Formats = []export.Format{export.FormatPNG}
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 0, got %d", o.Workers)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func (o *Options) material(i int) string {
	if i < len(o.Materials) {
		return o.Materials[i]
	}
	return ""
}
