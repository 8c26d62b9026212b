package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/quantfocus/semsim/pkg/cache"
	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/export"
	"github.com/quantfocus/semsim/pkg/observability"
	"github.com/quantfocus/semsim/pkg/simulation"
)

// Runner executes pipeline runs against one engine client.
//
// The Runner keeps no results between runs. Concurrent Execute calls are
// safe: their engine sequences are serialized by the client.
type Runner struct {
	Client *engine.Client
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// CacheTTL is the lifetime of cached grids. Zero means cache.TTLGrid.
	CacheTTL time.Duration
}

// NewRunner creates a runner for client.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(client *engine.Client, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Client: client,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs every job and exports the rasters.
//
// The returned Result is never nil once the options are valid: it holds
// whatever succeeded even when err reports failed jobs or exports.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	exporter, err := export.NewExporter(opts.OutputDir, opts.Formats...)
	if err != nil {
		return nil, fmt.Errorf("exporter: %w", err)
	}

	result := &Result{}

	// Stage 1: Simulate
	simStart := time.Now()
	jobs, simErr := r.simulate(ctx, opts)
	result.Jobs = jobs
	result.Stats.SimulateTime = time.Since(simStart)
	result.Stats.Jobs = len(jobs)
	for i, j := range jobs {
		switch {
		case j == nil:
			result.Stats.Failed++
		case j.Cached:
			result.CacheInfo.Hits++
		default:
			result.CacheInfo.Misses++
		}
		if j != nil {
			opts.Logger.Debug("simulated",
				"job", i,
				"params", j.Params,
				"material", opts.material(i),
				"size", fmt.Sprintf("%dx%d", j.Raster.Width, j.Raster.Height),
				"cached", j.Cached)
		}
	}

	opts.Logger.Info("simulated jobs",
		"ok", result.Stats.Jobs-result.Stats.Failed,
		"failed", result.Stats.Failed,
		"cache_hits", result.CacheInfo.Hits,
		"duration", result.Stats.SimulateTime)

	if opts.NoExport {
		return result, simErr
	}

	// Stage 2: Export
	exportStart := time.Now()
	result.Exports = r.export(ctx, exporter, jobs, opts)
	result.Stats.ExportTime = time.Since(exportStart)

	var exportErrs []error
	files := 0
	for _, e := range result.Exports {
		files += len(e.Paths)
		if e.Err != nil {
			exportErrs = append(exportErrs, fmt.Errorf("export job %d: %w", e.Index, e.Err))
		}
	}

	opts.Logger.Info("exported images",
		"files", files,
		"dir", exporter.Dir(),
		"formats", exporter.Formats(),
		"duration", result.Stats.ExportTime)

	return result, stderrors.Join(simErr, stderrors.Join(exportErrs...))
}

func (r *Runner) simulate(ctx context.Context, opts Options) ([]*simulation.Result, error) {
	ttl := r.CacheTTL
	if ttl == 0 {
		ttl = cache.TTLGrid
	}
	m := simulation.NewManager(r.Client,
		simulation.WithFormation(opts.Formation),
		simulation.WithWorkers(opts.Workers),
		simulation.WithLogger(opts.Logger),
		simulation.WithCache(r.Cache, r.Keyer),
		simulation.WithCacheTTL(ttl),
		simulation.WithRefresh(opts.Refresh),
	)
	for _, p := range opts.Jobs {
		m.Enqueue(p)
	}
	return m.RunAll(ctx)
}

// export writes every successful job on a bounded pool. Entries keep job
// order.
func (r *Runner) export(ctx context.Context, exporter *export.Exporter, jobs []*simulation.Result, opts Options) []Export {
	slots := make([]*Export, len(jobs))

	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, j := range jobs {
		if j == nil {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			paths, err := exporter.Export(i, j.Raster, j.Params)
			d := time.Since(start)
			for _, p := range paths {
				observability.Export().OnExport(ctx, p, d, nil)
			}
			if err != nil {
				observability.Export().OnExport(ctx, exporter.Dir(), d, err)
				opts.Logger.Error("export failed", "job", i, "error", err)
			}
			slots[i] = &Export{Index: i, Paths: paths, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Export, 0, len(jobs))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
