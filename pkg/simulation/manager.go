// Package simulation queues parameter sets and runs them through the
// engine.
//
// A [Manager] owns one [engine.Client]. [Manager.RunAll] drives the engine
// for each queued job in FIFO order, one engine sequence at a time, and
// hands the copied grids to a bounded worker pool for raster formation.
// Formation for one job therefore overlaps the engine run of the next,
// while engine sequences never overlap each other.
//
//	m := simulation.NewManager(engine.NewClient(engine.NewSynthetic(42), logger),
//	    simulation.WithWorkers(4),
//	    simulation.WithLogger(logger))
//	m.Enqueue(beam)
//	m.Enqueue(transmission)
//	results, err := m.RunAll(ctx)
//	// results[0] is beam, results[1] is transmission; a failed job's slot
//	// is nil and its *JobError is part of err.
package simulation

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quantfocus/semsim/pkg/cache"
	"github.com/quantfocus/semsim/pkg/engine"
	semerrors "github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/observability"
	"github.com/quantfocus/semsim/pkg/params"
)

// Manager queues parameter sets and executes them against its engine
// client. Enqueue, Len, Clear and RunAll are safe for concurrent use.
type Manager struct {
	client    *engine.Client
	formation imaging.Config
	workers   int
	logger    *log.Logger
	cache     cache.Cache
	keyer     cache.Keyer
	ttl       time.Duration
	refresh   bool

	mu    sync.Mutex
	queue []params.Set
}

// Option configures a Manager.
type Option func(*Manager)

// WithFormation sets the raster formation config. The default is
// imaging.DefaultConfig().
func WithFormation(cfg imaging.Config) Option {
	return func(m *Manager) { m.formation = cfg }
}

// WithWorkers bounds the formation pool. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(m *Manager) { m.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCache enables grid caching. A nil keyer means the default keyer.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(m *Manager) {
		m.cache = c
		m.keyer = k
	}
}

// WithCacheTTL sets the lifetime of cached grids. The default is
// cache.TTLGrid.
func WithCacheTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithRefresh skips cache lookups. Computed grids are still stored.
func WithRefresh(refresh bool) Option {
	return func(m *Manager) { m.refresh = refresh }
}

// NewManager returns a manager that owns client.
func NewManager(client *engine.Client, opts ...Option) *Manager {
	m := &Manager{
		client:    client,
		formation: imaging.DefaultConfig(),
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		ttl:       cache.TTLGrid,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = runtime.GOMAXPROCS(0)
	}
	if m.cache == nil {
		m.cache = cache.NewNullCache()
	}
	if m.keyer == nil {
		m.keyer = cache.NewDefaultKeyer()
	}
	return m
}

// Enqueue appends p to the queue.
func (m *Manager) Enqueue(p params.Set) {
	m.mu.Lock()
	m.queue = append(m.queue, p)
	m.mu.Unlock()
}

// Len returns the number of queued jobs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Clear discards the queue without running it.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.queue = nil
	m.mu.Unlock()
}

// RunAll takes the whole queue and runs it. Sets enqueued while RunAll is
// running go to a new queue.
//
// The returned slice has one slot per queued set, in enqueue order. A job
// that fails leaves its slot nil and contributes a *JobError to the joined
// error; other jobs are unaffected. ctx is checked before each job acquires
// the engine. A running engine call is never interrupted, so a hung engine
// blocks RunAll.
func (m *Manager) RunAll(ctx context.Context) ([]*Result, error) {
	m.mu.Lock()
	jobs := m.queue
	m.queue = nil
	m.mu.Unlock()

	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	m.logger.Info("running jobs", "count", len(jobs), "engine", m.client.Name(), "workers", m.workers)
	start := time.Now()

	var pool errgroup.Group
	pool.SetLimit(m.workers)

	for i, p := range jobs {
		if err := ctx.Err(); err != nil {
			errs[i] = &JobError{Index: i, Params: p, Err: err}
			continue
		}
		j := m.acquire(ctx, i, p)
		if j.err != nil {
			m.finish(ctx, j, nil)
			errs[i] = &JobError{Index: i, Params: p, Err: j.err}
			continue
		}
		pool.Go(func() error {
			m.store(ctx, j)
			r, err := m.form(ctx, j)
			m.finish(ctx, j, err)
			if err != nil {
				errs[j.index] = &JobError{Index: j.index, Params: j.params, Err: err}
				return nil
			}
			results[j.index] = r
			return nil
		})
	}
	_ = pool.Wait()

	err := errors.Join(errs...)
	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	m.logger.Info("jobs finished", "ok", len(jobs)-failed, "failed", failed, "duration", time.Since(start))
	return results, err
}

// job carries one set from the engine stage to the formation stage.
type job struct {
	id      uuid.UUID
	key     string
	index   int
	params  params.Set
	start   time.Time
	cached  bool
	stats   Stats
	scatter *engine.ScatterGrid
	render  *engine.RenderedGrid
	err     error
}

// acquire obtains the grids for p, from the cache or from the engine.
func (m *Manager) acquire(ctx context.Context, index int, p params.Set) *job {
	j := &job{id: uuid.New(), index: index, params: p, start: time.Now()}
	observability.Simulation().OnJobStart(ctx, j.id.String(), index, p.String())

	j.key = m.keyer.GridKey(m.client.Name(), p)
	if !m.refresh && m.lookup(ctx, j) {
		return j
	}
	observability.Cache().OnCacheMiss(ctx, "grid")

	if !m.client.Supports(p.Mode()) {
		j.err = semerrors.New(semerrors.ErrCodeUnsupported, "engine %s does not support %s mode", m.client.Name(), p.Mode())
		return j
	}

	waitStart := time.Now()
	seq := m.client.Acquire()
	j.stats.EngineWait = time.Since(waitStart)
	observability.Simulation().OnEngineWait(ctx, j.id.String(), j.stats.EngineWait)

	engineStart := time.Now()
	j.scatter, j.render, j.err = runSequence(seq, p)
	j.stats.EngineTime = time.Since(engineStart)
	return j
}

// lookup fills j from the cache and reports whether it hit.
func (m *Manager) lookup(ctx context.Context, j *job) bool {
	data, hit, err := m.cache.Get(ctx, j.key)
	if err != nil {
		m.logger.Warn("cache lookup failed", "job", j.index, "error", err)
		return false
	}
	if !hit {
		return false
	}
	s, r, ok := decodeGrids(data)
	if !ok {
		return false
	}
	observability.Cache().OnCacheHit(ctx, "grid")
	j.scatter, j.render, j.cached = s, r, true
	return true
}

// store caches freshly computed grids. It runs on the worker pool so the
// next job can take the engine meanwhile.
func (m *Manager) store(ctx context.Context, j *job) {
	if j.cached {
		return
	}
	if _, off := m.cache.(*cache.NullCache); off {
		return
	}
	data, err := encodeGrids(j.scatter, j.render)
	if err != nil {
		m.logger.Warn("cache encode failed", "job", j.index, "error", err)
		return
	}
	if err := m.cache.Set(ctx, j.key, data, m.ttl); err != nil {
		m.logger.Warn("cache store failed", "job", j.index, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "grid", len(data))
}

// runSequence performs one engine sequence and releases the engine.
func runSequence(seq *engine.Sequence, p params.Set) (*engine.ScatterGrid, *engine.RenderedGrid, error) {
	defer seq.Release()
	seq.Initialize(p)
	if err := seq.Execute(); err != nil {
		return nil, nil, err
	}
	scatter, err := seq.FetchScatterGrid()
	if err != nil {
		return nil, nil, err
	}
	rendered, err := seq.FetchRenderedGrid()
	if err != nil {
		return nil, nil, err
	}
	return scatter, rendered, nil
}

// form turns the rendered grid into the job's raster.
func (m *Manager) form(ctx context.Context, j *job) (*Result, error) {
	start := time.Now()
	raster, err := imaging.FormRaster(j.render.Data, j.render.Height, j.render.Width, m.formation)
	j.stats.FormationTime = time.Since(start)
	if err != nil {
		observability.Simulation().OnFormation(ctx, j.id.String(), 0, 0, j.stats.FormationTime, err)
		return nil, err
	}
	observability.Simulation().OnFormation(ctx, j.id.String(), raster.Width, raster.Height, j.stats.FormationTime, nil)

	return &Result{
		ID:       j.id,
		Index:    j.index,
		Params:   j.params,
		Scatter:  j.scatter,
		Rendered: j.render,
		Raster:   raster,
		Cached:   j.cached,
		Stats:    j.stats,
	}, nil
}

func (m *Manager) finish(ctx context.Context, j *job, err error) {
	if err == nil {
		err = j.err
	}
	d := time.Since(j.start)
	observability.Simulation().OnJobComplete(ctx, j.id.String(), j.index, d, err)
	if err != nil {
		m.logger.Error("job failed", "job", j.index, "params", j.params, "error", err)
		return
	}
	m.logger.Debug("job complete", "job", j.index, "cached", j.cached, "duration", d)
}
