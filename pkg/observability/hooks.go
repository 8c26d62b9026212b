// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through package-level registries; the application
// registers implementations at startup. Defaults are no-ops, so nothing is
// recorded unless main opts in.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    h := observability.NewLogHooks(logger)
//	    observability.SetSimulationHooks(h)
//	    observability.SetCacheHooks(h)
//	    observability.SetExportHooks(h)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Simulation().OnJobStart(ctx, id, index, p.String())
//	// ... run the engine and form the raster ...
//	observability.Simulation().OnJobComplete(ctx, id, index, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Simulation Hooks
// =============================================================================

// SimulationHooks receives events from the job manager.
type SimulationHooks interface {
	// Job events. params is the parameter set's display form.
	OnJobStart(ctx context.Context, jobID string, index int, params string)
	OnJobComplete(ctx context.Context, jobID string, index int, duration time.Duration, err error)

	// OnEngineWait records how long a job waited for the engine lock.
	OnEngineWait(ctx context.Context, jobID string, wait time.Duration)

	// OnFormation records one raster formation.
	OnFormation(ctx context.Context, jobID string, width, height int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from grid cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from image export.
type ExportHooks interface {
	OnExport(ctx context.Context, path string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSimulationHooks is a no-op implementation of SimulationHooks.
type NoopSimulationHooks struct{}

func (NoopSimulationHooks) OnJobStart(context.Context, string, int, string)                  {}
func (NoopSimulationHooks) OnJobComplete(context.Context, string, int, time.Duration, error) {}
func (NoopSimulationHooks) OnEngineWait(context.Context, string, time.Duration)              {}
func (NoopSimulationHooks) OnFormation(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExport(context.Context, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	simulationHooks SimulationHooks = NoopSimulationHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	exportHooks     ExportHooks     = NoopExportHooks{}
	hooksMu         sync.RWMutex
)

// SetSimulationHooks registers custom simulation hooks. Nil is ignored.
func SetSimulationHooks(h SimulationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		simulationHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetExportHooks registers custom export hooks. Nil is ignored.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// Simulation returns the registered simulation hooks.
func Simulation() SimulationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return simulationHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	simulationHooks = NoopSimulationHooks{}
	cacheHooks = NoopCacheHooks{}
	exportHooks = NoopExportHooks{}
}
