package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level, errors at warn,
// and keeps running counters for a summary line.
type LogHooks struct {
	logger *log.Logger

	jobs, failed        atomic.Int64
	hits, misses        atomic.Int64
	exports, exportErrs atomic.Int64
	engineWait          atomic.Int64
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnJobStart(_ context.Context, jobID string, index int, params string) {
	h.logger.Debug("job start", "job", index, "id", jobID, "params", params)
}

func (h *LogHooks) OnJobComplete(_ context.Context, jobID string, index int, d time.Duration, err error) {
	h.jobs.Add(1)
	if err != nil {
		h.failed.Add(1)
		h.logger.Warn("job failed", "job", index, "id", jobID, "duration", d, "error", err)
		return
	}
	h.logger.Debug("job complete", "job", index, "id", jobID, "duration", d)
}

func (h *LogHooks) OnEngineWait(_ context.Context, jobID string, wait time.Duration) {
	h.engineWait.Add(int64(wait))
	h.logger.Debug("engine acquired", "id", jobID, "wait", wait)
}

func (h *LogHooks) OnFormation(_ context.Context, jobID string, w, hgt int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("formation failed", "id", jobID, "error", err)
		return
	}
	h.logger.Debug("raster formed", "id", jobID, "width", w, "height", hgt, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.hits.Add(1)
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.misses.Add(1)
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnExport(_ context.Context, path string, d time.Duration, err error) {
	h.exports.Add(1)
	if err != nil {
		h.exportErrs.Add(1)
		h.logger.Warn("export failed", "path", path, "error", err)
		return
	}
	h.logger.Debug("exported", "path", path, "duration", d)
}

// Summary is a snapshot of the counters.
type Summary struct {
	Jobs, Failed        int64
	CacheHits, Misses   int64
	Exports, ExportErrs int64
	EngineWait          time.Duration
}

// Summary returns the counters collected so far.
func (h *LogHooks) Summary() Summary {
	return Summary{
		Jobs:       h.jobs.Load(),
		Failed:     h.failed.Load(),
		CacheHits:  h.hits.Load(),
		Misses:     h.misses.Load(),
		Exports:    h.exports.Load(),
		ExportErrs: h.exportErrs.Load(),
		EngineWait: time.Duration(h.engineWait.Load()),
	}
}

var (
	_ SimulationHooks = (*LogHooks)(nil)
	_ CacheHooks      = (*LogHooks)(nil)
	_ ExportHooks     = (*LogHooks)(nil)
)
