package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantfocus/semsim/pkg/observability"
)

// Spinner provides a progress indicator with context cancellation support.
type Spinner struct {
	w       io.Writer
	message string
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	width   int
	started atomic.Bool
	mu      sync.Mutex
	once    sync.Once
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, w io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.started.Store(true)
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(s.frames[i%len(s.frames)])
				i++
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.message) + 4; n > s.width {
		s.width = n
	}
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

// Stop stops the spinner and clears the line. It may be called more than
// once, and without Start.
func (s *Spinner) Stop() {
	s.cancel()
	s.once.Do(func() {
		close(s.done)
		if s.started.Load() {
			<-s.stopped
		}
	})
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// jobProgress counts finished jobs into the spinner message and forwards
// every event to next.
type jobProgress struct {
	observability.SimulationHooks
	spinner  *Spinner
	total    int
	finished atomic.Int64
}

func newJobProgress(s *Spinner, total int, next observability.SimulationHooks) *jobProgress {
	if next == nil {
		next = observability.NoopSimulationHooks{}
	}
	p := &jobProgress{SimulationHooks: next, spinner: s, total: total}
	s.SetMessage(p.message(0))
	return p
}

func (p *jobProgress) OnJobComplete(ctx context.Context, jobID string, index int, d time.Duration, err error) {
	p.SimulationHooks.OnJobComplete(ctx, jobID, index, d, err)
	p.spinner.SetMessage(p.message(int(p.finished.Add(1))))
}

func (p *jobProgress) message(n int) string {
	return fmt.Sprintf("Simulating %d/%d", n, p.total)
}
