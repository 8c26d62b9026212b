package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/params"
)

// ErrSequence is returned when engine operations are called out of order
// (execute before initialize, fetch before execute, use after release).
var ErrSequence = errors.New(errors.ErrCodeEngineSequence, "engine operations called out of order")

// Client owns the engine and the lock that makes every engine sequence
// mutually exclusive. It is safe for concurrent use.
type Client struct {
	mu      sync.Mutex
	eng     Engine
	logger  *log.Logger
	tainted bool
}

// NewClient wraps e. If logger is nil, log output is discarded.
func NewClient(e Engine, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Client{eng: e, logger: logger}
}

// Name returns the engine identity used in logs and cache keys.
func (c *Client) Name() string {
	if n, ok := c.eng.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c.eng)
}

// Supports reports whether the engine accepts sets of the given mode.
func (c *Client) Supports(mode params.Mode) bool {
	if s, ok := c.eng.(ModeSupporter); ok {
		return s.Supports(mode)
	}
	return true
}

// Acquire blocks until no other sequence holds the engine and returns a new
// sequence that does. The caller must call Release.
func (c *Client) Acquire() *Sequence {
	c.mu.Lock()
	return &Sequence{c: c}
}

// Simulate runs initialize, execute and both fetches for p as one critical
// section and returns caller-owned copies of both grids.
func (c *Client) Simulate(p params.Set) (*ScatterGrid, *RenderedGrid, error) {
	if !c.Supports(p.Mode()) {
		return nil, nil, errors.New(errors.ErrCodeUnsupported, "engine %s does not support %s mode", c.Name(), p.Mode())
	}

	seq := c.Acquire()
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

type seqState int

const (
	stateAcquired seqState = iota
	stateInitialized
	stateExecuted
	stateReleased
)

// Sequence is exclusive access to the engine for one job. Its methods must
// be called in order: Initialize, Execute, then the fetches. A Sequence is
// not safe for concurrent use.
type Sequence struct {
	c      *Client
	state  seqState
	params params.Set
	once   sync.Once
}

// Initialize configures the engine for p. A contract violation seen by an
// earlier sequence is cleared here, since Init resets all engine state.
func (s *Sequence) Initialize(p params.Set) {
	if s.state == stateReleased {
		return
	}
	if s.c.tainted {
		s.c.logger.Warn("re-initializing engine after contract violation", "engine", s.c.Name())
		s.c.tainted = false
	}
	energy, p2, p3, p4 := p.EngineArgs()
	s.c.logger.Debug("engine init", "mode", p.Mode(), "energy_kev", energy, "p2", p2, "p3", p3, "p4", p4)
	s.c.eng.Init(p.Mode(), energy, p2, p3, p4)
	s.params = p
	s.state = stateInitialized
}

// Execute runs the configured simulation to completion, blocking the
// calling goroutine. It cannot be cancelled.
func (s *Sequence) Execute() error {
	if s.state != stateInitialized {
		return ErrSequence
	}
	start := time.Now()
	s.c.eng.Run()
	s.state = stateExecuted
	s.c.logger.Debug("engine run complete", "params", s.params, "duration", time.Since(start))
	return nil
}

// FetchScatterGrid copies the engine's scattering output.
func (s *Sequence) FetchScatterGrid() (*ScatterGrid, error) {
	if s.state != stateExecuted {
		return nil, ErrSequence
	}
	data, rows, cols := s.c.eng.ScatterData()
	out, err := copyOut("scatter_data", data, rows, cols)
	if err != nil {
		s.taint(err)
		return nil, err
	}
	return &ScatterGrid{Data: out, Rows: rows, Cols: cols}, nil
}

// FetchRenderedGrid copies the engine's rendered image buffer.
func (s *Sequence) FetchRenderedGrid() (*RenderedGrid, error) {
	if s.state != stateExecuted {
		return nil, ErrSequence
	}
	data, width, height := s.c.eng.ImageData()
	out, err := copyOut("image_data", data, height, width)
	if err != nil {
		s.taint(err)
		return nil, err
	}
	return &RenderedGrid{Data: out, Width: width, Height: height}, nil
}

// Release gives up the engine. It is safe to call more than once.
func (s *Sequence) Release() {
	s.once.Do(func() {
		s.state = stateReleased
		s.c.mu.Unlock()
	})
}

func (s *Sequence) taint(err error) {
	s.c.tainted = true
	s.c.logger.Error("engine contract violation", "params", s.params, "error", err)
}
