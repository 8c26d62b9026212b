package simulation

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantfocus/semsim/pkg/engine"
)

// gridEntry is the cached form of one engine run.
type gridEntry struct {
	Rows    int       `msgpack:"rows"`
	Cols    int       `msgpack:"cols"`
	Scatter []float64 `msgpack:"scatter"`
	Width   int       `msgpack:"width"`
	Height  int       `msgpack:"height"`
	Image   []float64 `msgpack:"image"`
}

func encodeGrids(s *engine.ScatterGrid, r *engine.RenderedGrid) ([]byte, error) {
	return msgpack.Marshal(&gridEntry{
		Rows: s.Rows, Cols: s.Cols, Scatter: s.Data,
		Width: r.Width, Height: r.Height, Image: r.Data,
	})
}

// decodeGrids restores both grids. Entries whose shapes do not match their
// data are rejected so a corrupt cache can never produce a bad grid.
func decodeGrids(data []byte) (*engine.ScatterGrid, *engine.RenderedGrid, bool) {
	var e gridEntry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, nil, false
	}
	if e.Rows <= 0 || e.Cols <= 0 || len(e.Scatter) != e.Rows*e.Cols {
		return nil, nil, false
	}
	if e.Width <= 0 || e.Height <= 0 || len(e.Image) != e.Width*e.Height {
		return nil, nil, false
	}
	return &engine.ScatterGrid{Data: e.Scatter, Rows: e.Rows, Cols: e.Cols},
		&engine.RenderedGrid{Data: e.Image, Width: e.Width, Height: e.Height},
		true
}
