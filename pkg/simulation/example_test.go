package simulation_test

import (
	"context"
	"fmt"

	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/params"
	"github.com/quantfocus/semsim/pkg/simulation"
)

func ExampleManager_RunAll() {
	m := simulation.NewManager(engine.NewClient(engine.NewSynthetic(42), nil), simulation.WithWorkers(2))

	beam, _ := params.NewBeam(10, 1, 32, 5)
	foil, _ := params.NewTransmission(20, 100, 0.05, 1000)
	m.Enqueue(beam)
	m.Enqueue(foil)

	results, err := m.RunAll(context.Background())
	if err != nil {
		panic(err)
	}
	for _, r := range results {
		fmt.Printf("%d %s %dx%d\n", r.Index, r.Params.Mode(), r.Raster.Width, r.Raster.Height)
	}
	// Output:
	// 0 beam 32x32
	// 1 transmission 128x128
}
