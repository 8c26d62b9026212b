// Package pkg provides the core libraries for semsim, an electron
// microscope image simulator.
//
// # Overview
//
// semsim feeds batches of calibration parameter sets through a stateful
// electron-scattering engine, forms 8-bit grayscale rasters from the
// rendered grids and exports them with the parameters embedded as image
// metadata. The pkg directory is organized into three areas:
//
//  1. Domain - [params], [materials], [engine], [imaging]
//  2. Orchestration - [simulation], [pipeline]
//  3. Infrastructure - [cache], [export], [config], [observability], [errors]
//
// # Architecture
//
// The data flow of one run:
//
//	Job file / flags
//	         ↓
//	    [config] package (decode TOML, build parameter sets)
//	         ↓
//	    [simulation] package (serialize engine sequences, cache grids)
//	         ↓
//	    [imaging] package (normalize, gamma, LUT, resize)
//	         ↓
//	    [export] package (PNG with tEXt records, TIFF with sidecar)
//
// # Quick Start
//
//	client := engine.NewClient(engine.NewSynthetic(42), nil)
//	runner := pipeline.NewRunner(client, nil, nil, nil)
//
//	p, _ := params.NewBeam(15, 1.0, 256, 10)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Jobs:      []params.Set{p},
//	    OutputDir: "out",
//	})
//
// # Engine Access
//
// The engine keeps process-global state, so every job runs as one
// Initialize, Execute, Fetch sequence under the [engine.Client] lock.
// Grids are copied out before the lock is released; formation and export
// then run concurrently.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -tags semengine ./pkg/...    # Include the native engine
//
// [params]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/params
// [materials]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/materials
// [engine]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/engine
// [engine.Client]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/engine#Client
// [imaging]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/imaging
// [simulation]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/simulation
// [pipeline]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/cache
// [export]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/export
// [config]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/config
// [observability]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/observability
// [errors]: https://pkg.go.dev/github.com/quantfocus/semsim/pkg/errors
package pkg
