package pipeline

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantfocus/semsim/pkg/cache"
	"github.com/quantfocus/semsim/pkg/engine"
	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/export"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/params"
	"github.com/quantfocus/semsim/pkg/simulation"
)

// brokenEngine returns no image for one energy and a 4x4 ramp otherwise.
type brokenEngine struct {
	energy float64
	bad    float64
	image  []float64
}

func (e *brokenEngine) Init(_ params.Mode, energy, _, _, _ float64) { e.energy = energy }

func (e *brokenEngine) Run() {
	e.image = make([]float64, 16)
	for i := range e.image {
		e.image[i] = float64(i)
	}
}

func (e *brokenEngine) ScatterData() ([]float64, int, int) { return e.image, 4, 4 }

func (e *brokenEngine) ImageData() ([]float64, int, int) {
	if e.energy == e.bad {
		return nil, 0, 0
	}
	return e.image, 4, 4
}

func mustBeam(t *testing.T, energy float64) params.Set {
	t.Helper()
	p, err := params.NewBeam(energy, 1, 16, 5)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Jobs: []params.Set{mustBeam(t, 10)}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q", opts.OutputDir)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != export.FormatPNG {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Formation.Gamma != 1 || opts.Formation.MaxDimension != imaging.DefaultMaxDimension {
		t.Errorf("Formation = %+v", opts.Formation)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no jobs", Options{}},
		{"zero set", Options{Jobs: []params.Set{{}}}},
		{"label mismatch", Options{Jobs: []params.Set{mustBeam(t, 10)}, Materials: []string{"a", "b"}}},
		{"negative workers", Options{Jobs: []params.Set{mustBeam(t, 10)}, Workers: -1}},
		{"bad gamma", Options{Jobs: []params.Set{mustBeam(t, 10)}, Formation: imaging.Config{Gamma: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	foil, err := params.NewTransmission(20, 100, 0.05, 1000)
	if err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(engine.NewClient(engine.NewSynthetic(1), nil), nil, nil, nil)
	defer runner.Close()

	res, err := runner.Execute(context.Background(), Options{
		Jobs:      []params.Set{mustBeam(t, 10), foil},
		Materials: []string{"Copper", ""},
		OutputDir: dir,
		Formats:   []export.Format{export.FormatPNG, export.FormatTIFF},
		Workers:   2,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Jobs != 2 || res.Stats.Failed != 0 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheInfo.Misses != 2 || res.CacheInfo.Hits != 0 {
		t.Errorf("CacheInfo = %+v", res.CacheInfo)
	}
	if len(res.Exports) != 2 {
		t.Fatalf("Exports = %d", len(res.Exports))
	}

	for i, e := range res.Exports {
		if e.Index != i || e.Err != nil || len(e.Paths) != 2 {
			t.Errorf("export %d = %+v", i, e)
			continue
		}
		md, err := export.ReadAny(e.Paths[0])
		if err != nil {
			t.Fatalf("ReadAny: %v", err)
		}
		got, err := params.FromMetadata(md)
		if err != nil {
			t.Fatalf("FromMetadata: %v", err)
		}
		if !got.Equal(res.Jobs[i].Params) {
			t.Errorf("export %d metadata = %v, want %v", i, got, res.Jobs[i].Params)
		}
	}

	want := filepath.Join(dir, export.FileName(0, mustBeam(t, 10), export.FormatPNG))
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected %s: %v", want, err)
	}
}

func TestExecuteFailedJob(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(engine.NewClient(&brokenEngine{bad: 13}, nil), nil, nil, nil)

	res, err := runner.Execute(context.Background(), Options{
		Jobs:      []params.Set{mustBeam(t, 10), mustBeam(t, 13), mustBeam(t, 20)},
		OutputDir: dir,
	})
	if err == nil {
		t.Fatal("expected an error for the failed job")
	}
	var je *simulation.JobError
	if !stderrors.As(err, &je) || je.Index != 1 {
		t.Errorf("error = %v, want JobError for job 1", err)
	}
	if !errors.Is(err, errors.ErrCodeEngineContract) {
		t.Errorf("code = %s", errors.GetCode(err))
	}

	if res == nil || res.Jobs[1] != nil || res.Jobs[0] == nil || res.Jobs[2] == nil {
		t.Fatalf("Jobs = %v", res.Jobs)
	}
	if res.Stats.Failed != 1 {
		t.Errorf("Failed = %d", res.Stats.Failed)
	}
	if len(res.Exports) != 2 || res.Exports[0].Index != 0 || res.Exports[1].Index != 2 {
		t.Errorf("Exports = %+v", res.Exports)
	}
}

func TestExecuteNoExportAndCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(engine.NewClient(engine.NewSynthetic(3), nil), c, nil, nil)
	defer runner.Close()

	dir := filepath.Join(t.TempDir(), "never")
	opts := Options{Jobs: []params.Set{mustBeam(t, 10)}, OutputDir: dir, NoExport: true}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.Misses != 1 || second.CacheInfo.Hits != 1 {
		t.Errorf("cache info = %+v then %+v", first.CacheInfo, second.CacheInfo)
	}
	if len(second.Exports) != 0 {
		t.Errorf("Exports = %v", second.Exports)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("NoExport should not create the output directory")
	}

	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.Hits != 0 {
		t.Errorf("refresh hit the cache: %+v", third.CacheInfo)
	}
}
