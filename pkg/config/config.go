// Package config loads TOML job files.
//
// A job file describes a batch of simulations together with how to form
// and export the images:
//
//	[formation]
//	gamma = 1.0
//	lut = "invert"          # identity | invert | gamma:<g> | path to a LUT file
//	max_dimension = 16384
//	min_dimension = 1
//
//	[output]
//	dir = "out"
//	formats = ["png", "tiff"]
//
//	[run]
//	workers = 4
//	engine = "synthetic"    # synthetic | native
//	seed = 42
//
//	[cache]
//	backend = "file"        # none | file | redis
//	ttl = "24h"
//	namespace = "lab-a"
//
//	[[job]]
//	mode = "beam"
//	energy_kev = 15.0
//	current_na = 1.0
//	resolution = 256
//	distance_mm = 10.0
//	material = "Copper"
//
//	[[job]]
//	mode = "transmission"
//	energy_kev = 15.0
//	thickness_nm = 100.0
//	angle_stddev_deg = 28.6 # or angle_stddev_rad
//	num_electrons = 50000
//
//	[[material]]
//	name = "Gold"
//	atomic_number = 79
//	density_g_cm3 = 19.3
//
// Unknown keys are errors. Every job is validated through the params
// constructors when the file is loaded, so a loaded [Config] only holds
// valid parameter sets.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/quantfocus/semsim/pkg/errors"
	"github.com/quantfocus/semsim/pkg/export"
	"github.com/quantfocus/semsim/pkg/imaging"
	"github.com/quantfocus/semsim/pkg/materials"
	"github.com/quantfocus/semsim/pkg/params"
)

// Defaults for the sections of a job file.
const (
	DefaultOutputDir = "out"
	DefaultEngine    = "synthetic"
	DefaultSeed      = uint64(42)
	DefaultBackend   = "none"
)

// Duration is a time.Duration that decodes from strings like "24h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// File mirrors the TOML document.
type File struct {
	Formation Formation            `toml:"formation"`
	Output    Output               `toml:"output"`
	Run       Run                  `toml:"run"`
	Cache     Cache                `toml:"cache"`
	Jobs      []Job                `toml:"job"`
	Materials []materials.Material `toml:"material"`
}

// Formation is the [formation] section.
type Formation struct {
	Gamma        *float64 `toml:"gamma"`
	LUT          string   `toml:"lut"`
	MaxDimension int      `toml:"max_dimension"`
	MinDimension int      `toml:"min_dimension"`
}

// Output is the [output] section.
type Output struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

// Run is the [run] section.
type Run struct {
	Workers int    `toml:"workers"`
	Engine  string `toml:"engine"`
	Seed    uint64 `toml:"seed"`
}

// Cache is the [cache] section.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`

	// Namespace prefixes every cache key so several labs or engine builds
	// can share one Redis database.
	Namespace string `toml:"namespace"`
}

// Job is one [[job]] table. Pointer fields distinguish absent keys from
// zero values.
type Job struct {
	Mode           string   `toml:"mode"`
	EnergyKeV      *float64 `toml:"energy_kev"`
	CurrentNA      *float64 `toml:"current_na"`
	Resolution     *int     `toml:"resolution"`
	DistanceMM     *float64 `toml:"distance_mm"`
	ThicknessNM    *float64 `toml:"thickness_nm"`
	AngleStdDevRad *float64 `toml:"angle_stddev_rad"`
	AngleStdDevDeg *float64 `toml:"angle_stddev_deg"`
	Electrons      *int     `toml:"num_electrons"`
	Material       string   `toml:"material"`
}

// Config is a loaded and validated job file.
type Config struct {
	Formation imaging.Config
	LUTName   string
	OutputDir string
	Formats   []export.Format
	Run       Run
	Cache     Cache
	Jobs      []params.Set

	// JobMaterials holds the material named by each job, "" if none.
	JobMaterials []string
	Materials    *materials.Catalog
}

// Load reads and validates the job file at path.
func Load(path string) (*Config, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := f.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a job file held in memory.
func Parse(data string) (*Config, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Resolve()
}

// ReadFile decodes the job file at path without validating it, so callers
// can apply overrides before [File.Resolve].
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "job file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	f, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses TOML into a File, rejecting unknown keys.
func Decode(data string) (*File, error) {
	var f File
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse job file")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return &f, nil
}

// Resolve applies defaults and validates every section.
func (f *File) Resolve() (*Config, error) {
	f.setDefaults()

	cfg := &Config{
		LUTName:   f.Formation.LUT,
		OutputDir: f.Output.Dir,
		Run:       f.Run,
		Cache:     f.Cache,
	}

	lut, err := imaging.ResolveLUT(f.Formation.LUT)
	if err != nil {
		return nil, fmt.Errorf("formation.lut: %w", err)
	}
	cfg.Formation = imaging.Config{
		Gamma:        *f.Formation.Gamma,
		LUT:          lut,
		MaxDimension: f.Formation.MaxDimension,
		MinDimension: f.Formation.MinDimension,
	}
	if err := cfg.Formation.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("formation: %w", err)
	}

	if err := errors.ValidateOutputDir(f.Output.Dir); err != nil {
		return nil, fmt.Errorf("output.dir: %w", err)
	}
	for _, s := range f.Output.Formats {
		format, err := export.ParseFormat(s)
		if err != nil {
			return nil, fmt.Errorf("output.formats: %w", err)
		}
		cfg.Formats = append(cfg.Formats, format)
	}

	if err := validateRun(f.Run); err != nil {
		return nil, err
	}
	if err := validateCache(f.Cache); err != nil {
		return nil, err
	}

	cfg.Materials, err = materials.NewCatalog(f.Materials...)
	if err != nil {
		return nil, err
	}

	for i, j := range f.Jobs {
		p, err := j.Params()
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		if j.Material != "" {
			if _, ok := cfg.Materials.Lookup(j.Material); !ok {
				return nil, errors.New(errors.ErrCodeInvalidMaterial, "job %d: unknown material %q", i+1, j.Material)
			}
		}
		cfg.Jobs = append(cfg.Jobs, p)
		cfg.JobMaterials = append(cfg.JobMaterials, j.Material)
	}
	return cfg, nil
}

func (f *File) setDefaults() {
	if f.Formation.Gamma == nil {
		gamma := 1.0
		f.Formation.Gamma = &gamma
	}
	if f.Output.Dir == "" {
		f.Output.Dir = DefaultOutputDir
	}
	if len(f.Output.Formats) == 0 {
		f.Output.Formats = []string{string(export.FormatPNG)}
	}
	if f.Run.Engine == "" {
		f.Run.Engine = DefaultEngine
	}
	if f.Run.Seed == 0 {
		f.Run.Seed = DefaultSeed
	}
	if f.Cache.Backend == "" {
		f.Cache.Backend = DefaultBackend
	}
}

func validateRun(r Run) error {
	if r.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "run.workers must be >= 0, got %d", r.Workers)
	}
	switch r.Engine {
	case "synthetic", "native":
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "run.engine must be synthetic or native, got %q", r.Engine)
	}
}

func validateCache(c Cache) error {
	switch c.Backend {
	case "none", "file", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be none, file or redis, got %q", c.Backend)
	}
	if c.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}
