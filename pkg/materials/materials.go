// Package materials defines specimen materials: a few built-in presets and
// user-defined custom materials.
//
// Materials label jobs and appear in listings. The engine's command
// interface takes no material argument, so they do not change simulation
// output.
package materials

import (
	"math"
	"sort"
	"strings"

	"github.com/quantfocus/semsim/pkg/errors"
)

// Material is a homogeneous specimen material.
type Material struct {
	Name         string  `toml:"name"`
	AtomicNumber int     `toml:"atomic_number"`
	DensityGCM3  float64 `toml:"density_g_cm3"`
}

// Validate checks a custom material definition.
func (m Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New(errors.ErrCodeInvalidMaterial, "material name cannot be empty")
	}
	if m.AtomicNumber < 1 || m.AtomicNumber > 100 {
		return errors.New(errors.ErrCodeInvalidMaterial,
			"material %q: atomic_number (%d) must be between 1 and 100", m.Name, m.AtomicNumber)
	}
	if math.IsNaN(m.DensityGCM3) || math.IsInf(m.DensityGCM3, 0) || m.DensityGCM3 <= 0 {
		return errors.New(errors.ErrCodeInvalidMaterial,
			"material %q: density_g_cm3 (%g) must be > 0", m.Name, m.DensityGCM3)
	}
	return nil
}

var presets = []Material{
	{Name: "Copper", AtomicNumber: 29, DensityGCM3: 8.96},
	{Name: "Silicon", AtomicNumber: 14, DensityGCM3: 2.33},
	{Name: "Carbon", AtomicNumber: 6, DensityGCM3: 2.0},
}

// Preset returns the built-in material with the given name, ignoring case.
func Preset(name string) (Material, bool) {
	for _, m := range presets {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Material{}, false
}

// PresetNames lists the built-in materials in definition order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, m := range presets {
		names[i] = m.Name
	}
	return names
}

// Catalog holds the presets plus custom materials. Custom materials may
// not shadow a preset or each other.
type Catalog struct {
	custom []Material
}

// NewCatalog validates custom and returns a catalog containing it.
func NewCatalog(custom ...Material) (*Catalog, error) {
	c := &Catalog{}
	for _, m := range custom {
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add validates m and adds it to the catalog.
func (c *Catalog) Add(m Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.Name = strings.TrimSpace(m.Name)
	if _, ok := c.Lookup(m.Name); ok {
		return errors.New(errors.ErrCodeInvalidMaterial, "material %q is already defined", m.Name)
	}
	c.custom = append(c.custom, m)
	return nil
}

// Lookup finds a preset or custom material by name, ignoring case.
func (c *Catalog) Lookup(name string) (Material, bool) {
	if m, ok := Preset(name); ok {
		return m, true
	}
	for _, m := range c.custom {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Material{}, false
}

// Entry is a catalog listing row.
type Entry struct {
	Material
	Preset bool
}

// All lists presets first, then custom materials sorted by name.
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(presets)+len(c.custom))
	for _, m := range presets {
		out = append(out, Entry{Material: m, Preset: true})
	}
	custom := append([]Material(nil), c.custom...)
	sort.Slice(custom, func(i, j int) bool {
		return strings.ToLower(custom[i].Name) < strings.ToLower(custom[j].Name)
	})
	for _, m := range custom {
		out = append(out, Entry{Material: m})
	}
	return out
}
