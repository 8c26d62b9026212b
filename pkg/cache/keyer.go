package cache

import "github.com/quantfocus/semsim/pkg/params"

// Keyer builds cache keys.
type Keyer interface {
	// GridKey identifies the engine output for p produced by the named
	// engine.
	GridKey(engine string, p params.Set) string
}

// DefaultKeyer produces unprefixed keys of the form grid:<sha256>.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GridKey hashes the engine identity together with the canonical metadata
// records of p, so two sets that export identical metadata share a key.
func (DefaultKeyer) GridKey(engine string, p params.Set) string {
	parts := []string{engine}
	for _, r := range p.Metadata() {
		parts = append(parts, r.Key, r.Value)
	}
	return hashKey("grid", parts...)
}

var _ Keyer = DefaultKeyer{}
