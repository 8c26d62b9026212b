package cache

import "github.com/quantfocus/semsim/pkg/params"

// ScopedKeyer wraps a Keyer with a prefix so several projects can share
// one backend without their entries colliding.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "lab-a:")
//	k.GridKey("synthetic:42", p) // "lab-a:grid:..."
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GridKey returns the prefixed grid key.
func (k *ScopedKeyer) GridKey(engine string, p params.Set) string {
	return k.prefix + k.inner.GridKey(engine, p)
}
