package document

import "maps"

// Namespace maps var keys to the values they are substituted with.
type Namespace map[string]string

// Clone returns an independent copy of ns. Cloning a nil Namespace yields an
// empty, non-nil one.
func (ns Namespace) Clone() Namespace {
	out := make(Namespace, len(ns))
	maps.Copy(out, ns)
	return out
}
