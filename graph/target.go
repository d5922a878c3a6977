package graph

import (
	"maps"

	"github.com/kbukum/assetgraph/util"
)

// DefaultTarget is the fallback key of per-target settings.
const DefaultTarget = "default"

// PerTarget holds a value per build target. The DefaultTarget entry applies
// to every target without its own entry.
type PerTarget[T any] map[string]T

// Uniform returns a PerTarget with only a default value.
func Uniform[T any](v T) PerTarget[T] {
	return PerTarget[T]{DefaultTarget: v}
}

// Get returns the value for target, falling back to DefaultTarget and then
// to the zero value.
func (p PerTarget[T]) Get(target string) T {
	if v, ok := p[target]; ok {
		return v
	}
	return p[DefaultTarget]
}

// Has reports whether target has its own entry.
func (p PerTarget[T]) Has(target string) bool {
	_, ok := p[target]
	return ok
}

// Set stores v for target and returns the map, allocating it when nil.
func (p PerTarget[T]) Set(target string, v T) PerTarget[T] {
	if p == nil {
		p = PerTarget[T]{}
	}
	if target == "" {
		target = DefaultTarget
	}
	p[target] = v
	return p
}

// Clone returns a shallow copy.
func (p PerTarget[T]) Clone() PerTarget[T] {
	return maps.Clone(p)
}

// Targets returns the targets with an entry, sorted.
func (p PerTarget[T]) Targets() []string {
	return util.SortedKeys(p)
}
