// Package registry provides a generic string-keyed factory registry so
// polymorphic families can be created, serialized, and cloned without
// static type knowledge.
package registry

import (
	"fmt"
	"sort"

	"github.com/entikit/entikit/core/ident"
	"github.com/entikit/entikit/core/observability/log"
)

// Factory produces a fresh default-constructed instance of a registered type.
type Factory[T any] func() T

// Registry maps type ids to factories for one polymorphic family T.
// Construct it explicitly and pass it where it is needed; registration
// and creation are not safe for concurrent use and must be externally
// serialized by the caller.
type Registry[T any] struct {
	log     log.Log
	entries map[string]Factory[T]
}

func New[T any](l log.Log) *Registry[T] {
	if l == nil {
		l = log.Provide()
	}
	return &Registry[T]{
		log:     l,
		entries: make(map[string]Factory[T]),
	}
}

// Registered reports whether typeID has a mapping.
func (r *Registry[T]) Registered(typeID string) bool {
	_, ok := r.entries[typeID]
	return ok
}

// Register maps typeID to factory. An invalid id or nil factory fails.
// When a mapping already exists and replace is false the call succeeds
// without changing the old mapping; an existing type being registered
// twice is not an error.
func (r *Registry[T]) Register(typeID string, factory Factory[T], replace bool) bool {
	if factory == nil {
		return log.Return(r.log, log.LevelWarn, "registry: nil factory",
			false, log.String("type", typeID))
	}
	if !ident.IsValidID(typeID) {
		return log.Return(r.log, log.LevelWarn, "registry: invalid type id",
			false, log.String("type", typeID))
	}
	if r.Registered(typeID) && !replace {
		return true
	}
	r.entries[typeID] = factory
	return true
}

// Unregister removes the mapping for typeID, reporting whether one existed.
func (r *Registry[T]) Unregister(typeID string) bool {
	if !r.Registered(typeID) {
		return false
	}
	delete(r.entries, typeID)
	return true
}

// Create instantiates a fresh value of the type registered under typeID.
// Unregistered ids fail; a factory that panics is reported as a failed
// creation rather than propagated.
func (r *Registry[T]) Create(typeID string) (value T, ok bool) {
	factory, registered := r.entries[typeID]
	if !registered {
		var zero T
		return log.Return(r.log, log.LevelWarn, "registry: type not registered",
			zero, log.String("type", typeID)), false
	}
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			value, ok = zero, false
			r.log.Error("registry: factory panicked",
				log.String("type", typeID),
				log.Error(fmt.Errorf("%v", rec)))
		}
	}()
	return factory(), true
}

// IDs returns the registered type ids in sorted order.
func (r *Registry[T]) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered types.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}
