package component

import (
	"reflect"
	"sync"

	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/core/registry"
)

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Registry specializes the generic type registry for the component
// family. Each component's self-reported TypeName is its id, read from
// a throwaway instance at registration time.
type Registry struct {
	log   log.Log
	types *registry.Registry[Component]
	names map[reflect.Type]string
}

func NewRegistry(l log.Log) *Registry {
	if l == nil {
		l = log.Provide()
	}
	return &Registry{
		log:   l,
		types: registry.New[Component](l),
		names: make(map[reflect.Type]string),
	}
}

// Default returns the process-wide registry, constructed lazily. Only
// first-time construction is guarded; concurrent Register/Create calls
// must be serialized by the caller.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// RegisterFactory registers the component type produced by factory. A
// throwaway instance is constructed to read its TypeName and disposed
// immediately. Existing mappings survive unless replace is true.
func (r *Registry) RegisterFactory(factory func() Component, replace bool) bool {
	if factory == nil {
		return log.Return(r.log, log.LevelWarn,
			"component registry: nil factory", false)
	}
	probe := factory()
	if probe == nil {
		return log.Return(r.log, log.LevelWarn,
			"component registry: factory produced nil component", false)
	}
	name := probe.TypeName()
	goType := reflect.TypeOf(probe)
	probe.Dispose()

	if !r.types.Register(name, registry.Factory[Component](factory), replace) {
		return false
	}
	r.names[goType] = name
	return true
}

// componentPtr constrains P to a pointer to T implementing Component.
type componentPtr[T any] interface {
	*T
	Component
}

// Register registers T using its zero value as the default
// construction. Components whose defaults are not the zero value
// register through RegisterFactory instead.
func Register[T any, P componentPtr[T]](r *Registry, replace bool) bool {
	return r.RegisterFactory(func() Component { return P(new(T)) }, replace)
}

// Registered reports whether a component type named name is known.
func (r *Registry) Registered(name string) bool {
	return r.types.Registered(name)
}

// Create instantiates a fresh component of the named type.
func (r *Registry) Create(name string) (Component, bool) {
	return r.types.Create(name)
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	return r.types.IDs()
}

// NameOf resolves a concrete component value to its registered type name.
func (r *Registry) NameOf(c Component) (string, bool) {
	if c == nil {
		return "", false
	}
	name, ok := r.names[reflect.TypeOf(c)]
	return name, ok
}

// NameFor resolves the Go type T to its registered type name, false if
// T was never registered.
func NameFor[T Component](r *Registry) (string, bool) {
	name, ok := r.names[reflect.TypeFor[T]()]
	return name, ok
}

// CreateFor instantiates a fresh T, failing if T itself was never
// registered even though the caller holds the type statically.
func CreateFor[T Component](r *Registry) (T, bool) {
	var zero T
	name, ok := NameFor[T](r)
	if !ok {
		return zero, false
	}
	c, ok := r.Create(name)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// RequiresFor reports whether c requires the component type T,
// resolving T through the registry. Unregistered T reports false.
func RequiresFor[T Component](r *Registry, c Component) bool {
	name, ok := NameFor[T](r)
	return ok && Requires(c, name)
}

// ExcludesFor reports whether c is incompatible with the component type
// T, resolving T through the registry. Unregistered T reports false.
func ExcludesFor[T Component](r *Registry, c Component) bool {
	name, ok := NameFor[T](r)
	return ok && Excludes(c, name)
}
