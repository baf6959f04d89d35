package component

import (
	"slices"
	"time"

	"github.com/entikit/entikit/core/graphics"
	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/pkg/sequence"
)

// Owner is the entity-side handle a stack points back at.
type Owner interface {
	ID() string
}

// Stack is the ordered, dependency-validated collection of components
// on one entity. After every successful mutation three invariants hold:
// no two components share a type name, every required type of every
// component is present, and no component's incompatible type is present.
//
// Mutation is single-threaded by contract; there is no internal locking.
type Stack struct {
	log   log.Log
	reg   *Registry
	owner Owner
	comps []Component
}

// NewStack creates an empty stack bound to reg, or the default registry
// when reg is nil.
func NewStack(reg *Registry, owner Owner, l log.Log) *Stack {
	if reg == nil {
		reg = Default()
	}
	if l == nil {
		l = log.Provide()
	}
	return &Stack{log: l, reg: reg, owner: owner}
}

func (s *Stack) Owner() Owner         { return s.owner }
func (s *Stack) SetOwner(owner Owner) { s.owner = owner }
func (s *Stack) Registry() *Registry  { return s.reg }

func (s *Stack) Len() int { return len(s.comps) }

// Components returns a copy of the ordered component list.
func (s *Stack) Components() []Component {
	return slices.Clone(s.comps)
}

// Names returns the component type names in stack order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.comps))
	for i, c := range s.comps {
		names[i] = c.TypeName()
	}
	return names
}

// At returns the component at index i, nil when out of range.
func (s *Stack) At(i int) Component {
	if i < 0 || i >= len(s.comps) {
		return nil
	}
	return s.comps[i]
}

// Index returns the position of the component named name, -1 if absent.
func (s *Stack) Index(name string) int {
	return slices.IndexFunc(s.comps, func(c Component) bool {
		return c.TypeName() == name
	})
}

func (s *Stack) indexOf(c Component) int {
	return slices.IndexFunc(s.comps, func(e Component) bool { return e == c })
}

// Contains reports whether a component named name is in the stack.
func (s *Stack) Contains(name string) bool {
	return s.Index(name) >= 0
}

// Get returns the component named name.
func (s *Stack) Get(name string) (Component, bool) {
	if i := s.Index(name); i >= 0 {
		return s.comps[i], true
	}
	return nil, false
}

// GetFrom returns the first component of concrete type T.
func GetFrom[T Component](s *Stack) (T, bool) {
	for _, c := range s.comps {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// ContainsFor reports whether the stack holds a component of concrete
// type T.
func ContainsFor[T Component](s *Stack) bool {
	_, ok := GetFrom[T](s)
	return ok
}

// nameCompatible reports whether no existing component forbids name.
func (s *Stack) nameCompatible(name string) bool {
	for _, e := range s.comps {
		if Excludes(e, name) {
			return false
		}
	}
	return true
}

// IsCompatible reports whether c could join the stack: its type must be
// registered, no existing component may forbid it, it must not forbid
// any existing component, and each of its missing required types must
// itself be registered and unforbidden. Required types are checked one
// level deep only; their own requirements are resolved during Add.
func (s *Stack) IsCompatible(c Component) bool {
	if c == nil {
		return false
	}
	name := c.TypeName()
	if !s.reg.Registered(name) {
		return log.Return(s.log, log.LevelWarn,
			"stack: component type not registered", false,
			log.String("type", name))
	}
	if !s.nameCompatible(name) {
		return log.Return(s.log, log.LevelWarn,
			"stack: component forbidden by existing component", false,
			log.String("type", name))
	}
	for _, forbidden := range c.Incompatible() {
		if s.Contains(forbidden) {
			return log.Return(s.log, log.LevelWarn,
				"stack: component forbids an existing component", false,
				log.String("type", name), log.String("incompatible", forbidden))
		}
	}
	for _, req := range c.Required() {
		if s.Contains(req) {
			continue
		}
		if !s.reg.Registered(req) {
			return log.Return(s.log, log.LevelWarn,
				"stack: required component type not registered", false,
				log.String("type", name), log.String("required", req))
		}
		if !s.nameCompatible(req) {
			return log.Return(s.log, log.LevelWarn,
				"stack: required component forbidden by existing component", false,
				log.String("type", name), log.String("required", req))
		}
	}
	return true
}

// attach appends c and points it back at the stack.
func (s *Stack) attach(c Component) {
	c.setStack(s)
	s.comps = append(s.comps, c)
}

// Add appends c to the stack. Adding a component already present by
// identity succeeds without mutation. A same-typed different component
// fails unless replace is true, in which case the old one is removed
// first (with its usual cascade). Missing required components are
// created through the registry and added after c; any failure along the
// way fails the whole Add and backs out what this call inserted.
//
// A nil component is a caller bug and panics.
func (s *Stack) Add(c Component, replace bool) bool {
	if c == nil {
		panic("component: Add called with nil component")
	}
	if s.indexOf(c) >= 0 {
		return true
	}
	if !s.IsCompatible(c) {
		return false
	}
	if i := s.Index(c.TypeName()); i >= 0 {
		if !replace {
			return log.Return(s.log, log.LevelWarn,
				"stack: component type already present", false,
				log.String("type", c.TypeName()))
		}
		s.RemoveAt(i)
	}
	s.attach(c)
	return s.addRequired(c)
}

// addRequired resolves c's missing required components, removing c (and
// anything inserted on its behalf) when resolution fails.
func (s *Stack) addRequired(c Component) bool {
	for _, req := range c.Required() {
		if s.Contains(req) {
			continue
		}
		dep, ok := s.reg.Create(req)
		if !ok || !s.Add(dep, false) {
			s.Remove(c.TypeName())
			return log.Return(s.log, log.LevelWarn,
				"stack: failed to resolve required component", false,
				log.String("type", c.TypeName()), log.String("required", req))
		}
	}
	return true
}

// Insert places c at index under the same compatibility and requirement
// rules as Add; an index at or past the end degrades to Add. Inserting
// a component already in the stack moves it to the index. Required
// components resolved during the insert are appended at the end.
func (s *Stack) Insert(index int, c Component, replace bool) bool {
	if c == nil {
		panic("component: Insert called with nil component")
	}
	if index < 0 {
		index = 0
	}
	if index >= len(s.comps) {
		return s.Add(c, replace)
	}
	if i := s.indexOf(c); i >= 0 {
		if i == index {
			return true
		}
		s.comps = slices.Delete(s.comps, i, i+1)
		if i < index {
			index--
		}
		s.comps = slices.Insert(s.comps, index, c)
		return true
	}
	if !s.IsCompatible(c) {
		return false
	}
	if i := s.Index(c.TypeName()); i >= 0 {
		if !replace {
			return log.Return(s.log, log.LevelWarn,
				"stack: component type already present", false,
				log.String("type", c.TypeName()))
		}
		s.RemoveAt(i)
		if index > len(s.comps) {
			index = len(s.comps)
		}
	}
	c.setStack(s)
	s.comps = slices.Insert(s.comps, index, c)
	return s.addRequired(c)
}

// Remove disposes and removes the component named name, then cascades
// to every remaining component that required it.
func (s *Stack) Remove(name string) bool {
	i := s.Index(name)
	if i < 0 {
		return log.Return(s.log, log.LevelWarn,
			"stack: cannot remove absent component", false,
			log.String("type", name))
	}
	return s.RemoveAt(i)
}

// RemoveAt disposes and removes the component at index i, cascading to
// its dependents.
func (s *Stack) RemoveAt(i int) bool {
	if i < 0 || i >= len(s.comps) {
		return log.Return(s.log, log.LevelWarn,
			"stack: remove index out of range", false, log.Int("index", i))
	}
	c := s.comps[i]
	s.comps = slices.Delete(s.comps, i, i+1)
	c.setStack(nil)
	c.Dispose()
	s.removeDependents(c.TypeName(), true)
	return true
}

// Release detaches and returns the component named name without
// disposing it; ownership transfers to the caller. Dependents cascade
// the same way Remove cascades, but are detached rather than disposed.
func (s *Stack) Release(name string) (Component, bool) {
	i := s.Index(name)
	if i < 0 {
		return log.Return(s.log, log.LevelWarn,
			"stack: cannot release absent component",
			Component(nil), log.String("type", name)), false
	}
	return s.ReleaseAt(i)
}

// ReleaseAt detaches and returns the component at index i.
func (s *Stack) ReleaseAt(i int) (Component, bool) {
	if i < 0 || i >= len(s.comps) {
		return log.Return(s.log, log.LevelWarn,
			"stack: release index out of range",
			Component(nil), log.Int("index", i)), false
	}
	c := s.comps[i]
	s.comps = slices.Delete(s.comps, i, i+1)
	c.setStack(nil)
	s.removeDependents(c.TypeName(), false)
	return c, true
}

// removeDependents removes (or detaches) every remaining component that
// required name. Dependents are collected first, then removed, so the
// cascade never mutates the list it is iterating.
func (s *Stack) removeDependents(name string, dispose bool) {
	dependents := sequence.From(s.comps).
		Filter(func(c Component) bool { return Requires(c, name) }).
		Collect()
	for _, d := range dependents {
		if !s.Contains(d.TypeName()) {
			continue // a deeper cascade already took it
		}
		if dispose {
			s.Remove(d.TypeName())
		} else {
			s.Release(d.TypeName())
		}
	}
}

// Update ticks every enabled component in stack order.
func (s *Stack) Update(dt time.Duration) {
	for _, c := range slices.Clone(s.comps) {
		if c.Enabled() {
			c.Update(dt)
		}
	}
}

// Draw renders every visible component in stack order.
func (s *Stack) Draw(target graphics.Target, state graphics.State) {
	for _, c := range slices.Clone(s.comps) {
		if c.Visible() {
			c.Draw(target, state)
		}
	}
}

// Clear disposes every component and empties the stack.
func (s *Stack) Clear() {
	comps := s.comps
	s.comps = nil
	for _, c := range comps {
		c.setStack(nil)
		c.Dispose()
	}
}

// Dispose releases the stack's components and detaches it from its owner.
func (s *Stack) Dispose() {
	s.Clear()
	s.owner = nil
}

// Clone deep-copies the stack: every component is cloned in order into
// a fresh detached stack sharing no mutable state with the source.
func (s *Stack) Clone() *Stack {
	out := NewStack(s.reg, nil, s.log)
	for _, c := range s.comps {
		clone := c.Clone()
		clone.setStack(out)
		out.comps = append(out.comps, clone)
	}
	return out
}
