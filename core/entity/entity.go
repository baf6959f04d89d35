package entity

import (
	"bytes"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/entikit/entikit/core/component"
	"github.com/entikit/entikit/core/graphics"
	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/pkg/generic"
)

// Entity is a tree node that owns a component stack and cascades
// update, draw, and disposal into its children. The stack's owner
// back-reference is re-asserted on every pass rather than trusted from
// construction time.
type Entity struct {
	Node[*Entity]
	log    log.Log
	stack  *component.Stack
	target graphics.Target
}

func assertTreeNode[T TreeNode[T]]() {}

var _ = assertTreeNode[*Entity]

// New creates a detached entity bound to the default component registry.
func New(id string) *Entity {
	return NewWith(id, nil, nil)
}

// NewWith creates a detached entity bound to reg (the default registry
// when nil).
func NewWith(id string, reg *component.Registry, l log.Log) *Entity {
	if l == nil {
		l = log.Provide()
	}
	e := &Entity{log: l}
	e.Node = NewNode(id, e, l)
	e.stack = component.NewStack(reg, e, l)
	return e
}

// Components returns the entity's component stack.
func (e *Entity) Components() *component.Stack {
	return e.stack
}

// Target returns the rendering target the entity draws into.
func (e *Entity) Target() graphics.Target {
	return e.target
}

// SetTarget assigns the rendering target and propagates it to every
// descendant immediately.
func (e *Entity) SetTarget(t graphics.Target) {
	e.target = t
	for _, c := range e.AllChildren() {
		c.target = t
	}
}

// Update ticks the entity's own stack first, then its children, when
// the entity is enabled.
func (e *Entity) Update(dt time.Duration) {
	if !e.Enabled() {
		return
	}
	e.stack.SetOwner(e)
	e.stack.Update(dt)
	for _, c := range e.Children() {
		c.Update(dt)
	}
}

// Draw renders the entity's own stack first, then its children, when
// the entity is visible.
func (e *Entity) Draw(state graphics.State) {
	if !e.Visible() {
		return
	}
	e.stack.SetOwner(e)
	e.stack.Draw(e.target, state)
	for _, c := range e.Children() {
		c.Draw(state)
	}
}

// Dispose destroys the entity's stack and every child.
func (e *Entity) Dispose() {
	e.stack.SetOwner(e)
	e.stack.Dispose()
	e.DisposeChildren()
	e.target = nil
}

// Clone returns a detached deep copy: the component stack is cloned
// component by component and every child is cloned recursively. The
// clone is never attached anywhere; re-attaching is the caller's
// explicit decision.
func (e *Entity) Clone() *Entity {
	out := NewWith(e.ID(), e.stack.Registry(), e.log)
	out.SetEnabled(e.Enabled())
	out.SetVisible(e.Visible())
	out.target = e.target
	out.stack = e.stack.Clone()
	out.stack.SetOwner(out)
	for _, c := range e.Children() {
		out.AddChild(c.Clone(), false)
	}
	return out
}

var fingerprintBuffers = generic.NewPool(func() *bytes.Buffer {
	return new(bytes.Buffer)
})

// Fingerprint returns a content hash of the entity's binary encoding.
// Equal fingerprints mean byte-identical structure, flags, and
// component payloads across the whole subtree.
func (e *Entity) Fingerprint() uint64 {
	buf := fingerprintBuffers.Get()
	defer func() {
		buf.Reset()
		fingerprintBuffers.Put(buf)
	}()
	if err := e.Save(buf); err != nil {
		e.log.Error("entity: fingerprint encoding failed",
			log.String("id", e.ID()), log.Error(err))
		return 0
	}
	return xxhash.Sum64(buf.Bytes())
}
