// Package entity implements the identifiable, enable/visible-gated tree
// the framework hangs everything on: a generic parent/owned-children
// node and the Entity specialization that carries a component stack.
package entity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/entikit/entikit/core/ident"
	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/pkg/binio"
)

// TreeNode constrains the self-referential node type a Node is generic
// over. Pointer node types satisfy it by embedding Node[T] (which
// provides Tree) and implementing Dispose.
type TreeNode[T comparable] interface {
	comparable
	Tree() *Node[T]
	Dispose()
}

// tree returns v's embedded Node. Node's own constraint cannot name
// TreeNode without forming an invalid recursive type, so the access
// goes through an interface assertion instead.
func tree[T comparable](v T) *Node[T] {
	return any(v).(interface{ Tree() *Node[T] }).Tree()
}

// dispose invokes v's Dispose; see tree for why this is an assertion.
func dispose[T comparable](v T) {
	any(v).(interface{ Dispose() }).Dispose()
}

// Node is a generic parent/owned-children container. Ownership flows
// parent to child only: the parent field is a non-owning back-reference
// and a node is attached to at most one parent at a time. Mutation is
// single-threaded by contract.
type Node[T comparable] struct {
	log      log.Log
	id       string
	disabled bool
	hidden   bool
	self     T
	parent   T
	children []T
}

// NewNode initializes a node for self, coercing id into a valid
// identifier. Embedders assign the result to their embedded field.
func NewNode[T TreeNode[T]](id string, self T, l log.Log) Node[T] {
	if l == nil {
		l = log.Provide()
	}
	return Node[T]{log: l, id: ident.AsValidID(id), self: self}
}

// Tree returns the node itself; it satisfies TreeNode for embedders.
func (n *Node[T]) Tree() *Node[T] { return n }

func (n *Node[T]) ID() string { return n.id }

// SetID replaces the node's identifier, coercing invalid input.
func (n *Node[T]) SetID(id string) { n.id = ident.AsValidID(id) }

func (n *Node[T]) Enabled() bool     { return !n.disabled }
func (n *Node[T]) SetEnabled(v bool) { n.disabled = !v }
func (n *Node[T]) Visible() bool     { return !n.hidden }
func (n *Node[T]) SetVisible(v bool) { n.hidden = !v }

// Self returns the concrete node this Node is embedded in.
func (n *Node[T]) Self() T { return n.self }

// Parent returns the parent node, the zero value when detached.
func (n *Node[T]) Parent() T { return n.parent }

// HasParent reports whether the node is attached to a parent.
func (n *Node[T]) HasParent() bool {
	var zero T
	return n.parent != zero
}

// Root walks the parent chain to the top of the tree.
func (n *Node[T]) Root() T {
	var zero T
	node := n.self
	for tree(node).parent != zero {
		node = tree(node).parent
	}
	return node
}

func (n *Node[T]) ChildCount() int { return len(n.children) }

// Children returns a copy of the ordered child list.
func (n *Node[T]) Children() []T {
	return slices.Clone(n.children)
}

// Child returns the child at index i.
func (n *Node[T]) Child(i int) (T, bool) {
	if i < 0 || i >= len(n.children) {
		var zero T
		return zero, false
	}
	return n.children[i], true
}

func (n *Node[T]) indexOfChild(child T) int {
	return slices.Index(n.children, child)
}

func (n *Node[T]) indexOfChildID(id string) int {
	return slices.IndexFunc(n.children, func(c T) bool {
		return tree(c).id == id
	})
}

// HasAncestor reports whether candidate appears in the node's ancestor
// chain.
func (n *Node[T]) HasAncestor(candidate T) bool {
	var zero T
	for p := n.parent; p != zero; p = tree(p).parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// AddChild attaches child to this node. A nil child, self-parenting, or
// a cycle-creating attachment is a caller bug and panics. Re-adding a
// direct child leaves the child list unchanged. A different child with
// the same id fails unless replace is true, in which case the old child
// is removed first. A child attached elsewhere is released from its
// current parent before attaching here.
func (n *Node[T]) AddChild(child T, replace bool) bool {
	var zero T
	if child == zero {
		panic("entity: AddChild called with nil child")
	}
	if child == n.self {
		panic("entity: node cannot be its own child")
	}
	if n.HasAncestor(child) {
		panic(fmt.Sprintf("entity: attaching %q under %q would create a cycle",
			tree(child).id, n.id))
	}
	if n.indexOfChild(child) >= 0 {
		return true
	}
	if i := n.indexOfChildID(tree(child).id); i >= 0 {
		if !replace {
			return log.Return(n.log, log.LevelWarn,
				"node: child id already taken", false,
				log.String("id", tree(child).id))
		}
		n.RemoveChildAt(i)
	}
	if p := tree(child).parent; p != zero {
		tree(p).releaseRef(child)
	}
	tree(child).parent = n.self
	n.children = append(n.children, child)
	return true
}

// releaseRef detaches child from the child list without disposing it.
func (n *Node[T]) releaseRef(child T) {
	if i := n.indexOfChild(child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
		var zero T
		tree(child).parent = zero
	}
}

// RemoveChild disposes and removes child.
func (n *Node[T]) RemoveChild(child T) bool {
	i := n.indexOfChild(child)
	if i < 0 {
		return log.Return(n.log, log.LevelWarn,
			"node: cannot remove non-child", false, log.String("id", n.id))
	}
	return n.RemoveChildAt(i)
}

// RemoveChildAt disposes and removes the child at index i.
func (n *Node[T]) RemoveChildAt(i int) bool {
	if i < 0 || i >= len(n.children) {
		return log.Return(n.log, log.LevelWarn,
			"node: remove index out of range", false, log.Int("index", i))
	}
	child := n.children[i]
	n.children = slices.Delete(n.children, i, i+1)
	var zero T
	tree(child).parent = zero
	dispose(child)
	return true
}

// RemoveChildID disposes and removes the first child with the given id,
// searching descendants when recursive is true.
func (n *Node[T]) RemoveChildID(id string, recursive bool) bool {
	if i := n.indexOfChildID(id); i >= 0 {
		return n.RemoveChildAt(i)
	}
	if recursive {
		for _, c := range n.children {
			if tree(c).RemoveChildID(id, true) {
				return true
			}
		}
	}
	return false
}

// ReleaseChild detaches child without disposing it and returns it;
// ownership transfers to the caller.
func (n *Node[T]) ReleaseChild(child T) (T, bool) {
	i := n.indexOfChild(child)
	if i < 0 {
		var zero T
		return zero, false
	}
	return n.ReleaseChildAt(i)
}

// ReleaseChildAt detaches and returns the child at index i.
func (n *Node[T]) ReleaseChildAt(i int) (T, bool) {
	if i < 0 || i >= len(n.children) {
		var zero T
		return log.Return(n.log, log.LevelWarn,
			"node: release index out of range", zero, log.Int("index", i)), false
	}
	child := n.children[i]
	n.children = slices.Delete(n.children, i, i+1)
	var zero T
	tree(child).parent = zero
	return child, true
}

// ReleaseChildID detaches and returns the first child with the given
// id, searching descendants when recursive is true.
func (n *Node[T]) ReleaseChildID(id string, recursive bool) (T, bool) {
	if i := n.indexOfChildID(id); i >= 0 {
		return n.ReleaseChildAt(i)
	}
	if recursive {
		for _, c := range n.children {
			if released, ok := tree(c).ReleaseChildID(id, true); ok {
				return released, true
			}
		}
	}
	var zero T
	return zero, false
}

// HasChild reports whether a child with the given id exists, searching
// descendants when recursive is true.
func (n *Node[T]) HasChild(id string, recursive bool) bool {
	_, ok := n.ChildByID(id, recursive)
	return ok
}

// ChildByID returns the first child with the given id. Lookups match
// the first structural hit along the searched order; ids need not be
// globally unique.
func (n *Node[T]) ChildByID(id string, recursive bool) (T, bool) {
	if i := n.indexOfChildID(id); i >= 0 {
		return n.children[i], true
	}
	if recursive {
		for _, c := range n.children {
			if found, ok := tree(c).ChildByID(id, true); ok {
				return found, true
			}
		}
	}
	var zero T
	return zero, false
}

// ChildPath resolves a '/'-delimited id path by recursing into the
// named immediate child for each segment. Any segment that fails to
// resolve, including an empty segment from doubled or trailing slashes,
// fails the whole lookup.
func (n *Node[T]) ChildPath(path string) (T, bool) {
	var zero T
	head, rest, hasRest := strings.Cut(path, "/")
	if head == "" {
		return log.Return(n.log, log.LevelWarn,
			"node: empty path segment", zero, log.String("path", path)), false
	}
	child, ok := n.ChildByID(head, false)
	if !ok {
		return zero, false
	}
	if !hasRest {
		return child, true
	}
	return tree(child).ChildPath(rest)
}

// HasChildPath reports whether the full path resolves.
func (n *Node[T]) HasChildPath(path string) bool {
	_, ok := n.ChildPath(path)
	return ok
}

// RemoveChildPath resolves the path and disposes its target.
func (n *Node[T]) RemoveChildPath(path string) bool {
	head, rest, hasRest := strings.Cut(path, "/")
	if head == "" {
		return log.Return(n.log, log.LevelWarn,
			"node: empty path segment", false, log.String("path", path))
	}
	if !hasRest {
		if i := n.indexOfChildID(head); i >= 0 {
			return n.RemoveChildAt(i)
		}
		return false
	}
	child, ok := n.ChildByID(head, false)
	if !ok {
		return false
	}
	return tree(child).RemoveChildPath(rest)
}

// ReleaseChildPath resolves the path and detaches its target.
func (n *Node[T]) ReleaseChildPath(path string) (T, bool) {
	var zero T
	head, rest, hasRest := strings.Cut(path, "/")
	if head == "" {
		return log.Return(n.log, log.LevelWarn,
			"node: empty path segment", zero, log.String("path", path)), false
	}
	if !hasRest {
		if i := n.indexOfChildID(head); i >= 0 {
			return n.ReleaseChildAt(i)
		}
		return zero, false
	}
	child, ok := n.ChildByID(head, false)
	if !ok {
		return zero, false
	}
	return tree(child).ReleaseChildPath(rest)
}

// AllChildren returns the depth-first flattening of the subtree below
// this node.
func (n *Node[T]) AllChildren() []T {
	out := make([]T, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
		out = append(out, tree(c).AllChildren()...)
	}
	return out
}

// Equal reports structural equality: same id and flags, same child
// count, and every child pairwise equal in order. Parents are compared
// by identity on neither side; equality never recurses upward.
func (n *Node[T]) Equal(o *Node[T]) bool {
	if o == nil {
		return false
	}
	if n.id != o.id || n.disabled != o.disabled || n.hidden != o.hidden {
		return false
	}
	if len(n.children) != len(o.children) {
		return false
	}
	for i := range n.children {
		if !tree(n.children[i]).Equal(tree(o.children[i])) {
			return false
		}
	}
	return true
}

// DisposeChildren disposes every child; no child survives its parent's
// disposal.
func (n *Node[T]) DisposeChildren() {
	children := n.children
	n.children = nil
	var zero T
	for _, c := range children {
		tree(c).parent = zero
		dispose(c)
	}
}

// EncodeTree writes the node's id and child count, then each child
// through enc in order.
func (n *Node[T]) EncodeTree(w *binio.Writer, enc func(T, *binio.Writer) error) error {
	w.WriteString(n.id)
	w.WriteInt32(int32(len(n.children)))
	for _, c := range n.children {
		if err := enc(c, w); err != nil {
			return err
		}
	}
	return w.Err()
}

// DecodeTree reads the id and child count, then rebuilds each child by
// constructing it with newChild, decoding it with dec, and attaching it
// through AddChild. A failure mid-list aborts the load.
func (n *Node[T]) DecodeTree(r *binio.Reader, newChild func() T, dec func(T, *binio.Reader) error) error {
	id := r.ReadString()
	count := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("node: invalid child count %d", count)
	}
	n.SetID(id)
	for i := int32(0); i < count; i++ {
		child := newChild()
		if err := dec(child, r); err != nil {
			return err
		}
		if !n.AddChild(child, true) {
			return fmt.Errorf("node: failed to attach loaded child %q", tree(child).id)
		}
	}
	return r.Err()
}
