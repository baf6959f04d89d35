// Package component implements the polymorphic component family: the
// Component contract, the process-wide component registry, and the
// dependency-validated Stack each entity owns.
package component

import (
	"encoding/xml"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/entikit/entikit/core/graphics"
	"github.com/entikit/entikit/pkg/binio"
)

// Component is a unit of behavior and data attached to exactly one
// entity through its Stack. Concrete variants embed Base and must
// supply TypeName (a fixed identifier, conventionally the variant's own
// name) and Clone (a fully independent deep copy).
type Component interface {
	TypeName() string

	Enabled() bool
	SetEnabled(bool)
	Visible() bool
	SetVisible(bool)

	// Required lists type names this component cannot live without;
	// Incompatible lists type names it cannot share a stack with.
	Required() []string
	Incompatible() []string

	// Stack returns the owning stack, nil while detached.
	Stack() *Stack
	setStack(*Stack)

	Update(dt time.Duration)
	Draw(target graphics.Target, state graphics.State)
	Dispose()

	Clone() Component

	EncodeBinary(w *binio.Writer) error
	DecodeBinary(r *binio.Reader) error

	XMLAttrs() []xml.Attr
	ApplyXMLAttrs(attrs []xml.Attr) error
}

// Base carries the state every component shares. The zero value is
// enabled, visible, and detached. Embedding Base is the only way to
// satisfy Component's unexported stack hook.
type Base struct {
	disabled bool
	hidden   bool
	stack    *Stack
}

func (b *Base) Enabled() bool     { return !b.disabled }
func (b *Base) SetEnabled(v bool) { b.disabled = !v }
func (b *Base) Visible() bool     { return !b.hidden }
func (b *Base) SetVisible(v bool) { b.hidden = !v }

func (b *Base) Required() []string     { return nil }
func (b *Base) Incompatible() []string { return nil }

func (b *Base) Stack() *Stack     { return b.stack }
func (b *Base) setStack(s *Stack) { b.stack = s }

func (b *Base) Update(time.Duration)                { /* stateless by default */ }
func (b *Base) Draw(graphics.Target, graphics.State) {}

func (b *Base) Dispose() {
	b.stack = nil
}

// CloneBase returns a detached copy of the shared state for concrete
// Clone implementations to embed.
func (b *Base) CloneBase() Base {
	return Base{disabled: b.disabled, hidden: b.hidden}
}

func (b *Base) EncodeBinary(w *binio.Writer) error {
	w.WriteBool(b.Enabled())
	w.WriteBool(b.Visible())
	return w.Err()
}

func (b *Base) DecodeBinary(r *binio.Reader) error {
	b.SetEnabled(r.ReadBool())
	b.SetVisible(r.ReadBool())
	return r.Err()
}

func (b *Base) XMLAttrs() []xml.Attr {
	return []xml.Attr{
		{Name: xml.Name{Local: "Enabled"}, Value: strconv.FormatBool(b.Enabled())},
		{Name: xml.Name{Local: "Visible"}, Value: strconv.FormatBool(b.Visible())},
	}
}

// ApplyXMLAttrs resets both flags to their defaults, then applies any
// Enabled/Visible attributes present. A present-but-unparsable value
// fails the whole load.
func (b *Base) ApplyXMLAttrs(attrs []xml.Attr) error {
	b.SetEnabled(true)
	b.SetVisible(true)
	for _, a := range attrs {
		switch a.Name.Local {
		case "Enabled":
			v, err := strconv.ParseBool(a.Value)
			if err != nil {
				return fmt.Errorf("component: bad Enabled attribute %q: %w", a.Value, err)
			}
			b.SetEnabled(v)
		case "Visible":
			v, err := strconv.ParseBool(a.Value)
			if err != nil {
				return fmt.Errorf("component: bad Visible attribute %q: %w", a.Value, err)
			}
			b.SetVisible(v)
		}
	}
	return nil
}

// Requires reports whether c declares name among its required types.
func Requires(c Component, name string) bool {
	return slices.Contains(c.Required(), name)
}

// Excludes reports whether c declares name among its incompatible types.
func Excludes(c Component, name string) bool {
	return slices.Contains(c.Incompatible(), name)
}

// ParentOf returns the entity owning c's stack, nil while c is
// detached. The relationship is always derived through the stack so the
// two can never disagree.
func ParentOf(c Component) Owner {
	if s := c.Stack(); s != nil {
		return s.Owner()
	}
	return nil
}
