package component

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entikit/entikit/core/graphics"
	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/pkg/binio"
)

// Test component family: Size is standalone, Scale requires Size, Chain
// requires Scale (two-level dependency), Ghost and Solid are mutually
// incompatible, and Ticker counts update/draw/dispose calls.

type SizeComponent struct {
	Base
	Width  float64
	Height float64
}

func newSizeComponent() Component {
	return &SizeComponent{Width: 100, Height: 100}
}

func (c *SizeComponent) TypeName() string { return "SizeComponent" }

func (c *SizeComponent) Clone() Component {
	return &SizeComponent{Base: c.CloneBase(), Width: c.Width, Height: c.Height}
}

func (c *SizeComponent) EncodeBinary(w *binio.Writer) error {
	if err := c.Base.EncodeBinary(w); err != nil {
		return err
	}
	w.WriteFloat64(c.Width)
	w.WriteFloat64(c.Height)
	return w.Err()
}

func (c *SizeComponent) DecodeBinary(r *binio.Reader) error {
	if err := c.Base.DecodeBinary(r); err != nil {
		return err
	}
	c.Width = r.ReadFloat64()
	c.Height = r.ReadFloat64()
	return r.Err()
}

func (c *SizeComponent) XMLAttrs() []xml.Attr {
	return append(c.Base.XMLAttrs(),
		xml.Attr{Name: xml.Name{Local: "Width"}, Value: strconv.FormatFloat(c.Width, 'g', -1, 64)},
		xml.Attr{Name: xml.Name{Local: "Height"}, Value: strconv.FormatFloat(c.Height, 'g', -1, 64)},
	)
}

func (c *SizeComponent) ApplyXMLAttrs(attrs []xml.Attr) error {
	if err := c.Base.ApplyXMLAttrs(attrs); err != nil {
		return err
	}
	for _, a := range attrs {
		switch a.Name.Local {
		case "Width":
			v, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return fmt.Errorf("bad Width attribute %q: %w", a.Value, err)
			}
			c.Width = v
		case "Height":
			v, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return fmt.Errorf("bad Height attribute %q: %w", a.Value, err)
			}
			c.Height = v
		}
	}
	return nil
}

type ScaleComponent struct {
	Base
	Scale float64
}

func newScaleComponent() Component {
	return &ScaleComponent{Scale: 1}
}

func (c *ScaleComponent) TypeName() string   { return "ScaleComponent" }
func (c *ScaleComponent) Required() []string { return []string{"SizeComponent"} }

func (c *ScaleComponent) Clone() Component {
	return &ScaleComponent{Base: c.CloneBase(), Scale: c.Scale}
}

func (c *ScaleComponent) EncodeBinary(w *binio.Writer) error {
	if err := c.Base.EncodeBinary(w); err != nil {
		return err
	}
	w.WriteFloat64(c.Scale)
	return w.Err()
}

func (c *ScaleComponent) DecodeBinary(r *binio.Reader) error {
	if err := c.Base.DecodeBinary(r); err != nil {
		return err
	}
	c.Scale = r.ReadFloat64()
	return r.Err()
}

func (c *ScaleComponent) XMLAttrs() []xml.Attr {
	return append(c.Base.XMLAttrs(),
		xml.Attr{Name: xml.Name{Local: "Scale"}, Value: strconv.FormatFloat(c.Scale, 'g', -1, 64)},
	)
}

func (c *ScaleComponent) ApplyXMLAttrs(attrs []xml.Attr) error {
	if err := c.Base.ApplyXMLAttrs(attrs); err != nil {
		return err
	}
	for _, a := range attrs {
		if a.Name.Local == "Scale" {
			v, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return fmt.Errorf("bad Scale attribute %q: %w", a.Value, err)
			}
			c.Scale = v
		}
	}
	return nil
}

type ChainComponent struct {
	Base
}

func (c *ChainComponent) TypeName() string   { return "ChainComponent" }
func (c *ChainComponent) Required() []string { return []string{"ScaleComponent"} }
func (c *ChainComponent) Clone() Component   { return &ChainComponent{Base: c.CloneBase()} }

type GhostComponent struct {
	Base
}

func (c *GhostComponent) TypeName() string       { return "GhostComponent" }
func (c *GhostComponent) Incompatible() []string { return []string{"SolidComponent"} }
func (c *GhostComponent) Clone() Component       { return &GhostComponent{Base: c.CloneBase()} }

type SolidComponent struct {
	Base
}

func (c *SolidComponent) TypeName() string { return "SolidComponent" }
func (c *SolidComponent) Clone() Component { return &SolidComponent{Base: c.CloneBase()} }

type TickerComponent struct {
	Base
	Updates  int
	Draws    int
	Disposed bool
}

func (c *TickerComponent) TypeName() string { return "TickerComponent" }

func (c *TickerComponent) Update(time.Duration) { c.Updates++ }

func (c *TickerComponent) Draw(graphics.Target, graphics.State) { c.Draws++ }

func (c *TickerComponent) Dispose() {
	c.Disposed = true
	c.Base.Dispose()
}

func (c *TickerComponent) Clone() Component {
	return &TickerComponent{Base: c.CloneBase()}
}

// newTestRegistry builds a fresh registry with the full test family so
// tests never share the process-wide default.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(log.Nop())
	require.True(t, reg.RegisterFactory(newSizeComponent, true))
	require.True(t, reg.RegisterFactory(newScaleComponent, true))
	require.True(t, Register[ChainComponent](reg, true))
	require.True(t, Register[GhostComponent](reg, true))
	require.True(t, Register[SolidComponent](reg, true))
	require.True(t, Register[TickerComponent](reg, true))
	return reg
}

type fakeOwner struct {
	id string
}

func (o *fakeOwner) ID() string { return o.id }

func newTestStack(t *testing.T) (*Stack, *Registry) {
	t.Helper()
	reg := newTestRegistry(t)
	return NewStack(reg, &fakeOwner{id: "owner"}, log.Nop()), reg
}
