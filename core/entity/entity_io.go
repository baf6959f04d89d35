package entity

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/entikit/entikit/pkg/binio"
)

// Binary layout per entity: enabled and visible flags, the component
// stack, then the tree section (id, child count, each child's full
// recursive encoding).

func (e *Entity) EncodeBinary(w *binio.Writer) error {
	w.WriteBool(e.Enabled())
	w.WriteBool(e.Visible())
	if err := e.stack.EncodeBinary(w); err != nil {
		return err
	}
	return e.EncodeTree(w, func(c *Entity, w *binio.Writer) error {
		return c.EncodeBinary(w)
	})
}

func (e *Entity) DecodeBinary(r *binio.Reader) error {
	e.SetEnabled(r.ReadBool())
	e.SetVisible(r.ReadBool())
	if err := r.Err(); err != nil {
		return err
	}
	if err := e.stack.DecodeBinary(r); err != nil {
		return err
	}
	return e.DecodeTree(r,
		func() *Entity { return NewWith("", e.stack.Registry(), e.log) },
		func(c *Entity, r *binio.Reader) error {
			return c.DecodeBinary(r)
		})
}

// Save writes the entity's full binary encoding to w.
func (e *Entity) Save(w io.Writer) error {
	bw := binio.NewWriter(w)
	if err := e.EncodeBinary(bw); err != nil {
		return err
	}
	return bw.Err()
}

// Load replaces the entity's state from the binary encoding in r. A
// failed load leaves the entity partially mutated; discard it.
func (e *Entity) Load(r io.Reader) error {
	return e.DecodeBinary(binio.NewReader(r))
}

// SaveFile writes the binary encoding to path.
func (e *Entity) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("entity: save %s: %w", path, err)
	}
	if err := e.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("entity: save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("entity: save %s: %w", path, err)
	}
	return nil
}

// LoadFile replaces the entity's state from the binary file at path.
func (e *Entity) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("entity: load %s: %w", path, err)
	}
	defer f.Close()
	if err := e.Load(f); err != nil {
		return fmt.Errorf("entity: load %s: %w", path, err)
	}
	return nil
}

const (
	xmlEntityElement   = "Entity"
	xmlComponentsChild = "Components"
	xmlChildrenChild   = "Children"
)

// EncodeXML emits the entity as an element carrying ID/Enabled/Visible
// attributes, a Components wrapper when the stack is non-empty, and a
// Children wrapper when the entity has children.
func (e *Entity) EncodeXML(enc *xml.Encoder) error {
	start := xml.StartElement{
		Name: xml.Name{Local: xmlEntityElement},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "ID"}, Value: e.ID()},
			{Name: xml.Name{Local: "Enabled"}, Value: strconv.FormatBool(e.Enabled())},
			{Name: xml.Name{Local: "Visible"}, Value: strconv.FormatBool(e.Visible())},
		},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.stack.Len() > 0 {
		comps := xml.StartElement{Name: xml.Name{Local: xmlComponentsChild}}
		if err := enc.EncodeToken(comps); err != nil {
			return err
		}
		if err := e.stack.EncodeXML(enc); err != nil {
			return err
		}
		if err := enc.EncodeToken(comps.End()); err != nil {
			return err
		}
	}
	if e.ChildCount() > 0 {
		children := xml.StartElement{Name: xml.Name{Local: xmlChildrenChild}}
		if err := enc.EncodeToken(children); err != nil {
			return err
		}
		for _, c := range e.Children() {
			if err := c.EncodeXML(enc); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(children.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// decodeXMLElement loads the entity from an already-consumed start
// element. The ID attribute is required; Enabled and Visible default to
// true when absent and fail the load when present but unparsable.
func (e *Entity) decodeXMLElement(dec *xml.Decoder, start xml.StartElement) error {
	e.SetEnabled(true)
	e.SetVisible(true)
	hasID := false
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "ID":
			e.SetID(a.Value)
			hasID = true
		case "Enabled":
			v, err := strconv.ParseBool(a.Value)
			if err != nil {
				return fmt.Errorf("entity: bad Enabled attribute %q: %w", a.Value, err)
			}
			e.SetEnabled(v)
		case "Visible":
			v, err := strconv.ParseBool(a.Value)
			if err != nil {
				return fmt.Errorf("entity: bad Visible attribute %q: %w", a.Value, err)
			}
			e.SetVisible(v)
		}
	}
	if !hasID {
		return fmt.Errorf("entity: element %s missing ID attribute", start.Name.Local)
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case xmlComponentsChild:
				if err := e.stack.DecodeXML(dec); err != nil {
					return err
				}
			case xmlChildrenChild:
				if err := e.decodeXMLChildren(dec); err != nil {
					return err
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// decodeXMLChildren consumes the Children wrapper, rebuilding each
// child entity and attaching it through AddChild. The first failure
// aborts the load.
func (e *Entity) decodeXMLChildren(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child := NewWith("", e.stack.Registry(), e.log)
			if err := child.decodeXMLElement(dec, t); err != nil {
				return err
			}
			if !e.AddChild(child, true) {
				return fmt.Errorf("entity: failed to attach loaded child %q", child.ID())
			}
		case xml.EndElement:
			return nil
		}
	}
}

// SaveXML writes the entity tree as an XML document to w.
func (e *Entity) SaveXML(w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := e.EncodeXML(enc); err != nil {
		return err
	}
	return enc.Flush()
}

// LoadXML replaces the entity's state from the first element of the XML
// document in r.
func (e *Entity) LoadXML(r io.Reader) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("entity: document has no element")
			}
			return err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return e.decodeXMLElement(dec, start)
		}
	}
}

// SaveFileXML writes the XML document to path.
func (e *Entity) SaveFileXML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("entity: save %s: %w", path, err)
	}
	if err := e.SaveXML(f); err != nil {
		f.Close()
		return fmt.Errorf("entity: save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("entity: save %s: %w", path, err)
	}
	return nil
}

// LoadFileXML replaces the entity's state from the XML file at path.
func (e *Entity) LoadFileXML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("entity: load %s: %w", path, err)
	}
	defer f.Close()
	if err := e.LoadXML(f); err != nil {
		return fmt.Errorf("entity: load %s: %w", path, err)
	}
	return nil
}
