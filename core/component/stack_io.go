package component

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/entikit/entikit/core/observability/log"
	"github.com/entikit/entikit/pkg/binio"
)

// EncodeBinary writes the component count followed by each component's
// type name and its own binary encoding, in stack order.
func (s *Stack) EncodeBinary(w *binio.Writer) error {
	w.WriteInt32(int32(len(s.comps)))
	for _, c := range s.comps {
		w.WriteString(c.TypeName())
		if err := c.EncodeBinary(w); err != nil {
			return err
		}
	}
	return w.Err()
}

// DecodeBinary reads components back in order. A type name matching an
// existing component loads into it in place; otherwise a fresh instance
// is created through the registry and added. An unregistered type name
// fails the whole load.
func (s *Stack) DecodeBinary(r *binio.Reader) error {
	count := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("stack: invalid component count %d", count)
	}
	for i := int32(0); i < count; i++ {
		name := r.ReadString()
		if err := r.Err(); err != nil {
			return err
		}
		if existing, ok := s.Get(name); ok {
			if err := existing.DecodeBinary(r); err != nil {
				return err
			}
			continue
		}
		if !s.reg.Registered(name) {
			return log.Return(s.log, log.LevelError,
				"stack: stream names unregistered component type",
				fmt.Errorf("stack: component type %q not registered", name),
				log.String("type", name))
		}
		c, ok := s.reg.Create(name)
		if !ok {
			return fmt.Errorf("stack: failed to create component %q", name)
		}
		if err := c.DecodeBinary(r); err != nil {
			return err
		}
		if !s.Add(c, false) {
			return fmt.Errorf("stack: failed to add loaded component %q", name)
		}
	}
	return r.Err()
}

// EncodeXML emits each component as a self-closing element named after
// its type, carrying the component's attributes.
func (s *Stack) EncodeXML(enc *xml.Encoder) error {
	for _, c := range s.comps {
		start := xml.StartElement{
			Name: xml.Name{Local: c.TypeName()},
			Attr: c.XMLAttrs(),
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := enc.EncodeToken(start.End()); err != nil {
			return err
		}
	}
	return nil
}

// DecodeXML clears the stack, then consumes child elements up to the
// enclosing end element. Elements the registry does not recognize are
// skipped silently; a recognized element that fails to load aborts the
// whole load.
func (s *Stack) DecodeXML(dec *xml.Decoder) error {
	s.Clear()
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if !s.reg.Registered(name) {
				s.log.Debug("stack: skipping unknown element",
					log.String("element", name))
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			// An earlier element may have pulled this type in already
			// as a requirement; load into it in place.
			if existing, ok := s.Get(name); ok {
				if err := existing.ApplyXMLAttrs(t.Attr); err != nil {
					return err
				}
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			c, ok := s.reg.Create(name)
			if !ok {
				return fmt.Errorf("stack: failed to create component %q", name)
			}
			if err := c.ApplyXMLAttrs(t.Attr); err != nil {
				return err
			}
			if err := dec.Skip(); err != nil {
				return err
			}
			if !s.Add(c, false) {
				return fmt.Errorf("stack: failed to add loaded component %q", name)
			}
		case xml.EndElement:
			return nil
		}
	}
}
