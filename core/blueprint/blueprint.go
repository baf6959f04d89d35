// Package blueprint builds entity trees from declarative YAML or JSON
// documents, resolving component type names through the component
// registry.
package blueprint

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/entikit/entikit/core/component"
	"github.com/entikit/entikit/core/entity"
)

// Document is the root of a blueprint.
type Document struct {
	Root *NodeSpec `json:"root" yaml:"root"`
}

// NodeSpec describes one entity: its id, optional flag overrides, the
// component types to attach, and its children.
type NodeSpec struct {
	ID         string      `json:"id" yaml:"id"`
	Enabled    *bool       `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Visible    *bool       `json:"visible,omitempty" yaml:"visible,omitempty"`
	Components []string    `json:"components,omitempty" yaml:"components,omitempty"`
	Children   []*NodeSpec `json:"children,omitempty" yaml:"children,omitempty"`
}

// LoadYAML reads a blueprint document from YAML.
func LoadYAML(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("blueprint: %w", err)
	}
	return &d, nil
}

// LoadJSON reads a blueprint document from JSON.
func LoadJSON(r io.Reader) (*Document, error) {
	var d Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("blueprint: %w", err)
	}
	return &d, nil
}

// Build constructs the entity tree the document describes. Unlike the
// XML loader, an unknown component type fails the build: blueprints are
// authored against the registered component set, not round-tripped.
func (d *Document) Build(reg *component.Registry) (*entity.Entity, error) {
	if d.Root == nil {
		return nil, fmt.Errorf("blueprint: document has no root node")
	}
	if reg == nil {
		reg = component.Default()
	}
	return buildNode(d.Root, reg)
}

func buildNode(spec *NodeSpec, reg *component.Registry) (*entity.Entity, error) {
	e := entity.NewWith(spec.ID, reg, nil)
	if spec.Enabled != nil {
		e.SetEnabled(*spec.Enabled)
	}
	if spec.Visible != nil {
		e.SetVisible(*spec.Visible)
	}
	for _, name := range spec.Components {
		if e.Components().Contains(name) {
			continue // pulled in earlier as a requirement
		}
		c, ok := reg.Create(name)
		if !ok {
			return nil, fmt.Errorf("blueprint: unknown component type %q on %q",
				name, e.ID())
		}
		if !e.Components().Add(c, false) {
			return nil, fmt.Errorf("blueprint: cannot add component %q to %q",
				name, e.ID())
		}
	}
	for _, childSpec := range spec.Children {
		child, err := buildNode(childSpec, reg)
		if err != nil {
			return nil, err
		}
		if !e.AddChild(child, false) {
			return nil, fmt.Errorf("blueprint: duplicate child id %q under %q",
				child.ID(), e.ID())
		}
	}
	return e, nil
}
