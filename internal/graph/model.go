// Package graph provides the blueprint graph data model for prefill.
//
// A blueprint is a single document of nodes, edges and forms. Every node
// instantiates one form (a reusable form may back several nodes), and every
// edge points from a prerequisite node to the node that depends on it.
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Blueprint is the raw graph document supplied by a graph data source.
type Blueprint struct {
	// ID is the blueprint identifier (e.g. "bp_456").
	ID string `json:"id" yaml:"id"`

	// TenantID is the tenant owning the blueprint.
	TenantID string `json:"tenant_id" yaml:"tenant_id"`

	// Name is the display name of the blueprint.
	Name string `json:"name" yaml:"name"`

	// Description is free-form text.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Nodes are the form instances of the workflow.
	Nodes []Node `json:"nodes" yaml:"nodes"`

	// Edges are derived from node prerequisites: (prerequisite, dependent).
	Edges []Edge `json:"edges" yaml:"edges"`

	// Forms are the field schemas nodes refer to by component id.
	Forms []Form `json:"forms" yaml:"forms"`
}

// Node is a vertex of the blueprint graph instantiating one form.
type Node struct {
	// ID is the graph-local identity of the node.
	ID string `json:"id" yaml:"id"`

	// Type is the node kind, "form" for every node this package cares about.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Data carries the component binding and the prerequisites.
	Data NodeData `json:"data" yaml:"data"`
}

// NodeData is the payload of a node.
type NodeData struct {
	ID            string   `json:"id,omitempty" yaml:"id,omitempty"`
	ComponentKey  string   `json:"component_key,omitempty" yaml:"component_key,omitempty"`
	ComponentType string   `json:"component_type,omitempty" yaml:"component_type,omitempty"`
	ComponentID   string   `json:"component_id" yaml:"component_id"`
	Name          string   `json:"name" yaml:"name"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
}

// ComponentID returns the id of the form the node instantiates.
func (n Node) ComponentID() string {
	return n.Data.ComponentID
}

// Prerequisites returns the ordered ids of the node's predecessors.
func (n Node) Prerequisites() []string {
	return n.Data.Prerequisites
}

// Edge is a directed edge meaning Source is a prerequisite of Target.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Form is a reusable field-schema definition.
type Form struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	IsReusable  bool        `json:"is_reusable" yaml:"is_reusable"`
	FieldSchema FieldSchema `json:"field_schema" yaml:"field_schema"`
}

// Fields returns the form's field definitions in declaration order.
func (f Form) Fields() Properties {
	return f.FieldSchema.Properties
}

// FieldSchema is the JSON-schema-like description of a form's inputs.
type FieldSchema struct {
	Type       string     `json:"type,omitempty" yaml:"type,omitempty"`
	Properties Properties `json:"properties" yaml:"properties"`
	Required   []string   `json:"required,omitempty" yaml:"required,omitempty"`
}

// FieldDefinition describes a single form field.
type FieldDefinition struct {
	AvantosType string `json:"avantos_type,omitempty" yaml:"avantos_type,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TypeTag returns the semantic type of the field, falling back to the
// schema type when no semantic tag is declared.
func (d FieldDefinition) TypeTag() string {
	if d.AvantosType != "" {
		return d.AvantosType
	}
	return d.Type
}

// Property is one named field of a schema.
type Property struct {
	ID         string
	Definition FieldDefinition
}

// Properties is an ordered field-id to definition mapping. Keys are unique;
// decoding keeps the order in which keys appear in the document.
type Properties []Property

// Get returns the definition for a field id.
func (p Properties) Get(fieldID string) (FieldDefinition, bool) {
	for _, prop := range p {
		if prop.ID == fieldID {
			return prop.Definition, true
		}
	}
	return FieldDefinition{}, false
}

// Map returns the properties as an unordered map.
func (p Properties) Map() map[string]FieldDefinition {
	out := make(map[string]FieldDefinition, len(p))
	for _, prop := range p {
		out[prop.ID] = prop.Definition
	}
	return out
}

// set inserts a property or, for a repeated key, replaces the earlier value
// in place. This mirrors how a JSON object decoded into a map behaves.
func (p Properties) set(id string, def FieldDefinition) Properties {
	for i := range p {
		if p[i].ID == id {
			p[i].Definition = def
			return p
		}
	}
	return append(p, Property{ID: id, Definition: def})
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding properties: %w", err)
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding properties: expected object, got %v", tok)
	}

	props := Properties{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding properties: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decoding properties: unexpected key %v", keyTok)
		}

		var def FieldDefinition
		if err := dec.Decode(&def); err != nil {
			return fmt.Errorf("decoding property %q: %w", key, err)
		}
		props = props.set(key, def)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding properties: %w", err)
	}

	*p = props
	return nil
}

// MarshalJSON encodes the properties as a JSON object in declaration order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(prop.Definition)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping keeping key order.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		props := Properties{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value

			var def FieldDefinition
			if err := node.Content[i+1].Decode(&def); err != nil {
				return fmt.Errorf("decoding property %q: %w", key, err)
			}
			props = props.set(key, def)
		}
		*p = props
		return nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*p = nil
			return nil
		}
	}
	return fmt.Errorf("decoding properties: expected mapping at line %d", node.Line)
}

// MarshalYAML encodes the properties as a YAML mapping in declaration order.
func (p Properties) MarshalYAML() (any, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, prop := range p {
		val := &yaml.Node{}
		if err := val.Encode(prop.Definition); err != nil {
			return nil, err
		}
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: prop.ID},
			val,
		)
	}
	return out, nil
}

// DeriveEdges builds the edge set implied by node prerequisites, in node
// order then prerequisite order.
func DeriveEdges(nodes []Node) []Edge {
	var edges []Edge
	for _, node := range nodes {
		for _, prereq := range node.Prerequisites() {
			edges = append(edges, Edge{Source: prereq, Target: node.ID})
		}
	}
	return edges
}
