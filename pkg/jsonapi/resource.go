package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Resource is a single JSON:API resource object. Attributes stay raw until a
// caller decodes them into a typed model; Relationships carry references
// only and are never fetched implicitly.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    json.RawMessage         `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Meta          json.RawMessage         `json:"meta,omitempty"`
}

// UnmarshalAttributes decodes the raw attributes into v. Resources without
// attributes (relationship stubs) leave v untouched.
func (r *Resource) UnmarshalAttributes(v any) error {
	if len(r.Attributes) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Attributes, v); err != nil {
		return fmt.Errorf("decode %s attributes: %w", r.Type, err)
	}
	return nil
}

// Relationship returns the named relationship and whether it is present.
func (r *Resource) Relationship(name string) (Relationship, bool) {
	rel, ok := r.Relationships[name]
	return rel, ok
}

// Ref identifies a related resource by type and id.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship holds the raw data member of a resource relationship.
// It may reference one resource, many, or none.
type Relationship struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// Ref returns the single reference of a to-one relationship. The second
// return is false for empty and to-many relationships.
func (rel Relationship) Ref() (Ref, bool) {
	trimmed := bytes.TrimSpace(rel.Data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Ref{}, false
	}
	var ref Ref
	if err := json.Unmarshal(trimmed, &ref); err != nil || ref.Type == "" {
		return Ref{}, false
	}
	return ref, true
}

// Refs returns all references of a relationship. To-one relationships yield
// a single-element slice, empty relationships yield nil.
func (rel Relationship) Refs() []Ref {
	trimmed := bytes.TrimSpace(rel.Data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '[':
		var refs []Ref
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return nil
		}
		return refs
	case '{':
		if ref, ok := rel.Ref(); ok {
			return []Ref{ref}
		}
	}
	return nil
}
