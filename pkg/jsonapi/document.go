// Package jsonapi parses JSON:API response documents as served by the
// BattleMetrics API. It validates the envelope shape, splits single-resource
// and collection payloads, and exposes relationship references without ever
// fetching them.
package jsonapi

import (
	"bytes"
	"encoding/json"
)

// Links holds the pagination links of a document. Next carries the full URL
// of the following page and is empty on the last page.
type Links struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
}

// Document is a parsed JSON:API top-level document. Exactly one of the data
// accessors (One, Many) matches the wire shape; Errors is populated for
// error documents.
type Document struct {
	Included []Resource
	Meta     json.RawMessage
	Links    Links
	Errors   []ErrorObject

	one    *Resource
	many   []Resource
	isMany bool
	raw    []byte
}

// ParseDocument validates and parses a raw response body into a Document.
// A body that is not a JSON object, or that carries neither a data nor an
// errors member, or whose resources lack a type, yields a
// *MalformedResponseError holding the offending payload.
func ParseDocument(payload []byte) (*Document, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(payload, &members); err != nil {
		return nil, &MalformedResponseError{
			Reason:  "body is not a JSON object",
			Payload: payload,
			Err:     err,
		}
	}

	data, hasData := members["data"]
	errs, hasErrors := members["errors"]
	if !hasData && !hasErrors {
		return nil, &MalformedResponseError{
			Reason:  "document has neither data nor errors member",
			Payload: payload,
		}
	}

	doc := &Document{raw: payload}

	if hasErrors {
		if err := json.Unmarshal(errs, &doc.Errors); err != nil {
			return nil, &MalformedResponseError{
				Reason:  "errors member is not an array of error objects",
				Payload: payload,
				Err:     err,
			}
		}
	}

	if raw, ok := members["links"]; ok {
		if err := json.Unmarshal(raw, &doc.Links); err != nil {
			return nil, &MalformedResponseError{
				Reason:  "links member is malformed",
				Payload: payload,
				Err:     err,
			}
		}
	}

	if raw, ok := members["meta"]; ok {
		doc.Meta = raw
	}

	if raw, ok := members["included"]; ok {
		if err := json.Unmarshal(raw, &doc.Included); err != nil {
			return nil, &MalformedResponseError{
				Reason:  "included member is not an array of resources",
				Payload: payload,
				Err:     err,
			}
		}
		for i := range doc.Included {
			if doc.Included[i].Type == "" {
				return nil, &MalformedResponseError{
					Reason:  "included resource is missing its type member",
					Payload: payload,
				}
			}
		}
	}

	if hasData {
		if err := doc.parseData(data); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// parseData splits the one-or-many data member. JSON null is treated as an
// empty single-resource document (empty to-one responses).
func (d *Document) parseData(data json.RawMessage) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var many []Resource
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return &MalformedResponseError{
				Reason:  "data member is not a valid resource array",
				Payload: d.raw,
				Err:     err,
			}
		}
		for i := range many {
			if many[i].Type == "" {
				return &MalformedResponseError{
					Reason:  "resource in data array is missing its type member",
					Payload: d.raw,
				}
			}
		}
		d.many = many
		d.isMany = true
	case '{':
		var one Resource
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return &MalformedResponseError{
				Reason:  "data member is not a valid resource object",
				Payload: d.raw,
				Err:     err,
			}
		}
		if one.Type == "" {
			return &MalformedResponseError{
				Reason:  "primary resource is missing its type member",
				Payload: d.raw,
			}
		}
		d.one = &one
	default:
		return &MalformedResponseError{
			Reason:  "data member is neither an object nor an array",
			Payload: d.raw,
		}
	}
	return nil
}

// One returns the primary resource of a single-resource document.
// Collection documents and documents without data yield a
// *MalformedResponseError since the caller expected exactly one resource.
func (d *Document) One() (*Resource, error) {
	if d.isMany {
		return nil, &MalformedResponseError{
			Reason:  "expected a single resource but data is an array",
			Payload: d.raw,
		}
	}
	if d.one == nil {
		return nil, &MalformedResponseError{
			Reason:  "expected a single resource but data is empty",
			Payload: d.raw,
		}
	}
	return d.one, nil
}

// Many returns the resources of a collection document in document order.
// Single-resource documents yield a *MalformedResponseError since the caller
// expected an array.
func (d *Document) Many() ([]Resource, error) {
	if !d.isMany {
		if d.one != nil {
			return nil, &MalformedResponseError{
				Reason:  "expected a resource array but data is a single object",
				Payload: d.raw,
			}
		}
		return nil, nil
	}
	return d.many, nil
}

// HasData reports whether the document carried a non-null data member.
func (d *Document) HasData() bool {
	return d.one != nil || d.isMany
}

// Resolve looks up a relationship reference in the included resources.
// References absent from included resolve to a stub carrying only id and
// type, so callers can always navigate without a second round trip.
func (d *Document) Resolve(ref Ref) Resource {
	for i := range d.Included {
		if d.Included[i].Type == ref.Type && d.Included[i].ID == ref.ID {
			return d.Included[i]
		}
	}
	return Resource{Type: ref.Type, ID: ref.ID}
}

// Raw returns the original response body the document was parsed from.
func (d *Document) Raw() []byte {
	return d.raw
}
