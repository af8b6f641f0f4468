package fieldpath

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// Document is a JSON document whose scalar leaves can be read and replaced by path.
// The raw bytes are kept as-is so that key order (and therefore traversal order)
// is the order in which the document was written.
type Document struct {
	data []byte
}

// NewDocument wraps a copy of the given JSON.
func NewDocument(data []byte) (*Document, error) {
	if !json.Valid(data) {
		return nil, errors.New("document is not valid JSON")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Document{data: buf}, nil
}

// Bytes returns the current JSON. Callers must not modify it.
func (d *Document) Bytes() []byte { return d.data }

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	buf := make([]byte, len(d.data))
	copy(buf, d.data)
	return &Document{data: buf}
}

// Get returns the scalar at path. Strings are unescaped; numbers and booleans are
// returned as their JSON text. It reports false for malformed paths, missing keys,
// out of range indices, null, and containers.
func (d *Document) Get(path string) (string, bool) {
	p, err := Parse(path)
	if err != nil {
		return "", false
	}
	return d.GetPath(p)
}

// GetPath is Get for a parsed path.
func (d *Document) GetPath(p Path) (string, bool) {
	value, dataType, _, err := jsonparser.Get(d.data, p.lookupKeys()...)
	if err != nil {
		return "", false
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return "", false
		}
		return s, true
	case jsonparser.Number, jsonparser.Boolean:
		return string(value), true
	default:
		return "", false
	}
}

// Set replaces the scalar at path with the string value. Every segment must
// already exist; Set never creates structure. Setting the value the field already
// holds leaves the document byte-for-byte unchanged.
func (d *Document) Set(path string, value string) error {
	p, err := Parse(path)
	if err != nil {
		return err
	}
	return d.SetPath(p, value)
}

// SetPath is Set for a parsed path.
func (d *Document) SetPath(p Path, value string) error {
	keys := p.lookupKeys()
	current, dataType, _, err := jsonparser.Get(d.data, keys...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return fmt.Errorf("%w: %s", ErrPathNotFound, p)
		}
		return fmt.Errorf("resolving %s: %w", p, err)
	}
	switch dataType {
	case jsonparser.Object, jsonparser.Array:
		return fmt.Errorf("%w: %s", ErrNotScalar, p)
	case jsonparser.String:
		if s, err := jsonparser.ParseString(current); err == nil && s == value {
			return nil
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value for %s: %w", p, err)
	}
	out, err := jsonparser.Set(d.data, encoded, keys...)
	if err != nil {
		return fmt.Errorf("setting %s: %w", p, err)
	}
	d.data = out
	return nil
}
