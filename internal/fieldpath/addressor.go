package fieldpath

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/buger/jsonparser"
)

// Field names one translatable field of a section. If the field holds an array,
// every element is visited; if the elements (or the field itself) are objects,
// Fields lists the sub-fields to visit inside them.
type Field struct {
	Key    string
	Fields []Field
}

// Section is a named object in the document, addressed by a dotted path,
// holding an ordered list of translatable fields.
type Section struct {
	Name   string
	Fields []Field
}

// Schema lists the sections of a document type in traversal order.
type Schema []Section

// Leaf is one translatable text field.
type Leaf struct {
	Path  string
	Value string
}

// Addressor enumerates the translatable leaves of documents.
type Addressor struct {
	schema Schema
}

// NewAddressor returns an Addressor for the given schema. A nil schema visits
// every string leaf of the document.
func NewAddressor(schema Schema) *Addressor {
	return &Addressor{schema: schema}
}

// Enumerate returns (path, value) for every non-empty translatable string, in
// section order, then field order, then document order within each field.
func (a *Addressor) Enumerate(doc *Document) []Leaf {
	var leaves []Leaf
	emit := func(p Path, s string) {
		if s == "" {
			return
		}
		leaves = append(leaves, Leaf{Path: p.String(), Value: s})
	}

	if a.schema == nil {
		if root, dataType, _, err := jsonparser.Get(doc.data); err == nil {
			walkAll(root, dataType, nil, emit)
		}
		return leaves
	}

	for _, sec := range a.schema {
		base := MustParse(sec.Name)
		obj, dataType, _, err := jsonparser.Get(doc.data, base.lookupKeys()...)
		if err != nil || dataType != jsonparser.Object {
			continue
		}
		for _, f := range sec.Fields {
			walkField(obj, base, f, emit)
		}
	}
	return leaves
}

func walkField(obj []byte, base Path, f Field, emit func(Path, string)) {
	value, dataType, _, err := jsonparser.Get(obj, f.Key)
	if err != nil {
		return
	}
	walkValue(value, dataType, base.Key(f.Key), f.Fields, emit)
}

func walkValue(value []byte, dataType jsonparser.ValueType, p Path, fields []Field, emit func(Path, string)) {
	switch dataType {
	case jsonparser.String:
		if len(fields) > 0 {
			return
		}
		if s, err := jsonparser.ParseString(value); err == nil {
			emit(p, s)
		}
	case jsonparser.Array:
		i := 0
		jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			walkValue(v, t, p.Index(i), fields, emit)
			i++
		})
	case jsonparser.Object:
		for _, f := range fields {
			walkField(value, p, f, emit)
		}
	}
}

func walkAll(value []byte, dataType jsonparser.ValueType, p Path, emit func(Path, string)) {
	switch dataType {
	case jsonparser.String:
		if s, err := jsonparser.ParseString(value); err == nil {
			emit(p, s)
		}
	case jsonparser.Array:
		i := 0
		jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			walkAll(v, t, p.Index(i), emit)
			i++
		})
	case jsonparser.Object:
		jsonparser.ObjectEach(value, func(key []byte, v []byte, t jsonparser.ValueType, _ int) error {
			if !addressableKey(key) {
				return nil
			}
			walkAll(v, t, p.Key(string(key)), emit)
			return nil
		})
	}
}

// addressableKey reports whether a FieldPath can name key. Empty keys, keys
// containing path syntax and escaped keys cannot be addressed and are skipped.
func addressableKey(key []byte) bool {
	return len(key) > 0 && !bytes.ContainsAny(key, `.[]\`)
}

// HashText returns the hex SHA-256 of text. It is the source hash of cache keys.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashLeaves hashes the newline-joined leaf values. It changes whenever any
// leaf value changes and is sensitive to traversal order.
func HashLeaves(leaves []Leaf) string {
	values := make([]string, len(leaves))
	for i, l := range leaves {
		values[i] = l.Value
	}
	return HashText(strings.Join(values, "\n"))
}
