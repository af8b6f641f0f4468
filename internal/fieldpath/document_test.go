package fieldpath

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

const nestedDoc = `{"title":"Prüfung 1","sectionA":{"items":[{"label":"eins","points":2},{"label":"zwei","done":true}],"note":null}}`

func newDoc(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := NewDocument([]byte(raw))
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return doc
}

func TestNewDocument_RejectsInvalidJSON(t *testing.T) {
	if _, err := NewDocument([]byte(`{"a":`)); err == nil {
		t.Error("NewDocument() expected error for truncated JSON")
	}
}

func TestDocument_Get(t *testing.T) {
	doc := newDoc(t, nestedDoc)

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"title", "Prüfung 1", true},
		{"sectionA.items[0].label", "eins", true},
		{"sectionA.items[1].label", "zwei", true},
		{"sectionA.items[0].points", "2", true},
		{"sectionA.items[1].done", "true", true},
		{"sectionA.items[2].label", "", false},
		{"sectionA.missing", "", false},
		{"sectionA.items", "", false},
		{"sectionA.note", "", false},
		{"sectionA..items", "", false},
		{"title[0]", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := doc.Get(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDocument_Set(t *testing.T) {
	t.Run("replaces nested array element field", func(t *testing.T) {
		doc := newDoc(t, nestedDoc)

		if err := doc.Set("sectionA.items[1].label", "two"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if got, _ := doc.Get("sectionA.items[1].label"); got != "two" {
			t.Errorf("Get() after Set = %q, want %q", got, "two")
		}
		if got, _ := doc.Get("sectionA.items[0].label"); got != "eins" {
			t.Errorf("sibling changed: %q", got)
		}
		if !json.Valid(doc.Bytes()) {
			t.Errorf("document is no longer valid JSON: %s", doc.Bytes())
		}
	})

	t.Run("escapes quotes and keeps unicode", func(t *testing.T) {
		doc := newDoc(t, nestedDoc)
		value := "سلام \"دنیا\"\nzweite Zeile"

		if err := doc.Set("title", value); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok := doc.Get("title")
		if !ok || got != value {
			t.Errorf("Get() = %q, %v; want %q", got, ok, value)
		}
	})

	t.Run("missing key is an error", func(t *testing.T) {
		doc := newDoc(t, nestedDoc)
		before := append([]byte(nil), doc.Bytes()...)

		err := doc.Set("sectionB.items[0].label", "x")
		if !errors.Is(err, ErrPathNotFound) {
			t.Errorf("Set() error = %v, want ErrPathNotFound", err)
		}
		if !bytes.Equal(before, doc.Bytes()) {
			t.Error("document changed after failed Set")
		}
	})

	t.Run("out of range index is an error", func(t *testing.T) {
		doc := newDoc(t, nestedDoc)
		err := doc.Set("sectionA.items[5].label", "x")
		if !errors.Is(err, ErrPathNotFound) {
			t.Errorf("Set() error = %v, want ErrPathNotFound", err)
		}
	})

	t.Run("container target is an error", func(t *testing.T) {
		doc := newDoc(t, nestedDoc)
		err := doc.Set("sectionA.items", "x")
		if !errors.Is(err, ErrNotScalar) {
			t.Errorf("Set() error = %v, want ErrNotScalar", err)
		}
	})

	t.Run("malformed path is an error", func(t *testing.T) {
		doc := newDoc(t, nestedDoc)
		err := doc.Set("sectionA.items[x]", "x")
		if !errors.Is(err, ErrMalformedPath) {
			t.Errorf("Set() error = %v, want ErrMalformedPath", err)
		}
	})
}

func TestDocument_Clone(t *testing.T) {
	doc := newDoc(t, nestedDoc)
	clone := doc.Clone()

	if err := clone.Set("title", "Exam 1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := doc.Get("title"); got != "Prüfung 1" {
		t.Errorf("original changed through clone: %q", got)
	}
}
