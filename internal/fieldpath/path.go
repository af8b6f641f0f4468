// Package fieldpath addresses individual text fields inside a JSON document
// using dotted keys and bracketed indices, e.g. "sectionA.items[3].label".
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedPath is returned for paths that do not follow the grammar.
	ErrMalformedPath = errors.New("malformed field path")

	// ErrPathNotFound is returned by Set when a segment does not resolve.
	ErrPathNotFound = errors.New("field path not found")

	// ErrNotScalar is returned by Set when the path resolves to an object or array.
	ErrNotScalar = errors.New("field path does not address a scalar")
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Segment) lookupKey() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Path is a parsed field path.
type Path []Segment

// Key returns a new path with an object-key step appended.
func (p Path) Key(k string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Key: k})
}

// Index returns a new path with an array-index step appended.
func (p Path) Index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Index: i, IsIndex: true})
}

// String formats the path in its wire format.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

func (p Path) lookupKeys() []string {
	keys := make([]string, len(p))
	for i, s := range p {
		keys[i] = s.lookupKey()
	}
	return keys
}

// Parse parses a path in wire format. Keys may not contain '.', '[' or ']';
// indices are zero-based decimal integers.
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}

	var p Path
	expectKey := true
	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			if expectKey {
				return nil, fmt.Errorf("%w: empty key at offset %d in %q", ErrMalformedPath, i, s)
			}
			expectKey = true
			i++
		case '[':
			if expectKey && len(p) > 0 {
				return nil, fmt.Errorf("%w: index without key at offset %d in %q", ErrMalformedPath, i, s)
			}
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrMalformedPath, s)
			}
			idx, err := parseIndex(s[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("%w: %v in %q", ErrMalformedPath, err, s)
			}
			p = append(p, Segment{Index: idx, IsIndex: true})
			expectKey = false
			i += end + 1
		case ']':
			return nil, fmt.Errorf("%w: unexpected ']' at offset %d in %q", ErrMalformedPath, i, s)
		default:
			if !expectKey {
				return nil, fmt.Errorf("%w: missing '.' before offset %d in %q", ErrMalformedPath, i, s)
			}
			end := strings.IndexAny(s[i:], ".[]")
			if end < 0 {
				end = len(s) - i
			}
			p = append(p, Segment{Key: s[i : i+end]})
			expectKey = false
			i += end
		}
	}
	if expectKey {
		return nil, fmt.Errorf("%w: trailing '.' in %q", ErrMalformedPath, s)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. For static schema paths only.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty index")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid index %q", s)
		}
	}
	return strconv.Atoi(s)
}
