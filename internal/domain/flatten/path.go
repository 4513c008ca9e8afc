// Package flatten walks irregularly nested JSON documents returned by the
// upstream statistics APIs and extracts flat, typed sequences from them.
package flatten

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrMissingField is returned when an object lacks a key named by a path.
	ErrMissingField = errors.New("missing field")
	// ErrShape is returned when a path segment meets the wrong JSON kind.
	ErrShape = errors.New("unexpected json shape")
	// ErrIndexRange is returned when an index segment is past the end of an array.
	ErrIndexRange = errors.New("index out of range")
	// ErrBadValue is returned when a leaf cannot be coerced to the requested type.
	ErrBadValue = errors.New("invalid value")
	// ErrBadPath is returned by ParsePath for malformed paths.
	ErrBadPath = errors.New("invalid path")
	// ErrNoData is returned when a report holds no entries at all.
	ErrNoData = errors.New("report contains no data")
)

type segmentKind int

const (
	segKey segmentKind = iota
	segAll
	segIndex
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

// Path addresses values inside a decoded JSON document. Segments are
// separated by dots: a name selects an object key, "*" selects every element
// of an array and a non-negative integer selects one element.
//
//	data.*.region.cities.*.lat
//
// The empty path addresses the document root.
type Path struct {
	raw  string
	segs []segment
}

// ParsePath parses a dotted path expression.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}

	parts := strings.Split(s, ".")
	segs := make([]segment, 0, len(parts))
	for i, part := range parts {
		switch {
		case part == "":
			return Path{}, fmt.Errorf("%w %q: empty segment %d", ErrBadPath, s, i)
		case part == "*":
			segs = append(segs, segment{kind: segAll})
		case isDigits(part):
			n, err := strconv.Atoi(part)
			if err != nil {
				return Path{}, fmt.Errorf("%w %q: %v", ErrBadPath, s, err)
			}
			segs = append(segs, segment{kind: segIndex, index: n})
		default:
			segs = append(segs, segment{kind: segKey, key: part})
		}
	}

	return Path{raw: s, segs: segs}, nil
}

// MustPath is like ParsePath but panics on error. Intended for constant paths.
func MustPath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path expression.
func (p Path) String() string {
	if p.raw == "" {
		return "$"
	}
	return p.raw
}

// Field returns a new path that additionally selects key name.
func (p Path) Field(name string) Path {
	segs := make([]segment, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	segs = append(segs, segment{kind: segKey, key: name})

	raw := name
	if p.raw != "" {
		raw = p.raw + "." + name
	}
	return Path{raw: raw, segs: segs}
}

// Decode parses a JSON body into a generic tree. Numbers are kept as
// json.Number so integers survive without float rounding.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode json: trailing data after offset %d", dec.InputOffset())
	}
	return doc, nil
}

// Walk returns every value addressed by p, in document order. Null leaves are
// returned as nil. An empty array under a "*" segment contributes nothing.
func Walk(doc any, p Path) ([]any, error) {
	var out []any
	if err := walk(doc, p, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(node any, p Path, depth int, out *[]any) error {
	if depth == len(p.segs) {
		*out = append(*out, node)
		return nil
	}

	seg := p.segs[depth]
	switch seg.kind {
	case segKey:
		obj, ok := node.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %w: expected object before %q, got %s", p, ErrShape, seg.key, kindOf(node))
		}
		child, ok := obj[seg.key]
		if !ok {
			return fmt.Errorf("%s: %w %q", p, ErrMissingField, seg.key)
		}
		return walk(child, p, depth+1, out)

	case segAll:
		arr, ok := node.([]any)
		if !ok {
			return fmt.Errorf("%s: %w: expected array at segment %d, got %s", p, ErrShape, depth, kindOf(node))
		}
		for _, el := range arr {
			if err := walk(el, p, depth+1, out); err != nil {
				return err
			}
		}
		return nil

	case segIndex:
		arr, ok := node.([]any)
		if !ok {
			return fmt.Errorf("%s: %w: expected array at segment %d, got %s", p, ErrShape, depth, kindOf(node))
		}
		if seg.index >= len(arr) {
			return fmt.Errorf("%s: %w: index %d, length %d", p, ErrIndexRange, seg.index, len(arr))
		}
		return walk(arr[seg.index], p, depth+1, out)
	}

	return fmt.Errorf("%s: %w", p, ErrBadPath)
}

// Columns returns one row per record addressed by records, holding the named
// fields in order. A record where any of the fields is null is skipped as a
// whole, so every returned row is complete. A missing key is an error.
func Columns(doc any, records Path, fields ...string) ([][]any, error) {
	recs, err := Walk(doc, records)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(recs))
	for i, rec := range recs {
		obj, ok := rec.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: record %d: %w: expected object, got %s", records, i, ErrShape, kindOf(rec))
		}

		row := make([]any, len(fields))
		complete := true
		for j, f := range fields {
			v, ok := obj[f]
			if !ok {
				return nil, fmt.Errorf("%s: record %d: %w %q", records, i, ErrMissingField, f)
			}
			if v == nil {
				complete = false
			}
			row[j] = v
		}

		if complete {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}
