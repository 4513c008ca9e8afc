package localfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// StateList is an ordered, de-duplicated list of state names.
type StateList struct {
	names []string
	index map[string]string // lower-case name -> canonical name
}

// NewStateList builds a StateList from names, trimming blanks and dropping
// case-insensitive duplicates while preserving order.
func NewStateList(names []string) *StateList {
	l := &StateList{names: []string{}, index: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		lower := strings.ToLower(n)
		if _, dup := l.index[lower]; dup {
			continue
		}
		l.index[lower] = n
		l.names = append(l.names, n)
	}
	return l
}

// Names returns a copy of the state names in file order.
func (l *StateList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of states.
func (l *StateList) Len() int {
	return len(l.names)
}

// Contains reports whether name is a known state, ignoring case.
func (l *StateList) Contains(name string) bool {
	_, ok := l.Canonical(name)
	return ok
}

// Canonical returns the spelling of name used in the state file.
func (l *StateList) Canonical(name string) (string, bool) {
	c, ok := l.index[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// LoadStates reads a CSV file of state names. Names may be one per line or
// comma separated on any number of lines.
func LoadStates(path string) (*StateList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening states file: %w", err)
	}
	defer f.Close()

	list, err := ReadStates(f)
	if err != nil {
		return nil, fmt.Errorf("reading states file %s: %w", path, err)
	}
	return list, nil
}

// ReadStates parses state names from CSV input.
func ReadStates(r io.Reader) (*StateList, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var names []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, rec...)
	}
	return NewStateList(names), nil
}
