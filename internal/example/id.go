// Package example addresses individual examples of a test suite.
//
// An example is identified by the file that declares it plus its scoped id:
// the 1-based position of the example and each enclosing group, e.g.
// "./spec/models/user_spec.rb[2:1:3]". The same notation is accepted by the
// runner on the command line, so ids round-trip between reports and trials.
package example

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is the stable address of one example.
type ID struct {
	// File is the path as reported by the runner (usually "./"-prefixed).
	File string `json:"file"`

	// Scope is the scoped id, outermost group first.
	Scope []int `json:"scope"`
}

// NewID builds an ID from a file and its scope.
func NewID(file string, scope ...int) ID {
	s := make([]int, len(scope))
	copy(s, scope)
	return ID{File: file, Scope: s}
}

// ScopeString renders the scoped id without the file, e.g. "2:1:3".
func (id ID) ScopeString() string {
	parts := make([]string, len(id.Scope))
	for i, n := range id.Scope {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ":")
}

// String renders the id in runner notation, e.g. "./a_spec.rb[1:2]".
// It doubles as the canonical map key for an ID.
func (id ID) String() string {
	return id.File + "[" + id.ScopeString() + "]"
}

// Equal reports whether both ids address the same example.
func (id ID) Equal(other ID) bool {
	if id.File != other.File || len(id.Scope) != len(other.Scope) {
		return false
	}
	for i := range id.Scope {
		if id.Scope[i] != other.Scope[i] {
			return false
		}
	}
	return true
}

// ParseID parses a single id in runner notation.
func ParseID(s string) (ID, error) {
	ids, err := ParseLocation(s)
	if err != nil {
		return ID{}, err
	}
	if len(ids) != 1 {
		return ID{}, fmt.Errorf("expected a single example id, got %d in %q", len(ids), s)
	}
	return ids[0], nil
}

// ParseLocation parses the compact form "file[1:1,2:1]" into its ids.
func ParseLocation(s string) ([]ID, error) {
	s = strings.TrimSpace(s)
	open := strings.LastIndex(s, "[")
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid example id %q: expected file[scoped-id]", s)
	}

	file := s[:open]
	body := s[open+1 : len(s)-1]
	if body == "" {
		return nil, fmt.Errorf("invalid example id %q: empty scoped id", s)
	}

	var ids []ID
	for _, scoped := range strings.Split(body, ",") {
		scope, err := parseScope(scoped)
		if err != nil {
			return nil, fmt.Errorf("invalid example id %q: %w", s, err)
		}
		ids = append(ids, ID{File: file, Scope: scope})
	}
	return ids, nil
}

func parseScope(s string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	scope := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad scope segment %q", p)
		}
		scope = append(scope, n)
	}
	return scope, nil
}
