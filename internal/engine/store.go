package engine

import "sort"

// Variables is a read-only view of values captured earlier in a run.
type Variables interface {
	Lookup(name string) (string, bool)
}

// VariableStore holds the values captured from responses of a single run.
// Only the engine writes to it, and only after a case passed.
type VariableStore struct {
	values map[string]string
}

func NewVariableStore() *VariableStore {
	return &VariableStore{values: make(map[string]string)}
}

// Lookup implements Variables.
func (s *VariableStore) Lookup(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the captured variable names in sorted order.
func (s *VariableStore) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// commit writes all captures of one case.
func (s *VariableStore) commit(captured map[string]string) {
	for k, v := range captured {
		s.values[k] = v
	}
}
