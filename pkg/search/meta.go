package search

import "github.com/aretw0/furrow/pkg/domain"

// Meta is a strategy-private side table of per-state values.
type Meta[T any] struct {
	values map[domain.StateID]T
}

// NewMeta creates an empty table.
func NewMeta[T any]() *Meta[T] {
	return &Meta[T]{values: make(map[domain.StateID]T)}
}

// Get returns the value stored for id.
func (m *Meta[T]) Get(id domain.StateID) (T, bool) {
	v, ok := m.values[id]
	return v, ok
}

// Value returns the value stored for id, or def when there is none.
func (m *Meta[T]) Value(id domain.StateID, def T) T {
	if v, ok := m.values[id]; ok {
		return v
	}
	return def
}

// Set stores v for id.
func (m *Meta[T]) Set(id domain.StateID, v T) {
	m.values[id] = v
}

// Ensure stores def for id unless a value exists, and returns the stored value.
func (m *Meta[T]) Ensure(id domain.StateID, def T) T {
	if v, ok := m.values[id]; ok {
		return v
	}
	m.values[id] = def
	return def
}

// Inherit stores derive(parent value) for every child.
// A missing parent value derives from def.
func (m *Meta[T]) Inherit(parent domain.StateID, def T, derive func(T) T, children ...*domain.State) {
	base := m.Value(parent, def)
	for _, c := range children {
		m.values[c.ID] = derive(base)
	}
}

// Forget drops the value for id.
func (m *Meta[T]) Forget(id domain.StateID) {
	delete(m.values, id)
}

// Retain drops every value whose id fails keep.
func (m *Meta[T]) Retain(keep func(domain.StateID) bool) {
	for id := range m.values {
		if !keep(id) {
			delete(m.values, id)
		}
	}
}

// Len returns the number of stored values.
func (m *Meta[T]) Len() int { return len(m.values) }

// Reset drops every value.
func (m *Meta[T]) Reset() { clear(m.values) }
