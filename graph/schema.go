package graph

import (
	"slices"
)

// StateSchema defines how a state is initialized and how a node's delta is merged
// into it.
type StateSchema[S any] interface {
	// Init returns the initial state.
	Init() S

	// Update merges the delta returned by a node into the current state.
	Update(current, delta S) (S, error)
}

// MergePolicy names the reducer attached to a state field.
type MergePolicy string

const (
	// PolicyAppend concatenates the delta's elements after the current ones.
	PolicyAppend MergePolicy = "append"

	// PolicyOverwrite replaces the current value with the delta's value when the
	// delta carries one (a zero value means "no update").
	PolicyOverwrite MergePolicy = "overwrite"
)

// Field is one row of a FieldSchema: a named field of S and the reducer used to
// merge it.
type Field[S any] struct {
	Name   string
	Policy MergePolicy
	merge  func(dst *S, delta *S)
}

// AppendField declares a slice field merged by concatenation.
//
//	graph.AppendField("messages", func(s *State) *[]message.Message { return &s.Messages })
func AppendField[S any, E any](name string, field func(*S) *[]E) Field[S] {
	return Field[S]{
		Name:   name,
		Policy: PolicyAppend,
		merge: func(dst *S, delta *S) {
			add := *field(delta)
			if len(add) == 0 {
				return
			}
			cur := field(dst)
			// Clip forces a fresh backing array so earlier states never see the append.
			*cur = append(slices.Clip(*cur), add...)
		},
	}
}

// OverwriteField declares a last-write-wins field. A zero value in the delta
// leaves the current value untouched.
func OverwriteField[S any, T comparable](name string, field func(*S) *T) Field[S] {
	return Field[S]{
		Name:   name,
		Policy: PolicyOverwrite,
		merge: func(dst *S, delta *S) {
			var zero T
			if v := *field(delta); v != zero {
				*field(dst) = v
			}
		},
	}
}

// FieldSchema implements StateSchema for struct states from an explicit table of
// per-field merge policies. Fields not listed keep their current value.
type FieldSchema[S any] struct {
	init   func() S
	fields []Field[S]
}

// NewFieldSchema creates a FieldSchema. init may be nil, in which case the zero
// value of S is the initial state.
func NewFieldSchema[S any](init func() S, fields ...Field[S]) *FieldSchema[S] {
	return &FieldSchema[S]{
		init:   init,
		fields: fields,
	}
}

// Init returns the initial state.
func (s *FieldSchema[S]) Init() S {
	if s.init == nil {
		var zero S
		return zero
	}
	return s.init()
}

// Update applies every field's reducer to merge delta into current.
func (s *FieldSchema[S]) Update(current, delta S) (S, error) {
	result := current
	for _, f := range s.fields {
		f.merge(&result, &delta)
	}
	return result, nil
}

// Fields returns the merge-policy table.
func (s *FieldSchema[S]) Fields() []Field[S] {
	return slices.Clone(s.fields)
}

// ReplaceSchema is the schema used when a graph has none: each delta replaces
// the whole state.
type ReplaceSchema[S any] struct{}

// Init returns the zero state.
func (ReplaceSchema[S]) Init() S {
	var zero S
	return zero
}

// Update returns delta.
func (ReplaceSchema[S]) Update(_, delta S) (S, error) {
	return delta, nil
}
