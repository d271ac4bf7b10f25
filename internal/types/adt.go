package types

import "sort"

// DataConstructor is (ctorName, argTypes, parentTypeName, ctorTag) (spec.md §3).
// The set of constructors for a type is totally ordered; the tag is that
// index.
type DataConstructor struct {
	Name       string
	ArgTypes   []Type
	ParentType string
	Tag        int
}

// DataType describes one user-defined algebraic type: its name, the type
// variables it is parametric over, and its totally-ordered constructor list.
type DataType struct {
	Name       string
	TypeParams []string
	Ctors      []DataConstructor
}

// TypeRegistry maps type names to their DataType definition. It is built once
// by name-resolution (an external collaborator per spec.md §1) and consumed
// read-only by inference, the class-predicate engine, and the pattern
// analyzer.
type TypeRegistry struct {
	types map[string]*DataType
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: map[string]*DataType{}}
}

// Define registers dt, always setting each constructor's Tag to its index in
// dt.Ctors (declaration order) and its ParentType to dt.Name.
func (r *TypeRegistry) Define(dt *DataType) {
	for i := range dt.Ctors {
		dt.Ctors[i].Tag = i
		dt.Ctors[i].ParentType = dt.Name
	}
	r.types[dt.Name] = dt
}

// Lookup returns the DataType named name, or nil.
func (r *TypeRegistry) Lookup(name string) (*DataType, bool) {
	dt, ok := r.types[name]
	return dt, ok
}

// Constructor finds the DataConstructor named ctorName, searching every
// registered type (constructor names are unique across a program after
// name-resolution).
func (r *TypeRegistry) Constructor(ctorName string) (*DataConstructor, *DataType, bool) {
	for _, dt := range r.types {
		for i := range dt.Ctors {
			if dt.Ctors[i].Name == ctorName {
				return &dt.Ctors[i], dt, true
			}
		}
	}
	return nil, nil, false
}

// Names returns every registered type name, sorted, for deterministic
// iteration (spec.md §5's determinism guarantee extends to diagnostics order).
func (r *TypeRegistry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
