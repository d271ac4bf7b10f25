// Package patterns implements component E, the pattern analyzer (spec.md
// §4.E): an algebraic pattern lattice used to diagnose non-exhaustive and
// redundant clauses. Match lowering (internal/lower) tests the ir patterns
// directly and does not use this lattice.
//
// Grounded on the teacher's internal/elaborate/exhaustiveness.go (the overall
// shape of a PatternSet-driven checker) and internal/dtree/decision_tree.go
// (matrix-style decision compilation), generalized from their restricted
// representations to spec.md §3's full lattice — and on
// _examples/original_source/src/match.cpp, the original compiler's
// match_t::intersect/union/difference over CtorPattern/CtorPatterns/Scalars,
// which spec.md §4.E distills almost verbatim.
package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/sunholo/zion-core/internal/types"
)

// Pattern is the sum described in spec.md §3: Nothing, AllOf, CtorPattern,
// CtorPatterns, Scalars.
type Pattern interface {
	String() string
	isPattern()
}

// Nothing is the empty set: the absorbing element for intersection and
// difference, the identity element for union (spec.md §4.E).
type NothingPattern struct{}

func (NothingPattern) String() string { return "Nothing" }
func (NothingPattern) isPattern()     {}

// Nothing is the single shared instance.
var Nothing Pattern = NothingPattern{}

// AllOf matches every inhabitant of a type: identity for intersection,
// absorbing for union (spec.md §4.E).
type AllOf struct {
	Type types.Type
}

func (a *AllOf) String() string { return fmt.Sprintf("AllOf(%s)", a.Type.String()) }
func (*AllOf) isPattern()       {}

// CtorPattern matches one constructor applied to sub-patterns for each of
// its arguments (spec.md §3).
type CtorPattern struct {
	TypeName string
	CtorName string
	Args     []Pattern
}

func (c *CtorPattern) String() string {
	if len(c.Args) == 0 {
		return c.CtorName
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.CtorName, strings.Join(parts, ", "))
}
func (*CtorPattern) isPattern() {}

// CtorPatterns is a disjunction of CtorPattern values sharing a TypeName
// (spec.md §3).
type CtorPatterns struct {
	TypeName string
	Values   []*CtorPattern
}

func (c *CtorPatterns) String() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, " | ")
}
func (*CtorPatterns) isPattern() {}

// ScalarMode distinguishes an explicit enumerated set from its complement.
type ScalarMode int

const (
	Include ScalarMode = iota
	Exclude
)

// Scalars matches integers or strings by an explicit set, either included or
// excluded (spec.md §3): `Exclude {}` denotes "all of that scalar type".
type Scalars struct {
	Type   types.Type
	Mode   ScalarMode
	Values *set.Set[string] // canonical string form of each scalar literal
}

func (s *Scalars) String() string {
	keys := s.Values.Slice()
	sort.Strings(keys)
	if s.Mode == Include {
		return fmt.Sprintf("Scalars(Include, {%s})", strings.Join(keys, ", "))
	}
	return fmt.Sprintf("Scalars(Exclude, {%s})", strings.Join(keys, ", "))
}
func (*Scalars) isPattern() {}

// FromType produces the universal pattern of τ (spec.md §4.E): for an
// algebraic type, the disjunction of all constructors with each argument
// AllOf(argType); for tuples, a single CtorPattern("tuple", ...); for
// Int/String, the empty-exclude Scalars; for any other type, AllOf(τ).
func FromType(t types.Type, reg *types.TypeRegistry) Pattern {
	switch tv := t.(type) {
	case *types.Id:
		switch tv.Name {
		case "Int", "String":
			return &Scalars{Type: t, Mode: Exclude, Values: set.New[string](0)}
		}
		if dt, ok := reg.Lookup(tv.Name); ok {
			return ctorPatternsOf(dt, t)
		}
		return &AllOf{Type: t}
	case *types.Tuple:
		args := make([]Pattern, len(tv.Dims))
		for i, d := range tv.Dims {
			args[i] = &AllOf{Type: d}
		}
		return &CtorPattern{TypeName: "tuple", CtorName: "tuple", Args: args}
	case *types.Operator:
		// Applied type constructors (e.g. `Maybe Int`): resolve the head name
		// against the registry the same way a nominal Id would.
		if head, ok := headName(tv); ok {
			if dt, ok := reg.Lookup(head); ok {
				return ctorPatternsOf(dt, t)
			}
		}
		return &AllOf{Type: t}
	default:
		return &AllOf{Type: t}
	}
}

func headName(t types.Type) (string, bool) {
	cur := t
	for {
		op, ok := cur.(*types.Operator)
		if !ok {
			break
		}
		cur = op.Fn
	}
	if id, ok := cur.(*types.Id); ok {
		return id.Name, true
	}
	return "", false
}

func ctorPatternsOf(dt *types.DataType, instantiated types.Type) Pattern {
	values := make([]*CtorPattern, len(dt.Ctors))
	for i, ctor := range dt.Ctors {
		args := make([]Pattern, len(ctor.ArgTypes))
		for j, at := range ctor.ArgTypes {
			args[j] = &AllOf{Type: at}
		}
		values[i] = &CtorPattern{TypeName: dt.Name, CtorName: ctor.Name, Args: args}
	}
	if len(values) == 1 {
		return values[0]
	}
	return &CtorPatterns{TypeName: dt.Name, Values: values}
}

// ExampleValue synthesizes one concrete inhabitant of p, for use as a
// non-exhaustiveness witness (spec.md §4.E "reported with an example
// uncovered pattern"; supplemented from original_source's witness-printing
// in match.cpp, which prints the first uncovered ctor/scalar it finds).
func ExampleValue(p Pattern) string {
	switch v := p.(type) {
	case NothingPattern:
		return "<unreachable>"
	case *AllOf:
		return "_"
	case *CtorPattern:
		if len(v.Args) == 0 {
			return v.CtorName
		}
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = ExampleValue(a)
		}
		return fmt.Sprintf("%s(%s)", v.CtorName, strings.Join(parts, ", "))
	case *CtorPatterns:
		if len(v.Values) == 0 {
			return "<unreachable>"
		}
		return ExampleValue(v.Values[0])
	case *Scalars:
		if v.Mode == Include {
			if v.Values.Empty() {
				return "<unreachable>"
			}
			keys := v.Values.Slice()
			sort.Strings(keys)
			return keys[0]
		}
		// Exclude: any value not in the set witnesses it; use a value that
		// cannot collide with typical small literal sets.
		for _, candidate := range []string{"0", "1", "\"\"", "2"} {
			if !v.Values.Contains(candidate) {
				return candidate
			}
		}
		return "_"
	default:
		return "_"
	}
}
