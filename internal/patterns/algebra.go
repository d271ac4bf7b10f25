package patterns

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/sunholo/zion-core/internal/types"
)

// Union, Intersect, and Difference implement the pattern-lattice algebra of
// spec.md §4.E, distilled from _examples/original_source/src/match.cpp's
// match_t::operator| / operator& / operator-.

// Union computes a ∪ b. Nothing is identity; AllOf is absorbing.
func Union(a, b Pattern) Pattern {
	if isNothing(a) {
		return b
	}
	if isNothing(b) {
		return a
	}
	if allA, ok := a.(*AllOf); ok {
		return allA
	}
	if allB, ok := b.(*AllOf); ok {
		return allB
	}

	if sa, ok := a.(*Scalars); ok {
		if sb, ok := b.(*Scalars); ok {
			return unionScalars(sa, sb)
		}
	}

	av, aIsCtorLike := asCtorValues(a)
	bv, bIsCtorLike := asCtorValues(b)
	if aIsCtorLike && bIsCtorLike {
		return unionCtors(av, bv)
	}

	// Mismatched shapes (e.g. scalar vs ctor) shouldn't occur once both sides
	// are derived from the same scrutinee type; fall back to AllOf of
	// whichever side carries a type, which keeps the lattice total.
	if t, ok := typeOf(a); ok {
		return &AllOf{Type: t}
	}
	return b
}

// Intersect computes a ∩ b. AllOf is identity; Nothing is absorbing.
func Intersect(a, b Pattern) Pattern {
	if isNothing(a) || isNothing(b) {
		return Nothing
	}
	if _, ok := a.(*AllOf); ok {
		return b
	}
	if _, ok := b.(*AllOf); ok {
		return a
	}

	if sa, ok := a.(*Scalars); ok {
		if sb, ok := b.(*Scalars); ok {
			return intersectScalars(sa, sb)
		}
	}

	av, aIsCtorLike := asCtorValues(a)
	bv, bIsCtorLike := asCtorValues(b)
	if aIsCtorLike && bIsCtorLike {
		return intersectCtors(av, bv)
	}

	return Nothing
}

// Difference computes a \ b.
func Difference(a, b Pattern) Pattern {
	if isNothing(a) {
		return Nothing
	}
	if isNothing(b) {
		return a
	}
	if allA, ok := a.(*AllOf); ok {
		// Subtraction against AllOf(τ) expands to fromType(τ) first — the
		// caller supplies a type registry via ExpandAllOf when this matters;
		// without one we can only subtract exact AllOf(τ) == b shapes.
		if allB, ok := b.(*AllOf); ok && types_Equal(allA.Type, allB.Type) {
			return Nothing
		}
		return a
	}

	if sa, ok := a.(*Scalars); ok {
		if sb, ok := b.(*Scalars); ok {
			return differenceScalars(sa, sb)
		}
	}

	av, aIsCtorLike := asCtorValues(a)
	bv, bIsCtorLike := asCtorValues(b)
	if aIsCtorLike && bIsCtorLike {
		return differenceCtors(a, av, bv)
	}

	return a
}

func isNothing(p Pattern) bool {
	_, ok := p.(NothingPattern)
	return ok
}

func typeOf(p Pattern) (interface {
	String() string
}, bool) {
	switch v := p.(type) {
	case *AllOf:
		return v.Type, true
	case *Scalars:
		return v.Type, true
	}
	return nil, false
}

func types_Equal(a, b interface{ String() string }) bool {
	return a.String() == b.String()
}

// --- ctor-shaped helpers -----------------------------------------------

func asCtorValues(p Pattern) ([]*CtorPattern, bool) {
	switch v := p.(type) {
	case *CtorPattern:
		return []*CtorPattern{v}, true
	case *CtorPatterns:
		return v.Values, true
	}
	return nil, false
}

func wrapCtorValues(typeName string, values []*CtorPattern) Pattern {
	if len(values) == 0 {
		return Nothing
	}
	if len(values) == 1 {
		return values[0]
	}
	return &CtorPatterns{TypeName: typeName, Values: values}
}

func unionCtors(a, b []*CtorPattern) Pattern {
	byCtor := map[string]*CtorPattern{}
	order := []string{}
	typeName := ""
	for _, v := range a {
		byCtor[v.CtorName] = v
		order = append(order, v.CtorName)
		typeName = v.TypeName
	}
	for _, v := range b {
		if existing, ok := byCtor[v.CtorName]; ok {
			byCtor[v.CtorName] = unionSameCtor(existing, v)
		} else {
			byCtor[v.CtorName] = v
			order = append(order, v.CtorName)
		}
		typeName = v.TypeName
	}
	values := make([]*CtorPattern, len(order))
	for i, name := range order {
		values[i] = byCtor[name]
	}
	return wrapCtorValues(typeName, values)
}

func unionSameCtor(a, b *CtorPattern) *CtorPattern {
	args := make([]Pattern, len(a.Args))
	for i := range a.Args {
		args[i] = Union(a.Args[i], b.Args[i])
	}
	return &CtorPattern{TypeName: a.TypeName, CtorName: a.CtorName, Args: args}
}

func intersectCtors(a, b []*CtorPattern) Pattern {
	byCtor := map[string]*CtorPattern{}
	for _, v := range b {
		byCtor[v.CtorName] = v
	}
	var out []*CtorPattern
	typeName := ""
	for _, av := range a {
		bv, ok := byCtor[av.CtorName]
		if !ok {
			continue // differing ctor names produce Nothing under intersection
		}
		args := make([]Pattern, len(av.Args))
		allNothing := false
		for i := range av.Args {
			args[i] = Intersect(av.Args[i], bv.Args[i])
			if isNothing(args[i]) {
				allNothing = true
			}
		}
		if allNothing && len(args) > 0 {
			continue
		}
		out = append(out, &CtorPattern{TypeName: av.TypeName, CtorName: av.CtorName, Args: args})
		typeName = av.TypeName
	}
	return wrapCtorValues(typeName, out)
}

func differenceCtors(original Pattern, a, b []*CtorPattern) Pattern {
	byCtor := map[string]*CtorPattern{}
	for _, v := range b {
		byCtor[v.CtorName] = v
	}
	var out []*CtorPattern
	typeName := ""
	for _, av := range a {
		bv, ok := byCtor[av.CtorName]
		if !ok {
			// Ctor untouched by b: keep it whole.
			out = append(out, av)
			typeName = av.TypeName
			continue
		}
		args := make([]Pattern, len(av.Args))
		anyNonNothing := len(av.Args) == 0 // nullary ctor fully removed
		for i := range av.Args {
			args[i] = Difference(av.Args[i], bv.Args[i])
			if !isNothing(args[i]) {
				anyNonNothing = true
			} else {
				args[i] = av.Args[i]
			}
		}
		if len(av.Args) == 0 {
			continue // nullary ctor: b covers it entirely
		}
		if !anyNonNothing {
			continue
		}
		out = append(out, &CtorPattern{TypeName: av.TypeName, CtorName: av.CtorName, Args: args})
		typeName = av.TypeName
	}
	return wrapCtorValues(typeName, out)
}

// --- Scalars -------------------------------------------------------------

func unionScalars(a, b *Scalars) Pattern {
	switch {
	case a.Mode == Include && b.Mode == Include:
		return &Scalars{Type: a.Type, Mode: Include, Values: a.Values.Union(b.Values)}
	case a.Mode == Exclude && b.Mode == Exclude:
		return &Scalars{Type: a.Type, Mode: Exclude, Values: a.Values.Intersect(b.Values)}
	case a.Mode == Exclude && b.Mode == Include:
		return &Scalars{Type: a.Type, Mode: Exclude, Values: a.Values.Difference(b.Values)}
	default: // Include ∪ Exclude
		return &Scalars{Type: a.Type, Mode: Exclude, Values: b.Values.Difference(a.Values)}
	}
}

func intersectScalars(a, b *Scalars) Pattern {
	switch {
	case a.Mode == Include && b.Mode == Include:
		s := a.Values.Intersect(b.Values)
		if s.Empty() {
			return Nothing
		}
		return &Scalars{Type: a.Type, Mode: Include, Values: s}
	case a.Mode == Exclude && b.Mode == Exclude:
		return &Scalars{Type: a.Type, Mode: Exclude, Values: a.Values.Union(b.Values)}
	case a.Mode == Include && b.Mode == Exclude:
		s := a.Values.Difference(b.Values)
		if s.Empty() {
			return Nothing
		}
		return &Scalars{Type: a.Type, Mode: Include, Values: s}
	default: // Exclude ∩ Include
		s := b.Values.Difference(a.Values)
		if s.Empty() {
			return Nothing
		}
		return &Scalars{Type: a.Type, Mode: Include, Values: s}
	}
}

func differenceScalars(a, b *Scalars) Pattern {
	switch {
	case a.Mode == Include && b.Mode == Include:
		s := a.Values.Difference(b.Values)
		if s.Empty() {
			return Nothing
		}
		return &Scalars{Type: a.Type, Mode: Include, Values: s}
	case a.Mode == Exclude && b.Mode == Exclude:
		s := b.Values.Difference(a.Values)
		if s.Empty() {
			return Nothing
		}
		return &Scalars{Type: a.Type, Mode: Include, Values: s}
	case a.Mode == Include && b.Mode == Exclude:
		s := a.Values.Intersect(b.Values)
		if s.Empty() {
			return Nothing
		}
		return &Scalars{Type: a.Type, Mode: Include, Values: s}
	default: // Exclude \ Include
		return &Scalars{Type: a.Type, Mode: Exclude, Values: a.Values.Union(b.Values)}
	}
}

// ExpandAllOf replaces p with FromType(τ, reg) when p itself is AllOf(τ);
// AllOf nodes nested in constructor arguments are left as they are. This is
// the expansion spec.md §4.E requires before subtracting
// against it ("subtraction against AllOf(τ) expands to fromType(τ) first").
func ExpandAllOf(p Pattern, reg *types.TypeRegistry) Pattern {
	switch v := p.(type) {
	case *AllOf:
		return FromType(v.Type, reg)
	case *CtorPattern:
		args := make([]Pattern, len(v.Args))
		for i, a := range v.Args {
			args[i] = a // arguments stay lazy; only the top-level AllOf matters for difference's expansion rule
		}
		return &CtorPattern{TypeName: v.TypeName, CtorName: v.CtorName, Args: args}
	default:
		return p
	}
}
