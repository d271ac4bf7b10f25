package patterns

import (
	"testing"

	"github.com/hashicorp/go-set/v3"

	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/types"
)

func maybeRegistry() *types.TypeRegistry {
	reg := types.NewTypeRegistry()
	reg.Define(&types.DataType{
		Name: "Maybe",
		Ctors: []types.DataConstructor{
			{Name: "Nothing"},
			{Name: "Just", ArgTypes: []types.Type{types.TInt}},
		},
	})
	return reg
}

func justPattern() Pattern {
	return &CtorPattern{TypeName: "Maybe", CtorName: "Just", Args: []Pattern{&AllOf{Type: types.TInt}}}
}

func nothingCtorPattern() Pattern {
	return &CtorPattern{TypeName: "Maybe", CtorName: "Nothing"}
}

// union(p, Nothing) = p (spec.md §8 pattern algebra laws).
func TestUnionIdentity(t *testing.T) {
	p := justPattern()
	if got := Union(p, Nothing); got.String() != p.String() {
		t.Fatalf("union(p, Nothing) = %s, want %s", got.String(), p.String())
	}
}

// intersect(p, AllOf(typeOf(p))) = p.
func TestIntersectAllOfIdentity(t *testing.T) {
	p := &AllOf{Type: types.TInt}
	if got := Intersect(p, &AllOf{Type: types.TInt}); got.String() != p.String() {
		t.Fatalf("intersect(AllOf,AllOf) = %s, want %s", got.String(), p.String())
	}
}

// difference(p, p) = Nothing.
func TestDifferenceSelfIsNothing(t *testing.T) {
	reg := maybeRegistry()
	p := FromType(&types.Id{Name: "Maybe"}, reg)
	if got := Difference(p, p); !isNothing(got) {
		t.Fatalf("difference(p,p) = %s, want Nothing", got.String())
	}
}

func TestExhaustivenessDetectsMissingNothingCase(t *testing.T) {
	reg := maybeRegistry()
	clauses := []Clause{{Pattern: justPattern()}}
	bag := CheckExhaustiveness(&types.Id{Name: "Maybe"}, clauses, reg, diag.Pos{})
	if !bag.HasErrors() {
		t.Fatalf("expected a non-exhaustive diagnostic")
	}
	if bag.Errors()[0].Message == "" {
		t.Fatalf("expected a witness message")
	}
}

func TestExhaustivenessAcceptsFullCoverage(t *testing.T) {
	reg := maybeRegistry()
	clauses := []Clause{{Pattern: nothingCtorPattern()}, {Pattern: justPattern()}}
	bag := CheckExhaustiveness(&types.Id{Name: "Maybe"}, clauses, reg, diag.Pos{})
	if bag.HasErrors() {
		t.Fatalf("expected no diagnostics, got %v", bag.Errors())
	}
}

func TestExhaustivenessDetectsRedundantClause(t *testing.T) {
	reg := maybeRegistry()
	clauses := []Clause{
		{Pattern: nothingCtorPattern()},
		{Pattern: justPattern()},
		{Pattern: nothingCtorPattern()}, // already covered
	}
	bag := CheckExhaustiveness(&types.Id{Name: "Maybe"}, clauses, reg, diag.Pos{})
	if !bag.HasErrors() {
		t.Fatalf("expected a redundant-clause diagnostic")
	}
}

func TestScalarsIncludeIntersect(t *testing.T) {
	a := &Scalars{Type: types.TInt, Mode: Include, Values: set.From([]string{"1", "2"})}
	b := &Scalars{Type: types.TInt, Mode: Include, Values: set.From([]string{"2", "3"})}
	got := Intersect(a, b).(*Scalars)
	if got.Values.Size() != 1 || !got.Values.Contains("2") {
		t.Fatalf("unexpected intersection: %v", got.Values)
	}
}

func TestScalarsExcludeDifference(t *testing.T) {
	allInts := &Scalars{Type: types.TInt, Mode: Exclude, Values: set.New[string](0)}
	one := &Scalars{Type: types.TInt, Mode: Include, Values: set.From([]string{"1"})}
	got := Difference(allInts, one).(*Scalars)
	if got.Mode != Exclude || !got.Values.Contains("1") {
		t.Fatalf("expected Exclude{1}, got %s", got.String())
	}
}
