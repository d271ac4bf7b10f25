package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sunholo/zion-core/internal/diag"
)

func mustUnify(t *testing.T, a, b Type) Substitution {
	t.Helper()
	sub, err := Unify(a, b, diag.Pos{})
	if err != nil {
		t.Fatalf("unify(%s, %s) failed: %v", a, b, err)
	}
	return sub
}

// Unification soundness (spec.md §8): unify(a,b) = s ⟹ a.rebind(s) ≡ b.rebind(s).
func TestUnifySoundness(t *testing.T) {
	a := NewFunc([]Type{NewVar("x")}, NewVar("y"))
	b := NewFunc([]Type{TInt}, TBool)
	sub := mustUnify(t, a, b)

	ra := a.Rebind(sub)
	rb := b.Rebind(sub)
	if diff := cmp.Diff(ra.String(), rb.String()); diff != "" {
		t.Fatalf("unification unsound (-got +want):\n%s", diff)
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	v := NewVar("a")
	selfRef := NewFunc([]Type{v}, v)
	_, err := Unify(v, selfRef, diag.Pos{})
	if err == nil {
		t.Fatalf("expected occurs-check failure for infinite type")
	}
	if _, ok := err.(*OccursError); !ok {
		t.Fatalf("expected *OccursError, got %T: %v", err, err)
	}
}

func TestUnifyOccursCheckPassesWhenDistinct(t *testing.T) {
	v := NewVar("a")
	if _, err := Unify(v, TInt, diag.Pos{}); err != nil {
		t.Fatalf("unify(a, Int) should succeed: %v", err)
	}
}

func TestUnifyMismatchedArrows(t *testing.T) {
	a := NewFunc([]Type{TInt}, TInt)
	b := &Tuple{Dims: []Type{TInt, TInt}}
	if _, err := Unify(a, b, diag.Pos{}); err == nil {
		t.Fatalf("expected unify failure between function and tuple types")
	}
}

func TestUnifyTupleArityMismatch(t *testing.T) {
	a := &Tuple{Dims: []Type{TInt, TInt}}
	b := &Tuple{Dims: []Type{TInt}}
	if _, err := Unify(a, b, diag.Pos{}); err == nil {
		t.Fatalf("expected arity mismatch failure")
	}
}

// Substitution composition associativity (spec.md §8).
func TestComposeAssociative(t *testing.T) {
	s1 := Substitution{"a": TInt}
	s2 := Substitution{"b": NewVar("a")}
	s3 := Substitution{"c": NewVar("b")}

	left := Compose(Compose(s3, s2), s1)
	right := Compose(s3, Compose(s2, s1))

	probe := &Tuple{Dims: []Type{NewVar("a"), NewVar("b"), NewVar("c")}}
	gotLeft := probe.Rebind(left).String()
	gotRight := probe.Rebind(right).String()
	if gotLeft != gotRight {
		t.Fatalf("composition not associative: %s != %s", gotLeft, gotRight)
	}
}

// Scheme round-trip (spec.md §8): generalize then instantiate has the same
// repr() modulo fresh-variable renaming.
func TestSchemeRoundTrip(t *testing.T) {
	fresh := NewFreshSource()
	v := NewVar("x")
	original := NewFunc([]Type{v}, v)

	scheme := Generalize(original, EnvPredicateMap{}, nil)
	if scheme.BoundVarCount() != 1 {
		t.Fatalf("expected 1 bound var, got %d", scheme.BoundVarCount())
	}

	inst, preds := scheme.Instantiate(fresh)
	if len(preds) != 0 {
		t.Fatalf("expected no deferred predicates, got %v", preds)
	}

	params, ret, ok := UnfoldFunc(inst)
	if !ok || len(params) != 1 {
		t.Fatalf("expected a 1-arg function, got %s", inst)
	}
	if params[0].(*Var).ID == "" || ret.(*Var).ID != params[0].(*Var).ID {
		t.Fatalf("instantiated scheme should still equate parameter and return: %s", inst)
	}
}

func TestGeneralizeRestrictsToEnvFreeVars(t *testing.T) {
	envVar := NewVar("e")
	scopedTy := NewFunc([]Type{envVar}, NewVar("local"))
	scheme := Generalize(scopedTy, EnvPredicateMap{"e": {}}, nil)
	if scheme.BoundVarCount() != 1 {
		t.Fatalf("expected only 'local' to generalize, got vars=%v", scheme.Vars)
	}
}

func TestClassPredicateTotalOrder(t *testing.T) {
	preds := []ClassPredicate{
		{ClassName: "Ord", Params: []Type{TInt}},
		{ClassName: "Eq", Params: []Type{TBool}},
		{ClassName: "Eq", Params: []Type{TInt}},
	}
	SortPredicates(preds)
	want := []string{"Eq Bool", "Eq Int", "Ord Int"}
	for i, p := range preds {
		if p.String() != want[i] {
			t.Fatalf("sort order mismatch at %d: got %s want %s", i, p.String(), want[i])
		}
	}
}

func TestDataConstructorTagsAreOrdinal(t *testing.T) {
	reg := NewTypeRegistry()
	reg.Define(&DataType{
		Name: "Maybe",
		Ctors: []DataConstructor{
			{Name: "Nothing"},
			{Name: "Just", ArgTypes: []Type{NewVar("a")}},
		},
	})
	ctor, dt, ok := reg.Constructor("Just")
	if !ok {
		t.Fatalf("expected to find Just")
	}
	if ctor.Tag != 1 || dt.Name != "Maybe" {
		t.Fatalf("unexpected ctor tag/parent: %+v parent=%s", ctor, dt.Name)
	}
	if diff := cmp.Diff([]string{"Maybe"}, reg.Names(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("registry names mismatch (-got +want):\n%s", diff)
	}
}
