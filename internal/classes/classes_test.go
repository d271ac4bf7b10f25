package classes

import (
	"testing"

	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/types"
)

func eqClass() *Class {
	return &Class{
		Name:    "Eq",
		Params:  []string{"a"},
		Methods: []MethodScheme{{Name: "eq"}, {Name: "neq"}},
	}
}

func ordClass() *Class {
	return &Class{
		Name:       "Ord",
		Params:     []string{"a"},
		Methods:    []MethodScheme{{Name: "lt"}, {Name: "lte"}, {Name: "gt"}, {Name: "gte"}},
		Superclass: []string{"Eq"},
	}
}

func TestResolveDirectInstance(t *testing.T) {
	env := NewEnv()
	env.DeclareClass(eqClass())
	inst := &Instance{
		ClassName: "Eq",
		Head:      types.TInt,
		Methods: map[string]string{
			"eq":  RewrittenSymbol("Eq", types.TInt, "eq"),
			"neq": RewrittenSymbol("Eq", types.TInt, "neq"),
		},
	}
	if err := env.AddInstance(inst); err != nil {
		t.Fatalf("AddInstance: %v", err)
	}
	if err := env.CheckMethodSchemes(inst); err != nil {
		t.Fatalf("CheckMethodSchemes: %v", err)
	}

	resolved, err := env.Resolve(types.ClassPredicate{ClassName: "Eq", Params: []types.Type{types.TInt}}, diag.Pos{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Methods["eq"] != "Eq/Int/eq" {
		t.Fatalf("unexpected rewritten symbol: %s", resolved.Methods["eq"])
	}
}

func TestCoherenceRejectsOverlap(t *testing.T) {
	env := NewEnv()
	env.DeclareClass(eqClass())
	first := &Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "x", "neq": "y"}, Pos: diag.Pos{Line: 1}}
	second := &Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "x", "neq": "y"}, Pos: diag.Pos{Line: 2}}

	if err := env.AddInstance(first); err != nil {
		t.Fatalf("first AddInstance: %v", err)
	}
	err := env.AddInstance(second)
	if err == nil {
		t.Fatalf("expected coherence violation for overlapping Eq Int instances")
	}
	if _, ok := err.(*AmbiguousInstanceError); !ok {
		t.Fatalf("expected *AmbiguousInstanceError, got %T", err)
	}
}

func TestResolveNoInstance(t *testing.T) {
	env := NewEnv()
	env.DeclareClass(eqClass())
	_, err := env.Resolve(types.ClassPredicate{ClassName: "Eq", Params: []types.Type{types.TBool}}, diag.Pos{})
	if err == nil {
		t.Fatalf("expected no-instance error")
	}
	if _, ok := err.(*NoInstanceError); !ok {
		t.Fatalf("expected *NoInstanceError, got %T", err)
	}
}

func TestSuperclassDerivation(t *testing.T) {
	env := NewEnv()
	env.DeclareClass(eqClass())
	env.DeclareClass(ordClass())
	ordInst := &Instance{
		ClassName: "Ord",
		Head:      types.TInt,
		Methods: map[string]string{
			"lt": "a", "lte": "b", "gt": "c", "gte": "d",
		},
	}
	if err := env.AddInstance(ordInst); err != nil {
		t.Fatalf("AddInstance: %v", err)
	}

	derived, err := env.Resolve(types.ClassPredicate{ClassName: "Eq", Params: []types.Type{types.TInt}}, diag.Pos{})
	if err != nil {
		t.Fatalf("expected Eq to be derivable from Ord Int: %v", err)
	}
	if _, ok := derived.Methods["eq"]; !ok {
		t.Fatalf("derived Eq instance missing eq method: %+v", derived.Methods)
	}
}

func TestCheckMethodSchemesRejectsMissingAndExtraneous(t *testing.T) {
	env := NewEnv()
	env.DeclareClass(eqClass())

	missing := &Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "x"}}
	if err := env.CheckMethodSchemes(missing); err == nil {
		t.Fatalf("expected missing-method error")
	}

	extraneous := &Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "x", "neq": "y", "cmp": "z"}}
	if err := env.CheckMethodSchemes(extraneous); err == nil {
		t.Fatalf("expected extraneous-method error")
	}
}

func TestDischargeSplitsConcreteAndDeferred(t *testing.T) {
	env := NewEnv()
	env.DeclareClass(eqClass())
	inst := &Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "x", "neq": "y"}}
	if err := env.AddInstance(inst); err != nil {
		t.Fatalf("AddInstance: %v", err)
	}

	var reqs RequirementSet
	reqs.Add(types.ClassPredicate{ClassName: "Eq", Params: []types.Type{types.TInt}}, diag.Pos{})
	reqs.Add(types.ClassPredicate{ClassName: "Eq", Params: []types.Type{types.NewVar("a")}}, diag.Pos{})

	resolved, deferred, errs := reqs.Discharge(env)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(resolved) != 1 || len(deferred) != 1 {
		t.Fatalf("expected 1 resolved + 1 deferred, got %d/%d", len(resolved), len(deferred))
	}
}
