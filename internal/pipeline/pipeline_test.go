package pipeline_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sunholo/zion-core/internal/classes"
	"github.com/sunholo/zion-core/internal/codegen"
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/infer"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/pipeline"
	"github.com/sunholo/zion-core/internal/types"
	"github.com/sunholo/zion-core/testutil"
)

// These tests construct typed-IR trees directly rather than parsing program
// text: lexing and parsing are an external collaborator's concern (spec.md
// §1), so the six worked scenarios spec.md §8 describes are reproduced here
// at the ir.Expr level, one per test.

func litE(k ir.LitKind, v any) *ir.Literal {
	return &ir.Literal{Node: ir.NewNode(diag.Pos{}), Kind: k, Value: v}
}

func varE(name string) *ir.Var {
	return &ir.Var{Node: ir.NewNode(diag.Pos{}), Name: name}
}

func lamE(param string, body ir.Expr) *ir.Lambda {
	return &ir.Lambda{Node: ir.NewNode(diag.Pos{}), Param: param, Body: body}
}

func appE(fn, arg ir.Expr) *ir.Application {
	return &ir.Application{Node: ir.NewNode(diag.Pos{}), Fn: fn, Arg: arg}
}

func letE(name string, value, body ir.Expr) *ir.Let {
	return &ir.Let{Node: ir.NewNode(diag.Pos{}), Var: name, Value: value, Body: body}
}

func blockE(stmts ...ir.Expr) *ir.Block {
	return &ir.Block{Node: ir.NewNode(diag.Pos{}), Stmts: stmts}
}

func sprintE(value ir.Expr) *ir.StaticPrint {
	return &ir.StaticPrint{Node: ir.NewNode(diag.Pos{}), Value: value}
}

func asE(value ir.Expr, scheme *types.Scheme, forceCast bool) *ir.As {
	return &ir.As{Node: ir.NewNode(diag.Pos{}), Value: value, Scheme: scheme, ForceCast: forceCast}
}

func matchE(scrutinee ir.Expr, arms ...ir.MatchArm) *ir.Match {
	return &ir.Match{Node: ir.NewNode(diag.Pos{}), Scrutinee: scrutinee, Arms: arms}
}

func tupleE(elems ...ir.Expr) *ir.Tuple {
	return &ir.Tuple{Node: ir.NewNode(diag.Pos{}), Elems: elems}
}

// Scenario 1: `let id x = x; let main() = { id 7; () }` — id is generalized
// to forall a. a -> a, instantiated at Int -> Int when main calls it, and
// the worklist carries exactly one specialization of id through to lowering.
func TestScenarioIdentity(t *testing.T) {
	reg := types.NewTypeRegistry()
	idScheme := &types.Scheme{
		Vars: []string{"a"},
		Type: types.NewFunc([]types.Type{types.NewVar("a")}, types.NewVar("a")),
	}
	env := infer.NewEnv(reg).Bind("id", idScheme)

	defs := pipeline.Definitions{
		"id": {Expr: lamE("x", varE("x")), Scheme: idScheme},
	}
	mainExpr := lamE("_", blockE(sprintE(appE(varE("id"), litE(ir.IntLit, int64(7))))))

	prog := &pipeline.Program{
		Entry:    mainExpr,
		Env:      env,
		Defs:     defs,
		Classes:  classes.NewEnv(),
		Registry: reg,
	}

	result, err := pipeline.Run(prog, codegen.NewTextSink())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.HasErrors {
		t.Fatalf("unexpected diagnostics: %v", result.Diags)
	}

	found := false
	for _, id := range result.DefnOrder {
		if id.Name == "id" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected id to be demanded and specialized, order=%v", result.DefnOrder)
	}
	if result.EntryLifted == nil || result.EntryLifted.Name != "main" {
		t.Fatalf("expected an entry lifted function named main, got %+v", result.EntryLifted)
	}
}

// Scenario 2: `match (Nothing :: Maybe Int) { Just x -> x }` is missing a
// Nothing arm and must be reported non-exhaustive with Nothing as witness.
func TestScenarioNonExhaustiveMatch(t *testing.T) {
	reg := types.NewTypeRegistry()
	reg.Define(&types.DataType{
		Name:       "Maybe",
		TypeParams: []string{"a"},
		Ctors: []types.DataConstructor{
			{Name: "Nothing"},
			{Name: "Just", ArgTypes: []types.Type{types.NewVar("a")}},
		},
	})
	env := infer.NewEnv(reg)

	scrutinee := asE(litE(ir.IntLit, int64(0)), &types.Scheme{Type: &types.Id{Name: "Maybe"}}, true)
	m := matchE(scrutinee, ir.MatchArm{
		Pattern: &ir.CtorMatchPattern{TypeName: "Maybe", CtorName: "Just", Args: []ir.MatchPattern{&ir.VarPattern{Name: "x"}}},
		Result:  varE("x"),
	})
	mainExpr := lamE("_", blockE(sprintE(m)))

	prog := &pipeline.Program{
		Entry:    mainExpr,
		Env:      env,
		Defs:     pipeline.Definitions{},
		Classes:  classes.NewEnv(),
		Registry: reg,
	}

	result, err := pipeline.Run(prog, codegen.NewTextSink())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasErrors {
		t.Fatalf("expected a non-exhaustive match diagnostic")
	}
	found := false
	for _, d := range result.Diags {
		if strings.Contains(d.Message, "non-exhaustive") && strings.Contains(d.Message, "Nothing") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a non-exhaustive-match diagnostic naming Nothing, got %v", result.Diags)
	}
}

// Scenario 3: two `instance Eq Int` declarations must be rejected at the
// second AddInstance as ambiguous, citing both locations.
func TestScenarioAmbiguousInstance(t *testing.T) {
	env := classes.NewEnv()
	env.DeclareClass(&classes.Class{
		Name:   "Eq",
		Params: []string{"a"},
		Methods: []classes.MethodScheme{
			{Name: "eq", Scheme: &types.Scheme{Type: types.NewFunc([]types.Type{types.TInt, types.TInt}, types.TBool)}},
		},
	})
	first := &classes.Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "Eq/Int/eq"}, Pos: diag.Pos{File: "a.zn", Line: 1}}
	second := &classes.Instance{ClassName: "Eq", Head: types.TInt, Methods: map[string]string{"eq": "Eq/Int/eq"}, Pos: diag.Pos{File: "a.zn", Line: 9}}

	if err := env.AddInstance(first); err != nil {
		t.Fatalf("first instance should register cleanly: %v", err)
	}
	err := env.AddInstance(second)
	if err == nil {
		t.Fatalf("expected an ambiguous instance error")
	}
	var ambiguous *classes.AmbiguousInstanceError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected *classes.AmbiguousInstanceError, got %T: %v", err, err)
	}
	if len(ambiguous.Locations) != 2 || ambiguous.Locations[0].Line != 1 || ambiguous.Locations[1].Line != 9 {
		t.Fatalf("expected both instances' locations cited, got %v", ambiguous.Locations)
	}
}

// Scenario 4: `match (3 :: Int) { 1 -> "a"; 2 -> "b"; x -> "c" }` is
// exhaustive thanks to the trailing wildcard-equivalent var pattern.
func TestScenarioIntegerOverloadExhaustive(t *testing.T) {
	reg := types.NewTypeRegistry()
	env := infer.NewEnv(reg)

	m := matchE(litE(ir.IntLit, int64(3)),
		ir.MatchArm{Pattern: &ir.LiteralPattern{Kind: ir.IntLit, Value: int64(1)}, Result: litE(ir.StringLit, "a")},
		ir.MatchArm{Pattern: &ir.LiteralPattern{Kind: ir.IntLit, Value: int64(2)}, Result: litE(ir.StringLit, "b")},
		ir.MatchArm{Pattern: &ir.VarPattern{Name: "x"}, Result: litE(ir.StringLit, "c")},
	)
	mainExpr := lamE("_", blockE(sprintE(m)))

	prog := &pipeline.Program{
		Entry:    mainExpr,
		Env:      env,
		Defs:     pipeline.Definitions{},
		Classes:  classes.NewEnv(),
		Registry: reg,
	}

	result, err := pipeline.Run(prog, codegen.NewTextSink())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.HasErrors {
		t.Fatalf("expected an exhaustive match, got diagnostics: %v", result.Diags)
	}
}

// Scenario 5: `let f = (let n = 42 in (\() . n)) in f ()` — the inner lambda
// captures n (not a global), and closure conversion must lift it with
// exactly one captured slot.
func TestScenarioClosureCapture(t *testing.T) {
	reg := types.NewTypeRegistry()
	env := infer.NewEnv(reg)

	capturing := lamE("_", varE("n"))
	inner := letE("n", litE(ir.IntLit, int64(42)), capturing)
	outer := letE("f", inner, appE(varE("f"), tupleE()))
	mainExpr := lamE("_", blockE(sprintE(outer)))

	prog := &pipeline.Program{
		Entry:    mainExpr,
		Env:      env,
		Defs:     pipeline.Definitions{},
		Classes:  classes.NewEnv(),
		Registry: reg,
	}

	result, err := pipeline.Run(prog, codegen.NewTextSink())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.HasErrors {
		t.Fatalf("unexpected diagnostics: %v", result.Diags)
	}
	if len(result.Lifted) != 1 {
		t.Fatalf("expected exactly one lifted lambda, got %d", len(result.Lifted))
	}
	lifted := result.Lifted[0]
	if len(lifted.EnvNames) != 1 || lifted.EnvNames[0] != "n" {
		t.Fatalf("expected the lifted lambda to capture exactly [n], got %v", lifted.EnvNames)
	}
}

// Scenario 6: self-application `\x -> x x` unifies a fresh variable with a
// function type built from itself, which the occurs check must reject as an
// infinite type rather than looping.
func TestScenarioOccursCheck(t *testing.T) {
	reg := types.NewTypeRegistry()
	env := infer.NewEnv(reg)

	selfApp := lamE("x", appE(varE("x"), varE("x")))
	mainExpr := lamE("_", blockE(sprintE(selfApp)))

	prog := &pipeline.Program{
		Entry:    mainExpr,
		Env:      env,
		Defs:     pipeline.Definitions{},
		Classes:  classes.NewEnv(),
		Registry: reg,
	}

	result, err := pipeline.Run(prog, codegen.NewTextSink())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasErrors {
		t.Fatalf("expected an infinite-type diagnostic")
	}
	found := false
	for _, d := range result.Diags {
		if strings.Contains(d.Message, "infinite type") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an 'infinite type' diagnostic, got %v", result.Diags)
	}
}

// Specialization determinism (spec.md §5, §8): running the same program
// twice must produce the same specialization order, since Run sorts
// DefnOrder by DefnId.String().
func TestSpecializationOrderIsDeterministic(t *testing.T) {
	run := func() []string {
		reg := types.NewTypeRegistry()
		idScheme := &types.Scheme{
			Vars: []string{"a"},
			Type: types.NewFunc([]types.Type{types.NewVar("a")}, types.NewVar("a")),
		}
		env := infer.NewEnv(reg).Bind("id", idScheme)
		defs := pipeline.Definitions{
			"id": {Expr: lamE("x", varE("x")), Scheme: idScheme},
		}
		mainExpr := lamE("_", blockE(sprintE(appE(varE("id"), litE(ir.IntLit, int64(7))))))
		prog := &pipeline.Program{
			Entry:    mainExpr,
			Env:      env,
			Defs:     defs,
			Classes:  classes.NewEnv(),
			Registry: reg,
		}
		result, err := pipeline.Run(prog, codegen.NewTextSink())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		names := make([]string, len(result.DefnOrder))
		for i, id := range result.DefnOrder {
			names[i] = id.String()
		}
		return names
	}

	first := run()
	second := run()
	if diff := testutil.DiffJSON(first, second); strings.TrimSpace(diff) != "JSON Diff:" {
		t.Fatalf("expected identical specialization order across runs:\n%s", diff)
	}
}
