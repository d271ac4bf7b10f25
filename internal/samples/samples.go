// Package samples is the CLI's stand-in for a real module loader: lexing,
// parsing and name resolution are external collaborators (spec.md §1), so
// cmd/zionc's find/parse/compile/specialize/ssa-gen subcommands operate on a
// small fixed registry of already-built pipeline.Program values instead of
// reading a file from disk. Each entry is named the way a source file would
// be, so the CLI experience (`zionc compile factorial`) reads the same as it
// would once a front end exists to produce these trees from text.
package samples

import (
	"fmt"
	"sort"

	"github.com/sunholo/zion-core/internal/classes"
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/infer"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/pipeline"
	"github.com/sunholo/zion-core/internal/types"
)

func node() ir.Node { return ir.NewNode(diag.Pos{File: "<builtin>"}) }

func lit(k ir.LitKind, v any) *ir.Literal { return &ir.Literal{Node: node(), Kind: k, Value: v} }
func v(name string) *ir.Var               { return &ir.Var{Node: node(), Name: name} }
func lam(param string, body ir.Expr) *ir.Lambda {
	return &ir.Lambda{Node: node(), Param: param, Body: body}
}
func app(fn, arg ir.Expr) *ir.Application { return &ir.Application{Node: node(), Fn: fn, Arg: arg} }
func block(stmts ...ir.Expr) *ir.Block     { return &ir.Block{Node: node(), Stmts: stmts} }
func sprint(value ir.Expr) *ir.StaticPrint   { return &ir.StaticPrint{Node: node(), Value: value} }
func builtin(name string, args ...ir.Expr) *ir.Builtin {
	return &ir.Builtin{Node: node(), Name: name, Args: args}
}
func cond(c, t, e ir.Expr) *ir.Conditional { return &ir.Conditional{Node: node(), Cond: c, Then: t, Else: e} }
func fix(fn ir.Expr) *ir.Fix               { return &ir.Fix{Node: node(), Fn: fn} }

// builder constructs a fresh *pipeline.Program; every CLI invocation gets its
// own Env/Classes/Registry rather than sharing mutable state across runs.
type builder func() *pipeline.Program

var registry = map[string]builder{
	"identity":  identityProgram,
	"factorial": factorialProgram,
	"maybe-sum": maybeSumProgram,
}

// Find looks up a named sample program, building it fresh.
func Find(name string) (*pipeline.Program, bool) {
	b, ok := registry[name]
	if !ok {
		return nil, false
	}
	return b(), true
}

// Names returns every registered sample name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe returns a one-line human-readable summary of a sample, for the
// `find` subcommand.
func Describe(name string) (string, error) {
	prog, ok := Find(name)
	if !ok {
		return "", fmt.Errorf("no such sample program %q (have: %v)", name, Names())
	}
	return fmt.Sprintf("%s: entry = %s", name, prog.Entry.String()), nil
}

// identityProgram is spec.md §8's worked identity-specialization example: a
// generalized `id` instantiated at Int -> Int from main's body.
func identityProgram() *pipeline.Program {
	reg := types.NewTypeRegistry()
	idScheme := &types.Scheme{
		Vars: []string{"a"},
		Type: types.NewFunc([]types.Type{types.NewVar("a")}, types.NewVar("a")),
	}
	env := infer.NewEnv(reg).Bind("id", idScheme)
	defs := pipeline.Definitions{
		"id": {Expr: lam("x", v("x")), Scheme: idScheme},
	}
	main := lam("_", block(sprint(app(v("id"), lit(ir.IntLit, int64(7))))))
	return &pipeline.Program{
		Entry:    main,
		Env:      env,
		Defs:     defs,
		Classes:  classes.NewEnv(),
		Registry: reg,
		Pos:      diag.Pos{File: "identity"},
	}
}

// factorialProgram exercises Fix, Conditional and the integer builtins in
// one self-recursive, non-top-level binding (spec.md §4.F: "recursion must
// already be handled by Fix at inference time", so no specialization demand
// is ever raised for it — it never leaves main's own body).
func factorialProgram() *pipeline.Program {
	reg := types.NewTypeRegistry()
	env := infer.NewEnv(reg)

	fact := fix(lam("self", lam("n",
		cond(
			builtin("__builtin_le_int", v("n"), lit(ir.IntLit, int64(1))),
			lit(ir.IntLit, int64(1)),
			builtin("__builtin_mul_int", v("n"),
				app(v("self"), builtin("__builtin_sub_int", v("n"), lit(ir.IntLit, int64(1))))),
		),
	)))
	main := lam("_", block(sprint(app(fact, lit(ir.IntLit, int64(5))))))

	return &pipeline.Program{
		Entry:    main,
		Env:      env,
		Defs:     pipeline.Definitions{},
		Classes:  classes.NewEnv(),
		Registry: reg,
		Pos:      diag.Pos{File: "factorial"},
	}
}

// maybeSumProgram matches a Maybe Int with both arms present (exhaustive),
// demonstrating module E's exhaustiveness check accepting a complete match.
func maybeSumProgram() *pipeline.Program {
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

	// A real tagged value, not a bare literal: slot 0 is Just's tag (1, its
	// declaration order in Ctors above), slot 1 its carried Int argument —
	// the same slot layout bindAndTest's ctor-tag test and arg extraction
	// assume for every *ir.CtorMatchPattern.
	scrutinee := &ir.As{
		Node: node(),
		Value: &ir.Tuple{
			Node:  node(),
			Elems: []ir.Expr{lit(ir.IntLit, int64(1)), lit(ir.IntLit, int64(42))},
		},
		Scheme:    &types.Scheme{Type: &types.Id{Name: "Maybe"}},
		ForceCast: true,
	}
	m := &ir.Match{
		Node:      node(),
		Scrutinee: scrutinee,
		Arms: []ir.MatchArm{
			{Pattern: &ir.CtorMatchPattern{TypeName: "Maybe", CtorName: "Nothing"}, Result: lit(ir.IntLit, int64(0))},
			{Pattern: &ir.CtorMatchPattern{TypeName: "Maybe", CtorName: "Just", Args: []ir.MatchPattern{&ir.VarPattern{Name: "x"}}}, Result: v("x")},
		},
	}
	main := lam("_", block(sprint(m)))

	return &pipeline.Program{
		Entry:    main,
		Env:      env,
		Defs:     pipeline.Definitions{},
		Classes:  classes.NewEnv(),
		Registry: reg,
		Pos:      diag.Pos{File: "maybe-sum"},
	}
}
