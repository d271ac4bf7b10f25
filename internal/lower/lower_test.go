package lower

import (
	"strings"
	"testing"

	"github.com/sunholo/zion-core/internal/codegen"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

func TestFreeVarsExcludesParamAndLetBound(t *testing.T) {
	// \x -> let y = x in (y, z)
	expr := &ir.Lambda{
		Param: "x",
		Body: &ir.Let{
			Var:   "y",
			Value: &ir.Var{Name: "x"},
			Body: &ir.Tuple{Elems: []ir.Expr{
				&ir.Var{Name: "y"},
				&ir.Var{Name: "z"},
			}},
		},
	}
	free := FreeVars(expr)
	if free["x"] || free["y"] {
		t.Fatalf("expected x and y bound, got free=%v", free)
	}
	if !free["z"] {
		t.Fatalf("expected z free, got free=%v", free)
	}
}

func TestFreeVarsMatchBindsPatternNames(t *testing.T) {
	expr := &ir.Match{
		Scrutinee: &ir.Var{Name: "scrut"},
		Arms: []ir.MatchArm{
			{Pattern: &ir.VarPattern{Name: "v"}, Result: &ir.Var{Name: "v"}},
			{Pattern: ir.WildcardPattern{}, Result: &ir.Var{Name: "other"}},
		},
	}
	free := FreeVars(expr)
	if free["v"] {
		t.Fatalf("expected v bound by its own arm, got free=%v", free)
	}
	if !free["scrut"] || !free["other"] {
		t.Fatalf("expected scrut and other free, got free=%v", free)
	}
}

func TestClosureConverterLiftsLambdaAndCapturesFreeVars(t *testing.T) {
	// \x -> \y -> __builtin_add_int(x, y)
	inner := &ir.Lambda{
		Param: "y",
		Body: &ir.Builtin{
			Name: "__builtin_add_int",
			Args: []ir.Expr{&ir.Var{Name: "x"}, &ir.Var{Name: "y"}},
		},
	}
	outer := &ir.Lambda{Param: "x", Body: inner}

	conv := NewClosureConverter(map[string]bool{}, types.NewFreshSource())
	result := conv.Convert(outer)

	if len(conv.Functions) != 2 {
		t.Fatalf("expected 2 lifted functions, got %d", len(conv.Functions))
	}
	innerLifted := conv.Functions[0]
	if len(innerLifted.EnvNames) != 1 || innerLifted.EnvNames[0] != "x" {
		t.Fatalf("expected inner lambda to capture [x], got %v", innerLifted.EnvNames)
	}
	outerLifted := conv.Functions[1]
	if !outerLifted.IsCaptureless() {
		t.Fatalf("expected outer lambda captureless, got %v", outerLifted.EnvNames)
	}
	if _, ok := result.(*ir.Tuple); !ok {
		t.Fatalf("expected Convert to produce a closure tuple, got %T", result)
	}
}

func TestClosureConverterRespectsGlobals(t *testing.T) {
	lam := &ir.Lambda{
		Param: "x",
		Body:  &ir.Application{Fn: &ir.Var{Name: "helper"}, Arg: &ir.Var{Name: "x"}},
	}
	conv := NewClosureConverter(map[string]bool{"helper": true}, types.NewFreshSource())
	conv.Convert(lam)

	if len(conv.Functions) != 1 {
		t.Fatalf("expected 1 lifted function, got %d", len(conv.Functions))
	}
	if !conv.Functions[0].IsCaptureless() {
		t.Fatalf("expected global reference to not be captured, got %v", conv.Functions[0].EnvNames)
	}
}

func constTypeOf(t types.Type) TypeOf {
	return func(ir.Expr) types.Type { return t }
}

func TestEmitterLowersArithmeticFunction(t *testing.T) {
	// a lifted function body: __builtin_add_int(arg, 1)
	body := &ir.Builtin{
		Name: "__builtin_add_int",
		Args: []ir.Expr{&ir.Var{Name: "n"}, &ir.Literal{Kind: ir.IntLit, Value: int64(1)}},
	}
	fn := &LiftedFunction{Name: "add_one", Param: "n", Body: body}

	sink := codegen.NewTextSink()
	em := NewEmitter(sink, constTypeOf(types.TInt), types.NewTypeRegistry())
	em.DeclareAll([]*LiftedFunction{fn})
	if err := em.EmitFunction(fn); err != nil {
		t.Fatalf("EmitFunction: %v", err)
	}

	out := sink.String()
	if !strings.Contains(out, "define Int @add_one") {
		t.Fatalf("expected function declaration, got:\n%s", out)
	}
	if !strings.Contains(out, "add i64") {
		t.Fatalf("expected add instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "ret Int") {
		t.Fatalf("expected return, got:\n%s", out)
	}
}

func TestEmitterLowersConditional(t *testing.T) {
	body := &ir.Conditional{
		Cond: &ir.Var{Name: "flag"},
		Then: &ir.Literal{Kind: ir.IntLit, Value: int64(1)},
		Else: &ir.Literal{Kind: ir.IntLit, Value: int64(2)},
	}
	fn := &LiftedFunction{Name: "pick", Param: "flag", Body: body}

	sink := codegen.NewTextSink()
	em := NewEmitter(sink, constTypeOf(types.TInt), types.NewTypeRegistry())
	em.DeclareAll([]*LiftedFunction{fn})
	if err := em.EmitFunction(fn); err != nil {
		t.Fatalf("EmitFunction: %v", err)
	}

	out := sink.String()
	if !strings.Contains(out, "br i1") {
		t.Fatalf("expected conditional branch, got:\n%s", out)
	}
	if !strings.Contains(out, "phi Int") {
		t.Fatalf("expected phi merge, got:\n%s", out)
	}
}

func TestEmitterLowersWhileWithBreak(t *testing.T) {
	body := &ir.While{
		Cond: &ir.Var{Name: "flag"},
		Body: &ir.Break{},
	}
	fn := &LiftedFunction{Name: "loop", Param: "flag", Body: body}

	sink := codegen.NewTextSink()
	em := NewEmitter(sink, constTypeOf(types.TUnit), types.NewTypeRegistry())
	em.DeclareAll([]*LiftedFunction{fn})
	if err := em.EmitFunction(fn); err != nil {
		t.Fatalf("EmitFunction: %v", err)
	}

	out := sink.String()
	if !strings.Contains(out, "while.cond") || !strings.Contains(out, "while.body") || !strings.Contains(out, "while.join") {
		t.Fatalf("expected three-block while lowering, got:\n%s", out)
	}
}

func TestBindAndTestCtorPatternTestsTag(t *testing.T) {
	reg := types.NewTypeRegistry()
	reg.Define(&types.DataType{
		Name:       "Maybe",
		TypeParams: []string{"a"},
		Ctors: []types.DataConstructor{
			{Name: "Nothing"},
			{Name: "Just", ArgTypes: []types.Type{types.NewVar("a")}},
		},
	})

	sink := codegen.NewTextSink()
	em := NewEmitter(sink, constTypeOf(types.TInt), reg)
	em.values = map[string]codegen.Value{}

	scrut := sink.ConstInt(0)
	pattern := &ir.CtorMatchPattern{
		TypeName: "Maybe",
		CtorName: "Just",
		Args:     []ir.MatchPattern{&ir.VarPattern{Name: "x"}},
	}
	em.bindAndTest(pattern, scrut)

	out := sink.String()
	if !strings.Contains(out, "icmp eq i64") {
		t.Fatalf("expected a tag comparison against Just's Tag (1), got:\n%s", out)
	}
	if !strings.Contains(out, ", 1\n") {
		t.Fatalf("expected the tag test to compare against constructor tag 1, got:\n%s", out)
	}
	if !strings.Contains(out, "mul i64") {
		t.Fatalf("expected the tag test ANDed with the nested arg test via IntMul, got:\n%s", out)
	}
	if _, ok := em.values["x"]; !ok {
		t.Fatalf("expected Just's argument to bind to x")
	}
}

func TestEmitterBreakOutsideLoopErrors(t *testing.T) {
	fn := &LiftedFunction{Name: "bad", Param: "_", Body: &ir.Break{}}
	sink := codegen.NewTextSink()
	em := NewEmitter(sink, constTypeOf(types.TUnit), types.NewTypeRegistry())
	em.DeclareAll([]*LiftedFunction{fn})
	if err := em.EmitFunction(fn); err == nil {
		t.Fatalf("expected an error for break outside loop")
	}
}
