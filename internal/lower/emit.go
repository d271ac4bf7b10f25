package lower

import (
	"fmt"

	"github.com/sunholo/zion-core/internal/codegen"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

// TypeOf resolves expr's concrete, post-specialization type. The caller
// supplies this (normally backed by infer.TrackedTypes, rebound through
// whatever substitution module F's translate step produced) since neither
// ir nor lower tracks types itself.
type TypeOf func(expr ir.Expr) types.Type

// Emitter walks a closure-converted, monomorphic expression tree and emits
// it into a codegen.Sink (module H). One Emitter instance lowers one
// LiftedFunction at a time; internal/pipeline.Run drives it over the whole
// set produced by a ClosureConverter (DeclareAll, then EmitFunction for each).
type Emitter struct {
	Sink     codegen.Sink
	TypeOf   TypeOf
	Registry *types.TypeRegistry

	funcs  map[string]codegen.Func
	values map[string]codegen.Value

	fn              codegen.Func
	breakTargets    []codegen.Block
	continueTargets []codegen.Block
}

// NewEmitter returns an Emitter targeting sink, resolving node types via
// typeOf and constructor tags via reg.
func NewEmitter(sink codegen.Sink, typeOf TypeOf, reg *types.TypeRegistry) *Emitter {
	return &Emitter{Sink: sink, TypeOf: typeOf, Registry: reg, funcs: map[string]codegen.Func{}}
}

// envPtrType is the pointer type every lifted function's second parameter
// carries — a pointer into its own closure tuple (spec.md §4.G).
var envPtrType = types.NewPointer(types.TUnit)

// DeclareAll registers every lifted function's signature with the sink
// before any body is emitted, so mutually-recursive calls resolve.
func (e *Emitter) DeclareAll(fns []*LiftedFunction) {
	for _, f := range fns {
		paramTy := e.TypeOf(&ir.Var{Name: f.Param})
		if paramTy == nil {
			paramTy = types.TUnit
		}
		retTy := e.TypeOf(f.Body)
		if retTy == nil {
			retTy = types.TUnit
		}
		e.funcs[f.Name] = e.Sink.DeclareFunction(f.Name, []types.Type{paramTy, envPtrType}, retTy)
	}
}

// EmitFunction lowers one lifted function's body into its declared
// signature. Captured names are bound by loading each env tuple slot
// (slot 0 is the function pointer itself, so capture i lives at slot i+1).
func (e *Emitter) EmitFunction(f *LiftedFunction) error {
	fn, ok := e.funcs[f.Name]
	if !ok {
		return fmt.Errorf("lower: %s not declared", f.Name)
	}
	e.fn = fn
	e.values = map[string]codegen.Value{}

	entry := e.Sink.Block(fn, "entry")
	e.Sink.SetInsertPoint(entry)

	e.values[f.Param] = e.Sink.Param(fn, 0)
	envPtr := e.Sink.Param(fn, 1)
	for i, capName := range f.EnvNames {
		slotTy := e.TypeOf(&ir.Var{Name: capName})
		if slotTy == nil {
			slotTy = types.TUnit
		}
		idx := e.Sink.ConstInt(int64(i + 1))
		slot := e.Sink.GEP(envPtr, []codegen.Value{idx})
		e.values[capName] = e.Sink.Load(slot, slotTy)
	}

	val, terminated, err := e.emit(f.Body)
	if err != nil {
		return err
	}
	if !terminated {
		e.Sink.Ret(val)
	}
	return nil
}

// emit lowers expr at the current insert point, returning its value and
// whether the current block has already been terminated (by a Return,
// Break or Continue) — callers must not emit further instructions into a
// terminated block.
func (e *Emitter) emit(expr ir.Expr) (codegen.Value, bool, error) {
	switch x := expr.(type) {
	case *ir.Literal:
		return e.emitLiteral(x), false, nil

	case *ir.Var:
		if v, ok := e.values[x.Name]; ok {
			return v, false, nil
		}
		if fn, ok := e.funcs[x.Name]; ok {
			return e.Sink.FuncPointer(fn), false, nil
		}
		return nil, false, fmt.Errorf("lower: unbound name %q", x.Name)

	case *ir.Tuple:
		elemTypes := make([]types.Type, len(x.Elems))
		elems := make([]codegen.Value, len(x.Elems))
		for i, el := range x.Elems {
			t := e.TypeOf(el)
			if t == nil {
				t = types.TUnit
			}
			elemTypes[i] = t
			v, term, err := e.emit(el)
			if err != nil {
				return nil, false, err
			}
			if term {
				return v, true, nil
			}
			elems[i] = v
		}
		ptr := e.Sink.AllocTuple(elemTypes)
		for i, v := range elems {
			idx := e.Sink.ConstInt(int64(i))
			slot := e.Sink.GEP(ptr, []codegen.Value{idx})
			e.Sink.Store(slot, v)
		}
		return ptr, false, nil

	case *ir.TupleDeref:
		tup, term, err := e.emit(x.Tuple)
		if err != nil || term {
			return tup, term, err
		}
		t := e.TypeOf(x)
		if t == nil {
			t = types.TUnit
		}
		idx := e.Sink.ConstInt(int64(x.Index))
		slot := e.Sink.GEP(tup, []codegen.Value{idx})
		return e.Sink.Load(slot, t), false, nil

	case *ir.Let:
		v, term, err := e.emit(x.Value)
		if err != nil || term {
			return v, term, err
		}
		prev, had := e.values[x.Var]
		e.values[x.Var] = v
		res, term2, err := e.emit(x.Body)
		if had {
			e.values[x.Var] = prev
		} else {
			delete(e.values, x.Var)
		}
		return res, term2, err

	case *ir.Fix:
		return e.emit(x.Fn)

	case *ir.As:
		return e.emit(x.Value)

	case *ir.Application:
		return e.emitApplication(x)

	case *ir.Conditional:
		return e.emitConditional(x)

	case *ir.While:
		return e.emitWhile(x)

	case *ir.Block:
		var last codegen.Value
		for _, stmt := range x.Stmts {
			v, term, err := e.emit(stmt)
			if err != nil {
				return nil, false, err
			}
			if term {
				return v, true, nil
			}
			last = v
		}
		if last == nil {
			last = e.Sink.ConstUnit()
		}
		return last, false, nil

	case *ir.Return:
		v, term, err := e.emit(x.Value)
		if err != nil {
			return nil, false, err
		}
		if term {
			return v, true, nil
		}
		e.Sink.Ret(v)
		return v, true, nil

	case *ir.Break:
		if len(e.breakTargets) == 0 {
			return nil, false, fmt.Errorf("lower: break outside loop")
		}
		e.Sink.Br(e.breakTargets[len(e.breakTargets)-1])
		return e.Sink.ConstUnit(), true, nil

	case *ir.Continue:
		if len(e.continueTargets) == 0 {
			return nil, false, fmt.Errorf("lower: continue outside loop")
		}
		e.Sink.Br(e.continueTargets[len(e.continueTargets)-1])
		return e.Sink.ConstUnit(), true, nil

	case *ir.Sizeof:
		return e.Sink.ConstInt(0), false, nil

	case *ir.Builtin:
		return e.emitBuiltin(x)

	case *ir.StaticPrint:
		return e.emit(x.Value)

	case *ir.Match:
		return e.emitMatch(x)

	default:
		return nil, false, fmt.Errorf("lower: unhandled expression %T", expr)
	}
}

func (e *Emitter) emitLiteral(l *ir.Literal) codegen.Value {
	switch l.Kind {
	case ir.IntLit:
		return e.Sink.ConstInt(l.Value.(int64))
	case ir.FloatLit:
		return e.Sink.ConstFloat(l.Value.(float64))
	case ir.BoolLit:
		return e.Sink.ConstBool(l.Value.(bool))
	case ir.StringLit:
		return e.Sink.GlobalString(l.Value.(string))
	default:
		return e.Sink.ConstUnit()
	}
}

// emitApplication lowers a one-argument call. Every callee has already been
// closure-converted to a tuple whose slot 0 is its function pointer, except
// a direct reference to a still-visible top-level function (no capture
// tuple was built for it), which calls directly.
func (e *Emitter) emitApplication(app *ir.Application) (codegen.Value, bool, error) {
	argVal, term, err := e.emit(app.Arg)
	if err != nil || term {
		return argVal, term, err
	}

	if v, ok := app.Fn.(*ir.Var); ok {
		if fn, ok := e.funcs[v.Name]; ok && e.values[v.Name] == nil {
			retTy := e.TypeOf(app)
			if retTy == nil {
				retTy = types.TUnit
			}
			return e.Sink.Call(fn, []codegen.Value{argVal, e.Sink.ConstUnit()}), false, nil
		}
	}

	closureVal, term, err := e.emit(app.Fn)
	if err != nil || term {
		return closureVal, term, err
	}
	zero := e.Sink.ConstInt(0)
	slot0 := e.Sink.GEP(closureVal, []codegen.Value{zero})
	fnPtr := e.Sink.Load(slot0, types.NewPointer(types.TUnit))
	retTy := e.TypeOf(app)
	if retTy == nil {
		retTy = types.TUnit
	}
	result := e.Sink.CallIndirect(fnPtr, []codegen.Value{argVal, closureVal}, retTy)
	return result, false, nil
}

var builtinIntOps = map[string]codegen.IntOp{
	"__builtin_add_int": codegen.IntAdd,
	"__builtin_sub_int": codegen.IntSub,
	"__builtin_mul_int": codegen.IntMul,
	"__builtin_div_int": codegen.IntSDiv,
}

var builtinFloatOps = map[string]codegen.FloatOp{
	"__builtin_add_float": codegen.FloatAdd,
	"__builtin_sub_float": codegen.FloatSub,
	"__builtin_mul_float": codegen.FloatMul,
	"__builtin_div_float": codegen.FloatDiv,
}

var builtinIntCmp = map[string]codegen.IntPredicate{
	"__builtin_eq_int": codegen.IntEQ,
	"__builtin_ne_int": codegen.IntNE,
	"__builtin_lt_int": codegen.IntSLT,
	"__builtin_le_int": codegen.IntSLE,
	"__builtin_gt_int": codegen.IntSGT,
	"__builtin_ge_int": codegen.IntSGE,
}

// emitBuiltin lowers a fixed-scheme primitive directly to sink arithmetic.
// Builtins are skipped by module F (they have no definition to
// specialize); module G is where their names finally resolve to real
// instructions.
func (e *Emitter) emitBuiltin(b *ir.Builtin) (codegen.Value, bool, error) {
	args := make([]codegen.Value, len(b.Args))
	for i, a := range b.Args {
		v, term, err := e.emit(a)
		if err != nil || term {
			return v, term, err
		}
		args[i] = v
	}
	if op, ok := builtinIntOps[b.Name]; ok && len(args) == 2 {
		return e.Sink.IntBinOp(op, args[0], args[1]), false, nil
	}
	if op, ok := builtinFloatOps[b.Name]; ok && len(args) == 2 {
		return e.Sink.FloatBinOp(op, args[0], args[1]), false, nil
	}
	if pred, ok := builtinIntCmp[b.Name]; ok && len(args) == 2 {
		return e.Sink.IntCmp(pred, args[0], args[1]), false, nil
	}
	return nil, false, fmt.Errorf("lower: unknown builtin %q", b.Name)
}

// emitConditional lowers if/then/else to a two-branch-plus-merge pattern
// with a phi node joining whichever side ran (spec.md §4.G).
func (e *Emitter) emitConditional(c *ir.Conditional) (codegen.Value, bool, error) {
	condVal, term, err := e.emit(c.Cond)
	if err != nil || term {
		return condVal, term, err
	}

	thenB := e.Sink.Block(e.fn, "then")
	elseB := e.Sink.Block(e.fn, "else")
	mergeB := e.Sink.Block(e.fn, "merge")
	e.Sink.CondBr(condVal, thenB, elseB)

	e.Sink.SetInsertPoint(thenB)
	thenVal, thenTerm, err := e.emit(c.Then)
	if err != nil {
		return nil, false, err
	}
	if !thenTerm {
		e.Sink.Br(mergeB)
	}

	e.Sink.SetInsertPoint(elseB)
	elseVal, elseTerm, err := e.emit(c.Else)
	if err != nil {
		return nil, false, err
	}
	if !elseTerm {
		e.Sink.Br(mergeB)
	}

	e.Sink.SetInsertPoint(mergeB)
	if thenTerm && elseTerm {
		return e.Sink.ConstUnit(), true, nil
	}
	var incoming []codegen.PhiEdge
	if !thenTerm {
		incoming = append(incoming, codegen.PhiEdge{Value: thenVal, From: thenB})
	}
	if !elseTerm {
		incoming = append(incoming, codegen.PhiEdge{Value: elseVal, From: elseB})
	}
	t := e.TypeOf(c)
	if t == nil {
		t = types.TUnit
	}
	if len(incoming) == 1 {
		return incoming[0].Value, false, nil
	}
	return e.Sink.Phi(t, incoming), false, nil
}

// emitWhile lowers a loop to the cond/body/join three-block pattern,
// pushing body's own block pair onto the break/continue target stacks so
// nested loops resolve to their nearest enclosing one (spec.md §4.G).
func (e *Emitter) emitWhile(w *ir.While) (codegen.Value, bool, error) {
	condB := e.Sink.Block(e.fn, "while.cond")
	bodyB := e.Sink.Block(e.fn, "while.body")
	joinB := e.Sink.Block(e.fn, "while.join")

	e.Sink.Br(condB)
	e.Sink.SetInsertPoint(condB)
	condVal, term, err := e.emit(w.Cond)
	if err != nil {
		return nil, false, err
	}
	if term {
		return condVal, true, nil
	}
	e.Sink.CondBr(condVal, bodyB, joinB)

	e.breakTargets = append(e.breakTargets, joinB)
	e.continueTargets = append(e.continueTargets, condB)
	e.Sink.SetInsertPoint(bodyB)
	_, bodyTerm, err := e.emit(w.Body)
	e.breakTargets = e.breakTargets[:len(e.breakTargets)-1]
	e.continueTargets = e.continueTargets[:len(e.continueTargets)-1]
	if err != nil {
		return nil, false, err
	}
	if !bodyTerm {
		e.Sink.Br(condB)
	}

	e.Sink.SetInsertPoint(joinB)
	return e.Sink.ConstUnit(), false, nil
}

// emitMatch lowers a Match into a chain of pattern tests, each comparing
// the scrutinee's tag (for constructors) or value (for scalars) and
// branching to its arm's block, falling through to the next test on
// failure; the pattern analyzer (module E) has already proven this chain
// exhaustive by the time Emit sees it.
func (e *Emitter) emitMatch(m *ir.Match) (codegen.Value, bool, error) {
	scrutVal, term, err := e.emit(m.Scrutinee)
	if err != nil || term {
		return scrutVal, term, err
	}

	joinB := e.Sink.Block(e.fn, "match.join")
	resultTy := e.TypeOf(m)
	if resultTy == nil {
		resultTy = types.TUnit
	}
	var incoming []codegen.PhiEdge

	for i, arm := range m.Arms {
		testB := e.Sink.Block(e.fn, fmt.Sprintf("match.test%d", i))
		armB := e.Sink.Block(e.fn, fmt.Sprintf("match.arm%d", i))
		var nextB codegen.Block
		if i < len(m.Arms)-1 {
			nextB = e.Sink.Block(e.fn, fmt.Sprintf("match.next%d", i))
		} else {
			nextB = joinB
		}
		e.Sink.Br(testB)
		e.Sink.SetInsertPoint(testB)

		matched := e.bindAndTest(arm.Pattern, scrutVal)
		e.Sink.CondBr(matched, armB, nextB)

		e.Sink.SetInsertPoint(armB)
		armVal, armTerm, err := e.emit(arm.Result)
		if err != nil {
			return nil, false, err
		}
		if !armTerm {
			e.Sink.Br(joinB)
			incoming = append(incoming, codegen.PhiEdge{Value: armVal, From: armB})
		}

		e.Sink.SetInsertPoint(nextB)
	}

	e.Sink.SetInsertPoint(joinB)
	if len(incoming) == 0 {
		return e.Sink.ConstUnit(), true, nil
	}
	if len(incoming) == 1 {
		return incoming[0].Value, false, nil
	}
	return e.Sink.Phi(resultTy, incoming), false, nil
}

// bindAndTest binds p's variable names against scrutVal in e.values and
// returns a Bool value reporting whether scrutVal has p's shape. Wildcards
// and plain var patterns always match. A constructor pattern tests the
// scrutinee's tag slot (slot 0, the same ADT value layout CtorMatchPattern's
// arg extraction already assumes at slot i+1) against DataConstructor.Tag,
// then ANDs that with every nested arg pattern's own test (spec.md §4.G's
// lowering cascade: ctor-tag test, arg extraction, name-binding, scalar
// equality).
func (e *Emitter) bindAndTest(p ir.MatchPattern, scrutVal codegen.Value) codegen.Value {
	switch pv := p.(type) {
	case ir.WildcardPattern:
		return e.Sink.ConstBool(true)
	case *ir.VarPattern:
		e.values[pv.Name] = scrutVal
		return e.Sink.ConstBool(true)
	case *ir.LiteralPattern:
		lit := e.emitLiteral(&ir.Literal{Kind: pv.Kind, Value: pv.Value})
		switch pv.Kind {
		case ir.IntLit, ir.BoolLit:
			return e.Sink.IntCmp(codegen.IntEQ, scrutVal, lit)
		case ir.FloatLit:
			return e.Sink.FloatCmp(codegen.FloatOEQ, scrutVal, lit)
		default:
			return e.Sink.ConstBool(true)
		}
	case *ir.TuplePattern:
		result := e.Sink.ConstBool(true)
		for i, el := range pv.Elems {
			idx := e.Sink.ConstInt(int64(i))
			slot := e.Sink.GEP(scrutVal, []codegen.Value{idx})
			elVal := e.Sink.Load(slot, types.TUnit)
			sub := e.bindAndTest(el, elVal)
			result = e.Sink.IntBinOp(codegen.IntMul, result, sub)
		}
		return result
	case *ir.CtorMatchPattern:
		result := e.Sink.ConstBool(true)
		if ctor, _, ok := e.Registry.Constructor(pv.CtorName); ok {
			tagIdx := e.Sink.ConstInt(0)
			tagSlot := e.Sink.GEP(scrutVal, []codegen.Value{tagIdx})
			tagVal := e.Sink.Load(tagSlot, types.TInt)
			tagTest := e.Sink.IntCmp(codegen.IntEQ, tagVal, e.Sink.ConstInt(int64(ctor.Tag)))
			result = e.Sink.IntBinOp(codegen.IntMul, result, tagTest)
		}
		for i, a := range pv.Args {
			idx := e.Sink.ConstInt(int64(i + 1))
			slot := e.Sink.GEP(scrutVal, []codegen.Value{idx})
			argVal := e.Sink.Load(slot, types.TUnit)
			sub := e.bindAndTest(a, argVal)
			result = e.Sink.IntBinOp(codegen.IntMul, result, sub)
		}
		return result
	default:
		return e.Sink.ConstBool(true)
	}
}
