package infer

import (
	"github.com/sunholo/zion-core/internal/classes"
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

// State is the mutable inference context threaded through one top-level
// definition's check: the fresh-variable source, the accumulated
// substitution, the tracked-types map being filled in, the diagnostic bag,
// and the class-predicate requirement set module D will later discharge
// (spec.md §3 Environment: "plus the current deferred predicate set being
// accumulated").
//
// unify is applied incrementally as each constraint is discovered rather
// than batched into a separate solver pass: spec.md §4.C's "solve local
// constraints" step for Let requires a value's type to be fully solved
// before generalization can inspect its free variables, so nothing is
// gained by batching — each call below folds its constraint into Sub
// immediately, which is operationally the same left-to-right fold the spec
// describes for unifyMany.
type State struct {
	Fresh   *types.FreshSource
	Sub     types.Substitution
	Tracked *TrackedTypes
	Diags   *diag.Bag
	Reqs    *classes.RequirementSet
}

// NewState starts a fresh inference context.
func NewState() *State {
	return &State{
		Fresh:   types.NewFreshSource(),
		Sub:     types.Substitution{},
		Tracked: NewTrackedTypes(),
		Diags:   diag.NewBag(),
		Reqs:    &classes.RequirementSet{},
	}
}

// unify folds a new equality constraint into s.Sub, recording a diagnostic
// (and returning a recovery type variable) on failure instead of aborting —
// diagnostics are values, and phase C continues checking what it can
// (spec.md §7 "no cancellation").
func (s *State) unify(a, b types.Type, pos diag.Pos, reason string) types.Type {
	a = a.Rebind(s.Sub)
	b = b.Rebind(s.Sub)
	sub, err := types.UnifyWithReason(a, b, pos, reason)
	if err != nil {
		s.Diags.Add(diag.New(diag.KindType, pos, "%s", err.Error()))
		return s.Fresh.Var(pos)
	}
	s.Sub = types.Compose(sub, s.Sub)
	return a.Rebind(sub)
}

func (s *State) record(e ir.Expr, ty types.Type) types.Type {
	rebound := ty.Rebind(s.Sub)
	s.Tracked.Set(e, rebound)
	return rebound
}

// Infer implements spec.md §4.C's per-expression rules.
func Infer(env *Env, s *State, expr ir.Expr) types.Type {
	switch e := expr.(type) {

	case *ir.Literal:
		return s.record(e, literalType(e.Kind))

	case *ir.Var:
		scheme, ok := env.Lookup(e.Name)
		if !ok {
			s.Diags.Add(diag.New(diag.KindName, e.Pos, "unbound identifier %q", e.Name))
			return s.record(e, s.Fresh.Var(e.Pos))
		}
		instType, preds := scheme.Instantiate(s.Fresh)
		for _, p := range preds {
			s.Reqs.Add(p, e.Pos)
		}
		return s.record(e, instType)

	case *ir.Lambda:
		param := s.Fresh.Var(e.Pos)
		bodyEnv := env.Bind(e.Param, &types.Scheme{Type: param})
		bodyTy := Infer(bodyEnv, s, e.Body)
		return s.record(e, types.NewFunc([]types.Type{param}, bodyTy))

	case *ir.Application:
		fnTy := Infer(env, s, e.Fn)
		argTy := Infer(env, s, e.Arg)
		result := s.Fresh.Var(e.Pos)
		s.unify(fnTy, types.NewFunc([]types.Type{argTy}, result), e.Pos,
			"while checking that the function in an application has the right argument type")
		return s.record(e, result.Rebind(s.Sub))

	case *ir.Let:
		valueTy := Infer(env, s, e.Value)
		generalized := types.Generalize(valueTy, env.Rebind(s.Sub).PredicateMap(), s.Reqs.PendingPreds())
		bodyEnv := env.Bind(e.Var, generalized)
		bodyTy := Infer(bodyEnv, s, e.Body)
		return s.record(e, bodyTy)

	case *ir.Fix:
		result := s.Fresh.Var(e.Pos)
		fnTy := Infer(env, s, e.Fn)
		s.unify(fnTy, types.NewFunc([]types.Type{result}, result), e.Pos,
			"while checking that fix's argument is an endofunction of the recursive value's type")
		return s.record(e, result.Rebind(s.Sub))

	case *ir.Conditional:
		condTy := Infer(env, s, e.Cond)
		s.unify(condTy, types.TBool, e.Pos, "while checking that an if-condition is Bool")
		thenTy := Infer(env, s, e.Then)
		elseTy := Infer(env, s, e.Else)
		result := s.unify(thenTy, elseTy, e.Pos, "while checking that the branches of if agree")
		return s.record(e, result)

	case *ir.While:
		condTy := Infer(env, s, e.Cond)
		s.unify(condTy, types.TBool, e.Pos, "while checking that a while-condition is Bool")
		Infer(env, s, e.Body)
		return s.record(e, types.TUnit)

	case *ir.Block:
		var last types.Type = types.TUnit
		for _, stmt := range e.Stmts {
			last = Infer(env, s, stmt)
		}
		return s.record(e, last)

	case *ir.Return:
		valTy := Infer(env, s, e.Value)
		return s.record(e, valTy)

	case *ir.Tuple:
		dims := make([]types.Type, len(e.Elems))
		for i, el := range e.Elems {
			dims[i] = Infer(env, s, el)
		}
		return s.record(e, &types.Tuple{Dims: dims})

	case *ir.TupleDeref:
		tupTy := Infer(env, s, e.Tuple)
		if tup, ok := tupTy.Rebind(s.Sub).(*types.Tuple); ok && e.Index < len(tup.Dims) {
			return s.record(e, tup.Dims[e.Index])
		}
		s.Diags.Add(diag.New(diag.KindType, e.Pos, "tuple deref index %d out of range for %s", e.Index, tupTy.String()))
		return s.record(e, s.Fresh.Var(e.Pos))

	case *ir.As:
		valTy := Infer(env, s, e.Value)
		instType, preds := e.Scheme.Instantiate(s.Fresh)
		for _, p := range preds {
			s.Reqs.Add(p, e.Pos)
		}
		if !e.ForceCast {
			s.unify(valTy, instType, e.Pos, "while checking an explicit type ascription")
		}
		return s.record(e, instType)

	case *ir.Sizeof:
		return s.record(e, types.TInt)

	case *ir.Builtin:
		argTys := make([]types.Type, len(e.Args))
		for i, arg := range e.Args {
			argTys[i] = Infer(env, s, arg)
		}
		scheme, ok := builtinSchemes[e.Name]
		if !ok {
			s.Diags.Add(diag.New(diag.KindName, e.Pos, "unknown builtin %q", e.Name))
			return s.record(e, s.Fresh.Var(e.Pos))
		}
		instType, _ := scheme.Instantiate(s.Fresh)
		result := s.Fresh.Var(e.Pos)
		s.unify(instType, types.NewFunc(argTys, result), e.Pos,
			"while checking that builtin "+e.Name+"'s arguments match its fixed scheme")
		return s.record(e, result.Rebind(s.Sub))

	case *ir.Break, *ir.Continue:
		return s.record(expr, types.TUnit)

	case *ir.StaticPrint:
		Infer(env, s, e.Value)
		return s.record(e, types.TUnit)

	case *ir.Match:
		return inferMatch(env, s, e)

	default:
		s.Diags.Add(diag.New(diag.KindType, diag.Pos{}, "infer: unhandled expression node %T", expr))
		return s.Fresh.Var(diag.Pos{})
	}
}

func literalType(kind ir.LitKind) types.Type {
	switch kind {
	case ir.IntLit:
		return types.TInt
	case ir.FloatLit:
		return types.TFloat
	case ir.StringLit:
		return types.TString
	case ir.BoolLit:
		return types.TBool
	default:
		return types.TUnit
	}
}
