package infer

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/patterns"
	"github.com/sunholo/zion-core/internal/types"
)

// inferMatch infers a Match expression (spec.md §4.C: "unify typeOf(s) with
// each pattern's type, unify every eᵢ"), binding each arm's pattern variables
// into a child environment, then hands the arm patterns to the pattern
// analyzer (module E) for exhaustiveness/redundancy diagnosis.
func inferMatch(env *Env, s *State, m *ir.Match) types.Type {
	scrutTy := Infer(env, s, m.Scrutinee)
	result := s.Fresh.Var(m.Pos)

	clauses := make([]patterns.Clause, 0, len(m.Arms))
	for _, arm := range m.Arms {
		resolvedScrut := scrutTy.Rebind(s.Sub)
		armEnv := bindPattern(env, s, arm.Pattern, resolvedScrut, m.Pos)
		armTy := Infer(armEnv, s, arm.Result)
		result = s.unify(result, armTy, m.Pos, "while checking that the branches of match agree")
		clauses = append(clauses, patterns.Clause{
			Pattern: toLatticePattern(arm.Pattern, resolvedScrut, env.Types),
			Pos:     m.Pos,
		})
	}

	bag := patterns.CheckExhaustiveness(scrutTy.Rebind(s.Sub), clauses, env.Types, m.Pos)
	for _, e := range bag.Errors() {
		s.Diags.Add(e)
	}

	return s.record(m, result)
}

// bindPattern extends env with the names a pattern introduces, unifying
// constructor/tuple/literal shape constraints against scrutTy as it goes.
func bindPattern(env *Env, s *State, p ir.MatchPattern, scrutTy types.Type, pos diag.Pos) *Env {
	switch pv := p.(type) {
	case ir.WildcardPattern:
		return env

	case *ir.VarPattern:
		return env.Bind(pv.Name, &types.Scheme{Type: scrutTy})

	case *ir.LiteralPattern:
		s.unify(scrutTy, literalType(pv.Kind), pos, "while checking a literal pattern against the scrutinee's type")
		return env

	case *ir.CtorMatchPattern:
		ctor, dt, ok := env.Types.Constructor(pv.CtorName)
		if !ok {
			s.Diags.Add(diag.New(diag.KindPattern, pos, "unknown constructor %q", pv.CtorName))
			return env
		}
		s.unify(scrutTy, &types.Id{Name: dt.Name}, pos, "while checking a constructor pattern against the scrutinee's type")
		if len(pv.Args) != len(ctor.ArgTypes) {
			s.Diags.Add(diag.New(diag.KindPattern, pos, "constructor %q expects %d argument(s), got %d", pv.CtorName, len(ctor.ArgTypes), len(pv.Args)))
		}
		for i, argPat := range pv.Args {
			argTy := types.Type(s.Fresh.Var(pos))
			if i < len(ctor.ArgTypes) {
				argTy = ctor.ArgTypes[i]
			}
			env = bindPattern(env, s, argPat, argTy, pos)
		}
		return env

	case *ir.TuplePattern:
		dims := make([]types.Type, len(pv.Elems))
		for i := range dims {
			dims[i] = s.Fresh.Var(pos)
		}
		s.unify(scrutTy, &types.Tuple{Dims: dims}, pos, "while checking a tuple pattern against the scrutinee's type")
		for i, elemPat := range pv.Elems {
			env = bindPattern(env, s, elemPat, dims[i].Rebind(s.Sub), pos)
		}
		return env

	default:
		s.Diags.Add(diag.New(diag.KindPattern, pos, "bindPattern: unhandled pattern %T", p))
		return env
	}
}

// toLatticePattern translates a match pattern into the pattern-analyzer's
// lattice representation (spec.md §4.E's consumer side: the analyzer never
// sees surface pattern syntax, only Pattern values).
func toLatticePattern(p ir.MatchPattern, ty types.Type, reg *types.TypeRegistry) patterns.Pattern {
	switch pv := p.(type) {
	case ir.WildcardPattern:
		return &patterns.AllOf{Type: ty}

	case *ir.VarPattern:
		return &patterns.AllOf{Type: ty}

	case *ir.LiteralPattern:
		return &patterns.Scalars{Type: ty, Mode: patterns.Include, Values: set.From([]string{fmt.Sprint(pv.Value)})}

	case *ir.CtorMatchPattern:
		ctor, dt, ok := reg.Constructor(pv.CtorName)
		typeName := pv.TypeName
		if ok {
			typeName = dt.Name
		}
		args := make([]patterns.Pattern, len(pv.Args))
		for i, a := range pv.Args {
			argTy := types.Type(types.TUnit)
			if ok && i < len(ctor.ArgTypes) {
				argTy = ctor.ArgTypes[i]
			}
			args[i] = toLatticePattern(a, argTy, reg)
		}
		return &patterns.CtorPattern{TypeName: typeName, CtorName: pv.CtorName, Args: args}

	case *ir.TuplePattern:
		tup, _ := ty.(*types.Tuple)
		args := make([]patterns.Pattern, len(pv.Elems))
		for i, e := range pv.Elems {
			elemTy := types.Type(types.TUnit)
			if tup != nil && i < len(tup.Dims) {
				elemTy = tup.Dims[i]
			}
			args[i] = toLatticePattern(e, elemTy, reg)
		}
		return &patterns.CtorPattern{TypeName: "tuple", CtorName: "tuple", Args: args}

	default:
		return patterns.Nothing
	}
}
