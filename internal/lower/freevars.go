// Package lower implements component G, the closure-converting lowering
// pass (spec.md §4.G): free-variable computation over every nested Lambda,
// rewriting each into a top-level `(arg, envPtr) → result` function plus a
// heap-allocated closure-environment tuple, and emission of the resulting
// control flow into a codegen.Sink (module H).
//
// Grounded structurally on SeleniaProject-Orizon's internal/lir (a small
// Module/Function/BasicBlock/Insn IR with one struct per opcode), adapted to
// spec.md §3's expression grammar and to targeting codegen.Sink rather than
// lir's own string-based instructions.
package lower

import "github.com/sunholo/zion-core/internal/ir"

// FreeVars computes the free variables of expr: names referenced that are
// neither globals nor bound by an enclosing Let/Lambda/Match arm within expr
// (spec.md §4.G: "Free-variable computation is structural and recurses into
// every variant; Let and Lambda extend the local-bound set; Match introduces
// the pattern's bound names into the result's local set").
func FreeVars(expr ir.Expr) map[string]bool {
	out := map[string]bool{}
	freeVars(expr, map[string]bool{}, out)
	return out
}

func freeVars(expr ir.Expr, bound map[string]bool, out map[string]bool) {
	switch e := expr.(type) {
	case *ir.Literal:
		// no references

	case *ir.Var:
		if !bound[e.Name] {
			out[e.Name] = true
		}

	case *ir.Lambda:
		inner := extend(bound, e.Param)
		freeVars(e.Body, inner, out)

	case *ir.Application:
		freeVars(e.Fn, bound, out)
		freeVars(e.Arg, bound, out)

	case *ir.Let:
		freeVars(e.Value, bound, out)
		inner := extend(bound, e.Var)
		freeVars(e.Body, inner, out)

	case *ir.Fix:
		freeVars(e.Fn, bound, out)

	case *ir.Conditional:
		freeVars(e.Cond, bound, out)
		freeVars(e.Then, bound, out)
		freeVars(e.Else, bound, out)

	case *ir.While:
		freeVars(e.Cond, bound, out)
		freeVars(e.Body, bound, out)

	case *ir.Block:
		for _, stmt := range e.Stmts {
			freeVars(stmt, bound, out)
		}

	case *ir.Return:
		freeVars(e.Value, bound, out)

	case *ir.Tuple:
		for _, el := range e.Elems {
			freeVars(el, bound, out)
		}

	case *ir.TupleDeref:
		freeVars(e.Tuple, bound, out)

	case *ir.As:
		freeVars(e.Value, bound, out)

	case *ir.Sizeof:
		// type-only, no term references

	case *ir.Builtin:
		for _, a := range e.Args {
			freeVars(a, bound, out)
		}

	case *ir.Break, *ir.Continue:
		// no references

	case *ir.StaticPrint:
		freeVars(e.Value, bound, out)

	case *ir.Match:
		freeVars(e.Scrutinee, bound, out)
		for _, arm := range e.Arms {
			inner := bindPatternNames(arm.Pattern, bound)
			freeVars(arm.Result, inner, out)
		}
	}
}

func extend(bound map[string]bool, name string) map[string]bool {
	out := make(map[string]bool, len(bound)+1)
	for k := range bound {
		out[k] = true
	}
	out[name] = true
	return out
}

// bindPatternNames extends bound with every name a match pattern introduces
// (spec.md §4.G: "Match introduces the pattern's bound names into the
// result's local set").
func bindPatternNames(p ir.MatchPattern, bound map[string]bool) map[string]bool {
	switch pv := p.(type) {
	case *ir.VarPattern:
		return extend(bound, pv.Name)
	case *ir.CtorMatchPattern:
		out := bound
		for _, a := range pv.Args {
			out = bindPatternNames(a, out)
		}
		return out
	case *ir.TuplePattern:
		out := bound
		for _, el := range pv.Elems {
			out = bindPatternNames(el, out)
		}
		return out
	default:
		return bound
	}
}
