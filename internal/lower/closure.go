package lower

import (
	"sort"

	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

// LiftedFunction is one Lambda rewritten to a top-level function of
// signature `(arg, envPtr) → result` (spec.md §4.G). EnvNames is the
// captured-variable order, which is also the tuple-slot order (slot 0 is
// reserved for the function pointer itself, so a name at EnvNames[i] lives
// at tuple slot i+1).
type LiftedFunction struct {
	Name     string
	EnvNames []string
	Param    string
	Body     ir.Expr
}

// IsCaptureless reports whether the lambda closes over nothing (EnvNames is
// empty). The Emitter does not branch on it: a captureless lambda's closure
// tuple is built through the same per-evaluation AllocTuple path as any other.
func (f *LiftedFunction) IsCaptureless() bool { return len(f.EnvNames) == 0 }

// ClosureConverter rewrites every nested Lambda in an expression tree into a
// closure-tuple construction plus a hoisted LiftedFunction, per spec.md
// §4.G. Globals names a top-level definition's siblings (and any other
// already-specialized DefnId target) that must NOT be treated as captures —
// a free reference to a global compiles to a direct reference, not an
// environment slot.
type ClosureConverter struct {
	Globals   map[string]bool
	fresh     *types.FreshSource
	Functions []*LiftedFunction
}

// NewClosureConverter returns a converter seeded with the known globals and
// a fresh-name source shared with the rest of the compilation.
func NewClosureConverter(globals map[string]bool, fresh *types.FreshSource) *ClosureConverter {
	return &ClosureConverter{Globals: globals, fresh: fresh}
}

// Convert recursively rewrites expr, accumulating hoisted functions into
// c.Functions as it encounters Lambdas.
func (c *ClosureConverter) Convert(expr ir.Expr) ir.Expr {
	switch e := expr.(type) {
	case *ir.Literal, *ir.Var, *ir.Break, *ir.Continue, *ir.Sizeof:
		return expr

	case *ir.Lambda:
		return c.liftLambda(e)

	case *ir.Application:
		return &ir.Application{Node: e.Node, Fn: c.Convert(e.Fn), Arg: c.Convert(e.Arg)}

	case *ir.Let:
		return &ir.Let{Node: e.Node, Var: e.Var, Value: c.Convert(e.Value), Body: c.Convert(e.Body)}

	case *ir.Fix:
		return &ir.Fix{Node: e.Node, Fn: c.Convert(e.Fn)}

	case *ir.Conditional:
		return &ir.Conditional{Node: e.Node, Cond: c.Convert(e.Cond), Then: c.Convert(e.Then), Else: c.Convert(e.Else)}

	case *ir.While:
		return &ir.While{Node: e.Node, Cond: c.Convert(e.Cond), Body: c.Convert(e.Body)}

	case *ir.Block:
		stmts := make([]ir.Expr, len(e.Stmts))
		for i, s := range e.Stmts {
			stmts[i] = c.Convert(s)
		}
		return &ir.Block{Node: e.Node, Stmts: stmts}

	case *ir.Return:
		return &ir.Return{Node: e.Node, Value: c.Convert(e.Value)}

	case *ir.Tuple:
		elems := make([]ir.Expr, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = c.Convert(el)
		}
		return &ir.Tuple{Node: e.Node, Elems: elems}

	case *ir.TupleDeref:
		return &ir.TupleDeref{Node: e.Node, Tuple: c.Convert(e.Tuple), Index: e.Index}

	case *ir.As:
		return &ir.As{Node: e.Node, Value: c.Convert(e.Value), Scheme: e.Scheme, ForceCast: e.ForceCast}

	case *ir.Builtin:
		args := make([]ir.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = c.Convert(a)
		}
		return &ir.Builtin{Node: e.Node, Name: e.Name, Args: args}

	case *ir.StaticPrint:
		return &ir.StaticPrint{Node: e.Node, Value: c.Convert(e.Value)}

	case *ir.Match:
		arms := make([]ir.MatchArm, len(e.Arms))
		for i, arm := range e.Arms {
			arms[i] = ir.MatchArm{Pattern: arm.Pattern, Result: c.Convert(arm.Result)}
		}
		return &ir.Match{Node: e.Node, Scrutinee: c.Convert(e.Scrutinee), Arms: arms}

	default:
		return expr
	}
}

func (c *ClosureConverter) liftLambda(lam *ir.Lambda) ir.Expr {
	free := FreeVars(lam)
	delete(free, lam.Param)
	for g := range c.Globals {
		delete(free, g)
	}
	captured := make([]string, 0, len(free))
	for name := range free {
		captured = append(captured, name)
	}
	sort.Strings(captured)

	name := c.fresh.Name("__lambda")
	convertedBody := c.Convert(lam.Body)
	c.Functions = append(c.Functions, &LiftedFunction{
		Name:     name,
		EnvNames: captured,
		Param:    lam.Param,
		Body:     convertedBody,
	})

	elems := make([]ir.Expr, 0, len(captured)+1)
	elems = append(elems, &ir.Var{Node: ir.NewNode(lam.Pos), Name: name})
	for _, capName := range captured {
		elems = append(elems, &ir.Var{Node: ir.NewNode(lam.Pos), Name: capName})
	}
	return &ir.Tuple{Node: ir.NewNode(lam.Pos), Elems: elems}
}
