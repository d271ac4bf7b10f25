// Package pipeline drives components A through H end to end for one
// compilation: infer main, discharge class predicates, demand-specialize
// every reachable definition, closure-convert each specialized body, and
// emit it into a codegen.Sink. Lexing, parsing and module/name resolution
// stay external collaborators (spec.md §1): callers hand pipeline an
// already-built ir.Expr tree and a populated Definitions table instead of a
// file path.
//
// Grounded on the teacher's cmd/ailang/main.go driver functions (runFile,
// checkFile: a small linear sequence of phase calls, each checked for
// errors before the next begins) adapted to this core's own phase split.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/sunholo/zion-core/internal/classes"
	"github.com/sunholo/zion-core/internal/codegen"
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/infer"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/lower"
	"github.com/sunholo/zion-core/internal/specialize"
	"github.com/sunholo/zion-core/internal/types"
)

// Definition is one top-level binding's source expression and declared
// scheme.
type Definition struct {
	Expr   ir.Expr
	Scheme *types.Scheme
}

// Definitions implements specialize.Definitions over a plain map — the
// simplest Definitions a caller can hand the pipeline once name resolution
// (external) has flattened a module into top-level bindings.
type Definitions map[string]Definition

// Lookup implements specialize.Definitions.
func (d Definitions) Lookup(name string) (ir.Expr, *types.Scheme, bool) {
	def, ok := d[name]
	if !ok {
		return nil, nil, false
	}
	return def.Expr, def.Scheme, true
}

// Names returns every defined name, used to seed closure conversion's
// globals set.
func (d Definitions) Names() map[string]bool {
	out := make(map[string]bool, len(d))
	for name := range d {
		out[name] = true
	}
	return out
}

// Program is everything one compilation needs: the entry point, the
// environment it type-checks against, the top-level definitions the
// specializer may demand, and the class/instance environment module D
// resolves against.
type Program struct {
	Entry    ir.Expr
	Env      *infer.Env
	Defs     Definitions
	Classes  *classes.Env
	Registry *types.TypeRegistry
	Pos      diag.Pos
}

// Result collects every phase's output: the merged diagnostics, the
// specialized definitions (DefnOrder, sorted by DefnId.String(), not in the
// order the worklist demanded them; spec.md §8 "specialization
// determinism"), and the sink they were emitted into.
type Result struct {
	Diags       []*diag.Error
	HasErrors   bool
	MainType    types.Type
	Tracked     *infer.TrackedTypes
	DefnOrder   []specialize.DefnId
	Lifted      []*lower.LiftedFunction
	EntryLifted *lower.LiftedFunction
	Sink        codegen.Sink
}

// Run executes phases C through H over prog, emitting into sink.
func Run(prog *Program, sink codegen.Sink) (*Result, error) {
	result := &Result{}

	mainState := infer.CheckMain(prog.Env, prog.Entry, prog.Pos)
	result.Diags = append(result.Diags, mainState.Diags.Errors()...)
	result.Tracked = mainState.Tracked
	result.Sink = sink
	if mt, ok := mainState.Tracked.Get(prog.Entry); ok {
		result.MainType = mt
	}

	resolved, deferred, classErrs := mainState.Reqs.Discharge(prog.Classes)
	_ = resolved
	for _, cerr := range classErrs {
		result.Diags = append(result.Diags, diag.New(diag.KindClass, prog.Pos, "%s", cerr.Error()))
	}
	if len(deferred) > 0 {
		for _, pred := range deferred {
			result.Diags = append(result.Diags, diag.New(diag.KindClass, prog.Pos,
				"ambiguous type: unresolved constraint %s", pred.String()))
		}
	}

	if len(result.Diags) > 0 {
		result.HasErrors = true
		return result, nil
	}

	sp := specialize.New(prog.Defs, prog.Classes)
	mainScheme := &types.Scheme{Type: types.NewFunc([]types.Type{types.TUnit}, types.TUnit)}
	mainID, err := specialize.NewDefnId("main", mainScheme)
	if err != nil {
		return nil, err
	}
	globals := prog.Defs.Names()
	globals["main"] = true

	// concreteSchemes maps a demanded DefnId's key to the monomorphic scheme
	// it was actually demanded at. sp.Run hands translate the *declared*
	// (possibly polymorphic) scheme from Definitions.Lookup, since that is
	// all the Definitions interface carries — the concrete instantiation a
	// given demand needs has to be threaded through separately.
	concreteSchemes := map[uint64]*types.Scheme{}
	if k, kerr := mainID.Key(); kerr == nil {
		concreteSchemes[k] = mainScheme
	}

	translate := func(sp *specialize.Specializer, id specialize.DefnId, expr ir.Expr, declared *types.Scheme) (ir.Expr, error) {
		concrete := declared
		if k, kerr := id.Key(); kerr == nil {
			if cs, ok := concreteSchemes[k]; ok {
				concrete = cs
			}
		}
		return translateDefinition(sp, id, expr, concrete, prog, concreteSchemes)
	}

	// Seed the worklist with every top-level name main's body (now fully
	// solved and rebound) refers to, at the concrete type it was used at —
	// the worklist then drives translateDefinition's own discovery for
	// whatever those definitions in turn call.
	if err := discoverDemands(sp, prog.Defs, mainState.Tracked, prog.Entry, prog.Pos, concreteSchemes); err != nil {
		return nil, err
	}
	if _, _, ok := prog.Defs.Lookup("main"); ok {
		if err := sp.Demand(mainID, prog.Pos); err != nil {
			return nil, err
		}
	}
	if err := sp.Run(translate); err != nil {
		return nil, err
	}

	result.Diags = append(result.Diags, sp.Diagnostics().Errors()...)
	if len(result.Diags) > 0 {
		result.HasErrors = true
		return result, nil
	}

	translated := sp.TranslationMap()
	ids := make([]specialize.DefnId, 0, len(translated))
	for id := range translated {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	result.DefnOrder = ids

	fresh := types.NewFreshSource()
	conv := lower.NewClosureConverter(globals, fresh)

	entryLambda, ok := prog.Entry.(*ir.Lambda)
	if !ok {
		return nil, fmt.Errorf("pipeline: entry point must be a Lambda (Unit -> Unit), got %T", prog.Entry)
	}
	var entryLifted *lower.LiftedFunction
	for _, id := range ids {
		if id == mainID {
			// main is the designated entry point, not a value flowing
			// through a closure tuple: its top-level function is "main"
			// itself rather than an anonymous lifted lambda.
			entryLifted = &lower.LiftedFunction{
				Name:  "main",
				Param: entryLambda.Param,
				Body:  conv.Convert(entryLambda.Body),
			}
			continue
		}
		if lam, ok := translated[id].(*ir.Lambda); ok {
			// A top-level function keeps its own name, so a direct
			// reference to it from another body lowers to a direct call.
			conv.Functions = append(conv.Functions, &lower.LiftedFunction{Name: id.Name, Param: lam.Param, Body: conv.Convert(lam.Body)})
			continue
		}
		conv.Convert(translated[id])
	}
	if entryLifted == nil {
		entryLifted = &lower.LiftedFunction{Name: "main", Param: entryLambda.Param, Body: conv.Convert(entryLambda.Body)}
	}
	result.Lifted = conv.Functions
	result.EntryLifted = entryLifted

	typeOf := func(e ir.Expr) types.Type {
		ty, _ := mainState.Tracked.Get(e)
		return ty
	}
	em := lower.NewEmitter(sink, typeOf, prog.Registry)
	all := append(append([]*lower.LiftedFunction{}, conv.Functions...), entryLifted)
	em.DeclareAll(all)
	for _, f := range all {
		if err := em.EmitFunction(f); err != nil {
			return nil, fmt.Errorf("pipeline: emitting %s: %w", f.Name, err)
		}
	}

	return result, nil
}

// translateDefinition performs spec.md §4.F's steps 3-4 for one demanded
// DefnId: re-infer the definition's source expression ascribed to the
// concrete scheme the worklist entry demanded, then discover and enqueue
// every further top-level name this body calls, at the concrete type it is
// used at there (spec.md §4.F step 2 applied recursively down the call
// graph, not just at main).
func translateDefinition(sp *specialize.Specializer, id specialize.DefnId, expr ir.Expr, scheme *types.Scheme, prog *Program, concreteSchemes map[uint64]*types.Scheme) (ir.Expr, error) {
	s := infer.NewState()
	wrapped := &ir.As{
		Node:      ir.NewNode(prog.Pos),
		Value:     expr,
		Scheme:    scheme,
		ForceCast: false,
	}
	infer.Infer(prog.Env, s, wrapped)
	if s.Diags.HasErrors() {
		return nil, fmt.Errorf("specializing %s: %s", id.String(), s.Diags.Errors()[0].Message)
	}
	s.Tracked.RebindAll(s.Sub)
	if err := discoverDemands(sp, prog.Defs, s.Tracked, expr, prog.Pos, concreteSchemes); err != nil {
		return nil, err
	}
	return expr, nil
}

// discoverDemands walks expr for references to other top-level definitions
// and demands each at the concrete type tracked records it was used at,
// completing the worklist's step 2 ("record every Application of a
// possibly-polymorphic top-level name as a further demand") which a
// translate callback alone cannot do, since Infer only solves types, it
// never enqueues work. concreteSchemes, if non-nil, additionally records the
// monomorphic scheme each newly demanded DefnId was found at, for Run's
// translate closure to hand back to translateDefinition.
func discoverDemands(sp *specialize.Specializer, defs Definitions, tracked *infer.TrackedTypes, expr ir.Expr, pos diag.Pos, concreteSchemes map[uint64]*types.Scheme) error {
	var firstErr error
	walkExpr(expr, func(e ir.Expr) {
		if firstErr != nil {
			return
		}
		v, ok := e.(*ir.Var)
		if !ok {
			return
		}
		if _, _, ok := defs.Lookup(v.Name); !ok {
			return
		}
		ty, ok := tracked.Get(v)
		if !ok {
			return
		}
		if len(ty.FreeVars()) > 0 {
			// still has an unresolved type variable — not ours to demand.
			return
		}
		scheme := &types.Scheme{Type: ty}
		id, err := specialize.NewDefnId(v.Name, scheme)
		if err != nil {
			return
		}
		if err := sp.Demand(id, pos); err != nil {
			firstErr = err
			return
		}
		if concreteSchemes != nil {
			if k, kerr := id.Key(); kerr == nil {
				concreteSchemes[k] = scheme
			}
		}
	})
	return firstErr
}

// walkExpr visits e and every subexpression it contains, in evaluation
// order. It never rewrites anything — the read-only counterpart to
// lower.ClosureConverter.Convert, which rebuilds the tree it walks.
func walkExpr(e ir.Expr, visit func(ir.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *ir.Literal, *ir.Var, *ir.Break, *ir.Continue, *ir.Sizeof:
	case *ir.Lambda:
		walkExpr(n.Body, visit)
	case *ir.Application:
		walkExpr(n.Fn, visit)
		walkExpr(n.Arg, visit)
	case *ir.Let:
		walkExpr(n.Value, visit)
		walkExpr(n.Body, visit)
	case *ir.Fix:
		walkExpr(n.Fn, visit)
	case *ir.Conditional:
		walkExpr(n.Cond, visit)
		walkExpr(n.Then, visit)
		walkExpr(n.Else, visit)
	case *ir.While:
		walkExpr(n.Cond, visit)
		walkExpr(n.Body, visit)
	case *ir.Block:
		for _, stmt := range n.Stmts {
			walkExpr(stmt, visit)
		}
	case *ir.Return:
		walkExpr(n.Value, visit)
	case *ir.Tuple:
		for _, el := range n.Elems {
			walkExpr(el, visit)
		}
	case *ir.TupleDeref:
		walkExpr(n.Tuple, visit)
	case *ir.As:
		walkExpr(n.Value, visit)
	case *ir.Builtin:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	case *ir.StaticPrint:
		walkExpr(n.Value, visit)
	case *ir.Match:
		walkExpr(n.Scrutinee, visit)
		for _, arm := range n.Arms {
			walkExpr(arm.Result, visit)
		}
	}
}
