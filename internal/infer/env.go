// Package infer implements component C, the constraint-based inferencer
// (spec.md §4.C): a single pass over the typed IR that emits reasoned
// equality constraints, solves them by folding unify, and records every
// expression's inferred type into a tracked-types map.
//
// Grounded on the teacher's internal/types/inference.go and
// inference_helpers.go (the overall Algorithm-W-variant shape: an Env of
// schemes, a running substitution, constraint emission with a reason
// string), adapted to spec.md §3's Expression grammar and to module D's
// deferred-predicate handoff instead of the teacher's in-line dictionary
// elaboration.
package infer

import (
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

// Env is the inference environment (spec.md §3): a mapping from qualified
// identifier to Scheme, plus the registry of user-defined algebraic types
// consulted when checking constructor patterns in match arms.
type Env struct {
	parent *Env
	vars   map[string]*types.Scheme
	Types  *types.TypeRegistry
}

// NewEnv returns the root environment, seeded with reg for ADT lookups.
func NewEnv(reg *types.TypeRegistry) *Env {
	return &Env{vars: map[string]*types.Scheme{}, Types: reg}
}

// Child returns a new environment extending e with no bindings yet — used to
// open a fresh lexical scope (lambda parameter, let-body, match arm).
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: map[string]*types.Scheme{}, Types: e.Types}
}

// Bind bind name to scheme in a fresh child scope and returns it, leaving e
// unmodified (spec.md §3: "the environment is rebuilt ... rather than
// mutated in place").
func (e *Env) Bind(name string, scheme *types.Scheme) *Env {
	child := e.Child()
	child.vars[name] = scheme
	return child
}

// Lookup searches e and its ancestors for name's scheme.
func (e *Env) Lookup(name string) (*types.Scheme, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if s, ok := cur.vars[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// PredicateMap flattens every scheme currently bound in scope into the
// env-predicate-map Generalize needs to decide what NOT to close over
// (spec.md §4.A).
func (e *Env) PredicateMap() types.EnvPredicateMap {
	out := types.EnvPredicateMap{}
	for cur := e; cur != nil; cur = cur.parent {
		for _, scheme := range cur.vars {
			bound := map[string]bool{}
			for _, v := range scheme.Vars {
				bound[v] = true
			}
			for name := range scheme.Type.FreeVars() {
				if !bound[name] && out[name] == nil {
					out[name] = map[string]bool{}
				}
			}
			for name, classes := range scheme.PredicateMap() {
				if out[name] == nil {
					out[name] = map[string]bool{}
				}
				for c := range classes {
					out[name][c] = true
				}
			}
		}
	}
	return out
}

// Rebind applies sub to every scheme's free type in scope, producing a new
// Env (used after solving a Let's local constraints, before generalizing).
func (e *Env) Rebind(sub types.Substitution) *Env {
	if e == nil {
		return nil
	}
	out := &Env{parent: e.parent.rebindOrNil(sub), vars: map[string]*types.Scheme{}, Types: e.Types}
	for name, scheme := range e.vars {
		out.vars[name] = &types.Scheme{
			Vars:  scheme.Vars,
			Preds: scheme.Preds,
			Type:  scheme.Type.Rebind(sub),
		}
	}
	return out
}

func (e *Env) rebindOrNil(sub types.Substitution) *Env {
	if e == nil {
		return nil
	}
	return e.Rebind(sub)
}

// TrackedTypes is the map from expression node identity to its inferred type
// (spec.md §3), populated monotonically during inference and consulted
// (never mutated) during lowering.
type TrackedTypes struct {
	byID map[uint64]types.Type
}

// NewTrackedTypes returns an empty tracked-types map.
func NewTrackedTypes() *TrackedTypes {
	return &TrackedTypes{byID: map[uint64]types.Type{}}
}

// Set records e's inferred type. Called exactly once per node, in inference
// order.
func (t *TrackedTypes) Set(e ir.Expr, ty types.Type) {
	t.byID[e.ID()] = ty
}

// Get returns the type the inferencer recorded for e.
func (t *TrackedTypes) Get(e ir.Expr) (types.Type, bool) {
	ty, ok := t.byID[e.ID()]
	return ty, ok
}

// Len returns how many expression nodes have a recorded type.
func (t *TrackedTypes) Len() int { return len(t.byID) }

// RebindAll rewrites every recorded type through sub — used once solving
// completes, to make every entry reflect the final substitution rather than
// the substitution in effect when that node was visited (spec.md §4.C
// "solver then folds unify across them").
func (t *TrackedTypes) RebindAll(sub types.Substitution) {
	for id, ty := range t.byID {
		t.byID[id] = ty.Rebind(sub)
	}
}
