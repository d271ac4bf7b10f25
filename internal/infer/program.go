package infer

import (
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

// mainScheme is the fixed scheme every program's entry point is checked
// against (spec.md §4.C: "main's shape is enforced by wrapping the program's
// entry point in an As to a fixed scheme Unit → Unit before inference").
var mainScheme = &types.Scheme{Type: types.NewFunc([]types.Type{types.TUnit}, types.TUnit)}

// CheckMain infers mainExpr, the program's entry point, after wrapping it in
// an ascription to Unit → Unit, and returns the resulting state (tracked
// types, diagnostics, deferred class requirements) for module D and the
// specializer to consume.
func CheckMain(env *Env, mainExpr ir.Expr, pos diag.Pos) *State {
	s := NewState()
	wrapped := &ir.As{
		Node:      ir.NewNode(pos),
		Value:     mainExpr,
		Scheme:    mainScheme,
		ForceCast: false,
	}
	Infer(env, s, wrapped)
	s.Tracked.RebindAll(s.Sub)
	return s
}
