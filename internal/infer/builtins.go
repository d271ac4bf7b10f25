package infer

import "github.com/sunholo/zion-core/internal/types"

// builtinSchemes gives every `__builtin_*` primitive a fixed monotype scheme
// (spec.md §4.C: "Builtin name args: the builtin's fixed scheme instantiated,
// constraints propagated from args"). Names and arities here must match
// internal/lower/emit.go's builtinIntOps/builtinFloatOps/builtinIntCmp
// tables exactly — those are what finally resolve a builtin call to an
// instruction, so a name known to one side and not the other is a bug.
var builtinSchemes = map[string]*types.Scheme{
	"__builtin_add_int": intBinOpScheme,
	"__builtin_sub_int": intBinOpScheme,
	"__builtin_mul_int": intBinOpScheme,
	"__builtin_div_int": intBinOpScheme,

	"__builtin_add_float": floatBinOpScheme,
	"__builtin_sub_float": floatBinOpScheme,
	"__builtin_mul_float": floatBinOpScheme,
	"__builtin_div_float": floatBinOpScheme,

	"__builtin_eq_int": intCmpScheme,
	"__builtin_ne_int": intCmpScheme,
	"__builtin_lt_int": intCmpScheme,
	"__builtin_le_int": intCmpScheme,
	"__builtin_gt_int": intCmpScheme,
	"__builtin_ge_int": intCmpScheme,
}

var (
	intBinOpScheme   = &types.Scheme{Type: types.NewFunc([]types.Type{types.TInt, types.TInt}, types.TInt)}
	floatBinOpScheme = &types.Scheme{Type: types.NewFunc([]types.Type{types.TFloat, types.TFloat}, types.TFloat)}
	intCmpScheme     = &types.Scheme{Type: types.NewFunc([]types.Type{types.TInt, types.TInt}, types.TBool)}
)
