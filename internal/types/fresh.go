package types

import (
	"fmt"
	"sync/atomic"

	"github.com/sunholo/zion-core/internal/diag"
)

// FreshSource is a monotonically increasing fresh-symbol counter
// (spec.md §5) for one compilation; NewFreshSource starts a new one at zero.
type FreshSource struct {
	counter uint64
}

// NewFreshSource starts a fresh counter at zero; call once per compilation
// (spec.md §5: "defined initialization... at the start... of a compile").
func NewFreshSource() *FreshSource {
	return &FreshSource{}
}

// Var mints a new type variable with a unique id and the given predicates.
// pos is not stored: the returned Var carries no source location.
func (f *FreshSource) Var(pos diag.Pos, preds ...string) *Var {
	n := atomic.AddUint64(&f.counter, 1)
	return NewVar(fmt.Sprintf("t%d", n), preds...)
}

// Name mints a fresh bare name, used for closure-conversion temporaries and
// specialization-generated symbols (module G, F).
func (f *FreshSource) Name(prefix string) string {
	n := atomic.AddUint64(&f.counter, 1)
	return fmt.Sprintf("%s%d", prefix, n)
}
