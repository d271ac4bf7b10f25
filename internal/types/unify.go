package types

import (
	"fmt"

	"github.com/sunholo/zion-core/internal/diag"
)

// UnifyError is raised on a unification failure (spec.md §4.B, §7). Pos/Reason
// let the inferencer attach a readable causal chain.
type UnifyError struct {
	Left, Right Type
	Reason      string
	Pos         diag.Pos
}

func (e *UnifyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: cannot unify %s with %s (%s)", e.Pos, e.Left.String(), e.Right.String(), e.Reason)
	}
	return fmt.Sprintf("%s: cannot unify %s with %s", e.Pos, e.Left.String(), e.Right.String())
}

// OccursError is raised by the occurs check (spec.md §4.B, §8).
type OccursError struct {
	VarName string
	In      Type
	Pos     diag.Pos
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("%s: infinite type: %s occurs in %s", e.Pos, e.VarName, e.In.String())
}

// Unify returns a substitution that makes a and b equal, or fails (spec.md §4.B).
func Unify(a, b Type, pos diag.Pos) (Substitution, error) {
	return unify(a, b, pos, "")
}

// UnifyWithReason is Unify but tags a failure with a human-readable reason
// (spec.md §4.C: "each constraint carries a reason string").
func UnifyWithReason(a, b Type, pos diag.Pos, reason string) (Substitution, error) {
	return unify(a, b, pos, reason)
}

func unify(a, b Type, pos diag.Pos, reason string) (Substitution, error) {
	switch av := a.(type) {
	case *Var:
		if bv, ok := b.(*Var); ok && av.ID == bv.ID {
			return Substitution{}, nil
		}
		return bindVar(av, b, pos, reason)

	case *Id:
		if bv, ok := b.(*Id); ok {
			if av.Name == bv.Name {
				return Substitution{}, nil
			}
			return nil, &UnifyError{Left: a, Right: b, Reason: reason, Pos: pos}
		}
		if _, ok := b.(*Var); ok {
			return unify(b, a, pos, reason)
		}
		return nil, &UnifyError{Left: a, Right: b, Reason: reason, Pos: pos}

	case *Operator:
		if bv, ok := b.(*Var); ok {
			return unify(bv, a, pos, reason)
		}
		bo, ok := b.(*Operator)
		if !ok {
			return nil, &UnifyError{Left: a, Right: b, Reason: reason, Pos: pos}
		}
		return unifyMany([]Type{av.Fn, av.Arg}, []Type{bo.Fn, bo.Arg}, pos, reason)

	case *Tuple:
		if bv, ok := b.(*Var); ok {
			return unify(bv, a, pos, reason)
		}
		bt, ok := b.(*Tuple)
		if !ok {
			return nil, &UnifyError{Left: a, Right: b, Reason: reason, Pos: pos}
		}
		if len(av.Dims) != len(bt.Dims) {
			return nil, &UnifyError{Left: a, Right: b, Reason: fmt.Sprintf("tuple arity mismatch: %d vs %d", len(av.Dims), len(bt.Dims)), Pos: pos}
		}
		return unifyMany(av.Dims, bt.Dims, pos, reason)

	default:
		return nil, &UnifyError{Left: a, Right: b, Reason: reason, Pos: pos}
	}
}

// unifyMany is the usual recursive zip, composing substitutions left-to-right
// (spec.md §4.B).
func unifyMany(as, bs []Type, pos diag.Pos, reason string) (Substitution, error) {
	sub := Substitution{}
	for i := range as {
		lhs := as[i].Rebind(sub)
		rhs := bs[i].Rebind(sub)
		s, err := unify(lhs, rhs, pos, reason)
		if err != nil {
			return nil, err
		}
		sub = Compose(s, sub)
	}
	return sub, nil
}

func bindVar(v *Var, t Type, pos diag.Pos, reason string) (Substitution, error) {
	if tv, ok := t.(*Var); ok && tv.ID == v.ID {
		return Substitution{}, nil
	}
	if occurs(v.ID, t) {
		return nil, &OccursError{VarName: v.ID, In: t, Pos: pos}
	}
	return Substitution{v.ID: intern(t)}, nil
}

// occurs implements the occurs check (spec.md §4.B, §8): α ∈ freeVars(τ).
func occurs(name string, t Type) bool {
	_, present := t.FreeVars()[name]
	return present
}
