// Package types implements the type representation, schemes, substitution,
// and first-order unifier (spec.md §4.A, §4.B): components A and B of the
// pipeline. Every other phase of the compiler builds on this package.
package types

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Type is the sum described in spec.md §3: Var, Id, Operator, Tuple, Lambda.
type Type interface {
	// String renders the type in surface notation.
	String() string
	// repr returns the canonical representation used for hashing, ordering,
	// and scheme-equality (spec.md §4.A: "repr() is cached").
	repr() string
	// FreeVars returns the set of free type-variable names.
	FreeVars() map[string]bool
	// Rebind applies a substitution, producing a new Type (spec.md §4.A).
	Rebind(sub Substitution) Type
}

// internTable hash-conses the types passed to intern, keyed by repr(), so
// that equal interned types share one instance (spec.md §9: "hash consing
// opportunity"). Only Var caches its repr(); the compound types recompute
// theirs on every call.
var internTable, _ = lru.New[string, Type](4096)

var internMu sync.Mutex

func intern(t Type) Type {
	key := t.repr()
	internMu.Lock()
	defer internMu.Unlock()
	if existing, ok := internTable.Get(key); ok {
		return existing
	}
	internTable.Add(key, t)
	return t
}

// Equals compares two types structurally by their repr(), which is
// the canonical form (spec.md §4.A).
func Equals(a, b Type) bool {
	return a.repr() == b.repr()
}

// Repr exposes the canonical representation for callers outside this package
// (the class-predicate engine and specializer key on it directly).
func Repr(t Type) string {
	return t.repr()
}

// --- Var -------------------------------------------------------------------

// Var is a type variable, optionally carrying class predicates it must
// satisfy (spec.md §3).
type Var struct {
	ID    string
	Preds []string // sorted class names this variable is constrained by

	reprCache string
	hasRepr   bool
}

// NewVar constructs a fresh, uninterned Var. Use FreshSource.Var (fresh.go) to mint
// globally-unique variables during inference/instantiation.
func NewVar(id string, preds ...string) *Var {
	sorted := append([]string{}, preds...)
	sort.Strings(sorted)
	return &Var{ID: id, Preds: sorted}
}

func (v *Var) String() string { return v.ID }

func (v *Var) repr() string {
	if !v.hasRepr {
		if len(v.Preds) == 0 {
			v.reprCache = v.ID
		} else {
			v.reprCache = fmt.Sprintf("%s[%s]", v.ID, strings.Join(v.Preds, ","))
		}
		v.hasRepr = true
	}
	return v.reprCache
}

func (v *Var) FreeVars() map[string]bool {
	return map[string]bool{v.ID: true}
}

func (v *Var) Rebind(sub Substitution) Type {
	if t, ok := sub[v.ID]; ok {
		return t
	}
	return v
}

// --- Id ----------------------------------------------------------------

// Id is a nominal type constructor, e.g. Int, Bool, or a user-defined type.
type Id struct {
	Name string
}

func (i *Id) String() string { return i.Name }
func (i *Id) repr() string   { return i.Name }
func (i *Id) FreeVars() map[string]bool {
	return map[string]bool{}
}
func (i *Id) Rebind(Substitution) Type { return i }

// --- Operator --------------------------------------------------------------

// Operator is type-level application: Operator(fn, arg). Arrows are encoded
// right-associatively as Operator(Operator(Arrow, A), B); pointers as
// Operator(Pointer, T) (spec.md §3).
type Operator struct {
	Fn  Type
	Arg Type
}

func (o *Operator) String() string {
	if param, ret, _, ok := arrowParts(o); ok {
		return fmt.Sprintf("(%s -> %s)", param.String(), ret.String())
	}
	return fmt.Sprintf("(%s %s)", o.Fn.String(), o.Arg.String())
}

func (o *Operator) repr() string {
	return fmt.Sprintf("(%s %s)", o.Fn.repr(), o.Arg.repr())
}

func (o *Operator) FreeVars() map[string]bool {
	out := o.Fn.FreeVars()
	for k := range o.Arg.FreeVars() {
		out[k] = true
	}
	return out
}

func (o *Operator) Rebind(sub Substitution) Type {
	return &Operator{Fn: o.Fn.Rebind(sub), Arg: o.Arg.Rebind(sub)}
}

// Arrow and Pointer name the well-known nullary type operators used to build
// function and pointer types via Operator application (spec.md §3).
var (
	Arrow   = &Id{Name: "->"}
	Pointer = &Id{Name: "*"}
)

// arrowParts reports whether o is Operator(Operator(Arrow, A), B) and, if so,
// returns A, B and true.
func arrowParts(o *Operator) (param, ret Type, extra Type, ok bool) {
	inner, isOp := o.Fn.(*Operator)
	if !isOp {
		return nil, nil, nil, false
	}
	arrowId, isId := inner.Fn.(*Id)
	if !isId || arrowId.Name != Arrow.Name {
		return nil, nil, nil, false
	}
	return inner.Arg, o.Arg, nil, true
}

// NewFunc builds the right-associative Operator chain for params -> ret
// (spec.md §3's "Operator chains for arrows are right-associative").
func NewFunc(params []Type, ret Type) Type {
	result := ret
	for i := len(params) - 1; i >= 0; i-- {
		result = &Operator{Fn: &Operator{Fn: Arrow, Arg: params[i]}, Arg: result}
	}
	return result
}

// UnfoldFunc inverts NewFunc, freely folding/unfolding the arrow chain
// (spec.md §3 invariant (d)).
func UnfoldFunc(t Type) (params []Type, ret Type, ok bool) {
	cur := t
	for {
		op, isOp := cur.(*Operator)
		if !isOp {
			break
		}
		p, r, _, isArrow := arrowParts(op)
		if !isArrow {
			break
		}
		params = append(params, p)
		cur = r
		ret = r
	}
	return params, ret, len(params) > 0
}

// NewPointer builds Operator(Pointer, T).
func NewPointer(to Type) Type {
	return &Operator{Fn: Pointer, Arg: to}
}

// --- Tuple -------------------------------------------------------------

// Tuple is an ordered heterogeneous product (spec.md §3).
type Tuple struct {
	Dims []Type
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = d.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

func (t *Tuple) repr() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = d.repr()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ","))
}

func (t *Tuple) FreeVars() map[string]bool {
	out := map[string]bool{}
	for _, d := range t.Dims {
		for k := range d.FreeVars() {
			out[k] = true
		}
	}
	return out
}

func (t *Tuple) Rebind(sub Substitution) Type {
	dims := make([]Type, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = d.Rebind(sub)
	}
	return &Tuple{Dims: dims}
}

// --- Lambda (type-level abstraction) ----------------------------------

// Lambda is a type-level abstraction used by user-defined type constructors,
// e.g. `type Maybe a = ...` is represented as Lambda("a", body) (spec.md §3).
type Lambda struct {
	Binding string
	Body    Type
}

func (l *Lambda) String() string {
	return fmt.Sprintf("(\\%s. %s)", l.Binding, l.Body.String())
}

func (l *Lambda) repr() string {
	return fmt.Sprintf("(\\%s.%s)", l.Binding, l.Body.repr())
}

func (l *Lambda) FreeVars() map[string]bool {
	out := map[string]bool{}
	for k := range l.Body.FreeVars() {
		if k != l.Binding {
			out[k] = true
		}
	}
	return out
}

func (l *Lambda) Rebind(sub Substitution) Type {
	inner := Substitution{}
	for k, v := range sub {
		if k != l.Binding {
			inner[k] = v
		}
	}
	return &Lambda{Binding: l.Binding, Body: l.Body.Rebind(inner)}
}

// Apply performs type-level application; only meaningful on Lambda
// (spec.md §4.A).
func Apply(fn Type, arg Type) (Type, error) {
	lam, ok := fn.(*Lambda)
	if !ok {
		return nil, fmt.Errorf("cannot apply non-constructor type %s", fn.String())
	}
	return lam.Body.Rebind(Substitution{lam.Binding: arg}), nil
}

// Eval expands a type alias chain using the supplied alias environment
// (spec.md §4.A "eval(typeAliases)"). It does not re-evaluate already-evaluated
// sites (spec.md §9's "should have been evaluated earlier" guidance): callers
// that already hold a fully-evaluated type must not call Eval again.
func Eval(t Type, aliases map[string]Type) Type {
	switch v := t.(type) {
	case *Id:
		if alias, ok := aliases[v.Name]; ok {
			return Eval(alias, aliases)
		}
		return v
	case *Operator:
		fn := Eval(v.Fn, aliases)
		arg := Eval(v.Arg, aliases)
		if lam, ok := fn.(*Lambda); ok {
			applied, err := Apply(lam, arg)
			if err == nil {
				return Eval(applied, aliases)
			}
		}
		return &Operator{Fn: fn, Arg: arg}
	case *Tuple:
		dims := make([]Type, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = Eval(d, aliases)
		}
		return &Tuple{Dims: dims}
	default:
		return t
	}
}

// Common predefined nominal types.
var (
	TInt    = &Id{Name: "Int"}
	TFloat  = &Id{Name: "Float"}
	TBool   = &Id{Name: "Bool"}
	TString = &Id{Name: "String"}
	TUnit   = &Id{Name: "Unit"}
)
