package types

import (
	"fmt"
	"sort"
	"strings"
)

// ClassPredicate is `(className, params: [Type])` (spec.md §3). Equality is
// structural over repr().
//
// The original compiler's ClassPredicate::operator< contains `assert(false)`
// even though normalization paths sort predicates (spec.md §9, grounded on
// zion's src/class_predicate.cpp). We define the total order spec.md asks
// for directly: lexicographic over classname.repr then params[i].repr.
type ClassPredicate struct {
	ClassName string
	Params    []Type
}

func (c ClassPredicate) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s %s", c.ClassName, strings.Join(parts, " "))
}

func (c ClassPredicate) Repr() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.repr()
	}
	return fmt.Sprintf("%s %s", c.ClassName, strings.Join(parts, " "))
}

// Less implements the total order spec.md §9 resolves as an open question:
// lexicographic over classname.repr then params[i].repr.
func (c ClassPredicate) Less(other ClassPredicate) bool {
	if c.ClassName != other.ClassName {
		return c.ClassName < other.ClassName
	}
	for i := 0; i < len(c.Params) && i < len(other.Params); i++ {
		lr, rr := c.Params[i].repr(), other.Params[i].repr()
		if lr != rr {
			return lr < rr
		}
	}
	return len(c.Params) < len(other.Params)
}

// SortPredicates sorts in place using the total order above, the way
// normalization paths in the original compiler expect predicates to be
// sorted (spec.md §9).
func SortPredicates(preds []ClassPredicate) {
	sort.Slice(preds, func(i, j int) bool { return preds[i].Less(preds[j]) })
}

// Rebind applies a substitution to every parameter of the predicate.
func (c ClassPredicate) Rebind(sub Substitution) ClassPredicate {
	params := make([]Type, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.Rebind(sub)
	}
	return ClassPredicate{ClassName: c.ClassName, Params: params}
}

// IsConcrete reports whether every parameter is free of type variables —
// the condition the class-predicate engine (module D) uses to decide a
// requirement is ready for immediate discharge (spec.md §4.D).
func (c ClassPredicate) IsConcrete() bool {
	for _, p := range c.Params {
		if len(p.FreeVars()) > 0 {
			return false
		}
	}
	return true
}
