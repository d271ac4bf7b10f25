package types

import (
	"fmt"
	"sort"
	"strings"
)

// Scheme is ∀vars. predicates ⇒ type (spec.md §3).
type Scheme struct {
	Vars  []string
	Preds []ClassPredicate
	Type  Type
}

func (s *Scheme) String() string {
	if len(s.Vars) == 0 && len(s.Preds) == 0 {
		return s.Type.String()
	}
	var b strings.Builder
	if len(s.Vars) > 0 {
		fmt.Fprintf(&b, "forall %s. ", strings.Join(s.Vars, " "))
	}
	if len(s.Preds) > 0 {
		parts := make([]string, len(s.Preds))
		for i, p := range s.Preds {
			parts[i] = p.String()
		}
		fmt.Fprintf(&b, "(%s) => ", strings.Join(parts, ", "))
	}
	b.WriteString(s.Type.String())
	return b.String()
}

// PredicateMap returns, for each bound variable name, the set of class names
// it must satisfy — used by Generalize to restrict predicates to the
// variables actually being closed over (spec.md §4.A).
func (s *Scheme) PredicateMap() map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for _, p := range s.Preds {
		for name := range typeVarsOf(p.Params) {
			if out[name] == nil {
				out[name] = map[string]bool{}
			}
			out[name][p.ClassName] = true
		}
	}
	return out
}

func typeVarsOf(ts []Type) map[string]bool {
	out := map[string]bool{}
	for _, t := range ts {
		for k := range t.FreeVars() {
			out[k] = true
		}
	}
	return out
}

// EnvPredicateMap is the predicate-map Π carried alongside an inference
// Environment (spec.md §3): it records, for every free variable currently in
// scope, the classes it is already known to be constrained by, so that
// Generalize does not over-generalize variables the environment still owns.
type EnvPredicateMap map[string]map[string]bool

// FreeVars flattens an EnvPredicateMap to its variable names.
func (m EnvPredicateMap) FreeVars() map[string]bool {
	out := map[string]bool{}
	for k := range m {
		out[k] = true
	}
	return out
}

// Generalize closes over freeVars(τ) \ freeVars(env), restricting each bound
// variable's predicate set to those mentioning it (spec.md §4.A).
func Generalize(t Type, envPreds EnvPredicateMap, deferred []ClassPredicate) *Scheme {
	envFree := envPreds.FreeVars()
	tFree := t.FreeVars()

	var boundVars []string
	for name := range tFree {
		if !envFree[name] {
			boundVars = append(boundVars, name)
		}
	}
	sort.Strings(boundVars)

	boundSet := map[string]bool{}
	for _, v := range boundVars {
		boundSet[v] = true
	}

	var preds []ClassPredicate
	for _, p := range deferred {
		mentions := false
		for name := range typeVarsOf(p.Params) {
			if boundSet[name] {
				mentions = true
				break
			}
		}
		if mentions {
			preds = append(preds, p)
		}
	}
	SortPredicates(preds)

	return Normalize(&Scheme{Vars: boundVars, Preds: preds, Type: t})
}

// Instantiate freshens bound variables to new Vars carrying the scheme's
// predicates, emitting the predicates into deferred (spec.md §4.A).
func (s *Scheme) Instantiate(fresh *FreshSource) (Type, []ClassPredicate) {
	sub := Substitution{}
	predsByVar := s.PredicateMap()
	renamed := map[string]string{}
	for _, v := range s.Vars {
		nv := fresh.Name("t")
		renamed[v] = nv
		var preds []string
		for c := range predsByVar[v] {
			preds = append(preds, c)
		}
		sort.Strings(preds)
		sub[v] = NewVar(nv, preds...)
	}
	instType := s.Type.Rebind(sub)

	var deferred []ClassPredicate
	for _, p := range s.Preds {
		remapped := make([]Type, len(p.Params))
		for i, param := range p.Params {
			remapped[i] = param.Rebind(sub)
		}
		deferred = append(deferred, ClassPredicate{ClassName: p.ClassName, Params: remapped})
	}
	return instType, deferred
}

// Normalize renames a scheme's bound variables to a canonical sequence
// (a, b, c, ...) so that scheme equality is decidable by repr() (spec.md §4.A,
// §8 "scheme round-trip").
func Normalize(s *Scheme) *Scheme {
	sub := Substitution{}
	newVars := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		name := canonicalName(i)
		newVars[i] = name
		sub[v] = NewVar(name)
	}
	newPreds := make([]ClassPredicate, len(s.Preds))
	for i, p := range s.Preds {
		params := make([]Type, len(p.Params))
		for j, param := range p.Params {
			params[j] = param.Rebind(sub)
		}
		newPreds[i] = ClassPredicate{ClassName: p.ClassName, Params: params}
	}
	SortPredicates(newPreds)
	return &Scheme{Vars: newVars, Preds: newPreds, Type: s.Type.Rebind(sub)}
}

func canonicalName(i int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return fmt.Sprintf("t%d", i)
}

// BoundVarCount reports the number of quantified variables — used by the
// specializer's assertion that no ambiguously typed monomorph enters phase F
// (spec.md §4.F).
func (s *Scheme) BoundVarCount() int {
	return len(s.Vars)
}

// SchemeRepr is the canonical string used as (part of) a DefnId key
// (spec.md §3).
func SchemeRepr(s *Scheme) string {
	return Normalize(s).String()
}
