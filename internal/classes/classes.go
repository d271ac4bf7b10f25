// Package classes implements component D, the class-predicate engine
// (spec.md §4.D): instance declaration, coherence checking, instance lookup
// with superclass discharge, and the rewriting of class-method symbols to
// deterministic `Class/instanceType/method` names.
//
// Grounded on the teacher's internal/types/instances.go (InstanceEnv,
// ClassInstance, canonicalKey, deriveEqFromOrd, MissingInstanceError), adapted
// from its single-parameter v1 model to spec.md §3's `ClassPredicate{ClassName,
// Params []Type}` n-ary shape.
package classes

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/types"
)

// MethodScheme is a class method's declared scheme, quantified over the
// class's own type parameter (spec.md §4.D: "each instance method's scheme
// must match the expected scheme after substituting the class's type variable
// with the instance's type").
type MethodScheme struct {
	Name   string
	Scheme *types.Scheme
}

// Class is a type-class declaration: its own type parameters, its method
// schemes, and the superclasses it requires (spec.md §4.D, grounded on the
// teacher's ClassInstance.Super).
type Class struct {
	Name       string
	Params     []string
	Methods    []MethodScheme
	Superclass []string
}

// Instance is one `instance C τ` declaration: a concrete (or instance-head)
// type and the method implementations it supplies, keyed by method name to
// the rewritten symbol that implements it.
type Instance struct {
	ClassName string
	Head      types.Type
	Methods   map[string]string // method name -> rewritten symbol
	Pos       diag.Pos
}

// RewrittenSymbol is the deterministic name an instance method is given,
// spec.md §4.D: "Instance method symbols are rewritten to unique names
// `Class/instanceType/method`".
func RewrittenSymbol(className string, head types.Type, method string) string {
	return fmt.Sprintf("%s/%s/%s", className, types.Repr(head), method)
}

// Env holds every declared class and instance, and enforces coherence at
// Add time (spec.md §4.D, §9 "Coherence": at most one matching instance per
// predicate).
type Env struct {
	classes   map[string]*Class
	instances map[string][]*Instance // className -> instances, in declaration order

	// resolved caches Resolve's outcome by "className/headRepr" — the same
	// repr()-keyed bounded-cache-over-a-pure-function idiom internal/types'
	// internTable uses, since Resolve is consulted once per discharged
	// predicate but headRepr recurs heavily across a program's call sites.
	resolved *lru.Cache[string, *Instance]
}

// NewEnv returns an empty class/instance environment.
func NewEnv() *Env {
	cache, _ := lru.New[string, *Instance](256)
	return &Env{
		classes:   map[string]*Class{},
		instances: map[string][]*Instance{},
		resolved:  cache,
	}
}

// DeclareClass registers a class declaration.
func (e *Env) DeclareClass(c *Class) {
	e.classes[c.Name] = c
}

// Class looks up a class declaration by name.
func (e *Env) Class(name string) (*Class, bool) {
	c, ok := e.classes[name]
	return c, ok
}

// AmbiguousInstanceError is raised when more than one instance matches a
// predicate (spec.md §4.D, §7 "ambiguous instance").
type AmbiguousInstanceError struct {
	ClassName string
	Type      types.Type
	Locations []diag.Pos
}

func (e *AmbiguousInstanceError) Error() string {
	return fmt.Sprintf("ambiguous instance for %s %s: %d matching instances", e.ClassName, e.Type.String(), len(e.Locations))
}

// AddInstance registers inst, rejecting it if an existing instance already
// matches the same (className, normalized head) — the coherence check
// spec.md §9 requires be enforced at declaration time, not deferred to
// lookup (grounded on the teacher's InstanceEnv.Add overlap check).
func (e *Env) AddInstance(inst *Instance) error {
	normHead := types.Repr(inst.Head)
	for _, existing := range e.instances[inst.ClassName] {
		if types.Repr(existing.Head) == normHead {
			return &AmbiguousInstanceError{
				ClassName: inst.ClassName,
				Type:      inst.Head,
				Locations: []diag.Pos{existing.Pos, inst.Pos},
			}
		}
	}
	e.instances[inst.ClassName] = append(e.instances[inst.ClassName], inst)
	return nil
}

// NoInstanceError is raised when a concrete predicate has no matching
// instance (spec.md §4.D, §7 "no instance found").
type NoInstanceError struct {
	ClassName string
	Type      types.Type
	Pos       diag.Pos
}

func (e *NoInstanceError) Error() string {
	return fmt.Sprintf("%s: no instance for %s %s", e.Pos, e.ClassName, e.Type.String())
}

// Resolve discharges a concrete predicate (spec.md §4.D): look up all
// instances of pred.ClassName, filter by scheme-equality between pred's
// normalized type and each instance's normalized head, require exactly one
// match. Superclass instances are consulted when no direct instance exists
// and the class is a registered superclass of some other declared class
// (grounded on the teacher's Ord-provides-Eq derivation, generalized to any
// declared superclass edge).
func (e *Env) Resolve(pred types.ClassPredicate, pos diag.Pos) (*Instance, error) {
	if !pred.IsConcrete() {
		return nil, fmt.Errorf("%s: cannot resolve non-concrete predicate %s", pos, pred.String())
	}
	if len(pred.Params) != 1 {
		return nil, fmt.Errorf("%s: class-predicate engine only supports single-parameter classes, got %s", pos, pred.String())
	}
	head := pred.Params[0]
	headRepr := types.Repr(head)
	cacheKey := pred.ClassName + "/" + headRepr
	if inst, ok := e.resolved.Get(cacheKey); ok {
		return inst, nil
	}

	var matches []*Instance
	for _, inst := range e.instances[pred.ClassName] {
		if types.Repr(inst.Head) == headRepr {
			matches = append(matches, inst)
		}
	}
	if len(matches) == 1 {
		e.resolved.Add(cacheKey, matches[0])
		return matches[0], nil
	}
	if len(matches) > 1 {
		locs := make([]diag.Pos, len(matches))
		for i, m := range matches {
			locs[i] = m.Pos
		}
		return nil, &AmbiguousInstanceError{ClassName: pred.ClassName, Type: head, Locations: locs}
	}

	if derived, ok := e.deriveFromSuperclass(pred.ClassName, head); ok {
		e.resolved.Add(cacheKey, derived)
		return derived, nil
	}

	return nil, &NoInstanceError{ClassName: pred.ClassName, Type: head, Pos: pos}
}

// deriveFromSuperclass looks for a declared class whose Superclass list
// contains want, and whose instance at head can synthesize want's methods
// by delegation (spec.md §4.D "superclass discharge"). This mirrors the
// teacher's single hard-coded Ord→Eq case but is driven by the Class
// registry's Superclass field instead of being hard-coded to one pair.
func (e *Env) deriveFromSuperclass(want string, head types.Type) (*Instance, bool) {
	headRepr := types.Repr(head)
	classNames := make([]string, 0, len(e.classes))
	for name := range e.classes {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)
	for _, className := range classNames {
		class := e.classes[className]
		provides := false
		for _, sup := range class.Superclass {
			if sup == want {
				provides = true
				break
			}
		}
		if !provides {
			continue
		}
		for _, inst := range e.instances[className] {
			if types.Repr(inst.Head) != headRepr {
				continue
			}
			wantClass, ok := e.classes[want]
			if !ok {
				continue
			}
			methods := map[string]string{}
			for _, m := range wantClass.Methods {
				methods[m.Name] = fmt.Sprintf("derived_%s_%s_from_%s_%s", want, m.Name, className, headRepr)
			}
			return &Instance{ClassName: want, Head: head, Methods: methods, Pos: inst.Pos}, true
		}
	}
	return nil, false
}

// CheckMethodSchemes validates inst's method set against the class's declared
// methods (spec.md §4.D): inst must implement exactly the class's method
// names, no more and no fewer. Only names are compared; the methods' schemes
// are not checked, and nothing is recorded.
func (e *Env) CheckMethodSchemes(inst *Instance) error {
	class, ok := e.classes[inst.ClassName]
	if !ok {
		return fmt.Errorf("%s: unknown class %s", inst.Pos, inst.ClassName)
	}
	declared := map[string]bool{}
	for _, m := range class.Methods {
		declared[m.Name] = true
		if _, has := inst.Methods[m.Name]; !has {
			return fmt.Errorf("%s: instance %s %s is missing method %s", inst.Pos, inst.ClassName, inst.Head.String(), m.Name)
		}
	}
	for name := range inst.Methods {
		if !declared[name] {
			return fmt.Errorf("%s: instance %s %s declares extraneous method %s", inst.Pos, inst.ClassName, inst.Head.String(), name)
		}
	}
	return nil
}

// Requirement is one pending class-predicate obligation, annotated with the
// source location that incurred it (spec.md §4.D: "each predicate is
// appended to the current instance-requirement set (annotated with source
// location)").
type Requirement struct {
	Pred types.ClassPredicate
	Pos  diag.Pos
}

// RequirementSet accumulates requirements for one top-level definition under
// elaboration, in the order they were incurred (deterministic diagnostic
// ordering, spec.md §5).
type RequirementSet struct {
	items []Requirement
}

// Add appends a new requirement.
func (r *RequirementSet) Add(pred types.ClassPredicate, pos diag.Pos) {
	r.items = append(r.items, Requirement{Pred: pred, Pos: pos})
}

// PendingPreds returns every requirement's predicate accumulated so far, in
// incurred order — consumed by Generalize (spec.md §4.A) to decide which
// deferred predicates a new scheme should carry.
func (r *RequirementSet) PendingPreds() []types.ClassPredicate {
	out := make([]types.ClassPredicate, len(r.items))
	for i, item := range r.items {
		out[i] = item.Pred
	}
	return out
}

// Discharge splits the requirement set into (resolved, deferred): resolved
// requirements are those whose type is now concrete, each matched against
// env; deferred requirements still carry free type variables and are handed
// back to the caller to fold into the enclosing scheme (spec.md §4.D).
//
// Resolution errors are collected rather than aborting early, so a caller can
// report every missing/ambiguous instance in one pass (spec.md §5
// determinism; diagnostics-as-values).
func (r *RequirementSet) Discharge(env *Env) (resolved []ResolvedRequirement, deferred []types.ClassPredicate, errs []error) {
	for _, req := range r.items {
		if !req.Pred.IsConcrete() {
			deferred = append(deferred, req.Pred)
			continue
		}
		inst, err := env.Resolve(req.Pred, req.Pos)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		resolved = append(resolved, ResolvedRequirement{Pred: req.Pred, Instance: inst, Pos: req.Pos})
	}
	sort.Slice(deferred, func(i, j int) bool { return deferred[i].Less(deferred[j]) })
	return resolved, deferred, errs
}

// ResolvedRequirement pairs a discharged predicate with the instance chosen
// to satisfy it, for the elaborator (module F) to rewrite method-call sites
// against.
type ResolvedRequirement struct {
	Pred     types.ClassPredicate
	Instance *Instance
	Pos      diag.Pos
}
