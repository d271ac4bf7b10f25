// Package specialize implements component F, the monomorphizing specializer
// (spec.md §4.F): a demand-driven worklist that, starting from `main`,
// instantiates every polymorphic definition at every concrete scheme it is
// used at, eliminating polymorphism and class dictionaries.
//
// Grounded on the teacher's internal/elaborate/elaborate.go (an ID-assigning
// walker translating one IR into another, one definition at a time) and on
// hashicorp-nomad's go.mod, whose github.com/mitchellh/hashstructure and
// github.com/hashicorp/go-set/v3 this package wires directly: hashstructure
// hashes a DefnId's normalized scheme for the translation-map key instead of
// relying solely on a string repr(), and go-set dedupes in-flight worklist
// entries without a second map.
package specialize

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"github.com/mitchellh/hashstructure"

	"github.com/sunholo/zion-core/internal/classes"
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

// DefnId is (identifier, normalized scheme) — the specialization key
// (spec.md §3): two requests for the same identifier at the same concrete
// scheme share code.
type DefnId struct {
	Name       string
	SchemeRepr string
}

// Key returns a stable hash of the DefnId, suitable for map keys and for
// deduplicating worklist entries cheaply (grounded on hashicorp-nomad's use
// of mitchellh/hashstructure for content-addressed cache keys).
func (d DefnId) Key() (uint64, error) {
	return hashstructure.Hash(d, nil)
}

func (d DefnId) String() string {
	return fmt.Sprintf("%s @ %s", d.Name, d.SchemeRepr)
}

// NewDefnId builds a DefnId from an identifier and its concrete scheme,
// requiring the scheme be fully monomorphic (spec.md §4.F: "Bounded-type-
// variable count of every defnId.scheme must be zero").
func NewDefnId(name string, scheme *types.Scheme) (DefnId, error) {
	if scheme.BoundVarCount() != 0 {
		return DefnId{}, fmt.Errorf("defnId %s: scheme %s is not fully monomorphic", name, scheme.String())
	}
	return DefnId{Name: name, SchemeRepr: types.SchemeRepr(scheme)}, nil
}

// Request is one worklist entry: the DefnId demanded, and (for diagnostics)
// where it was demanded from.
type Request struct {
	ID     DefnId
	Source diag.Pos
}

// sentinel marks a DefnId as in-progress, to detect and forbid direct
// self-recursion during specialization (spec.md §4.F step 2: recursion must
// already be handled by Fix at inference time, so re-entrant demand for the
// same DefnId while it is being specialized is a bug, not legitimate work).
var sentinel = &ir.Block{}

// Definitions resolves an identifier's (possibly polymorphic) source
// expression and scheme — the external bridge between name-resolution's
// declaration table and this package; supplied by the caller (spec.md §1
// treats module/name resolution as upstream of the core).
type Definitions interface {
	Lookup(name string) (ir.Expr, *types.Scheme, bool)
}

// Specializer drives the worklist described in spec.md §4.F.
type Specializer struct {
	defs           Definitions
	classes        *classes.Env
	worklist       []Request
	seen           *set.Set[uint64]
	translationMap map[uint64]ir.Expr
	byKey          map[uint64]DefnId
	diags          *diag.Bag
}

// Classes exposes the class/instance environment translate callbacks need to
// resolve class-method calls during translation (spec.md §4.F step 4).
func (sp *Specializer) Classes() *classes.Env { return sp.classes }

// New constructs a Specializer seeded to discover work from defs, using
// classEnv to resolve class-method calls during translation.
func New(defs Definitions, classEnv *classes.Env) *Specializer {
	return &Specializer{
		defs:           defs,
		classes:        classEnv,
		seen:           set.New[uint64](16),
		translationMap: map[uint64]ir.Expr{},
		byKey:          map[uint64]DefnId{},
		diags:          diag.NewBag(),
	}
}

// Demand enqueues id for specialization if it has not already been seen
// (spec.md §4.F step 1: "If already specialized (translation map key
// exists), skip"). Builtins are never enqueued (step: "Names starting with
// __builtin_ are skipped").
func (sp *Specializer) Demand(id DefnId, source diag.Pos) error {
	if isBuiltin(id.Name) {
		return nil
	}
	key, err := id.Key()
	if err != nil {
		return err
	}
	if sp.seen.Contains(key) {
		if sp.translationMap[key] == sentinel {
			return fmt.Errorf("%s: recursive specialization of %s", source, id.String())
		}
		return nil
	}
	sp.seen.Insert(key)
	sp.byKey[key] = id
	sp.worklist = append(sp.worklist, Request{ID: id, Source: source})
	return nil
}

func isBuiltin(name string) bool {
	return len(name) >= len("__builtin_") && name[:len("__builtin_")] == "__builtin_"
}

// Diagnostics exposes every diagnostic recorded during the run.
func (sp *Specializer) Diagnostics() *diag.Bag { return sp.diags }

// TranslationMap exposes defnId → translated (monomorphic) expression after
// Run completes.
func (sp *Specializer) TranslationMap() map[DefnId]ir.Expr {
	out := make(map[DefnId]ir.Expr, len(sp.translationMap))
	for key, expr := range sp.translationMap {
		out[sp.byKey[key]] = expr
	}
	return out
}

// Run drains the worklist to completion (spec.md §4.F, §5: "the worklist
// loop in the specializer is deterministic (front-of-queue dequeue)").
// translate performs step 3-4 for one request: it is supplied by the caller
// so this package stays decoupled from the concrete inferencer/elaborator
// wiring (module C + D), which differ per-callsite (checking `main` differs
// from checking a demanded polymorphic helper).
func (sp *Specializer) Run(translate func(sp *Specializer, id DefnId, expr ir.Expr, scheme *types.Scheme) (ir.Expr, error)) error {
	for len(sp.worklist) > 0 {
		req := sp.worklist[0]
		sp.worklist = sp.worklist[1:]

		key, err := req.ID.Key()
		if err != nil {
			return err
		}
		if _, already := sp.translationMap[key]; already {
			continue
		}
		sp.translationMap[key] = sentinel // in-progress marker

		expr, scheme, ok := sp.defs.Lookup(req.ID.Name)
		if !ok {
			sp.diags.Add(diag.New(diag.KindSpecialization, req.Source, "no definition for %q", req.ID.Name))
			continue
		}

		translated, err := translate(sp, req.ID, expr, scheme)
		if err != nil {
			sp.diags.Add(diag.New(diag.KindSpecialization, req.Source, "%s", err.Error()))
			continue
		}
		sp.translationMap[key] = translated
	}
	return nil
}
