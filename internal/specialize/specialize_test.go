package specialize

import (
	"testing"

	"github.com/sunholo/zion-core/internal/classes"
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/ir"
	"github.com/sunholo/zion-core/internal/types"
)

type fakeDefs map[string]struct {
	expr   ir.Expr
	scheme *types.Scheme
}

func (f fakeDefs) Lookup(name string) (ir.Expr, *types.Scheme, bool) {
	d, ok := f[name]
	return d.expr, d.scheme, ok
}

func TestNewDefnIdRejectsPolymorphicScheme(t *testing.T) {
	poly := &types.Scheme{Vars: []string{"a"}, Type: types.NewVar("a")}
	if _, err := NewDefnId("id", poly); err == nil {
		t.Fatalf("expected an error for a polymorphic scheme")
	}
}

func TestDemandSkipsBuiltinsAndDedupes(t *testing.T) {
	sp := New(fakeDefs{}, classes.NewEnv())
	id, err := NewDefnId("__builtin_add", &types.Scheme{Type: types.TInt})
	if err != nil {
		t.Fatalf("NewDefnId: %v", err)
	}
	if err := sp.Demand(id, diag.Pos{}); err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if len(sp.worklist) != 0 {
		t.Fatalf("expected builtin to be skipped, worklist has %d entries", len(sp.worklist))
	}

	real, _ := NewDefnId("f", &types.Scheme{Type: types.TInt})
	if err := sp.Demand(real, diag.Pos{}); err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if err := sp.Demand(real, diag.Pos{}); err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if len(sp.worklist) != 1 {
		t.Fatalf("expected dedup to keep worklist at 1 entry, got %d", len(sp.worklist))
	}
}

func TestRunTranslatesEachRequestOnce(t *testing.T) {
	scheme := &types.Scheme{Type: types.TInt}
	body := &ir.Literal{Node: ir.NewNode(diag.Pos{}), Kind: ir.IntLit, Value: 42}
	defs := fakeDefs{"answer": {expr: body, scheme: scheme}}
	sp := New(defs, classes.NewEnv())

	id, _ := NewDefnId("answer", scheme)
	if err := sp.Demand(id, diag.Pos{}); err != nil {
		t.Fatalf("Demand: %v", err)
	}

	calls := 0
	err := sp.Run(func(sp *Specializer, id DefnId, expr ir.Expr, scheme *types.Scheme) (ir.Expr, error) {
		calls++
		return expr, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 translate call, got %d", calls)
	}
	if sp.Diagnostics().HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sp.Diagnostics().Errors())
	}

	tm := sp.TranslationMap()
	if len(tm) != 1 {
		t.Fatalf("expected 1 translated entry, got %d", len(tm))
	}
	if tm[id] != body {
		t.Fatalf("expected translated expr to be the looked-up body")
	}
}

func TestRunReportsMissingDefinition(t *testing.T) {
	sp := New(fakeDefs{}, classes.NewEnv())
	id, _ := NewDefnId("missing", &types.Scheme{Type: types.TInt})
	if err := sp.Demand(id, diag.Pos{}); err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if err := sp.Run(func(sp *Specializer, id DefnId, expr ir.Expr, scheme *types.Scheme) (ir.Expr, error) {
		return expr, nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sp.Diagnostics().HasErrors() {
		t.Fatalf("expected a missing-definition diagnostic")
	}
}
