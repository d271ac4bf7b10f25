// Package ir defines the typed-IR expression grammar spec.md §3 hands to the
// inferencer, class-predicate engine, pattern analyzer, specializer, and
// lowering pass. Surface constructs (for-loops, with-blocks, destructuring)
// are desugared into this grammar upstream, by the external parser — this
// package never sees them.
//
// Grounded on the teacher's internal/core/core.go (CoreNode embedding a
// stable NodeID + position, CoreExpr as a closed interface via an unexported
// marker method), restructured from its A-Normal-Form node set to spec.md's
// exact (non-ANF) node list.
package ir

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/types"
)

// nodeCounter assigns each node a stable identity for the tracked-types map
// (spec.md §3: "a map from expression node identity to its tracked inferred
// type").
var nodeCounter uint64

func nextNodeID() uint64 { return atomic.AddUint64(&nodeCounter, 1) }

// Node is embedded by every Expr implementation; it carries the stable
// identity tracked_types is keyed on, plus the source position.
type Node struct {
	id  uint64
	Pos diag.Pos
}

// NewNode mints a Node with a fresh stable identity.
func NewNode(pos diag.Pos) Node {
	return Node{id: nextNodeID(), Pos: pos}
}

func (n Node) ID() uint64 { return n.id }

// Expr is the closed sum of typed-IR expression nodes (spec.md §3).
type Expr interface {
	ID() uint64
	String() string
	exprNode()
}

// LitKind enumerates literal token kinds.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
)

// Literal is a constant value of a fixed kind.
type Literal struct {
	Node
	Kind  LitKind
	Value any
}

func (l *Literal) exprNode() {}
func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }

// Var is a reference to a bound or top-level identifier.
type Var struct {
	Node
	Name string
}

func (v *Var) exprNode() {}
func (v *Var) String() string { return v.Name }

// Lambda is a one-argument function abstraction.
type Lambda struct {
	Node
	Param string
	Body  Expr
}

func (l *Lambda) exprNode() {}
func (l *Lambda) String() string { return fmt.Sprintf("(\\%s. %s)", l.Param, l.Body.String()) }

// Application is function application.
type Application struct {
	Node
	Fn  Expr
	Arg Expr
}

func (a *Application) exprNode() {}
func (a *Application) String() string { return fmt.Sprintf("(%s %s)", a.Fn.String(), a.Arg.String()) }

// Let is a (possibly polymorphic, via the inferencer's generalization) local
// binding.
type Let struct {
	Node
	Var   string
	Value Expr
	Body  Expr
}

func (l *Let) exprNode() {}
func (l *Let) String() string {
	return fmt.Sprintf("(let %s = %s in %s)", l.Var, l.Value.String(), l.Body.String())
}

// Fix is explicit recursion: `fix f` ties f's own reference in its body back
// to itself, handled entirely at inference time (spec.md §4.F: "recursion
// must already be handled by Fix at inference time").
type Fix struct {
	Node
	Fn Expr
}

func (f *Fix) exprNode() {}
func (f *Fix) String() string { return fmt.Sprintf("(fix %s)", f.Fn.String()) }

// Conditional is if/then/else.
type Conditional struct {
	Node
	Cond Expr
	Then Expr
	Else Expr
}

func (c *Conditional) exprNode() {}
func (c *Conditional) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", c.Cond.String(), c.Then.String(), c.Else.String())
}

// While is the imperative loop form (the language is eagerly-evaluated and
// impure, spec.md §1).
type While struct {
	Node
	Cond Expr
	Body Expr
}

func (w *While) exprNode() {}
func (w *While) String() string { return fmt.Sprintf("(while %s %s)", w.Cond.String(), w.Body.String()) }

// Block is a sequence of statements, Unit-typed except possibly for an
// explicit Return.
type Block struct {
	Node
	Stmts []Expr
}

func (b *Block) exprNode() {}
func (b *Block) String() string {
	parts := make([]string, len(b.Stmts))
	for i, s := range b.Stmts {
		parts[i] = s.String()
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, "; "))
}

// Return exits the enclosing function with a value.
type Return struct {
	Node
	Value Expr
}

func (r *Return) exprNode() {}
func (r *Return) String() string { return fmt.Sprintf("(return %s)", r.Value.String()) }

// Tuple constructs an ordered product value.
type Tuple struct {
	Node
	Elems []Expr
}

func (t *Tuple) exprNode() {}
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

// TupleDeref projects the i'th component of a tuple value.
type TupleDeref struct {
	Node
	Tuple Expr
	Index int
}

func (t *TupleDeref) exprNode() {}
func (t *TupleDeref) String() string { return fmt.Sprintf("%s.%d", t.Tuple.String(), t.Index) }

// As ascribes e to scheme, either as a unification hint (forceCast=false) or
// an unchecked reinterpretation (forceCast=true, spec.md §4.F uses
// forceCast=false to re-infer a specialized expression against a concrete
// scheme).
type As struct {
	Node
	Value     Expr
	Scheme    *types.Scheme
	ForceCast bool
}

func (a *As) exprNode() {}
func (a *As) String() string { return fmt.Sprintf("(%s as %s)", a.Value.String(), a.Scheme.String()) }

// Sizeof yields the backend's runtime size of a type — consumed only by
// module H (spec.md §3).
type Sizeof struct {
	Node
	Type types.Type
}

func (s *Sizeof) exprNode() {}
func (s *Sizeof) String() string { return fmt.Sprintf("sizeof(%s)", s.Type.String()) }

// Builtin invokes a fixed-scheme primitive the backend implements directly
// (spec.md §4.F: "Names starting with __builtin_ are skipped").
type Builtin struct {
	Node
	Name string
	Args []Expr
}

func (b *Builtin) exprNode() {}
func (b *Builtin) String() string {
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", b.Name, strings.Join(parts, ", "))
}

// Break exits the nearest enclosing While.
type Break struct{ Node }

func (b *Break) exprNode()      {}
func (b *Break) String() string { return "break" }

// Continue restarts the nearest enclosing While.
type Continue struct{ Node }

func (c *Continue) exprNode()      {}
func (c *Continue) String() string { return "continue" }

// MatchArm pairs a match pattern with its result expression.
type MatchArm struct {
	Pattern MatchPattern
	Result  Expr
}

// MatchPattern is the pattern syntax a match arm binds against — the
// surface-level counterpart the parser produces, which module E's
// translation layer (internal/patterns) compiles down into the Pattern
// lattice for exhaustiveness/redundancy analysis, and which the inferencer
// and lowering pass also walk directly to bind names and extract
// constructor payloads.
type MatchPattern interface {
	matchPattern()
}

// WildcardPattern matches anything, binding nothing (`_`).
type WildcardPattern struct{}

func (WildcardPattern) matchPattern() {}

// VarPattern matches anything, binding it to Name.
type VarPattern struct {
	Name string
}

func (*VarPattern) matchPattern() {}

// LiteralPattern matches a scalar literal exactly.
type LiteralPattern struct {
	Kind  LitKind
	Value any
}

func (*LiteralPattern) matchPattern() {}

// CtorPattern matches a single data constructor, recursively binding its
// argument patterns.
type CtorMatchPattern struct {
	TypeName string
	CtorName string
	Args     []MatchPattern
}

func (*CtorMatchPattern) matchPattern() {}

// TuplePattern matches a tuple, component-wise.
type TuplePattern struct {
	Elems []MatchPattern
}

func (*TuplePattern) matchPattern() {}

// Match dispatches on a scrutinee's structure.
type Match struct {
	Node
	Scrutinee Expr
	Arms      []MatchArm
}

func (m *Match) exprNode() {}
func (m *Match) String() string {
	parts := make([]string, len(m.Arms))
	for i, a := range m.Arms {
		parts[i] = a.Result.String()
	}
	return fmt.Sprintf("(match %s { %s })", m.Scrutinee.String(), strings.Join(parts, " | "))
}

// StaticPrint is a compile-time diagnostic directive: print e's inferred
// type without affecting runtime semantics (grounded on the teacher's debug
// tracing facilities, generalized to an IR node per spec.md §3).
type StaticPrint struct {
	Node
	Value Expr
}

func (s *StaticPrint) exprNode() {}
func (s *StaticPrint) String() string { return fmt.Sprintf("static_print(%s)", s.Value.String()) }
