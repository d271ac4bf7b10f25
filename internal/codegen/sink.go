// Package codegen defines component H's consumed interface (spec.md §4.H):
// the lowering pass (module G) talks to an IR sink, never to a concrete
// backend. The core never implements LLVM emission; it only describes the
// shape of the sink a real binding would satisfy.
//
// Grounded on _examples/other_examples' sokoide-llvm5 compiler-interfaces
// file (f0f43657_sokoide-llvm5__internal-interfaces-compiler.go.go), whose
// LLVMBuilder/LLVMModule/LLVMFunction/LLVMBasicBlock/LLVMValue/LLVMType
// interface split this package's Sink/Func/Block/Value/Builder split
// mirrors directly, and on SeleniaProject-Orizon's internal/codegen (a
// strings.Builder-driven textual emitter), which grounds the reference
// TextSink in textsink.go.
package codegen

import "github.com/sunholo/zion-core/internal/types"

// Func is an opaque handle to a declared function.
type Func interface {
	Name() string
}

// Block is an opaque handle to a basic block within one function.
type Block interface {
	Name() string
}

// Value is an opaque handle to an SSA value: a constant, an instruction
// result, or a function parameter.
type Value interface {
	Type() types.Type
}

// IntPredicate enumerates integer comparisons (spec.md §4.H "integer ...
// arithmetic primitives"), named after the sokoide-llvm5 IntPredicate this
// package is grounded on.
type IntPredicate int

const (
	IntEQ IntPredicate = iota
	IntNE
	IntSLT
	IntSLE
	IntSGT
	IntSGE
)

// FloatPredicate enumerates float comparisons.
type FloatPredicate int

const (
	FloatOEQ FloatPredicate = iota
	FloatONE
	FloatOLT
	FloatOLE
	FloatOGT
	FloatOGE
)

// IntOp enumerates integer arithmetic opcodes the sink must offer.
type IntOp int

const (
	IntAdd IntOp = iota
	IntSub
	IntMul
	IntSDiv
)

// FloatOp enumerates float arithmetic opcodes.
type FloatOp int

const (
	FloatAdd FloatOp = iota
	FloatSub
	FloatMul
	FloatDiv
)

// CastKind enumerates the structural/bitwise casts spec.md §4.H requires.
type CastKind int

const (
	CastBitcast CastKind = iota
	CastIntToPtr
	CastPtrToInt
	CastSExt
	CastTrunc
	CastSIToFP
	CastFPToSI
)

// PhiEdge is one (value, predecessor) pair feeding a phi node.
type PhiEdge struct {
	Value Value
	From  Block
}

// Sink is the backend interface module G's lowering pass targets (spec.md
// §4.H). A concrete implementation (an LLVM binding, a textual emitter, or a
// test double) satisfies this entirely outside the core's concern.
type Sink interface {
	// DeclareFunction registers a named function of the given signature and
	// returns its handle; params and ret are lowered (monomorphic, post
	// closure-conversion) types.
	DeclareFunction(name string, params []types.Type, ret types.Type) Func

	// Block creates a new basic block within fn.
	Block(fn Func, name string) Block

	// SetInsertPoint moves the sink's cursor to the end of b; subsequent
	// instruction-emitting calls append there.
	SetInsertPoint(b Block)

	// Param returns fn's i'th parameter as a Value.
	Param(fn Func, i int) Value

	// FuncPointer yields fn's address as a Value, usable wherever a function
	// needs to flow as data — module G's closure tuples store one in slot 0.
	FuncPointer(fn Func) Value

	// ConstInt, ConstFloat, ConstBool and ConstUnit build immediate values.
	// Neither LLVMBuilder nor LLVMModule in the grounding interface exposes
	// these directly (a real binding reaches them off the module, e.g.
	// llvm.ConstInt), but the sink needs some way to turn a Literal node into
	// a Value, so they're collected here.
	ConstInt(v int64) Value
	ConstFloat(v float64) Value
	ConstBool(v bool) Value
	ConstUnit() Value

	// Br emits an unconditional branch.
	Br(target Block)

	// CondBr emits a conditional branch.
	CondBr(cond Value, then, els Block)

	// Phi emits a phi node merging incoming, typed t.
	Phi(t types.Type, incoming []PhiEdge) Value

	// IntBinOp emits an integer arithmetic instruction.
	IntBinOp(op IntOp, lhs, rhs Value) Value

	// FloatBinOp emits a float arithmetic instruction.
	FloatBinOp(op FloatOp, lhs, rhs Value) Value

	// IntCmp emits an integer comparison, yielding a Bool value.
	IntCmp(pred IntPredicate, lhs, rhs Value) Value

	// FloatCmp emits a float comparison, yielding a Bool value.
	FloatCmp(pred FloatPredicate, lhs, rhs Value) Value

	// GEP emits pointer arithmetic over ptr by indices (spec.md §4.H
	// "pointer arithmetic (GEP)").
	GEP(ptr Value, indices []Value) Value

	// Load emits a typed load through ptr.
	Load(ptr Value, t types.Type) Value

	// Store emits a typed store of val through ptr.
	Store(ptr, val Value)

	// Cast emits a structural/bitwise cast of val to t.
	Cast(kind CastKind, val Value, t types.Type) Value

	// AllocTuple emits a runtime calloc-like allocation sized for a tuple of
	// elemTypes (spec.md §4.H "tuple (struct) allocation via a runtime
	// calloc-like entry point"), returning a pointer Value.
	AllocTuple(elemTypes []types.Type) Value

	// GlobalString emits a global constant string and returns a pointer to
	// it.
	GlobalString(s string) Value

	// GlobalAggregate emits a global constant aggregate of type t.
	GlobalAggregate(t types.Type, elems []Value) Value

	// Call emits a call to fn with args.
	Call(fn Func, args []Value) Value

	// CallIndirect emits a call through a function-pointer value rather than
	// a statically known Func, returning ret. Closure application (module G)
	// is the only caller: a closure's slot 0 is a function pointer whose
	// target isn't known until the value is constructed at runtime.
	CallIndirect(fnPtr Value, args []Value, ret types.Type) Value

	// Ret emits a return of val.
	Ret(val Value)

	// RetVoid emits a void return.
	RetVoid()
}
