package codegen

import (
	"fmt"
	"strings"

	"github.com/sunholo/zion-core/internal/types"
)

// TextSink is a reference Sink implementation that emits a readable
// pseudo-assembly trace instead of machine code — useful for golden-file
// tests of the lowering pass without a real LLVM binding (spec.md §4.H:
// "LLVM emission is only consumed as an interface, never implemented" by the
// core). Grounded on SeleniaProject-Orizon's internal/codegen
// LayoutAwareEmitter, which builds its output the same way: a
// strings.Builder accumulating one line per emitted instruction.
type TextSink struct {
	b          strings.Builder
	funcs      map[string]*textFunc
	globalSeq  int
	blockSeq   int
	valueSeq   int
}

// NewTextSink returns an empty TextSink.
func NewTextSink() *TextSink {
	return &TextSink{funcs: map[string]*textFunc{}}
}

// String returns the accumulated trace.
func (s *TextSink) String() string { return s.b.String() }

type textFunc struct {
	name   string
	params []types.Type
	ret    types.Type
}

func (f *textFunc) Name() string { return f.name }

type textBlock struct {
	fn   *textFunc
	name string
}

func (b *textBlock) Name() string { return b.name }

type textValue struct {
	name string
	typ  types.Type
}

func (v *textValue) Type() types.Type { return v.typ }
func (v *textValue) String() string   { return v.name }

func (s *TextSink) nextValue(t types.Type, prefix string) *textValue {
	s.valueSeq++
	return &textValue{name: fmt.Sprintf("%%%s%d", prefix, s.valueSeq), typ: t}
}

func (s *TextSink) DeclareFunction(name string, params []types.Type, ret types.Type) Func {
	f := &textFunc{name: name, params: params, ret: ret}
	s.funcs[name] = f
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	fmt.Fprintf(&s.b, "define %s @%s(%s)\n", ret.String(), name, strings.Join(parts, ", "))
	return f
}

func (s *TextSink) Block(fn Func, name string) Block {
	s.blockSeq++
	label := fmt.Sprintf("%s.%d", name, s.blockSeq)
	fmt.Fprintf(&s.b, "%s:\n", label)
	return &textBlock{fn: fn.(*textFunc), name: label}
}

func (s *TextSink) SetInsertPoint(b Block) {
	fmt.Fprintf(&s.b, "  ; @ %s\n", b.Name())
}

func (s *TextSink) Param(fn Func, i int) Value {
	f := fn.(*textFunc)
	t := types.Type(types.TUnit)
	if i < len(f.params) {
		t = f.params[i]
	}
	return &textValue{name: fmt.Sprintf("%%arg%d", i), typ: t}
}

func (s *TextSink) FuncPointer(fn Func) Value {
	f := fn.(*textFunc)
	return &textValue{name: "@" + f.name, typ: types.NewPointer(types.TUnit)}
}

func (s *TextSink) ConstInt(v int64) Value {
	return &textValue{name: fmt.Sprintf("%d", v), typ: types.TInt}
}

func (s *TextSink) ConstFloat(v float64) Value {
	return &textValue{name: fmt.Sprintf("%g", v), typ: types.TFloat}
}

func (s *TextSink) ConstBool(v bool) Value {
	if v {
		return &textValue{name: "true", typ: types.TBool}
	}
	return &textValue{name: "false", typ: types.TBool}
}

func (s *TextSink) ConstUnit() Value {
	return &textValue{name: "unit", typ: types.TUnit}
}

func (s *TextSink) Br(target Block) {
	fmt.Fprintf(&s.b, "  br label %%%s\n", target.Name())
}

func (s *TextSink) CondBr(cond Value, then, els Block) {
	fmt.Fprintf(&s.b, "  br i1 %s, label %%%s, label %%%s\n", cond.(*textValue), then.Name(), els.Name())
}

func (s *TextSink) Phi(t types.Type, incoming []PhiEdge) Value {
	out := s.nextValue(t, "phi")
	parts := make([]string, len(incoming))
	for i, e := range incoming {
		parts[i] = fmt.Sprintf("[%s, %%%s]", e.Value.(*textValue), e.From.Name())
	}
	fmt.Fprintf(&s.b, "  %s = phi %s %s\n", out, t.String(), strings.Join(parts, ", "))
	return out
}

var intOpNames = map[IntOp]string{IntAdd: "add", IntSub: "sub", IntMul: "mul", IntSDiv: "sdiv"}
var floatOpNames = map[FloatOp]string{FloatAdd: "fadd", FloatSub: "fsub", FloatMul: "fmul", FloatDiv: "fdiv"}
var intPredNames = map[IntPredicate]string{IntEQ: "eq", IntNE: "ne", IntSLT: "slt", IntSLE: "sle", IntSGT: "sgt", IntSGE: "sge"}
var floatPredNames = map[FloatPredicate]string{FloatOEQ: "oeq", FloatONE: "one", FloatOLT: "olt", FloatOLE: "ole", FloatOGT: "ogt", FloatOGE: "oge"}

func (s *TextSink) IntBinOp(op IntOp, lhs, rhs Value) Value {
	out := s.nextValue(types.TInt, "i")
	fmt.Fprintf(&s.b, "  %s = %s i64 %s, %s\n", out, intOpNames[op], lhs.(*textValue), rhs.(*textValue))
	return out
}

func (s *TextSink) FloatBinOp(op FloatOp, lhs, rhs Value) Value {
	out := s.nextValue(types.TFloat, "f")
	fmt.Fprintf(&s.b, "  %s = %s double %s, %s\n", out, floatOpNames[op], lhs.(*textValue), rhs.(*textValue))
	return out
}

func (s *TextSink) IntCmp(pred IntPredicate, lhs, rhs Value) Value {
	out := s.nextValue(types.TBool, "c")
	fmt.Fprintf(&s.b, "  %s = icmp %s i64 %s, %s\n", out, intPredNames[pred], lhs.(*textValue), rhs.(*textValue))
	return out
}

func (s *TextSink) FloatCmp(pred FloatPredicate, lhs, rhs Value) Value {
	out := s.nextValue(types.TBool, "c")
	fmt.Fprintf(&s.b, "  %s = fcmp %s double %s, %s\n", out, floatPredNames[pred], lhs.(*textValue), rhs.(*textValue))
	return out
}

func (s *TextSink) GEP(ptr Value, indices []Value) Value {
	out := s.nextValue(types.NewPointer(ptr.Type()), "p")
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = idx.(*textValue).String()
	}
	fmt.Fprintf(&s.b, "  %s = getelementptr %s, %s, %s\n", out, ptr.Type().String(), ptr.(*textValue), strings.Join(parts, ", "))
	return out
}

func (s *TextSink) Load(ptr Value, t types.Type) Value {
	out := s.nextValue(t, "l")
	fmt.Fprintf(&s.b, "  %s = load %s, %s\n", out, t.String(), ptr.(*textValue))
	return out
}

func (s *TextSink) Store(ptr, val Value) {
	fmt.Fprintf(&s.b, "  store %s, %s\n", val.(*textValue), ptr.(*textValue))
}

var castNames = map[CastKind]string{
	CastBitcast:  "bitcast",
	CastIntToPtr: "inttoptr",
	CastPtrToInt: "ptrtoint",
	CastSExt:     "sext",
	CastTrunc:    "trunc",
	CastSIToFP:   "sitofp",
	CastFPToSI:   "fptosi",
}

func (s *TextSink) Cast(kind CastKind, val Value, t types.Type) Value {
	out := s.nextValue(t, "x")
	fmt.Fprintf(&s.b, "  %s = %s %s to %s\n", out, castNames[kind], val.(*textValue), t.String())
	return out
}

func (s *TextSink) AllocTuple(elemTypes []types.Type) Value {
	out := s.nextValue(types.NewPointer(&types.Tuple{Dims: elemTypes}), "t")
	fmt.Fprintf(&s.b, "  %s = call ptr @zion_rt_alloc_tuple(i64 %d)\n", out, len(elemTypes))
	return out
}

func (s *TextSink) GlobalString(lit string) Value {
	s.globalSeq++
	name := fmt.Sprintf("@.str.%d", s.globalSeq)
	fmt.Fprintf(&s.b, "%s = constant [%d x i8] c%q\n", name, len(lit)+1, lit)
	return &textValue{name: name, typ: types.NewPointer(types.TString)}
}

func (s *TextSink) GlobalAggregate(t types.Type, elems []Value) Value {
	s.globalSeq++
	name := fmt.Sprintf("@.agg.%d", s.globalSeq)
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.(*textValue).String()
	}
	fmt.Fprintf(&s.b, "%s = constant %s { %s }\n", name, t.String(), strings.Join(parts, ", "))
	return &textValue{name: name, typ: types.NewPointer(t)}
}

func (s *TextSink) Call(fn Func, args []Value) Value {
	f := fn.(*textFunc)
	out := s.nextValue(f.ret, "r")
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.(*textValue).String()
	}
	fmt.Fprintf(&s.b, "  %s = call %s @%s(%s)\n", out, f.ret.String(), f.name, strings.Join(parts, ", "))
	return out
}

func (s *TextSink) CallIndirect(fnPtr Value, args []Value, ret types.Type) Value {
	out := s.nextValue(ret, "r")
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.(*textValue).String()
	}
	fmt.Fprintf(&s.b, "  %s = call %s %s(%s)\n", out, ret.String(), fnPtr.(*textValue), strings.Join(parts, ", "))
	return out
}

func (s *TextSink) Ret(val Value) {
	fmt.Fprintf(&s.b, "  ret %s %s\n", val.Type().String(), val.(*textValue))
}

func (s *TextSink) RetVoid() {
	s.b.WriteString("  ret void\n")
}
