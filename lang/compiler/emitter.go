package compiler

import "encoding/binary"

// Label is an opaque forward reference to a bytecode position, used as a
// jump target. Grounded directly on original_source/compiler/codegen/src/emit.rs.
type Label struct{ index int }

type pendingPatch struct {
	patchOffset int
	label       Label
}

// Emitter accumulates bytecode instructions for one compiled function,
// tracking label back-patching, constant pool deduplication and stack
// depth (spec §4.3).
type Emitter struct {
	bytecode []byte

	maxStackDepth     uint16
	currentStackDepth uint16

	labels  []int // -1 if not yet bound
	patches []pendingPatch

	pool *ConstantPool
}

// NewEmitter returns an Emitter with a fresh constant pool.
func NewEmitter() *Emitter {
	return &Emitter{pool: NewConstantPool()}
}

// Pool returns the emitter's constant pool.
func (e *Emitter) Pool() *ConstantPool { return e.pool }

func (e *Emitter) emitOp(op Opcode) { e.bytecode = append(e.bytecode, byte(op)) }

func (e *Emitter) emitU16(v uint16) {
	e.bytecode = append(e.bytecode, byte(v), byte(v>>8))
}

func (e *Emitter) pushStack(n uint16) {
	e.currentStackDepth += n
	if e.currentStackDepth > e.maxStackDepth {
		e.maxStackDepth = e.currentStackDepth
	}
}

func (e *Emitter) popStack(n uint16) { e.currentStackDepth -= n }

// EmitLoadConstI32 deduplicates v in the constant pool and emits
// LOAD_CONST_I32 with its index.
func (e *Emitter) EmitLoadConstI32(v int32) {
	idx := e.pool.AddI32(v)
	e.emitOp(LOAD_CONST_I32)
	e.emitU16(idx)
	e.pushStack(1)
}

// EmitLoadConstI64 deduplicates v in the constant pool and emits
// LOAD_CONST_I64 with its index.
func (e *Emitter) EmitLoadConstI64(v int64) {
	idx := e.pool.AddI64(v)
	e.emitOp(LOAD_CONST_I64)
	e.emitU16(idx)
	e.pushStack(1)
}

// EmitLoadTrue emits LOAD_TRUE.
func (e *Emitter) EmitLoadTrue() { e.emitOp(LOAD_TRUE); e.pushStack(1) }

// EmitLoadFalse emits LOAD_FALSE.
func (e *Emitter) EmitLoadFalse() { e.emitOp(LOAD_FALSE); e.pushStack(1) }

// EmitLoadVarI32 emits LOAD_VAR_I32 with the given variable index.
func (e *Emitter) EmitLoadVarI32(idx uint16) { e.emitOp(LOAD_VAR_I32); e.emitU16(idx); e.pushStack(1) }

// EmitLoadVarI64 emits LOAD_VAR_I64 with the given variable index.
func (e *Emitter) EmitLoadVarI64(idx uint16) { e.emitOp(LOAD_VAR_I64); e.emitU16(idx); e.pushStack(1) }

// EmitStoreVarI32 emits STORE_VAR_I32 with the given variable index.
func (e *Emitter) EmitStoreVarI32(idx uint16) { e.emitOp(STORE_VAR_I32); e.emitU16(idx); e.popStack(1) }

// EmitStoreVarI64 emits STORE_VAR_I64 with the given variable index.
func (e *Emitter) EmitStoreVarI64(idx uint16) { e.emitOp(STORE_VAR_I64); e.emitU16(idx); e.popStack(1) }

// binary emits op and adjusts the stack for a pop-2/push-1 instruction.
func (e *Emitter) binary(op Opcode) { e.emitOp(op); e.popStack(1) }

// unary emits op with no net stack change (pop 1, push 1).
func (e *Emitter) unary(op Opcode) { e.emitOp(op) }

func (e *Emitter) EmitAddI32() { e.binary(ADD_I32) }
func (e *Emitter) EmitSubI32() { e.binary(SUB_I32) }
func (e *Emitter) EmitMulI32() { e.binary(MUL_I32) }
func (e *Emitter) EmitDivI32() { e.binary(DIV_I32) }
func (e *Emitter) EmitModI32() { e.binary(MOD_I32) }

func (e *Emitter) EmitAddI64() { e.binary(ADD_I64) }
func (e *Emitter) EmitSubI64() { e.binary(SUB_I64) }
func (e *Emitter) EmitMulI64() { e.binary(MUL_I64) }
func (e *Emitter) EmitDivI64() { e.binary(DIV_I64) }
func (e *Emitter) EmitModI64() { e.binary(MOD_I64) }

func (e *Emitter) EmitDivU32() { e.binary(DIV_U32) }
func (e *Emitter) EmitModU32() { e.binary(MOD_U32) }
func (e *Emitter) EmitDivU64() { e.binary(DIV_U64) }
func (e *Emitter) EmitModU64() { e.binary(MOD_U64) }

func (e *Emitter) EmitNegI32()  { e.unary(NEG_I32) }
func (e *Emitter) EmitNegI64()  { e.unary(NEG_I64) }
func (e *Emitter) EmitBoolNot() { e.unary(BOOL_NOT) }

func (e *Emitter) EmitEqI32() { e.binary(EQ_I32) }
func (e *Emitter) EmitNeI32() { e.binary(NE_I32) }
func (e *Emitter) EmitLtI32() { e.binary(LT_I32) }
func (e *Emitter) EmitLeI32() { e.binary(LE_I32) }
func (e *Emitter) EmitGtI32() { e.binary(GT_I32) }
func (e *Emitter) EmitGeI32() { e.binary(GE_I32) }

func (e *Emitter) EmitEqI64() { e.binary(EQ_I64) }
func (e *Emitter) EmitNeI64() { e.binary(NE_I64) }
func (e *Emitter) EmitLtI64() { e.binary(LT_I64) }
func (e *Emitter) EmitLeI64() { e.binary(LE_I64) }
func (e *Emitter) EmitGtI64() { e.binary(GT_I64) }
func (e *Emitter) EmitGeI64() { e.binary(GE_I64) }

func (e *Emitter) EmitEqU32() { e.binary(EQ_U32) }
func (e *Emitter) EmitNeU32() { e.binary(NE_U32) }
func (e *Emitter) EmitLtU32() { e.binary(LT_U32) }
func (e *Emitter) EmitLeU32() { e.binary(LE_U32) }
func (e *Emitter) EmitGtU32() { e.binary(GT_U32) }
func (e *Emitter) EmitGeU32() { e.binary(GE_U32) }

func (e *Emitter) EmitEqU64() { e.binary(EQ_U64) }
func (e *Emitter) EmitNeU64() { e.binary(NE_U64) }
func (e *Emitter) EmitLtU64() { e.binary(LT_U64) }
func (e *Emitter) EmitLeU64() { e.binary(LE_U64) }
func (e *Emitter) EmitGtU64() { e.binary(GT_U64) }
func (e *Emitter) EmitGeU64() { e.binary(GE_U64) }

func (e *Emitter) EmitBoolAnd() { e.binary(BOOL_AND) }
func (e *Emitter) EmitBoolOr()  { e.binary(BOOL_OR) }
func (e *Emitter) EmitBoolXor() { e.binary(BOOL_XOR) }

func (e *Emitter) EmitTruncI8()  { e.unary(TRUNC_I8) }
func (e *Emitter) EmitTruncU8()  { e.unary(TRUNC_U8) }
func (e *Emitter) EmitTruncI16() { e.unary(TRUNC_I16) }
func (e *Emitter) EmitTruncU16() { e.unary(TRUNC_U16) }

// EmitBuiltin emits BUILTIN with the given function id (2-arg shape:
// pop 2, push 1, spec §4.3).
func (e *Emitter) EmitBuiltin(funcID uint16) { e.emitOp(BUILTIN); e.emitU16(funcID); e.popStack(1) }

// CreateLabel allocates a new unbound label for use as a jump target.
func (e *Emitter) CreateLabel() Label {
	e.labels = append(e.labels, -1)
	return Label{index: len(e.labels) - 1}
}

// BindLabel records the current bytecode position as label's target.
func (e *Emitter) BindLabel(label Label) {
	e.labels[label.index] = len(e.bytecode)
}

// EmitJmp emits an unconditional jump to label, placeholder operand
// patched at Bytecode().
func (e *Emitter) EmitJmp(label Label) {
	e.emitOp(JMP)
	patchOffset := len(e.bytecode)
	e.emitU16(0)
	e.patches = append(e.patches, pendingPatch{patchOffset: patchOffset, label: label})
}

// EmitJmpIfNot pops the condition and emits a conditional jump to label,
// taken when the popped value is falsy.
func (e *Emitter) EmitJmpIfNot(label Label) {
	e.emitOp(JMP_IF_NOT)
	patchOffset := len(e.bytecode)
	e.emitU16(0)
	e.patches = append(e.patches, pendingPatch{patchOffset: patchOffset, label: label})
	e.popStack(1)
}

// EmitRetVoid emits RET_VOID.
func (e *Emitter) EmitRetVoid() { e.emitOp(RET_VOID) }

// MaxStackDepth returns the maximum stack depth reached during emission.
func (e *Emitter) MaxStackDepth() uint16 { return e.maxStackDepth }

// Bytecode returns the accumulated bytecode with all pending jump patches
// resolved. An unbound label at this point is a programmer error (spec
// §4.3 "Label back-patching": "An unbound label at finalization is a
// programmer error (panic / assertion)").
func (e *Emitter) Bytecode() ([]byte, error) {
	for _, p := range e.patches {
		labelPos := e.labels[p.label.index]
		if labelPos < 0 {
			panic("compiler: label must be bound before patching")
		}
		nextPC := p.patchOffset + 2
		offset := labelPos - nextPC
		if offset < -32768 || offset > 32767 {
			return nil, newBranchTooFarError(p.patchOffset)
		}
		binary.LittleEndian.PutUint16(e.bytecode[p.patchOffset:], uint16(int16(offset)))
	}
	return e.bytecode, nil
}
