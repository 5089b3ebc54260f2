package compiler

import "encoding/binary"

// RemapConstantIndices rewrites every LOAD_CONST_I32/LOAD_CONST_I64 operand
// in bytecode according to remap (old pool index -> new pool index),
// leaving every other instruction untouched. Used when several functions'
// per-function constant pools (spec §4.3) are folded into one container-wide
// pool (spec §4.4) at container assembly time.
func RemapConstantIndices(bytecode []byte, remap map[uint16]uint16) []byte {
	out := make([]byte, len(bytecode))
	copy(out, bytecode)

	i := 0
	for i < len(out) {
		op := Opcode(out[i])
		switch {
		case op == LOAD_CONST_I32 || op == LOAD_CONST_I64:
			if i+3 > len(out) {
				return out
			}
			oldIdx := binary.LittleEndian.Uint16(out[i+1 : i+3])
			if newIdx, ok := remap[oldIdx]; ok {
				binary.LittleEndian.PutUint16(out[i+1:i+3], newIdx)
			}
			i += 3
		case hasU16Operand(op) || hasJumpOperand(op):
			i += 3
		default:
			i++
		}
	}
	return out
}
