package compiler

// BuiltinID identifies the function a BUILTIN instruction invokes.
// original_source/compiler/codegen/src/emit.rs calls
// opcode::builtin::EXPT_I32 for the I32 case of Power; the numeric values
// here are self-assigned (the retrieved sources never define the constant
// table), matching opcode.go's own self-assigned Opcode discriminants.
type BuiltinID uint16

const (
	EXPT_I32 BuiltinID = iota
	EXPT_I64
	EXPT_U32
	EXPT_U64
)

// exptFuncID picks the BUILTIN function id for Power (`**`) by operand
// class, mirroring compile.rs's single EXPT_I32 case generalized across the
// full I32/I64/U32/U64 family (spec §4.3 "Power (`**`) lowers to
// BUILTIN(EXPT_*)").
func exptFuncID(cls intClass) BuiltinID {
	switch {
	case cls.width64 && cls.unsigned:
		return EXPT_U64
	case cls.width64:
		return EXPT_I64
	case cls.unsigned:
		return EXPT_U32
	default:
		return EXPT_I32
	}
}
