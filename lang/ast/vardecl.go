package ast

import (
	"fmt"

	"github.com/ironplc/ironplc-go/lang/core"
)

// VariableClass is the VAR_* kind a VarDecl was declared under (spec §3.5).
type VariableClass int

const (
	VarLocal VariableClass = iota
	VarInput
	VarOutput
	VarInOut
	VarExternal
	VarGlobal
	VarTemp
)

func (c VariableClass) String() string {
	switch c {
	case VarInput:
		return "VAR_INPUT"
	case VarOutput:
		return "VAR_OUTPUT"
	case VarInOut:
		return "VAR_IN_OUT"
	case VarExternal:
		return "VAR_EXTERNAL"
	case VarGlobal:
		return "VAR_GLOBAL"
	case VarTemp:
		return "VAR_TEMP"
	default:
		return "VAR"
	}
}

// Qualifier is the optional CONSTANT/RETAIN/NON_RETAIN modifier on a
// VarDecl (spec §3.5).
type Qualifier int

const (
	QualifierUnspecified Qualifier = iota
	QualifierConstant
	QualifierRetain
	QualifierNonRetain
)

// VarDecl declares one variable within a VAR_* block.
type VarDecl struct {
	Name      core.VariableId
	Type      core.TypeName
	Class     VariableClass
	Qualifier Qualifier
	Init      Initializer
	core.SourceSpan
}

func (n *VarDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Class.String()+" "+n.Name.String(), nil)
}
func (n *VarDecl) Span() core.SourceSpan { return n.SourceSpan }
func (n *VarDecl) Walk(v Visitor)        {}
func (*VarDecl) decl()                   {}

// IsConstant reports whether this declaration carries the CONSTANT
// qualifier.
func (n *VarDecl) IsConstant() bool { return n.Qualifier == QualifierConstant }

// GlobalVarDecl is a VAR_GLOBAL block at library scope, holding one or more
// VarDecl entries that share the block's default qualifier.
type GlobalVarDecl struct {
	Vars []*VarDecl
	core.SourceSpan
}

func (n *GlobalVarDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "VAR_GLOBAL", map[string]int{"vars": len(n.Vars)})
}
func (n *GlobalVarDecl) Span() core.SourceSpan { return n.SourceSpan }
func (n *GlobalVarDecl) Walk(v Visitor) {
	for _, vd := range n.Vars {
		Walk(v, vd)
	}
}
func (*GlobalVarDecl) decl() {}
