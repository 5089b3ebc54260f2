package ast

import (
	"fmt"

	"github.com/ironplc/ironplc-go/lang/core"
)

// Library is the top-level artifact: an ordered sequence of library
// elements. Order is significant only at parse time — Component A
// re-sorts type definitions topologically before folding (spec §3.4).
type Library struct {
	Elements []Decl
}

func (n *Library) Format(f fmt.State, verb rune) {
	format(f, verb, n, "library", map[string]int{"elements": len(n.Elements)})
}
func (n *Library) Span() core.SourceSpan {
	if len(n.Elements) == 0 {
		return core.SourceSpan{}
	}
	first, last := n.Elements[0].Span(), n.Elements[len(n.Elements)-1].Span()
	return core.SourceSpan{File: first.File, Start: first.Start, End: last.End}
}
func (n *Library) Walk(v Visitor) {
	for _, e := range n.Elements {
		Walk(v, e)
	}
}

// TypeDecl declares a named type. Spec is one of the concrete spec kinds
// below, or LateBoundSpec before Component A rewrites it (spec §3.2, §6.2).
type TypeDecl struct {
	Name core.TypeName
	Spec TypeSpec
	core.SourceSpan
}

func (n *TypeDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "type "+n.Name.String(), nil) }
func (n *TypeDecl) Span() core.SourceSpan          { return n.SourceSpan }
func (n *TypeDecl) Walk(v Visitor) {
	if n.Spec != nil {
		Walk(v, n.Spec)
	}
}
func (*TypeDecl) decl() {}

// TypeSpec is the right-hand side of a TYPE declaration.
type TypeSpec interface {
	Node
	typeSpec()
}

type (
	// SimpleSpec is `NAME : BASE := init;` — an alias to BASE, or BASE itself
	// when BASE is elementary.
	SimpleSpec struct {
		Base core.TypeName
		Init Initializer
		core.SourceSpan
	}

	// EnumSpec declares a fresh enumeration with inline named values.
	EnumSpec struct {
		Values []core.Id
		Init   Initializer
		core.SourceSpan
	}

	// EnumAliasSpec aliases an existing enumeration type.
	EnumAliasSpec struct {
		Base core.TypeName
		Init Initializer
		core.SourceSpan
	}

	// SubrangeSpec declares `NAME : BASE(min..max) := init;`.
	SubrangeSpec struct {
		Base core.TypeName
		Min  int64
		Max  int64
		Init Initializer
		core.SourceSpan
	}

	// SubrangeAliasSpec aliases an existing subrange type.
	SubrangeAliasSpec struct {
		Base core.TypeName
		Init Initializer
		core.SourceSpan
	}

	// ArrayDimension is one `[lower..upper]` bound of an array spec.
	ArrayDimension struct {
		Lower int64
		Upper int64
	}

	// ArraySpec declares `NAME : ARRAY[dims] OF ELEM := init;`.
	ArraySpec struct {
		Dimensions []ArrayDimension
		ElementType core.TypeName
		Init        Initializer
		core.SourceSpan
	}

	// ArrayAliasSpec aliases an existing array type.
	ArrayAliasSpec struct {
		Base core.TypeName
		Init Initializer
		core.SourceSpan
	}

	// StructureField is one field of a StructSpec.
	StructureField struct {
		Name core.VariableId
		Type core.TypeName
		Init Initializer
	}

	// StructSpec declares `NAME : STRUCT fields END_STRUCT;`.
	StructSpec struct {
		Fields []StructureField
		core.SourceSpan
	}

	// LateBoundSpec is the parser's placeholder for `NAME : OTHER;` before
	// Component A knows whether OTHER names an alias, enum, array or struct
	// base. Component A rewrites every LateBoundSpec to a concrete spec kind.
	LateBoundSpec struct {
		Base core.TypeName
		core.SourceSpan
	}
)

func (n *SimpleSpec) Format(f fmt.State, verb rune)        { format(f, verb, n, "simple "+n.Base.String(), nil) }
func (n *SimpleSpec) Span() core.SourceSpan                { return n.SourceSpan }
func (n *SimpleSpec) Walk(v Visitor)                       {}
func (*SimpleSpec) typeSpec()                              {}

func (n *EnumSpec) Format(f fmt.State, verb rune) {
	format(f, verb, n, "enum", map[string]int{"values": len(n.Values)})
}
func (n *EnumSpec) Span() core.SourceSpan { return n.SourceSpan }
func (n *EnumSpec) Walk(v Visitor)        {}
func (*EnumSpec) typeSpec()               {}

func (n *EnumAliasSpec) Format(f fmt.State, verb rune) { format(f, verb, n, "enum-alias "+n.Base.String(), nil) }
func (n *EnumAliasSpec) Span() core.SourceSpan          { return n.SourceSpan }
func (n *EnumAliasSpec) Walk(v Visitor)                 {}
func (*EnumAliasSpec) typeSpec()                        {}

func (n *SubrangeSpec) Format(f fmt.State, verb rune) { format(f, verb, n, "subrange "+n.Base.String(), nil) }
func (n *SubrangeSpec) Span() core.SourceSpan          { return n.SourceSpan }
func (n *SubrangeSpec) Walk(v Visitor)                 {}
func (*SubrangeSpec) typeSpec()                        {}

func (n *SubrangeAliasSpec) Format(f fmt.State, verb rune) {
	format(f, verb, n, "subrange-alias "+n.Base.String(), nil)
}
func (n *SubrangeAliasSpec) Span() core.SourceSpan { return n.SourceSpan }
func (n *SubrangeAliasSpec) Walk(v Visitor)        {}
func (*SubrangeAliasSpec) typeSpec()               {}

func (n *ArraySpec) Format(f fmt.State, verb rune) {
	format(f, verb, n, "array "+n.ElementType.String(), map[string]int{"dims": len(n.Dimensions)})
}
func (n *ArraySpec) Span() core.SourceSpan { return n.SourceSpan }
func (n *ArraySpec) Walk(v Visitor)        {}
func (*ArraySpec) typeSpec()               {}

func (n *ArrayAliasSpec) Format(f fmt.State, verb rune) { format(f, verb, n, "array-alias "+n.Base.String(), nil) }
func (n *ArrayAliasSpec) Span() core.SourceSpan          { return n.SourceSpan }
func (n *ArrayAliasSpec) Walk(v Visitor)                 {}
func (*ArrayAliasSpec) typeSpec()                        {}

func (n *StructSpec) Format(f fmt.State, verb rune) {
	format(f, verb, n, "struct", map[string]int{"fields": len(n.Fields)})
}
func (n *StructSpec) Span() core.SourceSpan { return n.SourceSpan }
func (n *StructSpec) Walk(v Visitor)        {}
func (*StructSpec) typeSpec()               {}

func (n *LateBoundSpec) Format(f fmt.State, verb rune) { format(f, verb, n, "late-bound "+n.Base.String(), nil) }
func (n *LateBoundSpec) Span() core.SourceSpan          { return n.SourceSpan }
func (n *LateBoundSpec) Walk(v Visitor)                 {}
func (*LateBoundSpec) typeSpec()                        {}

// Initializer is the sum of initializer kinds an AST node may carry,
// mirroring the parser's contract in spec §6.2. HasDefault is derived per
// variant, following original_source's field_has_default() rather than a
// single boolean the parser hands over (see SPEC_FULL.md "Supplemented
// features" #2).
type Initializer interface {
	// HasDefault reports whether this initializer supplies a concrete value.
	HasDefault() bool
}

type (
	// NoInit means no initializer was written.
	NoInit struct{}

	// SimpleInit is a single scalar literal or constant expression.
	SimpleInit struct{ Value Expr }

	// EnumeratedValueInit names one value of an enumeration.
	EnumeratedValueInit struct{ Value core.Id }

	// StructureInit supplies one initializer per named field.
	StructureInit struct{ Fields map[string]Initializer }

	// ArrayInit supplies one initializer per element, in order.
	ArrayInit struct{ Elements []Initializer }
)

func (NoInit) HasDefault() bool                { return false }
func (SimpleInit) HasDefault() bool            { return true }
func (EnumeratedValueInit) HasDefault() bool   { return true }
func (s StructureInit) HasDefault() bool       { return len(s.Fields) > 0 }
func (a ArrayInit) HasDefault() bool           { return len(a.Elements) > 0 }
