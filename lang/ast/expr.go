package ast

import (
	"fmt"

	"github.com/ironplc/ironplc-go/lang/core"
)

// BinaryOp is a binary operator token.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
)

// UnaryOp is a unary operator token.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

type (
	// Ident is a symbolic variable reference.
	Ident struct {
		Name core.VariableId
		core.SourceSpan
	}

	// IntLiteral is an integer literal; Neg records whether a leading unary
	// minus was folded into the literal at parse time (spec §6.2: "every
	// subrange literal preserves its sign separately from its magnitude").
	IntLiteral struct {
		Value int64
		Neg   bool
		core.SourceSpan
	}

	// RealLiteral is a floating-point literal.
	RealLiteral struct {
		Value float64
		core.SourceSpan
	}

	// BoolLiteral is TRUE or FALSE.
	BoolLiteral struct {
		Value bool
		core.SourceSpan
	}

	// BinaryExpr is `Left Op Right`.
	BinaryExpr struct {
		Left  Expr
		Op    BinaryOp
		Right Expr
		core.SourceSpan
	}

	// UnaryExpr is `Op Operand`.
	UnaryExpr struct {
		Op      UnaryOp
		Operand Expr
		core.SourceSpan
	}
)

func (n *Ident) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.String(), nil) }
func (n *Ident) Span() core.SourceSpan          { return n.SourceSpan }
func (n *Ident) Walk(v Visitor)                 {}
func (*Ident) expr()                            {}

func (n *IntLiteral) Format(f fmt.State, verb rune) { format(f, verb, n, "int", nil) }
func (n *IntLiteral) Span() core.SourceSpan          { return n.SourceSpan }
func (n *IntLiteral) Walk(v Visitor)                 {}
func (*IntLiteral) expr()                            {}

func (n *RealLiteral) Format(f fmt.State, verb rune) { format(f, verb, n, "real", nil) }
func (n *RealLiteral) Span() core.SourceSpan          { return n.SourceSpan }
func (n *RealLiteral) Walk(v Visitor)                 {}
func (*RealLiteral) expr()                            {}

func (n *BoolLiteral) Format(f fmt.State, verb rune) { format(f, verb, n, "bool", nil) }
func (n *BoolLiteral) Span() core.SourceSpan          { return n.SourceSpan }
func (n *BoolLiteral) Walk(v Visitor)                 {}
func (*BoolLiteral) expr()                            {}

func (n *BinaryExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "binary", nil) }
func (n *BinaryExpr) Span() core.SourceSpan          { return n.SourceSpan }
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (*BinaryExpr) expr() {}

func (n *UnaryExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "unary", nil) }
func (n *UnaryExpr) Span() core.SourceSpan          { return n.SourceSpan }
func (n *UnaryExpr) Walk(v Visitor)                 { Walk(v, n.Operand) }
func (*UnaryExpr) expr()                            {}
