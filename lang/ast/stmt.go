package ast

import (
	"fmt"

	"github.com/ironplc/ironplc-go/lang/core"
)

// Block is a sequence of statements.
type Block struct {
	Stmts []Stmt
	core.SourceSpan
}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *Block) Span() core.SourceSpan { return n.SourceSpan }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

// AssignStmt is `target := expr;`.
type AssignStmt struct {
	Target *Ident
	Value  Expr
	core.SourceSpan
}

func (n *AssignStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "assign", nil) }
func (n *AssignStmt) Span() core.SourceSpan          { return n.SourceSpan }
func (n *AssignStmt) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Value)
}
func (*AssignStmt) stmt() {}

// ElseIfClause is one `ELSIF cond THEN body` arm of an IfStmt.
type ElseIfClause struct {
	Cond Expr
	Body *Block
}

// IfStmt is `IF cond THEN body (ELSIF...)* (ELSE body)? END_IF`.
type IfStmt struct {
	Cond     Expr
	Then     *Block
	ElseIfs  []ElseIfClause
	Else     *Block // nil if no ELSE clause
	core.SourceSpan
}

func (n *IfStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "if", map[string]int{"elseifs": len(n.ElseIfs)})
}
func (n *IfStmt) Span() core.SourceSpan { return n.SourceSpan }
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	for _, e := range n.ElseIfs {
		Walk(v, e.Cond)
		Walk(v, e.Body)
	}
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (*IfStmt) stmt() {}

// WhileStmt is `WHILE cond DO body END_WHILE`.
type WhileStmt struct {
	Cond Expr
	Body *Block
	core.SourceSpan
}

func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }
func (n *WhileStmt) Span() core.SourceSpan          { return n.SourceSpan }
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (*WhileStmt) stmt() {}

// RepeatStmt is `REPEAT body UNTIL cond END_REPEAT`.
type RepeatStmt struct {
	Body *Block
	Cond Expr
	core.SourceSpan
}

func (n *RepeatStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "repeat", nil) }
func (n *RepeatStmt) Span() core.SourceSpan          { return n.SourceSpan }
func (n *RepeatStmt) Walk(v Visitor) {
	Walk(v, n.Body)
	Walk(v, n.Cond)
}
func (*RepeatStmt) stmt() {}

// ForStmt is `FOR v := from TO to (BY step)? DO body END_FOR`. Step is nil
// when no BY clause was written (the emitter treats that as a constant 1,
// spec §4.3).
type ForStmt struct {
	Var  *Ident
	From Expr
	To   Expr
	Step Expr // nil if omitted
	Body *Block
	core.SourceSpan
}

func (n *ForStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "for", nil) }
func (n *ForStmt) Span() core.SourceSpan          { return n.SourceSpan }
func (n *ForStmt) Walk(v Visitor) {
	Walk(v, n.Var)
	Walk(v, n.From)
	Walk(v, n.To)
	if n.Step != nil {
		Walk(v, n.Step)
	}
	Walk(v, n.Body)
}
func (*ForStmt) stmt() {}

// Argument is one actual argument of an FBCallStmt: positional (Name zero)
// or formal (Name set), per the function_block_invocation rule (spec §4.2).
type Argument struct {
	Name  core.VariableId // zero value for a positional argument
	Value Expr
}

// IsFormal reports whether this argument was written as `NAME := value`.
func (a Argument) IsFormal() bool { return !a.Name.IsZero() }

// FBCallStmt invokes a function block instance, e.g. `FB(IN1 := TRUE, FALSE);`.
type FBCallStmt struct {
	Instance *Ident
	Args     []Argument
	core.SourceSpan
}

func (n *FBCallStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fbcall "+n.Instance.Name.String(), map[string]int{"args": len(n.Args)})
}
func (n *FBCallStmt) Span() core.SourceSpan { return n.SourceSpan }
func (n *FBCallStmt) Walk(v Visitor) {
	Walk(v, n.Instance)
	for _, a := range n.Args {
		Walk(v, a.Value)
	}
}
func (*FBCallStmt) stmt() {}

// ReturnStmt is `RETURN;`.
type ReturnStmt struct {
	core.SourceSpan
}

func (n *ReturnStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "return", nil) }
func (n *ReturnStmt) Span() core.SourceSpan          { return n.SourceSpan }
func (n *ReturnStmt) Walk(v Visitor)                 {}
func (*ReturnStmt) stmt()                            {}

// ExitStmt is `EXIT;`.
type ExitStmt struct {
	core.SourceSpan
}

func (n *ExitStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "exit", nil) }
func (n *ExitStmt) Span() core.SourceSpan          { return n.SourceSpan }
func (n *ExitStmt) Walk(v Visitor)                 {}
func (*ExitStmt) stmt()                             {}

// CaseLabel is one `value:` or `lo..hi:` label of a CaseStmt arm.
type CaseLabel struct {
	Low, High Expr // High == Low for a single-value label
}

// CaseArm is one labeled branch of a CaseStmt.
type CaseArm struct {
	Labels []CaseLabel
	Body   *Block
}

// CaseStmt is `CASE selector OF arms (ELSE body)? END_CASE`. The emitter
// does not yet lower it (spec §4.3 names RETURN/EXIT/CASE/FB calls from
// statements as NotImplemented for now, except FBCallStmt which this AST
// already models precisely because the function_block_invocation rule
// depends on its exact argument shape); the node exists so the semantic
// rules and a future emitter pass have a concrete shape to walk.
type CaseStmt struct {
	Selector Expr
	Arms     []CaseArm
	Else     *Block
	core.SourceSpan
}

func (n *CaseStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "case", map[string]int{"arms": len(n.Arms)})
}
func (n *CaseStmt) Span() core.SourceSpan { return n.SourceSpan }
func (n *CaseStmt) Walk(v Visitor) {
	Walk(v, n.Selector)
	for _, a := range n.Arms {
		Walk(v, a.Body)
	}
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (*CaseStmt) stmt() {}
