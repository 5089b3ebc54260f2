// Package ast defines the abstract syntax tree produced by the (external)
// parser and consumed by the type resolver, semantic rule suite and
// bytecode emitter. It is a closed grammar: every Node variant is declared
// in this package, so a fold or visitor over it can match exhaustively
// without a default/plugin case.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ironplc/ironplc-go/lang/core"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements fmt.Formatter so it can print a description of
	// itself for debugging and golden-file tests. Only 'v' and 's' verbs are
	// supported; '#' prints child counts.
	fmt.Formatter

	// Span reports the node's source location.
	Span() core.SourceSpan

	// Walk enters each child node inside itself to implement the Visitor
	// pattern.
	Walk(v Visitor)
}

// Expr represents an expression in the AST.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the AST.
type Stmt interface {
	Node
	stmt()
}

// Decl represents a top-level library element: a type, variable,
// function, function block, program or configuration declaration.
type Decl interface {
	Node
	decl()
}

// format implements the shared fmt.Formatter body used by every node,
// matching the width/flag handling: '-' pads right, '+' disables padding,
// '#' appends child counts.
func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
