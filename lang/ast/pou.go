package ast

import (
	"fmt"

	"github.com/ironplc/ironplc-go/lang/core"
)

// FunctionDecl declares a FUNCTION POU.
type FunctionDecl struct {
	Name       core.Id
	ReturnType core.TypeName
	Vars       []*VarDecl
	Body       *Block
	core.SourceSpan
}

func (n *FunctionDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "function "+n.Name.String(), nil) }
func (n *FunctionDecl) Span() core.SourceSpan          { return n.SourceSpan }
func (n *FunctionDecl) Walk(v Visitor) {
	for _, vd := range n.Vars {
		Walk(v, vd)
	}
	Walk(v, n.Body)
}
func (*FunctionDecl) decl() {}

// FunctionBlockDecl declares a FUNCTION_BLOCK POU: a stateful, instantiable
// structure plus a body executed on each call (spec GLOSSARY).
type FunctionBlockDecl struct {
	Name core.Id
	Vars []*VarDecl
	Body *Block
	core.SourceSpan
}

func (n *FunctionBlockDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "function_block "+n.Name.String(), nil)
}
func (n *FunctionBlockDecl) Span() core.SourceSpan { return n.SourceSpan }
func (n *FunctionBlockDecl) Walk(v Visitor) {
	for _, vd := range n.Vars {
		Walk(v, vd)
	}
	Walk(v, n.Body)
}
func (*FunctionBlockDecl) decl() {}

// InputVars returns the declarations with class VarInput, in declaration
// order, for the function_block_invocation rule's formal/positional
// matching (spec §4.2).
func (n *FunctionBlockDecl) InputVars() []*VarDecl {
	var out []*VarDecl
	for _, vd := range n.Vars {
		if vd.Class == VarInput {
			out = append(out, vd)
		}
	}
	return out
}

// OutputVars returns the declarations with class VarOutput, in declaration
// order.
func (n *FunctionBlockDecl) OutputVars() []*VarDecl {
	var out []*VarDecl
	for _, vd := range n.Vars {
		if vd.Class == VarOutput {
			out = append(out, vd)
		}
	}
	return out
}

// ProgramDecl declares a PROGRAM POU: the unit Component C compiles to a
// bytecode function (spec §3.6).
type ProgramDecl struct {
	Name core.ProgramName
	Vars []*VarDecl
	Body *Block
	core.SourceSpan
}

func (n *ProgramDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "program "+n.Name.String(), nil) }
func (n *ProgramDecl) Span() core.SourceSpan          { return n.SourceSpan }
func (n *ProgramDecl) Walk(v Visitor) {
	for _, vd := range n.Vars {
		Walk(v, vd)
	}
	Walk(v, n.Body)
}
func (*ProgramDecl) decl() {}

// TaskType is the runtime schedule kind of a TaskDecl (spec §4.4 "Task
// entry", GLOSSARY "Task").
type TaskType int

const (
	TaskFreewheeling TaskType = iota
	TaskCyclic
	TaskEventTriggered
)

// TaskDecl declares a schedulable task within a resource.
type TaskDecl struct {
	Name       core.Id
	Type       TaskType
	IntervalUs uint64 // meaningful only when Type == TaskCyclic
	Priority   uint16
	core.SourceSpan
}

func (n *TaskDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "task "+n.Name.String(), nil) }
func (n *TaskDecl) Span() core.SourceSpan          { return n.SourceSpan }
func (n *TaskDecl) Walk(v Visitor)                 {}
func (*TaskDecl) decl()                            {}

// ProgramInstanceDecl binds a PROGRAM to a task within a resource, e.g.
// `PROG_INST : main WITH main_task;` (spec rule program_task_definition_exists).
type ProgramInstanceDecl struct {
	InstanceName core.Id
	ProgramType  core.ProgramName
	TaskName     core.Id // zero value if no WITH clause
	core.SourceSpan
}

func (n *ProgramInstanceDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "program-instance "+n.InstanceName.String(), nil)
}
func (n *ProgramInstanceDecl) Span() core.SourceSpan { return n.SourceSpan }
func (n *ProgramInstanceDecl) Walk(v Visitor)        {}
func (*ProgramInstanceDecl) decl()                   {}

// HasTask reports whether a WITH clause named a task.
func (n *ProgramInstanceDecl) HasTask() bool { return !n.TaskName.IsZero() }

// ResourceDecl is a configuration-level container of tasks and program
// instances (spec GLOSSARY "Resource").
type ResourceDecl struct {
	Name     core.Id
	Tasks    []*TaskDecl
	Programs []*ProgramInstanceDecl
	core.SourceSpan
}

func (n *ResourceDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "resource "+n.Name.String(), map[string]int{"tasks": len(n.Tasks), "programs": len(n.Programs)})
}
func (n *ResourceDecl) Span() core.SourceSpan { return n.SourceSpan }
func (n *ResourceDecl) Walk(v Visitor) {
	for _, t := range n.Tasks {
		Walk(v, t)
	}
	for _, p := range n.Programs {
		Walk(v, p)
	}
}
func (*ResourceDecl) decl() {}

// ConfigurationDecl is the outermost runtime-binding declaration, grouping
// global variables and resources.
type ConfigurationDecl struct {
	Name      core.Id
	Globals   []*GlobalVarDecl
	Resources []*ResourceDecl
	core.SourceSpan
}

func (n *ConfigurationDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "configuration "+n.Name.String(), map[string]int{"resources": len(n.Resources)})
}
func (n *ConfigurationDecl) Span() core.SourceSpan { return n.SourceSpan }
func (n *ConfigurationDecl) Walk(v Visitor) {
	for _, g := range n.Globals {
		Walk(v, g)
	}
	for _, r := range n.Resources {
		Walk(v, r)
	}
}
func (*ConfigurationDecl) decl() {}
