// Package driver wires Components A-D into the single pipeline the CLI's
// compile subcommand drives end to end: resolve, validate, emit, assemble.
package driver

import (
	"fmt"

	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/compiler"
	"github.com/ironplc/ironplc-go/lang/container"
	"github.com/ironplc/ironplc-go/lang/resolver"
	"github.com/ironplc/ironplc-go/lang/semantic"
)

// Result is everything a successful Compile run produced, handed back so
// the CLI (or a test) can format it however it likes.
type Result struct {
	Library *ast.Library
	Image   []byte
}

// compiledFunc is one lowered POU awaiting assembly into the container.
type compiledFunc struct {
	name      string
	emitter   *compiler.Emitter
	numLocals int
}

// Compile runs Components A-D over library in order (spec §2 "Control
// flow"): resolve, semantic validation, per-POU emission, container
// assembly. Diagnostics from A and B are collected without short-circuiting
// and returned together as a single error when non-empty; C and D fail
// fast, matching spec §7's propagation policy.
func Compile(library *ast.Library) (*Result, error) {
	resolved, env, err := resolver.Resolve(library)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	diags := semantic.Run(resolved, env)
	if diags.Len() > 0 {
		return nil, diags.Err()
	}

	builder := container.NewContainerBuilder()

	var funcs []compiledFunc
	var globals []*ast.VarDecl
	var resources []*ast.ResourceDecl
	programIDs := make(map[string]uint16)

	for _, decl := range resolved.Elements {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			em, err := compiler.CompileFunction(d, env)
			if err != nil {
				return nil, fmt.Errorf("compile function %s: %w", d.Name, err)
			}
			funcs = append(funcs, compiledFunc{name: d.Name.Canonical(), emitter: em, numLocals: compiler.NumAssignedVariables(d.Vars)})
		case *ast.FunctionBlockDecl:
			em, err := compiler.CompileFunctionBlock(d, env)
			if err != nil {
				return nil, fmt.Errorf("compile function block %s: %w", d.Name, err)
			}
			funcs = append(funcs, compiledFunc{name: d.Name.Canonical(), emitter: em, numLocals: compiler.NumAssignedVariables(d.Vars)})
		case *ast.ProgramDecl:
			em, err := compiler.CompileProgram(d, env)
			if err != nil {
				return nil, fmt.Errorf("compile program %s: %w", d.Name, err)
			}
			programIDs[d.Name.Canonical()] = uint16(len(funcs))
			funcs = append(funcs, compiledFunc{name: d.Name.Canonical(), emitter: em, numLocals: compiler.NumAssignedVariables(d.Vars)})
		case *ast.GlobalVarDecl:
			globals = append(globals, d.Vars...)
		case *ast.ConfigurationDecl:
			for _, g := range d.Globals {
				globals = append(globals, g.Vars...)
			}
			resources = append(resources, d.Resources...)
		}
	}

	for id, cf := range funcs {
		bytecode, err := cf.emitter.Bytecode()
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", cf.name, err)
		}
		bytecode = remapPool(builder, cf.emitter.Pool(), bytecode)
		builder.AddFunction(container.BuiltFunction{
			ID:            uint16(id),
			Bytecode:      bytecode,
			MaxStackDepth: cf.emitter.MaxStackDepth(),
			NumLocals:     uint16(cf.numLocals),
		})
	}
	builder.NumVariables(uint16(len(globals)))

	taskID := uint16(0)
	for _, res := range resources {
		taskByName := make(map[string]uint16)
		for _, t := range res.Tasks {
			taskByName[t.Name.Canonical()] = taskID
			builder.AddTask(container.TaskEntry{
				TaskID:     taskID,
				Priority:   t.Priority,
				Type:       taskTypeOf(t.Type),
				Flags:      container.TaskEnabled,
				IntervalUs: t.IntervalUs,
			})
			taskID++
		}
		for instID, p := range res.Programs {
			fnID, ok := programIDs[p.ProgramType.Canonical()]
			if !ok {
				return nil, fmt.Errorf("program instance %s: undefined program type %s", p.InstanceName, p.ProgramType)
			}
			var tID uint16
			if p.HasTask() {
				tID = taskByName[p.TaskName.Canonical()]
			}
			builder.AddProgram(container.ProgramEntry{
				InstanceID:      uint16(instID),
				TaskID:          tID,
				EntryFunctionID: fnID,
				VarTableCount:   uint16(funcs[fnID].numLocals),
			})
		}
	}

	return &Result{Library: resolved, Image: builder.Build()}, nil
}

// remapPool folds fn's per-function constant pool into builder's
// container-wide pool (spec §4.3 "per-function constant pool" feeding
// §4.4's single ConstantPool section), patching every LOAD_CONST operand
// in bytecode to the new shared index.
func remapPool(builder *container.ContainerBuilder, pool *compiler.ConstantPool, bytecode []byte) []byte {
	remap := make(map[uint16]uint16, pool.Len())
	for i := 0; i < pool.Len(); i++ {
		old := uint16(i)
		switch pool.Kind(old) {
		case compiler.PoolI32:
			remap[old] = builder.AddI32Constant(pool.I32(old))
		case compiler.PoolI64:
			remap[old] = builder.AddI64Constant(pool.I64(old))
		}
	}
	return compiler.RemapConstantIndices(bytecode, remap)
}

func taskTypeOf(t ast.TaskType) container.TaskType {
	switch t {
	case ast.TaskCyclic:
		return container.TaskCyclic
	case ast.TaskEventTriggered:
		return container.TaskEventTriggered
	default:
		return container.TaskFreewheeling
	}
}

// DumpSummary renders a human-readable summary of a parsed container image,
// for the CLI's dump subcommand.
func DumpSummary(img []byte) (string, error) {
	c, err := container.ParseContainer(img)
	if err != nil {
		return "", err
	}
	h := c.Header()
	return fmt.Sprintf(
		"format_version=%d max_stack_depth=%d max_call_depth=%d num_variables=%d num_fb_instances=%d\n"+
			"const_section=%d@%d code_section=%d@%d task_section=%d@%d\n"+
			"num_functions=%d num_tasks=%d num_programs=%d\n",
		h.FormatVersion, h.MaxStackDepth, h.MaxCallDepth, h.NumVariables, h.NumFBInstances,
		h.ConstSectionSize, h.ConstSectionOffset, h.CodeSectionSize, h.CodeSectionOffset, h.TaskSectionSize, h.TaskSectionOffset,
		h.NumFunctions, c.NumTasks(), c.NumPrograms(),
	), nil
}
