// Package semantic implements Component B: the semantic rule suite. Each
// rule is an independent pure function over the resolved library and
// environments; none may short-circuit (spec §4.2, §7).
//
// function_block_invocation is grounded directly on
// original_source/compiler/plc2x/src/rule_function_block_invocation.rs —
// the plc2x variant is the canonical one per spec.md's Open Question
// resolution (SPEC_FULL.md "Supplemented features" #4).
package semantic

import (
	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/ittype"
	"github.com/ironplc/ironplc-go/lang/problems"
)

// Rule is one independent validation pass (spec §4.2 "Required rules").
type Rule func(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic

// Rules is the full required set, in the order spec §4.2's table lists
// them. The driver runs every rule regardless of others' outcomes.
var Rules = []Rule{
	declStructElementUniqueNames,
	declSubrangeLimits,
	enumerationValuesUnique,
	functionBlockInvocation,
	pousNoCycles,
	programTaskDefinitionExists,
	useDeclaredEnumeratedValue,
	useDeclaredSymbolicVar,
	unsupportedStdlibType,
	varDeclConstInitialized,
	varDeclConstNotFb,
	varDeclGlobalConstRequiresExternalConst,
}

// Run applies every rule to library and concatenates their diagnostics.
// The driver never aborts after a failing rule (spec §4.2 "Scheduling").
func Run(library *ast.Library, env *ittype.TypeEnvironment) *core.List {
	st := BuildSymbolTable(library)
	var diags core.List
	for _, rule := range Rules {
		diags.AddAll(rule(library, env, st))
	}
	diags.Sort()
	return &diags
}

func typeDeclsOf(lib *ast.Library) []*ast.TypeDecl {
	var out []*ast.TypeDecl
	for _, el := range lib.Elements {
		if td, ok := el.(*ast.TypeDecl); ok {
			out = append(out, td)
		}
	}
	return out
}

// decl_struct_element_unique_names: within one structure declaration,
// field names are pairwise distinct.
func declStructElementUniqueNames(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	for _, td := range typeDeclsOf(lib) {
		spec, ok := td.Spec.(*ast.StructSpec)
		if !ok {
			continue
		}
		seen := map[string]bool{}
		for _, f := range spec.Fields {
			c := f.Name.Canonical()
			if seen[c] {
				out = append(out, problems.NewDiagnostic(problems.StructFieldDuplicateName,
					core.Label{Span: td.Span(), Message: problems.Format(problems.StructFieldDuplicateName, td.Name.String(), f.Name.String())}))
				continue
			}
			seen[c] = true
		}
	}
	return out
}

// decl_subrange_limits: every subrange's [min,max] fits in its base
// elementary type's domain. Component A already enforces this during
// folding; this rule re-validates the resolved environment so that a
// subrange surviving resolution (e.g. via a cached/partial environment)
// cannot silently violate the invariant.
func declSubrangeLimits(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	for _, td := range typeDeclsOf(lib) {
		rep, ok := env.Lookup(td.Name.Canonical())
		if !ok || rep.Subrange == nil {
			continue
		}
		if !rep.Subrange.Base.IsValueInDomain(rep.Subrange.Min) || !rep.Subrange.Base.IsValueInDomain(rep.Subrange.Max) {
			out = append(out, problems.NewDiagnostic(problems.SubrangeOutOfBounds,
				core.Label{Span: td.Span(), Message: problems.Format(problems.SubrangeOutOfBounds, td.Name.String(), rep.Subrange.Base.Name())}))
		}
	}
	return out
}

// enumeration_values_unique: within one enumeration, values are pairwise
// distinct.
func enumerationValuesUnique(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	for _, td := range typeDeclsOf(lib) {
		spec, ok := td.Spec.(*ast.EnumSpec)
		if !ok {
			continue
		}
		seen := map[string]bool{}
		for _, v := range spec.Values {
			c := v.Canonical()
			if seen[c] {
				out = append(out, problems.NewDiagnostic(problems.EnumerationValueDuplicate,
					core.Label{Span: v.Span(), Message: problems.Format(problems.EnumerationValueDuplicate, td.Name.String(), v.String())}))
				continue
			}
			seen[c] = true
		}
	}
	return out
}

// find returns the first VarDecl in vars named name whose class is one of
// classes, mirroring original_source's find()/find_input_type()/
// find_output_type().
func find(vars []*ast.VarDecl, name string, classes ...ast.VariableClass) *ast.VarDecl {
	for _, vd := range vars {
		if vd.Name.Canonical() != name {
			continue
		}
		for _, c := range classes {
			if vd.Class == c {
				return vd
			}
		}
	}
	return nil
}

func findInputType(vars []*ast.VarDecl, name string) *ast.VarDecl {
	return find(vars, name, ast.VarInput, ast.VarInOut)
}

func findOutputType(vars []*ast.VarDecl, name string) *ast.VarDecl {
	return find(vars, name, ast.VarOutput)
}

func countInputType(vars []*ast.VarDecl) int {
	n := 0
	for _, vd := range vars {
		if vd.Class == ast.VarInput {
			n++
		}
	}
	return n
}

// function_block_invocation: every function-block call names a declared
// block; arguments are all-formal or all-positional; formal input names
// match declared inputs; positional arg count equals declared input count;
// formal outputs refer to declared outputs.
func functionBlockInvocation(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	blocks := FunctionBlocks(lib)
	var out []*core.Diagnostic

	var walkBody func(scopeVars []*ast.VarDecl, body *ast.Block)
	walkBody = func(scopeVars []*ast.VarDecl, body *ast.Block) {
		if body == nil {
			return
		}
		for _, s := range body.Stmts {
			call, ok := s.(*ast.FBCallStmt)
			if !ok {
				continue
			}
			instDecl := find(scopeVars, call.Instance.Name.Canonical(), ast.VarLocal, ast.VarInput, ast.VarOutput, ast.VarInOut, ast.VarTemp, ast.VarExternal)
			if instDecl == nil {
				continue // use_declared_symbolic_var reports undeclared instances
			}
			fb, ok := blocks[instDecl.Type.Canonical()]
			if !ok {
				out = append(out, problems.NewDiagnostic(problems.FunctionBlockNotDeclared,
					core.Label{Span: call.Span(), Message: problems.Format(problems.FunctionBlockNotDeclared, instDecl.Type.String())}))
				continue
			}

			hasFormal, hasPositional := false, false
			for _, a := range call.Args {
				if a.IsFormal() {
					hasFormal = true
				} else {
					hasPositional = true
				}
			}
			if hasFormal && hasPositional {
				out = append(out, problems.NewDiagnostic(problems.FunctionCallMixedArgTypes,
					core.Label{Span: call.Span(), Message: problems.Format(problems.FunctionCallMixedArgTypes, call.Instance.Name.String())}))
				continue
			}

			if hasPositional {
				n := countInputType(fb.Vars)
				if len(call.Args) != n {
					out = append(out, problems.NewDiagnostic(problems.FunctionCallArgCountMismatch,
						core.Label{Span: call.Span(), Message: problems.Format(problems.FunctionCallArgCountMismatch, call.Instance.Name.String(), len(call.Args), fb.Name.String(), n)}))
				}
				continue
			}

			for _, a := range call.Args {
				name := a.Name.Canonical()
				if in := findInputType(fb.Vars, name); in != nil {
					continue
				}
				if out2 := findOutputType(fb.Vars, name); out2 != nil {
					continue
				}
				out = append(out, problems.NewDiagnostic(problems.FunctionCallUnknownFormalArg,
					core.Label{Span: call.Span(), Message: problems.Format(problems.FunctionCallUnknownFormalArg, call.Instance.Name.String(), a.Name.String(), fb.Name.String())}))
			}
		}
	}

	for _, el := range lib.Elements {
		switch d := el.(type) {
		case *ast.ProgramDecl:
			walkBody(d.Vars, d.Body)
		case *ast.FunctionBlockDecl:
			walkBody(d.Vars, d.Body)
		case *ast.FunctionDecl:
			walkBody(d.Vars, d.Body)
		}
	}
	return out
}

// pous_no_cycles: no cycle exists in the "POU X instantiates a variable of
// POU Y" graph.
func pousNoCycles(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	blocks := FunctionBlocks(lib)
	state := map[string]int{} // 0 unvisited, 1 visiting, 2 done
	var out []*core.Diagnostic

	var visit func(name string) bool
	visit = func(name string) bool {
		if state[name] == 2 {
			return false
		}
		if state[name] == 1 {
			return true
		}
		fb, ok := blocks[name]
		if !ok {
			return false
		}
		state[name] = 1
		cyclic := false
		for _, vd := range fb.Vars {
			if vd.Class != ast.VarLocal && vd.Class != ast.VarInput && vd.Class != ast.VarOutput && vd.Class != ast.VarInOut {
				continue
			}
			target := vd.Type.Canonical()
			if _, ok := blocks[target]; !ok {
				continue
			}
			if visit(target) {
				cyclic = true
			}
		}
		state[name] = 2
		if cyclic {
			out = append(out, problems.NewDiagnostic(problems.PousCycle,
				core.Label{Span: fb.Span(), Message: problems.Format(problems.PousCycle, fb.Name.String())}))
		}
		return cyclic
	}

	for name := range blocks {
		if state[name] == 0 {
			visit(name)
		}
	}
	return out
}

// program_task_definition_exists: every WITH <task> reference in a
// configuration's program instance names a task declared in the same
// resource.
func programTaskDefinitionExists(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	for _, el := range lib.Elements {
		cfg, ok := el.(*ast.ConfigurationDecl)
		if !ok {
			continue
		}
		for _, res := range cfg.Resources {
			tasks := map[string]bool{}
			for _, t := range res.Tasks {
				tasks[t.Name.Canonical()] = true
			}
			for _, p := range res.Programs {
				if !p.HasTask() {
					continue
				}
				if !tasks[p.TaskName.Canonical()] {
					out = append(out, problems.NewDiagnostic(problems.ProgramTaskUndeclared,
						core.Label{Span: p.Span(), Message: problems.Format(problems.ProgramTaskUndeclared, p.InstanceName.String(), p.TaskName.String())}))
				}
			}
		}
	}
	return out
}

// exprIdents collects every *ast.Ident reachable from e.
func exprIdents(e ast.Expr, out *[]*ast.Ident) {
	switch n := e.(type) {
	case *ast.Ident:
		*out = append(*out, n)
	case *ast.BinaryExpr:
		exprIdents(n.Left, out)
		exprIdents(n.Right, out)
	case *ast.UnaryExpr:
		exprIdents(n.Operand, out)
	}
}

// use_declared_enumerated_value: every enumeration-typed literal and
// assignment refers to a value in the enum's value set. This walks
// assignment targets whose declared type is an enumeration and checks any
// Ident used as its source value against the enum's value set.
func useDeclaredEnumeratedValue(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	var walk func(pou string, vars []*ast.VarDecl, body *ast.Block)
	walk = func(pou string, vars []*ast.VarDecl, body *ast.Block) {
		if body == nil {
			return
		}
		for _, s := range body.Stmts {
			a, ok := s.(*ast.AssignStmt)
			if !ok {
				continue
			}
			vd := find(vars, a.Target.Name.Canonical(), ast.VarLocal, ast.VarInput, ast.VarOutput, ast.VarInOut, ast.VarTemp)
			if vd == nil {
				continue
			}
			rep, ok := env.Lookup(vd.Type.Canonical())
			if !ok || rep.Enumeration == nil {
				continue
			}
			var idents []*ast.Ident
			exprIdents(a.Value, &idents)
			for _, id := range idents {
				if !rep.Enumeration.HasValue(id.Name.Canonical()) {
					out = append(out, problems.NewDiagnostic(problems.EnumeratedValueUndeclared,
						core.Label{Span: id.Span(), Message: problems.Format(problems.EnumeratedValueUndeclared, id.Name.String(), vd.Type.String())}))
				}
			}
		}
	}
	for _, el := range lib.Elements {
		switch d := el.(type) {
		case *ast.ProgramDecl:
			walk(d.Name.Canonical(), d.Vars, d.Body)
		case *ast.FunctionBlockDecl:
			walk(d.Name.Canonical(), d.Vars, d.Body)
		case *ast.FunctionDecl:
			walk(d.Name.Canonical(), d.Vars, d.Body)
		}
	}
	return out
}

// use_declared_symbolic_var: every symbolic variable reference resolves in
// the current lexical scope (params, locals, externals, globals visible by
// VAR_EXTERNAL).
func useDeclaredSymbolicVar(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	var walkExpr func(pou string, e ast.Expr)
	walkExpr = func(pou string, e ast.Expr) {
		var idents []*ast.Ident
		exprIdents(e, &idents)
		for _, id := range idents {
			if _, ok := st.Resolve(pou, id.Name.Canonical()); !ok {
				out = append(out, problems.NewDiagnostic(problems.SymbolicVarUndeclared,
					core.Label{Span: id.Span(), Message: problems.Format(problems.SymbolicVarUndeclared, id.Name.String())}))
			}
		}
	}
	var walk func(pou string, body *ast.Block)
	walk = func(pou string, body *ast.Block) {
		if body == nil {
			return
		}
		for _, s := range body.Stmts {
			switch n := s.(type) {
			case *ast.AssignStmt:
				if _, ok := st.Resolve(pou, n.Target.Name.Canonical()); !ok {
					out = append(out, problems.NewDiagnostic(problems.SymbolicVarUndeclared,
						core.Label{Span: n.Target.Span(), Message: problems.Format(problems.SymbolicVarUndeclared, n.Target.Name.String())}))
				}
				walkExpr(pou, n.Value)
			case *ast.IfStmt:
				walkExpr(pou, n.Cond)
				walk(pou, n.Then)
				for _, e := range n.ElseIfs {
					walkExpr(pou, e.Cond)
					walk(pou, e.Body)
				}
				walk(pou, n.Else)
			case *ast.WhileStmt:
				walkExpr(pou, n.Cond)
				walk(pou, n.Body)
			case *ast.RepeatStmt:
				walk(pou, n.Body)
				walkExpr(pou, n.Cond)
			case *ast.ForStmt:
				walkExpr(pou, n.From)
				walkExpr(pou, n.To)
				if n.Step != nil {
					walkExpr(pou, n.Step)
				}
				walk(pou, n.Body)
			}
		}
	}
	for _, el := range lib.Elements {
		switch d := el.(type) {
		case *ast.ProgramDecl:
			walk(d.Name.Canonical(), d.Body)
		case *ast.FunctionBlockDecl:
			walk(d.Name.Canonical(), d.Body)
		case *ast.FunctionDecl:
			walk(d.Name.Canonical(), d.Body)
		}
	}
	return out
}

// unsupported_stdlib_type: rejects type declarations whose resolved type is
// WSTRING, a type the VM does not execute (spec §1). Variables declared
// directly as WSTRING and SFC constructs are not checked by this rule.
func unsupportedStdlibType(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	for _, td := range typeDeclsOf(lib) {
		rep, ok := env.Lookup(td.Name.Canonical())
		if !ok || rep.Elementary == nil {
			continue
		}
		if rep.Elementary.Kind.Name() == "WSTRING" {
			out = append(out, problems.NewDiagnostic(problems.UnsupportedStdlibType,
				core.Label{Span: td.Span(), Message: problems.Format(problems.UnsupportedStdlibType, "WSTRING")}))
		}
	}
	return out
}

func constVars(vars []*ast.VarDecl) []*ast.VarDecl {
	var out []*ast.VarDecl
	for _, vd := range vars {
		if vd.IsConstant() {
			out = append(out, vd)
		}
	}
	return out
}

// var_decl_const_initialized: every CONSTANT-qualified variable has an
// initial value.
func varDeclConstInitialized(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	check := func(vars []*ast.VarDecl) {
		for _, vd := range constVars(vars) {
			if vd.Init == nil || !vd.Init.HasDefault() {
				out = append(out, problems.NewDiagnostic(problems.VarDeclConstNotInitialized,
					core.Label{Span: vd.Span(), Message: problems.Format(problems.VarDeclConstNotInitialized, vd.Name.String())}))
			}
		}
	}
	for _, el := range lib.Elements {
		switch d := el.(type) {
		case *ast.ProgramDecl:
			check(d.Vars)
		case *ast.FunctionBlockDecl:
			check(d.Vars)
		case *ast.FunctionDecl:
			check(d.Vars)
		case *ast.GlobalVarDecl:
			check(d.Vars)
		}
	}
	return out
}

// var_decl_const_not_fb: a function-block instance may not be
// CONSTANT-qualified.
func varDeclConstNotFb(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	blocks := FunctionBlocks(lib)
	var out []*core.Diagnostic
	check := func(vars []*ast.VarDecl) {
		for _, vd := range constVars(vars) {
			if _, ok := blocks[vd.Type.Canonical()]; ok {
				out = append(out, problems.NewDiagnostic(problems.VarDeclConstNotFb,
					core.Label{Span: vd.Span(), Message: problems.Format(problems.VarDeclConstNotFb, vd.Name.String())}))
			}
		}
	}
	for _, el := range lib.Elements {
		switch d := el.(type) {
		case *ast.ProgramDecl:
			check(d.Vars)
		case *ast.FunctionBlockDecl:
			check(d.Vars)
		}
	}
	return out
}

// var_decl_global_const_requires_external_const: if POU P uses
// VAR_EXTERNAL X, a matching VAR_GLOBAL X must exist with a compatible
// qualifier, and if X is constant both declarations must agree.
func varDeclGlobalConstRequiresExternalConst(lib *ast.Library, env *ittype.TypeEnvironment, st *SymbolTable) []*core.Diagnostic {
	var out []*core.Diagnostic
	check := func(vars []*ast.VarDecl) {
		for _, vd := range vars {
			if vd.Class != ast.VarExternal {
				continue
			}
			g, ok := st.Globals[vd.Name.Canonical()]
			if !ok {
				out = append(out, problems.NewDiagnostic(problems.VarDeclGlobalConstMismatch,
					core.Label{Span: vd.Span(), Message: problems.Format(problems.VarDeclGlobalConstMismatch, vd.Name.String())}))
				continue
			}
			if vd.IsConstant() != g.IsConstant() {
				out = append(out, problems.NewDiagnostic(problems.VarDeclGlobalConstMismatch,
					core.Label{Span: vd.Span(), Message: problems.Format(problems.VarDeclGlobalConstMismatch, vd.Name.String())}))
			}
		}
	}
	for _, el := range lib.Elements {
		switch d := el.(type) {
		case *ast.ProgramDecl:
			check(d.Vars)
		case *ast.FunctionBlockDecl:
			check(d.Vars)
		case *ast.FunctionDecl:
			check(d.Vars)
		}
	}
	return out
}
