// Package astjson decodes a JSON encoding of an ast.Library. It stands in
// for the parser named in spec.md §1 as an out-of-scope external
// collaborator: the CLI needs some way to hand the core pipeline a Library,
// and since no lexer/parser from ST source text is part of this module,
// JSON is the thin driver's input format instead. Every node carries a
// "kind" discriminator, decoded by hand since encoding/json has no builtin
// support for interface-typed fields.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/core"
)

// Decode parses a JSON-encoded library from data.
func Decode(data []byte) (*ast.Library, error) {
	var wire struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("astjson: %w", err)
	}
	lib := &ast.Library{}
	for i, raw := range wire.Elements {
		d, err := decodeDecl(raw)
		if err != nil {
			return nil, fmt.Errorf("astjson: element %d: %w", i, err)
		}
		lib.Elements = append(lib.Elements, d)
	}
	return lib, nil
}

func kindOf(raw json.RawMessage) (string, error) {
	var k struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &k); err != nil {
		return "", err
	}
	if k.Kind == "" {
		return "", fmt.Errorf("missing \"kind\" field")
	}
	return k.Kind, nil
}

func id(s string) core.Id                 { return core.NewId(s, core.SourceSpan{}) }
func typeName(s string) core.TypeName     { return core.NewTypeName(s, core.SourceSpan{}) }
func variableID(s string) core.VariableId { return core.NewVariableId(s, core.SourceSpan{}) }
func programName(s string) core.ProgramName {
	return core.NewProgramName(s, core.SourceSpan{})
}

func decodeDecl(raw json.RawMessage) (ast.Decl, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "type":
		return decodeTypeDecl(raw)
	case "function":
		return decodeFunctionDecl(raw)
	case "function_block":
		return decodeFunctionBlockDecl(raw)
	case "program":
		return decodeProgramDecl(raw)
	case "var_global":
		return decodeGlobalVarDecl(raw)
	case "configuration":
		return decodeConfigurationDecl(raw)
	default:
		return nil, fmt.Errorf("unknown decl kind %q", kind)
	}
}

func decodeTypeDecl(raw json.RawMessage) (*ast.TypeDecl, error) {
	var w struct {
		Name string          `json:"name"`
		Spec json.RawMessage `json:"spec"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	spec, err := decodeTypeSpec(w.Spec)
	if err != nil {
		return nil, err
	}
	return &ast.TypeDecl{Name: typeName(w.Name), Spec: spec}, nil
}

func decodeTypeSpec(raw json.RawMessage) (ast.TypeSpec, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "simple":
		var w struct {
			Base string          `json:"base"`
			Init json.RawMessage `json:"init"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		init, err := decodeInitializer(w.Init)
		if err != nil {
			return nil, err
		}
		return &ast.SimpleSpec{Base: typeName(w.Base), Init: init}, nil
	case "enum":
		var w struct {
			Values []string        `json:"values"`
			Init   json.RawMessage `json:"init"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		init, err := decodeInitializer(w.Init)
		if err != nil {
			return nil, err
		}
		values := make([]core.Id, len(w.Values))
		for i, v := range w.Values {
			values[i] = id(v)
		}
		return &ast.EnumSpec{Values: values, Init: init}, nil
	case "subrange":
		var w struct {
			Base string          `json:"base"`
			Min  int64           `json:"min"`
			Max  int64           `json:"max"`
			Init json.RawMessage `json:"init"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		init, err := decodeInitializer(w.Init)
		if err != nil {
			return nil, err
		}
		return &ast.SubrangeSpec{Base: typeName(w.Base), Min: w.Min, Max: w.Max, Init: init}, nil
	case "array":
		var w struct {
			Dimensions []struct {
				Lower int64 `json:"lower"`
				Upper int64 `json:"upper"`
			} `json:"dimensions"`
			ElementType string          `json:"element_type"`
			Init        json.RawMessage `json:"init"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		init, err := decodeInitializer(w.Init)
		if err != nil {
			return nil, err
		}
		dims := make([]ast.ArrayDimension, len(w.Dimensions))
		for i, d := range w.Dimensions {
			dims[i] = ast.ArrayDimension{Lower: d.Lower, Upper: d.Upper}
		}
		return &ast.ArraySpec{Dimensions: dims, ElementType: typeName(w.ElementType), Init: init}, nil
	case "struct":
		var w struct {
			Fields []struct {
				Name string          `json:"name"`
				Type string          `json:"type"`
				Init json.RawMessage `json:"init"`
			} `json:"fields"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		fields := make([]ast.StructureField, len(w.Fields))
		for i, f := range w.Fields {
			init, err := decodeInitializer(f.Init)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.StructureField{Name: variableID(f.Name), Type: typeName(f.Type), Init: init}
		}
		return &ast.StructSpec{Fields: fields}, nil
	case "late_bound":
		var w struct {
			Base string `json:"base"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &ast.LateBoundSpec{Base: typeName(w.Base)}, nil
	default:
		return nil, fmt.Errorf("unknown type spec kind %q", kind)
	}
}

func decodeInitializer(raw json.RawMessage) (ast.Initializer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return ast.NoInit{}, nil
	}
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "none", "":
		return ast.NoInit{}, nil
	case "simple":
		var w struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		v, err := decodeExpr(w.Value)
		if err != nil {
			return nil, err
		}
		return ast.SimpleInit{Value: v}, nil
	case "enumerated_value":
		var w struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return ast.EnumeratedValueInit{Value: id(w.Value)}, nil
	case "structure":
		var w struct {
			Fields map[string]json.RawMessage `json:"fields"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		fields := make(map[string]ast.Initializer, len(w.Fields))
		for name, sub := range w.Fields {
			init, err := decodeInitializer(sub)
			if err != nil {
				return nil, err
			}
			fields[name] = init
		}
		return ast.StructureInit{Fields: fields}, nil
	case "array":
		var w struct {
			Elements []json.RawMessage `json:"elements"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		elems := make([]ast.Initializer, len(w.Elements))
		for i, sub := range w.Elements {
			init, err := decodeInitializer(sub)
			if err != nil {
				return nil, err
			}
			elems[i] = init
		}
		return ast.ArrayInit{Elements: elems}, nil
	default:
		return nil, fmt.Errorf("unknown initializer kind %q", kind)
	}
}

func decodeVarDecl(raw json.RawMessage) (*ast.VarDecl, error) {
	var w struct {
		Name      string          `json:"name"`
		Type      string          `json:"type"`
		Class     string          `json:"class"`
		Qualifier string          `json:"qualifier"`
		Init      json.RawMessage `json:"init"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	init, err := decodeInitializer(w.Init)
	if err != nil {
		return nil, err
	}
	return &ast.VarDecl{
		Name:      variableID(w.Name),
		Type:      typeName(w.Type),
		Class:     variableClassOf(w.Class),
		Qualifier: qualifierOf(w.Qualifier),
		Init:      init,
	}, nil
}

func variableClassOf(s string) ast.VariableClass {
	switch s {
	case "input":
		return ast.VarInput
	case "output":
		return ast.VarOutput
	case "in_out":
		return ast.VarInOut
	case "external":
		return ast.VarExternal
	case "global":
		return ast.VarGlobal
	case "temp":
		return ast.VarTemp
	default:
		return ast.VarLocal
	}
}

func qualifierOf(s string) ast.Qualifier {
	switch s {
	case "constant":
		return ast.QualifierConstant
	case "retain":
		return ast.QualifierRetain
	case "non_retain":
		return ast.QualifierNonRetain
	default:
		return ast.QualifierUnspecified
	}
}

func decodeVarDecls(raw []json.RawMessage) ([]*ast.VarDecl, error) {
	out := make([]*ast.VarDecl, len(raw))
	for i, r := range raw {
		vd, err := decodeVarDecl(r)
		if err != nil {
			return nil, err
		}
		out[i] = vd
	}
	return out, nil
}

func decodeFunctionDecl(raw json.RawMessage) (*ast.FunctionDecl, error) {
	var w struct {
		Name       string            `json:"name"`
		ReturnType string            `json:"return_type"`
		Vars       []json.RawMessage `json:"vars"`
		Body       json.RawMessage   `json:"body"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	vars, err := decodeVarDecls(w.Vars)
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(w.Body)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{Name: id(w.Name), ReturnType: typeName(w.ReturnType), Vars: vars, Body: body}, nil
}

func decodeFunctionBlockDecl(raw json.RawMessage) (*ast.FunctionBlockDecl, error) {
	var w struct {
		Name string            `json:"name"`
		Vars []json.RawMessage `json:"vars"`
		Body json.RawMessage   `json:"body"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	vars, err := decodeVarDecls(w.Vars)
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(w.Body)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionBlockDecl{Name: id(w.Name), Vars: vars, Body: body}, nil
}

func decodeProgramDecl(raw json.RawMessage) (*ast.ProgramDecl, error) {
	var w struct {
		Name string            `json:"name"`
		Vars []json.RawMessage `json:"vars"`
		Body json.RawMessage   `json:"body"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	vars, err := decodeVarDecls(w.Vars)
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(w.Body)
	if err != nil {
		return nil, err
	}
	return &ast.ProgramDecl{Name: programName(w.Name), Vars: vars, Body: body}, nil
}

func decodeGlobalVarDecl(raw json.RawMessage) (*ast.GlobalVarDecl, error) {
	var w struct {
		Vars []json.RawMessage `json:"vars"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	vars, err := decodeVarDecls(w.Vars)
	if err != nil {
		return nil, err
	}
	return &ast.GlobalVarDecl{Vars: vars}, nil
}

func decodeConfigurationDecl(raw json.RawMessage) (*ast.ConfigurationDecl, error) {
	var w struct {
		Name      string            `json:"name"`
		Globals   []json.RawMessage `json:"globals"`
		Resources []json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	globals := make([]*ast.GlobalVarDecl, len(w.Globals))
	for i, g := range w.Globals {
		gd, err := decodeGlobalVarDecl(g)
		if err != nil {
			return nil, err
		}
		globals[i] = gd
	}
	resources := make([]*ast.ResourceDecl, len(w.Resources))
	for i, r := range w.Resources {
		rd, err := decodeResourceDecl(r)
		if err != nil {
			return nil, err
		}
		resources[i] = rd
	}
	return &ast.ConfigurationDecl{Name: id(w.Name), Globals: globals, Resources: resources}, nil
}

func decodeResourceDecl(raw json.RawMessage) (*ast.ResourceDecl, error) {
	var w struct {
		Name     string `json:"name"`
		Tasks    []struct {
			Name        string `json:"name"`
			Type        string `json:"type"`
			IntervalUs  uint64 `json:"interval_us"`
			Priority    uint16 `json:"priority"`
		} `json:"tasks"`
		Programs []struct {
			InstanceName string `json:"instance_name"`
			ProgramType  string `json:"program_type"`
			TaskName     string `json:"task_name"`
		} `json:"programs"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	tasks := make([]*ast.TaskDecl, len(w.Tasks))
	for i, t := range w.Tasks {
		tasks[i] = &ast.TaskDecl{
			Name:       id(t.Name),
			Type:       taskTypeOf(t.Type),
			IntervalUs: t.IntervalUs,
			Priority:   t.Priority,
		}
	}
	programs := make([]*ast.ProgramInstanceDecl, len(w.Programs))
	for i, p := range w.Programs {
		var taskName core.Id
		if p.TaskName != "" {
			taskName = id(p.TaskName)
		}
		programs[i] = &ast.ProgramInstanceDecl{
			InstanceName: id(p.InstanceName),
			ProgramType:  programName(p.ProgramType),
			TaskName:     taskName,
		}
	}
	return &ast.ResourceDecl{Name: id(w.Name), Tasks: tasks, Programs: programs}, nil
}

func taskTypeOf(s string) ast.TaskType {
	switch s {
	case "cyclic":
		return ast.TaskCyclic
	case "event_triggered":
		return ast.TaskEventTriggered
	default:
		return ast.TaskFreewheeling
	}
}

func decodeBlock(raw json.RawMessage) (*ast.Block, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return &ast.Block{}, nil
	}
	var w struct {
		Stmts []json.RawMessage `json:"stmts"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	stmts := make([]ast.Stmt, len(w.Stmts))
	for i, s := range w.Stmts {
		st, err := decodeStmt(s)
		if err != nil {
			return nil, err
		}
		stmts[i] = st
	}
	return &ast.Block{Stmts: stmts}, nil
}

func decodeStmt(raw json.RawMessage) (ast.Stmt, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "assign":
		var w struct {
			Target string          `json:"target"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		val, err := decodeExpr(w.Value)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Target: &ast.Ident{Name: variableID(w.Target)}, Value: val}, nil
	case "if":
		var w struct {
			Cond    json.RawMessage `json:"cond"`
			Then    json.RawMessage `json:"then"`
			ElseIfs []struct {
				Cond json.RawMessage `json:"cond"`
				Body json.RawMessage `json:"body"`
			} `json:"elseifs"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(w.Then)
		if err != nil {
			return nil, err
		}
		var elseifs []ast.ElseIfClause
		for _, e := range w.ElseIfs {
			ec, err := decodeExpr(e.Cond)
			if err != nil {
				return nil, err
			}
			eb, err := decodeBlock(e.Body)
			if err != nil {
				return nil, err
			}
			elseifs = append(elseifs, ast.ElseIfClause{Cond: ec, Body: eb})
		}
		var elseBlock *ast.Block
		if len(w.Else) > 0 && string(w.Else) != "null" {
			elseBlock, err = decodeBlock(w.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ast.IfStmt{Cond: cond, Then: then, ElseIfs: elseifs, Else: elseBlock}, nil
	case "while":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body}, nil
	case "repeat":
		var w struct {
			Body json.RawMessage `json:"body"`
			Cond json.RawMessage `json:"cond"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		return &ast.RepeatStmt{Body: body, Cond: cond}, nil
	case "for":
		var w struct {
			Var  string          `json:"var"`
			From json.RawMessage `json:"from"`
			To   json.RawMessage `json:"to"`
			Step json.RawMessage `json:"step"`
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		from, err := decodeExpr(w.From)
		if err != nil {
			return nil, err
		}
		to, err := decodeExpr(w.To)
		if err != nil {
			return nil, err
		}
		var step ast.Expr
		if len(w.Step) > 0 && string(w.Step) != "null" {
			step, err = decodeExpr(w.Step)
			if err != nil {
				return nil, err
			}
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &ast.ForStmt{Var: &ast.Ident{Name: variableID(w.Var)}, From: from, To: to, Step: step, Body: body}, nil
	case "fbcall":
		var w struct {
			Instance string `json:"instance"`
			Args     []struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"args"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		args := make([]ast.Argument, len(w.Args))
		for i, a := range w.Args {
			v, err := decodeExpr(a.Value)
			if err != nil {
				return nil, err
			}
			var name core.VariableId
			if a.Name != "" {
				name = variableID(a.Name)
			}
			args[i] = ast.Argument{Name: name, Value: v}
		}
		return &ast.FBCallStmt{Instance: &ast.Ident{Name: variableID(w.Instance)}, Args: args}, nil
	case "return":
		return &ast.ReturnStmt{}, nil
	case "exit":
		return &ast.ExitStmt{}, nil
	default:
		return nil, fmt.Errorf("unknown stmt kind %q", kind)
	}
}

func decodeExpr(raw json.RawMessage) (ast.Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("missing expression")
	}
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "ident":
		var w struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &ast.Ident{Name: variableID(w.Name)}, nil
	case "int":
		var w struct {
			Value int64 `json:"value"`
			Neg   bool  `json:"neg"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &ast.IntLiteral{Value: w.Value, Neg: w.Neg}, nil
	case "real":
		var w struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &ast.RealLiteral{Value: w.Value}, nil
	case "bool":
		var w struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return &ast.BoolLiteral{Value: w.Value}, nil
	case "binary":
		var w struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		op, err := binaryOpOf(w.Op)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
	case "unary":
		var w struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		op, err := unaryOpOf(w.Op)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand}, nil
	default:
		return nil, fmt.Errorf("unknown expr kind %q", kind)
	}
}

var binaryOps = map[string]ast.BinaryOp{
	"add": ast.OpAdd, "sub": ast.OpSub, "mul": ast.OpMul, "div": ast.OpDiv,
	"mod": ast.OpMod, "pow": ast.OpPow, "eq": ast.OpEq, "ne": ast.OpNe,
	"lt": ast.OpLt, "le": ast.OpLe, "gt": ast.OpGt, "ge": ast.OpGe,
	"and": ast.OpAnd, "or": ast.OpOr, "xor": ast.OpXor,
}

var unaryOps = map[string]ast.UnaryOp{
	"neg": ast.OpNeg, "not": ast.OpNot,
}

func binaryOpOf(s string) (ast.BinaryOp, error) {
	if op, ok := binaryOps[s]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown binary op %q", s)
}

func unaryOpOf(s string) (ast.UnaryOp, error) {
	if op, ok := unaryOps[s]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown unary op %q", s)
}
