package compiler

import (
	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/ittype"
)

// intClass is the resolved width/signedness/narrow-width triple that drives
// operator and load/store opcode selection (spec §4.3 "Operator choice
// (signed vs unsigned, 32 vs 64) is driven by the resolved operand type").
// The zero value is plain signed 32-bit (DINT), the emitter's original and
// still most common case.
type intClass struct {
	width64  bool
	unsigned bool
	narrow   int // 0, 8 or 16: bit width to truncate to at store time
}

// classifyInt maps a resolved intermediate type to its intClass. ok is
// false for non-integer types (REAL/LREAL/STRING/array/structure/FB
// instance), which the caller must reject rather than silently treat as
// DINT.
func classifyInt(t *ittype.IntermediateType) (intClass, bool) {
	if t == nil {
		return intClass{}, false
	}
	switch {
	case t.Elementary != nil:
		return classifyElementaryKind(t.Elementary.Kind)
	case t.Subrange != nil:
		return classifyElementaryKind(t.Subrange.Base)
	case t.Enumeration != nil:
		return classifyEnumWidth(t.Enumeration.Width), true
	default:
		return intClass{}, false
	}
}

// classifyElementaryKind maps an elementary kind to its intClass, narrowing
// SINT/USINT/INT/UINT-typed variables back down at store time since the
// operand stack only carries 32/64-bit values (spec §4.3's TRUNC_* family).
func classifyElementaryKind(k ittype.ElementaryKind) (intClass, bool) {
	switch k {
	case ittype.Sint:
		return intClass{narrow: 8}, true
	case ittype.Usint:
		return intClass{unsigned: true, narrow: 8}, true
	case ittype.Int:
		return intClass{narrow: 16}, true
	case ittype.Uint:
		return intClass{unsigned: true, narrow: 16}, true
	case ittype.Dint:
		return intClass{}, true
	case ittype.Udint:
		return intClass{unsigned: true}, true
	case ittype.Lint:
		return intClass{width64: true}, true
	case ittype.Ulint:
		return intClass{width64: true, unsigned: true}, true
	default:
		return intClass{}, false
	}
}

// classifyEnumWidth maps an enumeration's chosen storage width to an
// unsigned intClass (enumeration values are never negative, spec §3.2).
func classifyEnumWidth(w ittype.EnumWidth) intClass {
	switch w {
	case ittype.EnumWidth8:
		return intClass{unsigned: true, narrow: 8}
	case ittype.EnumWidth16:
		return intClass{unsigned: true, narrow: 16}
	default:
		return intClass{unsigned: true}
	}
}

// compileContext tracks per-function variable table indices and resolved
// int classes, grounded directly on
// original_source/compiler/codegen/src/compile.rs's CompileContext.
type compileContext struct {
	variables  map[string]uint16   // keyed by the variable's canonical name
	varClasses map[string]intClass // keyed the same way; zero value is DINT
}

func newCompileContext() *compileContext {
	return &compileContext{
		variables:  make(map[string]uint16),
		varClasses: make(map[string]intClass),
	}
}

// varIndex looks up id's variable table index, using its span for the
// diagnostic's location when undeclared.
func (c *compileContext) varIndex(id core.VariableId) (uint16, error) {
	idx, ok := c.variables[id.Canonical()]
	if !ok {
		return 0, newVariableUndefinedError(id.Id)
	}
	return idx, nil
}

// exprClass reports the intClass an expression's own declared type carries,
// recursing through idents and nested operators so that e.g. `x + 1` picks
// up x's class even though the literal 1 carries none of its own. ok is
// false only when expr is built entirely from untyped literals, in which
// case the caller's surrounding context (the "want" class) applies instead.
func (c *compileContext) exprClass(expr ast.Expr) (intClass, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		cls, ok := c.varClasses[e.Name.Canonical()]
		return cls, ok
	case *ast.UnaryExpr:
		return c.exprClass(e.Operand)
	case *ast.BinaryExpr:
		if cls, ok := c.exprClass(e.Left); ok {
			return cls, true
		}
		return c.exprClass(e.Right)
	default:
		return intClass{}, false
	}
}

// assignVariables assigns table indices and resolved int classes to every
// declaration in decls, in declaration order, matching compile.rs's
// assign_variables. env may be nil, in which case every variable classifies
// as plain signed 32-bit (DINT) — the original, type-blind behavior.
func assignVariables(ctx *compileContext, decls []*ast.VarDecl, env *ittype.TypeEnvironment) {
	for _, decl := range decls {
		name := decl.Name.Canonical()
		if _, ok := ctx.variables[name]; ok {
			continue
		}
		ctx.variables[name] = uint16(len(ctx.variables))
		ctx.varClasses[name] = resolveDeclClass(decl, env)
	}
}

// resolveDeclClass looks up decl's declared type in env and classifies it,
// falling back to plain signed 32-bit for untyped declarations (the test
// fixtures' shorthand) or non-integer types the emitter doesn't classify
// (those are rejected separately, at the point an operator actually needs
// an operand class).
func resolveDeclClass(decl *ast.VarDecl, env *ittype.TypeEnvironment) intClass {
	if env == nil {
		return intClass{}
	}
	it, ok := env.Lookup(decl.Type.Canonical())
	if !ok {
		return intClass{}
	}
	cls, ok := classifyInt(it)
	if !ok {
		return intClass{}
	}
	return cls
}

// NumAssignedVariables returns how many distinct canonical names decls
// would occupy in a variable table, matching assignVariables's
// deduplication rule. Used by container assembly to size a function's
// NumLocals entry without re-deriving the whole compileContext.
func NumAssignedVariables(decls []*ast.VarDecl) int {
	ctx := newCompileContext()
	assignVariables(ctx, decls, nil)
	return len(ctx.variables)
}

// CompileFunction lowers a FunctionDecl's body to bytecode. env is the type
// environment produced by Component A's resolver, used to select operator
// and load/store width and signedness (spec §4.3); it may be nil to fall
// back to the plain 32-bit signed behavior.
func CompileFunction(fn *ast.FunctionDecl, env *ittype.TypeEnvironment) (*Emitter, error) {
	emitter := NewEmitter()
	ctx := newCompileContext()
	assignVariables(ctx, fn.Vars, env)
	if err := compileBlock(emitter, ctx, fn.Body); err != nil {
		return nil, err
	}
	emitter.EmitRetVoid()
	return emitter, nil
}

// CompileFunctionBlock lowers a FunctionBlockDecl's body to bytecode.
func CompileFunctionBlock(fb *ast.FunctionBlockDecl, env *ittype.TypeEnvironment) (*Emitter, error) {
	emitter := NewEmitter()
	ctx := newCompileContext()
	assignVariables(ctx, fb.Vars, env)
	if err := compileBlock(emitter, ctx, fb.Body); err != nil {
		return nil, err
	}
	emitter.EmitRetVoid()
	return emitter, nil
}

// CompileProgram lowers a ProgramDecl's body to bytecode (spec §3.6: the
// unit Component C compiles to a bytecode function).
func CompileProgram(prog *ast.ProgramDecl, env *ittype.TypeEnvironment) (*Emitter, error) {
	emitter := NewEmitter()
	ctx := newCompileContext()
	assignVariables(ctx, prog.Vars, env)
	if err := compileBlock(emitter, ctx, prog.Body); err != nil {
		return nil, err
	}
	emitter.EmitRetVoid()
	return emitter, nil
}

// compileBlock lowers every statement of block in order.
func compileBlock(emitter *Emitter, ctx *compileContext, block *ast.Block) error {
	if block == nil {
		return nil
	}
	return compileStmts(emitter, ctx, block.Stmts)
}

// compileStmts lowers a slice of statements in order, matching compile.rs's
// compile_stmts (used for IF/WHILE/REPEAT/FOR bodies, which carry a *Block
// too, so this and compileBlock share the same loop).
func compileStmts(emitter *Emitter, ctx *compileContext, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := compileStatement(emitter, ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileStatement lowers a single statement, matching compile.rs's
// compile_statement dispatch.
func compileStatement(emitter *Emitter, ctx *compileContext, stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		idx, err := ctx.varIndex(s.Target.Name)
		if err != nil {
			return err
		}
		cls := ctx.varClasses[s.Target.Name.Canonical()]
		if err := compileExpr(emitter, ctx, s.Value, cls); err != nil {
			return err
		}
		emitStoreVar(emitter, cls, idx)
		return nil
	case *ast.FBCallStmt:
		return newNotImplementedError("function block invocation")
	case *ast.IfStmt:
		return compileIf(emitter, ctx, s)
	case *ast.CaseStmt:
		return newNotImplementedError("CASE statement")
	case *ast.ForStmt:
		return compileFor(emitter, ctx, s)
	case *ast.WhileStmt:
		return compileWhile(emitter, ctx, s)
	case *ast.RepeatStmt:
		return compileRepeat(emitter, ctx, s)
	case *ast.ReturnStmt:
		return newNotImplementedError("RETURN statement")
	case *ast.ExitStmt:
		return newNotImplementedError("EXIT statement")
	default:
		return newNotImplementedError("unrecognized statement")
	}
}

// compileIf lowers an IF/ELSIF/ELSE chain, matching compile.rs's compile_if:
// a shared end label is allocated only when there is more than one branch,
// and each non-taken condition falls through to the next ELSIF's check.
func compileIf(emitter *Emitter, ctx *compileContext, stmt *ast.IfStmt) error {
	hasElseIfs := len(stmt.ElseIfs) > 0
	hasElse := stmt.Else != nil
	needsEndLabel := hasElseIfs || hasElse

	var endLabel Label
	if needsEndLabel {
		endLabel = emitter.CreateLabel()
	}

	if err := compileExpr(emitter, ctx, stmt.Cond, intClass{}); err != nil {
		return err
	}
	nextLabel := emitter.CreateLabel()
	emitter.EmitJmpIfNot(nextLabel)

	if err := compileBlock(emitter, ctx, stmt.Then); err != nil {
		return err
	}
	if needsEndLabel {
		emitter.EmitJmp(endLabel)
	}
	emitter.BindLabel(nextLabel)

	for _, elseif := range stmt.ElseIfs {
		if err := compileExpr(emitter, ctx, elseif.Cond, intClass{}); err != nil {
			return err
		}
		elseifNext := emitter.CreateLabel()
		emitter.EmitJmpIfNot(elseifNext)

		if err := compileBlock(emitter, ctx, elseif.Body); err != nil {
			return err
		}
		emitter.EmitJmp(endLabel)
		emitter.BindLabel(elseifNext)
	}

	if hasElse {
		if err := compileBlock(emitter, ctx, stmt.Else); err != nil {
			return err
		}
	}

	if needsEndLabel {
		emitter.BindLabel(endLabel)
	}
	return nil
}

// compileWhile lowers a WHILE statement:
//
//	LOOP: compile(cond); JMP_IF_NOT END; compile(body); JMP LOOP
//	END:
func compileWhile(emitter *Emitter, ctx *compileContext, stmt *ast.WhileStmt) error {
	loopLabel := emitter.CreateLabel()
	endLabel := emitter.CreateLabel()

	emitter.BindLabel(loopLabel)
	if err := compileExpr(emitter, ctx, stmt.Cond, intClass{}); err != nil {
		return err
	}
	emitter.EmitJmpIfNot(endLabel)
	if err := compileBlock(emitter, ctx, stmt.Body); err != nil {
		return err
	}
	emitter.EmitJmp(loopLabel)
	emitter.BindLabel(endLabel)
	return nil
}

// compileRepeat lowers a REPEAT statement:
//
//	LOOP: compile(body); compile(cond); JMP_IF_NOT LOOP
func compileRepeat(emitter *Emitter, ctx *compileContext, stmt *ast.RepeatStmt) error {
	loopLabel := emitter.CreateLabel()

	emitter.BindLabel(loopLabel)
	if err := compileBlock(emitter, ctx, stmt.Body); err != nil {
		return err
	}
	if err := compileExpr(emitter, ctx, stmt.Cond, intClass{}); err != nil {
		return err
	}
	emitter.EmitJmpIfNot(loopLabel)
	return nil
}

// stepSign is whether a FOR loop's compile-time constant step is positive
// or negative, matching compile.rs's StepSign.
type stepSign int

const (
	stepPositive stepSign = iota
	stepNegative
)

// tryConstantSign inspects expr and returns its sign if it is a compile-time
// constant integer literal (positive or negative), and false otherwise.
// Matches compile.rs's try_constant_sign.
func tryConstantSign(expr ast.Expr) (stepSign, bool) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		if e.Neg {
			return stepNegative, true
		}
		return stepPositive, true
	case *ast.UnaryExpr:
		if e.Op == ast.OpNeg {
			if _, ok := e.Operand.(*ast.IntLiteral); ok {
				return stepNegative, true
			}
		}
	}
	return 0, false
}

// compileFor lowers a FOR statement:
//
//	compile(from); STORE_VAR control
//	LOOP: LOAD_VAR control; compile(to); GT (or LT for negative step, width/sign per control var)
//	      JMP_IF_NOT BODY; JMP END
//	BODY: compile(body)
//	      LOAD_VAR control; compile(step) (default LOAD_CONST 1); ADD
//	      STORE_VAR control; JMP LOOP
//	END:
func compileFor(emitter *Emitter, ctx *compileContext, stmt *ast.ForStmt) error {
	varIdx, err := ctx.varIndex(stmt.Var.Name)
	if err != nil {
		return err
	}
	cls := ctx.varClasses[stmt.Var.Name.Canonical()]

	sign := stepPositive
	if stmt.Step != nil {
		s, ok := tryConstantSign(stmt.Step)
		if !ok {
			return newNotImplementedError("FOR loop with non-constant step")
		}
		sign = s
	}

	if err := compileExpr(emitter, ctx, stmt.From, cls); err != nil {
		return err
	}
	emitStoreVar(emitter, cls, varIdx)

	loopLabel := emitter.CreateLabel()
	bodyLabel := emitter.CreateLabel()
	endLabel := emitter.CreateLabel()

	emitter.BindLabel(loopLabel)
	emitLoadVar(emitter, cls, varIdx)
	if err := compileExpr(emitter, ctx, stmt.To, cls); err != nil {
		return err
	}
	if sign == stepPositive {
		gtFamily.emit(emitter, cls)
	} else {
		ltFamily.emit(emitter, cls)
	}
	emitter.EmitJmpIfNot(bodyLabel)
	emitter.EmitJmp(endLabel)

	emitter.BindLabel(bodyLabel)
	if err := compileBlock(emitter, ctx, stmt.Body); err != nil {
		return err
	}

	emitLoadVar(emitter, cls, varIdx)
	if stmt.Step != nil {
		if err := compileExpr(emitter, ctx, stmt.Step, cls); err != nil {
			return err
		}
	} else {
		emitLoadConst(emitter, cls, 1)
	}
	emitAdd(emitter, cls)
	emitStoreVar(emitter, cls, varIdx)
	emitter.EmitJmp(loopLabel)

	emitter.BindLabel(endLabel)
	return nil
}

// emitLoadConst emits LOAD_CONST_I32 or LOAD_CONST_I64 for v, by cls's
// width (spec §3.6/§4.3: integer literals lower to LOAD_CONST_I32 "or I64
// by declared context").
func emitLoadConst(emitter *Emitter, cls intClass, v int64) {
	if cls.width64 {
		emitter.EmitLoadConstI64(v)
	} else {
		emitter.EmitLoadConstI32(int32(v))
	}
}

// emitLoadVar emits LOAD_VAR_I32 or LOAD_VAR_I64 for idx, by cls's width.
func emitLoadVar(emitter *Emitter, cls intClass, idx uint16) {
	if cls.width64 {
		emitter.EmitLoadVarI64(idx)
	} else {
		emitter.EmitLoadVarI32(idx)
	}
}

// emitStoreVar narrows the top-of-stack value to cls's declared width, if
// narrower than the stack's native 32/64 bits, then stores it. Narrowing at
// store time (rather than after every arithmetic op) is this emitter's own
// choice — original_source carries no SINT/INT-width arithmetic to ground
// the timing on — but it matches TRUNC_*'s documented "no net stack change"
// shape (opcode.go) and keeps every intermediate value at full width until
// it's actually committed to a variable, see DESIGN.md.
func emitStoreVar(emitter *Emitter, cls intClass, idx uint16) {
	emitNarrow(emitter, cls)
	if cls.width64 {
		emitter.EmitStoreVarI64(idx)
	} else {
		emitter.EmitStoreVarI32(idx)
	}
}

// emitNarrow truncates the top-of-stack value to cls's declared width when
// that width is narrower than the operand stack's native 32 bits.
func emitNarrow(emitter *Emitter, cls intClass) {
	switch cls.narrow {
	case 8:
		if cls.unsigned {
			emitter.EmitTruncU8()
		} else {
			emitter.EmitTruncI8()
		}
	case 16:
		if cls.unsigned {
			emitter.EmitTruncU16()
		} else {
			emitter.EmitTruncI16()
		}
	}
}

// emitAdd, emitSub and emitMul dispatch only on width: two's-complement
// ADD/SUB/MUL are bit-identical for signed and unsigned operands of the
// same width, so no U32/U64 variants exist for them (spec §4.3).
func emitAdd(emitter *Emitter, cls intClass) {
	if cls.width64 {
		emitter.EmitAddI64()
	} else {
		emitter.EmitAddI32()
	}
}

func emitSub(emitter *Emitter, cls intClass) {
	if cls.width64 {
		emitter.EmitSubI64()
	} else {
		emitter.EmitSubI32()
	}
}

func emitMul(emitter *Emitter, cls intClass) {
	if cls.width64 {
		emitter.EmitMulI64()
	} else {
		emitter.EmitMulI32()
	}
}

// opFamily is the four opcode variants (I32/I64/U32/U64) an operator needs
// when, unlike ADD/SUB/MUL, signedness actually changes its result: DIV,
// MOD and every comparison (spec §4.3).
type opFamily struct {
	i32, i64, u32, u64 func(*Emitter)
}

// emit selects and invokes the family member matching cls's width and
// signedness.
func (f opFamily) emit(emitter *Emitter, cls intClass) {
	switch {
	case cls.width64 && cls.unsigned:
		f.u64(emitter)
	case cls.width64:
		f.i64(emitter)
	case cls.unsigned:
		f.u32(emitter)
	default:
		f.i32(emitter)
	}
}

var (
	divFamily = opFamily{(*Emitter).EmitDivI32, (*Emitter).EmitDivI64, (*Emitter).EmitDivU32, (*Emitter).EmitDivU64}
	modFamily = opFamily{(*Emitter).EmitModI32, (*Emitter).EmitModI64, (*Emitter).EmitModU32, (*Emitter).EmitModU64}

	eqFamily = opFamily{(*Emitter).EmitEqI32, (*Emitter).EmitEqI64, (*Emitter).EmitEqU32, (*Emitter).EmitEqU64}
	neFamily = opFamily{(*Emitter).EmitNeI32, (*Emitter).EmitNeI64, (*Emitter).EmitNeU32, (*Emitter).EmitNeU64}
	ltFamily = opFamily{(*Emitter).EmitLtI32, (*Emitter).EmitLtI64, (*Emitter).EmitLtU32, (*Emitter).EmitLtU64}
	leFamily = opFamily{(*Emitter).EmitLeI32, (*Emitter).EmitLeI64, (*Emitter).EmitLeU32, (*Emitter).EmitLeU64}
	gtFamily = opFamily{(*Emitter).EmitGtI32, (*Emitter).EmitGtI64, (*Emitter).EmitGtU32, (*Emitter).EmitGtU64}
	geFamily = opFamily{(*Emitter).EmitGeI32, (*Emitter).EmitGeI64, (*Emitter).EmitGeU32, (*Emitter).EmitGeU64}
)

// compileExpr lowers an expression, leaving its value on top of the stack.
// want is the int class the surrounding context expects (an assignment's
// target, a binary operator's other operand, a FOR loop's control
// variable); it applies only to untyped integer literals, which otherwise
// carry no class of their own (spec §3.6/§4.3 "declared context").
func compileExpr(emitter *Emitter, ctx *compileContext, expr ast.Expr, want intClass) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		v := e.Value
		if e.Neg {
			v = -v
		}
		emitLoadConst(emitter, want, v)
		return nil
	case *ast.BoolLiteral:
		if e.Value {
			emitter.EmitLoadTrue()
		} else {
			emitter.EmitLoadFalse()
		}
		return nil
	case *ast.Ident:
		idx, err := ctx.varIndex(e.Name)
		if err != nil {
			return err
		}
		emitLoadVar(emitter, ctx.varClasses[e.Name.Canonical()], idx)
		return nil
	case *ast.UnaryExpr:
		cls, ok := ctx.exprClass(e.Operand)
		if !ok {
			cls = want
		}
		if err := compileExpr(emitter, ctx, e.Operand, cls); err != nil {
			return err
		}
		switch e.Op {
		case ast.OpNeg:
			if cls.width64 {
				emitter.EmitNegI64()
			} else {
				emitter.EmitNegI32()
			}
		case ast.OpNot:
			emitter.EmitBoolNot()
		}
		return nil
	case *ast.BinaryExpr:
		cls, ok := ctx.exprClass(e)
		if !ok {
			cls = want
		}
		if err := compileExpr(emitter, ctx, e.Left, cls); err != nil {
			return err
		}
		if err := compileExpr(emitter, ctx, e.Right, cls); err != nil {
			return err
		}
		return compileBinaryOp(emitter, e.Op, cls)
	case *ast.RealLiteral:
		return newNotImplementedError("floating-point constant lowering")
	default:
		return newNotImplementedError("unrecognized expression")
	}
}

// compileBinaryOp emits the opcode for a BinaryExpr's operator, with
// width/signedness (and, for Power, the BUILTIN function id) selected from
// cls, the resolved class of its operands.
func compileBinaryOp(emitter *Emitter, op ast.BinaryOp, cls intClass) error {
	switch op {
	case ast.OpAdd:
		emitAdd(emitter, cls)
	case ast.OpSub:
		emitSub(emitter, cls)
	case ast.OpMul:
		emitMul(emitter, cls)
	case ast.OpDiv:
		divFamily.emit(emitter, cls)
	case ast.OpMod:
		modFamily.emit(emitter, cls)
	case ast.OpPow:
		// Power lowers to BUILTIN(EXPT_*) rather than a dedicated opcode
		// (spec §4.3).
		emitter.EmitBuiltin(uint16(exptFuncID(cls)))
	case ast.OpEq:
		eqFamily.emit(emitter, cls)
	case ast.OpNe:
		neFamily.emit(emitter, cls)
	case ast.OpLt:
		ltFamily.emit(emitter, cls)
	case ast.OpLe:
		leFamily.emit(emitter, cls)
	case ast.OpGt:
		gtFamily.emit(emitter, cls)
	case ast.OpGe:
		geFamily.emit(emitter, cls)
	case ast.OpAnd:
		emitter.EmitBoolAnd()
	case ast.OpOr:
		emitter.EmitBoolOr()
	case ast.OpXor:
		emitter.EmitBoolXor()
	default:
		return newNotImplementedError("unrecognized binary operator")
	}
	return nil
}
