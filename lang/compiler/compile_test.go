package compiler_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/compiler"
	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/ittype"
)

// decoded is one disassembled instruction, used by tests to assert on the
// emitted instruction sequence without depending on a specific numeric
// opcode encoding (spec §4.3 pins mnemonics and stack effects, not byte
// values — see DESIGN.md "opcode numbering").
type decoded struct {
	mnemonic string
	operand  int64 // u16 operand, or the resolved signed jump offset
	hasOper  bool
}

func disassemble(t *testing.T, code []byte) []decoded {
	t.Helper()
	var out []decoded
	i := 0
	for i < len(code) {
		op := compiler.Opcode(code[i])
		d := decoded{mnemonic: op.String()}
		i++
		switch op {
		case compiler.LOAD_CONST_I32, compiler.LOAD_CONST_I64,
			compiler.LOAD_VAR_I32, compiler.LOAD_VAR_I64,
			compiler.STORE_VAR_I32, compiler.STORE_VAR_I64,
			compiler.BUILTIN:
			require.LessOrEqual(t, i+2, len(code))
			d.operand = int64(binary.LittleEndian.Uint16(code[i : i+2]))
			d.hasOper = true
			i += 2
		case compiler.JMP, compiler.JMP_IF_NOT:
			d.operand = int64(int16(binary.LittleEndian.Uint16(code[i : i+2])))
			d.hasOper = true
			i += 2
		}
		out = append(out, d)
	}
	return out
}

func mnemonics(ds []decoded) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.mnemonic
	}
	return out
}

func varRef(name string) *ast.Ident {
	return &ast.Ident{Name: core.NewVariableId(name, core.SourceSpan{})}
}

func intLit(v int64) *ast.IntLiteral { return &ast.IntLiteral{Value: v} }

// S1 — steel thread: PROGRAM main VAR x, y : INT; END_VAR x := 10; y := x + 32; END_PROGRAM
// The declarations below carry no type and no environment is passed, so
// both variables classify as DINT and compile with the 32-bit opcodes.
func TestCompileProgramSteelThread(t *testing.T) {
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: core.NewVariableId("x", core.SourceSpan{}), Class: ast.VarLocal},
			{Name: core.NewVariableId("y", core.SourceSpan{}), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: varRef("x"), Value: intLit(10)},
			&ast.AssignStmt{Target: varRef("y"), Value: &ast.BinaryExpr{
				Left: varRef("x"), Op: ast.OpAdd, Right: intLit(32),
			}},
		}},
	}

	emitter, err := compiler.CompileProgram(prog, nil)
	require.NoError(t, err)

	code, err := emitter.Bytecode()
	require.NoError(t, err)

	got := disassemble(t, code)
	assert.Equal(t, []string{
		"LOAD_CONST_I32", "STORE_VAR_I32",
		"LOAD_VAR_I32", "LOAD_CONST_I32", "ADD_I32", "STORE_VAR_I32",
		"RET_VOID",
	}, mnemonics(got))

	assert.Equal(t, int64(0), got[0].operand) // pool index of the literal 10
	assert.Equal(t, int64(0), got[1].operand) // x's variable index

	assert.Equal(t, 2, emitter.Pool().Len())
	assert.Equal(t, int32(10), emitter.Pool().I32(0))
	assert.Equal(t, int32(32), emitter.Pool().I32(1))

	// x and 32 both held live on the stack before the add pops them.
	assert.Equal(t, uint16(2), emitter.MaxStackDepth())
}

// S2 — FOR loop with default step: PROGRAM main VAR i, sum : INT; END_VAR
// sum := 0; FOR i := 1 TO 10 DO sum := sum + i; END_FOR; END_PROGRAM
// As in S1, the declarations carry no type, so both variables are DINT.
func TestCompileForLoopDefaultStep(t *testing.T) {
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: core.NewVariableId("i", core.SourceSpan{}), Class: ast.VarLocal},
			{Name: core.NewVariableId("sum", core.SourceSpan{}), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: varRef("sum"), Value: intLit(0)},
			&ast.ForStmt{
				Var:  varRef("i"),
				From: intLit(1),
				To:   intLit(10),
				Step: nil,
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Target: varRef("sum"), Value: &ast.BinaryExpr{
						Left: varRef("sum"), Op: ast.OpAdd, Right: varRef("i"),
					}},
				}},
			},
		}},
	}

	emitter, err := compiler.CompileProgram(prog, nil)
	require.NoError(t, err)

	code, err := emitter.Bytecode()
	require.NoError(t, err)

	got := mnemonics(disassemble(t, code))
	assert.Equal(t, []string{
		"LOAD_CONST_I32", "STORE_VAR_I32", // sum := 0
		"LOAD_CONST_I32", "STORE_VAR_I32", // i := 1 (FOR init)
		"LOAD_VAR_I32", "LOAD_CONST_I32", "GT_I32", "JMP_IF_NOT", "JMP", // loop test
		"LOAD_VAR_I32", "LOAD_VAR_I32", "ADD_I32", "STORE_VAR_I32", // sum := sum + i
		"LOAD_VAR_I32", "LOAD_CONST_I32", "ADD_I32", "STORE_VAR_I32", // i := i + 1
		"JMP",
		"RET_VOID",
	}, got)

	// The FOR loop's default step (1) is the only constant that can
	// collide with itself across iterations of emission; it must be
	// deduplicated against the loop bound 10 and the initial 0 and 1.
	assert.Equal(t, 3, emitter.Pool().Len()) // {0, 1, 10}
}

// A forward jump whose target never gets bound is a programmer error, not a
// diagnostic: the driver always binds every label it creates.
func TestBytecodeUnboundLabelPanics(t *testing.T) {
	e := compiler.NewEmitter()
	label := e.CreateLabel()
	e.EmitJmp(label)
	assert.Panics(t, func() { _, _ = e.Bytecode() })
}

func TestCompileAssignUndeclaredVariable(t *testing.T) {
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: varRef("missing"), Value: intLit(1)},
		}},
	}
	_, err := compiler.CompileProgram(prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P0020")
}

// PROGRAM main VAR x, y : LINT; END_VAR x := 10; y := x + 32; END_PROGRAM
// LINT is 64-bit, so every LOAD_CONST/LOAD_VAR/STORE_VAR/ADD must emit the
// I64 opcode family, not the I32 family the zero-value intClass defaults to.
func TestCompileLintUsesI64Opcodes(t *testing.T) {
	env := ittype.NewTypeEnvironment()
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: core.NewVariableId("x", core.SourceSpan{}), Type: core.NewTypeName("LINT", core.SourceSpan{}), Class: ast.VarLocal},
			{Name: core.NewVariableId("y", core.SourceSpan{}), Type: core.NewTypeName("LINT", core.SourceSpan{}), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: varRef("x"), Value: intLit(10)},
			&ast.AssignStmt{Target: varRef("y"), Value: &ast.BinaryExpr{
				Left: varRef("x"), Op: ast.OpAdd, Right: intLit(32),
			}},
		}},
	}

	emitter, err := compiler.CompileProgram(prog, env)
	require.NoError(t, err)
	code, err := emitter.Bytecode()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"LOAD_CONST_I64", "STORE_VAR_I64",
		"LOAD_VAR_I64", "LOAD_CONST_I64", "ADD_I64", "STORE_VAR_I64",
		"RET_VOID",
	}, mnemonics(disassemble(t, code)))
}

// A UDINT comparison must emit the unsigned 32-bit family, not the signed
// I32 opcodes a type-blind emitter would hardwire.
func TestCompileUdintComparisonUsesUnsignedOpcode(t *testing.T) {
	env := ittype.NewTypeEnvironment()
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: core.NewVariableId("x", core.SourceSpan{}), Type: core.NewTypeName("UDINT", core.SourceSpan{}), Class: ast.VarLocal},
			{Name: core.NewVariableId("ok", core.SourceSpan{}), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.IfStmt{
				Cond: &ast.BinaryExpr{Left: varRef("x"), Op: ast.OpGt, Right: intLit(0)},
				Then: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Target: varRef("ok"), Value: &ast.BoolLiteral{Value: true}},
				}},
			},
		}},
	}

	emitter, err := compiler.CompileProgram(prog, env)
	require.NoError(t, err)
	code, err := emitter.Bytecode()
	require.NoError(t, err)

	assert.Contains(t, mnemonics(disassemble(t, code)), "GT_U32")
	assert.NotContains(t, mnemonics(disassemble(t, code)), "GT_I32")
}

// A SINT-typed variable must be truncated back to 8 bits at store time;
// the value itself is computed at full 32-bit width and only narrowed
// immediately before STORE_VAR.
func TestCompileSintNarrowsAtStore(t *testing.T) {
	env := ittype.NewTypeEnvironment()
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: core.NewVariableId("x", core.SourceSpan{}), Type: core.NewTypeName("SINT", core.SourceSpan{}), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: varRef("x"), Value: intLit(5)},
		}},
	}

	emitter, err := compiler.CompileProgram(prog, env)
	require.NoError(t, err)
	code, err := emitter.Bytecode()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"LOAD_CONST_I32", "TRUNC_I8", "STORE_VAR_I32", "RET_VOID",
	}, mnemonics(disassemble(t, code)))
}

// Power (`**`) lowers to BUILTIN rather than a dedicated opcode, per spec
// §4.3.
func TestCompilePowerLowersToBuiltin(t *testing.T) {
	env := ittype.NewTypeEnvironment()
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: core.NewVariableId("x", core.SourceSpan{}), Type: core.NewTypeName("DINT", core.SourceSpan{}), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: varRef("x"), Value: &ast.BinaryExpr{
				Left: intLit(2), Op: ast.OpPow, Right: intLit(10),
			}},
		}},
	}

	emitter, err := compiler.CompileProgram(prog, env)
	require.NoError(t, err)
	code, err := emitter.Bytecode()
	require.NoError(t, err)

	got := disassemble(t, code)
	mn := mnemonics(got)
	require.Contains(t, mn, "BUILTIN")
	for i, m := range mn {
		if m == "BUILTIN" {
			assert.Equal(t, int64(compiler.EXPT_I32), got[i].operand)
		}
	}
}

func TestConstantPoolDeduplication(t *testing.T) {
	pool := compiler.NewConstantPool()
	a := pool.AddI32(42)
	b := pool.AddI32(42)
	c := pool.AddI32(7)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, pool.Len())
}
