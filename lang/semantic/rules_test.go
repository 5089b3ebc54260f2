package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/problems"
	"github.com/ironplc/ironplc-go/lang/resolver"
	"github.com/ironplc/ironplc-go/lang/semantic"
)

func varId(s string) core.VariableId { return core.NewVariableId(s, core.SourceSpan{}) }
func typeName(s string) core.TypeName { return core.NewTypeName(s, core.SourceSpan{}) }
func ident(s string) core.Id          { return core.NewId(s, core.SourceSpan{}) }

// FB invocation mixing formal and positional args (spec §8.3 S5).
func TestFunctionBlockInvocationMixedArgs(t *testing.T) {
	callee := &ast.FunctionBlockDecl{
		Name: ident("Callee"),
		Vars: []*ast.VarDecl{
			{Name: varId("IN1"), Type: typeName("BOOL"), Class: ast.VarInput},
			{Name: varId("IN2"), Type: typeName("BOOL"), Class: ast.VarInput},
		},
	}
	caller := &ast.FunctionBlockDecl{
		Name: ident("Caller"),
		Vars: []*ast.VarDecl{
			{Name: varId("FB"), Type: typeName("Callee"), Class: ast.VarLocal},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.FBCallStmt{
				Instance: &ast.Ident{Name: varId("FB")},
				Args: []ast.Argument{
					{Name: varId("IN1"), Value: &ast.BoolLiteral{Value: true}},
					{Value: &ast.BoolLiteral{Value: false}},
				},
			},
		}},
	}
	lib := &ast.Library{Elements: []ast.Decl{callee, caller}}

	_, env, err := resolver.Resolve(lib)
	require.NoError(t, err)

	diags := semantic.Run(lib, env)
	assert.True(t, diags.HasCode(problems.FunctionCallMixedArgTypes))
}

func TestVarDeclConstInitializedRequired(t *testing.T) {
	prog := &ast.ProgramDecl{
		Name: core.NewProgramName("main", core.SourceSpan{}),
		Vars: []*ast.VarDecl{
			{Name: varId("K"), Type: typeName("INT"), Class: ast.VarLocal, Qualifier: ast.QualifierConstant},
		},
		Body: &ast.Block{},
	}
	lib := &ast.Library{Elements: []ast.Decl{prog}}

	_, env, err := resolver.Resolve(lib)
	require.NoError(t, err)

	diags := semantic.Run(lib, env)
	assert.True(t, diags.HasCode(problems.VarDeclConstNotInitialized))
}
