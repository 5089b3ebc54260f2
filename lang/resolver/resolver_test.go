package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/problems"
	"github.com/ironplc/ironplc-go/lang/resolver"
)

func typeName(s string) core.TypeName { return core.NewTypeName(s, core.SourceSpan{}) }

func TestResolveSubrangeOutOfBounds(t *testing.T) {
	// TYPE Bad : SINT(-200..200) := 0; END_TYPE  (spec §8.3 S4)
	lib := &ast.Library{Elements: []ast.Decl{
		&ast.TypeDecl{Name: typeName("Bad"), Spec: &ast.SubrangeSpec{
			Base: typeName("SINT"), Min: -200, Max: 200,
		}},
	}}

	_, env, err := resolver.Resolve(lib)
	require.Error(t, err)

	list, ok := err.(*core.List)
	require.True(t, ok)
	assert.True(t, list.HasCode(problems.SubrangeOutOfBounds))
	assert.False(t, env.Has("BAD"))
}

func TestResolveArraySizeOverflow(t *testing.T) {
	// TYPE Big : ARRAY[1..2147483647, 1..3] OF INT; END_TYPE (spec §8.3 S3)
	lib := &ast.Library{Elements: []ast.Decl{
		&ast.TypeDecl{Name: typeName("Big"), Spec: &ast.ArraySpec{
			ElementType: typeName("INT"),
			Dimensions: []ast.ArrayDimension{
				{Lower: 1, Upper: 2147483647},
				{Lower: 1, Upper: 3},
			},
		}},
	}}

	_, env, err := resolver.Resolve(lib)
	require.Error(t, err)

	list, ok := err.(*core.List)
	require.True(t, ok)
	assert.True(t, list.HasCode(problems.ArraySizeOverflow))
	assert.False(t, env.Has("BIG"))
}

func TestResolveArraySingleElementNotEmpty(t *testing.T) {
	// spec §8.2: array with dimension [1..1] has size 1, is not rejected as empty.
	lib := &ast.Library{Elements: []ast.Decl{
		&ast.TypeDecl{Name: typeName("Single"), Spec: &ast.ArraySpec{
			ElementType: typeName("INT"),
			Dimensions:  []ast.ArrayDimension{{Lower: 1, Upper: 1}},
		}},
	}}

	_, env, err := resolver.Resolve(lib)
	require.NoError(t, err)

	rep, ok := env.Lookup("SINGLE")
	require.True(t, ok)
	require.NotNil(t, rep.Array)
	assert.EqualValues(t, 1, rep.Array.Count)
}

func TestResolveTopologicalOrderIndependentOfDeclarationOrder(t *testing.T) {
	// B depends on A; declared in reverse order, must still resolve.
	lib := &ast.Library{Elements: []ast.Decl{
		&ast.TypeDecl{Name: typeName("B"), Spec: &ast.ArraySpec{
			ElementType: typeName("A"),
			Dimensions:  []ast.ArrayDimension{{Lower: 0, Upper: 3}},
		}},
		&ast.TypeDecl{Name: typeName("A"), Spec: &ast.SubrangeSpec{
			Base: typeName("INT"), Min: 0, Max: 10,
		}},
	}}

	_, env, err := resolver.Resolve(lib)
	require.NoError(t, err)
	assert.True(t, env.Has("A"))
	assert.True(t, env.Has("B"))
}

func TestResolveTypeDependencyCycle(t *testing.T) {
	lib := &ast.Library{Elements: []ast.Decl{
		&ast.TypeDecl{Name: typeName("A"), Spec: &ast.StructSpec{
			Fields: []ast.StructureField{{Name: core.NewVariableId("f", core.SourceSpan{}), Type: typeName("B")}},
		}},
		&ast.TypeDecl{Name: typeName("B"), Spec: &ast.StructSpec{
			Fields: []ast.StructureField{{Name: core.NewVariableId("g", core.SourceSpan{}), Type: typeName("A")}},
		}},
	}}

	_, _, err := resolver.Resolve(lib)
	require.Error(t, err)
	list := err.(*core.List)
	assert.True(t, list.HasCode(problems.TypeDependencyCycle))
}
