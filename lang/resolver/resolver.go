// Package resolver implements Component A: folding a freshly parsed
// library into a type environment with one canonical IntermediateType per
// declared name, and rewriting every LateBoundDeclaration to a concrete
// declaration kind (spec §4.1).
//
// The driver shape — thread a shared diagnostic list through an
// accumulate-and-continue pass — follows the teacher's own resolver driver
// (lang/resolver/resolver.go's Resolve() entry point accumulating into a
// *scanner.ErrorList); the fold algorithm itself is IronPLC's, grounded on
// original_source/compiler/analyzer/src/intermediates/{subrange,array,structure}.rs.
package resolver

import (
	"math"

	"github.com/ironplc/ironplc-go/lang/ast"
	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/ittype"
	"github.com/ironplc/ironplc-go/lang/problems"
)

// Resolve folds library and returns the rewritten library (LateBoundSpec
// nodes replaced by concrete specs) together with the populated type
// environment. On a per-declaration failure it accumulates a diagnostic
// and continues with the remaining declarations (spec §4.1 "Contract").
func Resolve(library *ast.Library) (*ast.Library, *ittype.TypeEnvironment, error) {
	env := ittype.NewTypeEnvironment()
	var diags core.List

	var typeDecls []*ast.TypeDecl
	for _, el := range library.Elements {
		if td, ok := el.(*ast.TypeDecl); ok {
			typeDecls = append(typeDecls, td)
		}
	}

	order, cycles := topoOrder(typeDecls, env)
	for name, cycle := range cycles {
		diags.Add(problems.NewDiagnostic(problems.TypeDependencyCycle,
			core.Label{Message: problems.Format(problems.TypeDependencyCycle, name)}).
			WithContext("cycle", joinNames(cycle)))
	}

	for _, decl := range order {
		fold(decl, env, &diags)
	}

	diags.Sort()
	return library, env, diags.Err()
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}

// fold resolves one type declaration in topological order, inserting into
// env and, for LateBoundSpec, rewriting decl.Spec in place (spec §4.1
// step 3).
func fold(decl *ast.TypeDecl, env *ittype.TypeEnvironment, diags *core.List) {
	name := decl.Name.Canonical()
	if env.IsElementary(name) {
		diags.Add(problems.NewDiagnostic(problems.ElementaryTypeRedeclared,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.ElementaryTypeRedeclared, name)}))
		return
	}
	if env.Has(name) {
		diags.Add(problems.NewDiagnostic(problems.TypeAlreadyDefined,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.TypeAlreadyDefined, name)}))
		return
	}

	switch spec := decl.Spec.(type) {
	case *ast.SimpleSpec:
		foldAlias(decl, name, spec.Base.Canonical(), decl.Span(), env, diags)
	case *ast.EnumSpec:
		foldEnum(decl, name, spec, env, diags)
	case *ast.EnumAliasSpec:
		foldEnumAlias(decl, name, spec, env, diags)
	case *ast.SubrangeSpec:
		foldSubrange(decl, name, spec, env, diags)
	case *ast.SubrangeAliasSpec:
		foldSubrangeAlias(decl, name, spec, env, diags)
	case *ast.ArraySpec:
		foldArray(decl, name, spec, env, diags)
	case *ast.ArrayAliasSpec:
		foldAlias(decl, name, spec.Base.Canonical(), decl.Span(), env, diags)
	case *ast.StructSpec:
		foldStruct(decl, name, spec, env, diags)
	case *ast.LateBoundSpec:
		foldLateBound(decl, name, spec, env, diags)
	}
}

func foldAlias(decl *ast.TypeDecl, name, base string, span core.SourceSpan, env *ittype.TypeEnvironment, diags *core.List) {
	if !env.Has(base) {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: span, Message: problems.Format(problems.UndeclaredType, base)}))
		return
	}
	env.DefineAlias(name, base, decl.Span())
}

func foldEnum(decl *ast.TypeDecl, name string, spec *ast.EnumSpec, env *ittype.TypeEnvironment, diags *core.List) {
	seen := make(map[string]bool, len(spec.Values))
	values := make([]string, 0, len(spec.Values))
	for _, v := range spec.Values {
		canon := v.Canonical()
		if seen[canon] {
			diags.Add(problems.NewDiagnostic(problems.EnumerationValueDuplicate,
				core.Label{Span: v.Span(), Message: problems.Format(problems.EnumerationValueDuplicate, name, v.String())}))
			continue
		}
		seen[canon] = true
		values = append(values, canon)
	}
	env.Define(name, ittype.TypeAttributes{
		Span: decl.Span(),
		Representation: &ittype.IntermediateType{Enumeration: &ittype.EnumerationType{
			Values: values,
			Width:  ittype.WidthForCardinality(len(values)),
		}},
	})
}

func foldEnumAlias(decl *ast.TypeDecl, name string, spec *ast.EnumAliasSpec, env *ittype.TypeEnvironment, diags *core.List) {
	base := spec.Base.Canonical()
	rep, ok := env.Lookup(base)
	if !ok {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, base)}))
		return
	}
	if rep.Enumeration == nil {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, base)}))
		return
	}
	env.DefineAlias(name, base, decl.Span())
}

func foldSubrange(decl *ast.TypeDecl, name string, spec *ast.SubrangeSpec, env *ittype.TypeEnvironment, diags *core.List) {
	base := spec.Base.Canonical()
	rep, ok := env.Lookup(base)
	if !ok {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, base)}))
		return
	}
	if !rep.IsNumeric() || rep.Elementary == nil || !rep.Elementary.Kind.IsInteger() {
		diags.Add(problems.NewDiagnostic(problems.SubrangeBaseTypeNotNumeric,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.SubrangeBaseTypeNotNumeric, name, base)}))
		return
	}
	if spec.Min > spec.Max {
		diags.Add(problems.NewDiagnostic(problems.SubrangeMinStrictlyLessMax,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.SubrangeMinStrictlyLessMax, name)}))
		return
	}
	if !rep.Elementary.Kind.IsValueInDomain(spec.Min) || !rep.Elementary.Kind.IsValueInDomain(spec.Max) {
		diags.Add(problems.NewDiagnostic(problems.SubrangeOutOfBounds,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.SubrangeOutOfBounds, name, base)}))
		return
	}
	env.Define(name, ittype.TypeAttributes{
		Span: decl.Span(),
		Representation: &ittype.IntermediateType{Subrange: &ittype.SubrangeType{
			Base: rep.Elementary.Kind,
			Min:  spec.Min,
			Max:  spec.Max,
		}},
	})
}

func foldSubrangeAlias(decl *ast.TypeDecl, name string, spec *ast.SubrangeAliasSpec, env *ittype.TypeEnvironment, diags *core.List) {
	base := spec.Base.Canonical()
	rep, ok := env.Lookup(base)
	if !ok || rep.Subrange == nil {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, base)}))
		return
	}
	env.DefineAlias(name, base, decl.Span())
}

// foldArray computes the per-dimension and product element counts with
// overflow checks against u32::MAX, per original_source's
// calculate_array_size()/validate_array_bounds() (SPEC_FULL.md
// "Supplemented features" via array.rs).
func foldArray(decl *ast.TypeDecl, name string, spec *ast.ArraySpec, env *ittype.TypeEnvironment, diags *core.List) {
	if len(spec.Dimensions) == 0 {
		diags.Add(problems.NewDiagnostic(problems.ArrayDimensionEmpty,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.ArrayDimensionEmpty, name)}))
		return
	}
	elem := spec.ElementType.Canonical()
	elemRep, ok := env.Lookup(elem)
	if !ok {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, elem)}))
		return
	}

	dims := make([]ittype.ArrayDimension, 0, len(spec.Dimensions))
	var total uint64 = 1
	for _, d := range spec.Dimensions {
		if d.Lower > d.Upper {
			diags.Add(problems.NewDiagnostic(problems.ArrayDimensionEmpty,
				core.Label{Span: decl.Span(), Message: problems.Format(problems.ArrayDimensionEmpty, name)}))
			return
		}
		count := uint64(d.Upper-d.Lower) + 1
		if count > math.MaxUint32 {
			diags.Add(problems.NewDiagnostic(problems.ArraySizeOverflow,
				core.Label{Span: decl.Span(), Message: problems.Format(problems.ArraySizeOverflow, name)}))
			return
		}
		newTotal := total * count
		if count != 0 && newTotal/count != total {
			diags.Add(problems.NewDiagnostic(problems.ArraySizeOverflow,
				core.Label{Span: decl.Span(), Message: problems.Format(problems.ArraySizeOverflow, name)}))
			return
		}
		total = newTotal
		dims = append(dims, ittype.ArrayDimension{Lower: d.Lower, Upper: d.Upper})
	}
	if total > math.MaxUint32 {
		diags.Add(problems.NewDiagnostic(problems.ArraySizeOverflow,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.ArraySizeOverflow, name)}))
		return
	}

	env.Define(name, ittype.TypeAttributes{
		Span: decl.Span(),
		Representation: &ittype.IntermediateType{Array: &ittype.ArrayType{
			Element:    elemRep,
			Dimensions: dims,
			Count:      total,
		}},
	})
}

// foldStruct computes field offsets by natural alignment: offset = ceil to
// the field's alignment, then advance by the field's size (0 for an
// incomplete type propagates, per original_source's structure.rs,
// spec §4.1 step 3 "Structure").
func foldStruct(decl *ast.TypeDecl, name string, spec *ast.StructSpec, env *ittype.TypeEnvironment, diags *core.List) {
	seen := make(map[string]bool, len(spec.Fields))
	fields := make([]ittype.StructureField, 0, len(spec.Fields))
	var cursor uint32

	for _, f := range spec.Fields {
		canon := f.Name.Canonical()
		if seen[canon] {
			diags.Add(problems.NewDiagnostic(problems.StructFieldDuplicateName,
				core.Label{Span: decl.Span(), Message: problems.Format(problems.StructFieldDuplicateName, name, f.Name.String())}))
			continue
		}
		seen[canon] = true

		fieldType := f.Type.Canonical()
		rep, ok := env.Lookup(fieldType)
		if !ok {
			diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
				core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, fieldType)}))
			continue
		}

		align := rep.AlignmentBytes()
		offset := ceilTo(cursor, uint32(align))
		size, sizeOK := rep.SizeInBytes()
		if sizeOK {
			cursor = offset + size
		}

		fields = append(fields, ittype.StructureField{
			Name:       canon,
			Type:       rep,
			Offset:     offset,
			HasDefault: f.Init != nil && f.Init.HasDefault(),
		})
	}

	env.Define(name, ittype.TypeAttributes{
		Span:           decl.Span(),
		Representation: &ittype.IntermediateType{Structure: &ittype.StructureType{Fields: fields}},
	})
}

func ceilTo(cursor, align uint32) uint32 {
	if align <= 1 {
		return cursor
	}
	rem := cursor % align
	if rem == 0 {
		return cursor
	}
	return cursor + (align - rem)
}

// foldLateBound rewrites decl.Spec in place once the base type's kind is
// known, per spec §4.1 step 3 "Late-bound": "the base type is now in the
// environment; rewrite the declaration to the matching concrete kind
// (simple/enum-alias/struct-init/array-alias) and insert the alias."
func foldLateBound(decl *ast.TypeDecl, name string, spec *ast.LateBoundSpec, env *ittype.TypeEnvironment, diags *core.List) {
	base := spec.Base.Canonical()
	rep, ok := env.Lookup(base)
	if !ok {
		diags.Add(problems.NewDiagnostic(problems.UndeclaredType,
			core.Label{Span: decl.Span(), Message: problems.Format(problems.UndeclaredType, base)}))
		return
	}

	switch {
	case rep.Enumeration != nil:
		decl.Spec = &ast.EnumAliasSpec{Base: spec.Base, SourceSpan: spec.SourceSpan}
	case rep.Array != nil:
		decl.Spec = &ast.ArrayAliasSpec{Base: spec.Base, SourceSpan: spec.SourceSpan}
	case rep.Subrange != nil:
		decl.Spec = &ast.SubrangeAliasSpec{Base: spec.Base, SourceSpan: spec.SourceSpan}
	default:
		decl.Spec = &ast.SimpleSpec{Base: spec.Base, SourceSpan: spec.SourceSpan}
	}
	env.DefineAlias(name, base, decl.Span())
}
