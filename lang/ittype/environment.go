package ittype

import (
	"github.com/dolthub/swiss"

	"github.com/ironplc/ironplc-go/lang/core"
)

// TypeAttributes is the environment's value type: a resolved type plus the
// span of the declaration that introduced it (spec §3.3).
type TypeAttributes struct {
	Span           core.SourceSpan
	Representation *IntermediateType
}

// TypeEnvironment maps TypeName -> TypeAttributes, plus an alias side-table
// TypeName -> TypeName (spec §3.3). Both tables are backed by
// github.com/dolthub/swiss, the same map the teacher uses for its own
// value maps (lang/machine/map.go), re-homed here since the VM's runtime
// value representation is out of scope (SPEC_FULL.md "Teacher dependencies
// not carried forward").
type TypeEnvironment struct {
	types   *swiss.Map[string, TypeAttributes]
	aliases *swiss.Map[string, string]
}

// NewTypeEnvironment returns an environment seeded with every IEC
// elementary type name (spec §4.1 step 1 "Seed elementary types").
func NewTypeEnvironment() *TypeEnvironment {
	env := &TypeEnvironment{
		types:   swiss.NewMap[string, TypeAttributes](64),
		aliases: swiss.NewMap[string, string](16),
	}
	for kind, name := range elementaryNames {
		env.types.Put(name, TypeAttributes{
			Representation: &IntermediateType{Elementary: &ElementaryType{Kind: kind}},
		})
	}
	return env
}

// IsElementary reports whether name (canonical) names a seeded built-in
// type.
func (env *TypeEnvironment) IsElementary(name string) bool {
	for _, n := range elementaryNames {
		if n == name {
			return true
		}
	}
	return false
}

// Define inserts a fresh (non-alias) type definition. It reports false
// without modifying the environment if name is already defined — "at most
// one definition per name; redefinition is a diagnostic, never silently
// merged" (spec §3.3).
func (env *TypeEnvironment) Define(name string, attrs TypeAttributes) bool {
	if _, ok := env.types.Get(name); ok {
		return false
	}
	env.types.Put(name, attrs)
	return true
}

// DefineAlias records name as an alias of base, and mirrors base's
// resolved representation into the main table under name so that Lookup
// need not always chase the alias chain. It reports false if name is
// already defined.
func (env *TypeEnvironment) DefineAlias(name, base string, span core.SourceSpan) bool {
	if _, ok := env.types.Get(name); ok {
		return false
	}
	rep, ok := env.Lookup(base)
	if !ok {
		return false
	}
	env.aliases.Put(name, base)
	env.types.Put(name, TypeAttributes{Span: span, Representation: rep})
	return true
}

// Lookup returns the resolved representation for name, following alias
// chains transparently.
func (env *TypeEnvironment) Lookup(name string) (*IntermediateType, bool) {
	attrs, ok := env.types.Get(name)
	if !ok {
		return nil, false
	}
	return attrs.Representation, true
}

// Attributes returns the full TypeAttributes (including declaration span)
// for name.
func (env *TypeEnvironment) Attributes(name string) (TypeAttributes, bool) {
	return env.types.Get(name)
}

// AliasTarget returns the base name of name's alias, if name was defined
// via DefineAlias.
func (env *TypeEnvironment) AliasTarget(name string) (string, bool) {
	return env.aliases.Get(name)
}

// IsAlias reports whether name was defined as an alias rather than a fresh
// type.
func (env *TypeEnvironment) IsAlias(name string) bool {
	_, ok := env.aliases.Get(name)
	return ok
}

// Has reports whether name is defined, elementary or user-declared.
func (env *TypeEnvironment) Has(name string) bool {
	_, ok := env.types.Get(name)
	return ok
}

// Count returns the number of defined type names, elementary and
// user-declared combined.
func (env *TypeEnvironment) Count() int {
	return env.types.Count()
}
