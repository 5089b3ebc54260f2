package resolver

import "github.com/ironplc/ironplc-go/lang/ast"

// typeDependencies returns the canonical names of every TypeName textually
// mentioned by decl's spec: element types of arrays, base types of
// subranges/enum aliases, field types of structures (spec §4.1 step 2).
func typeDependencies(decl *ast.TypeDecl) []string {
	switch spec := decl.Spec.(type) {
	case *ast.SimpleSpec:
		return []string{spec.Base.Canonical()}
	case *ast.EnumAliasSpec:
		return []string{spec.Base.Canonical()}
	case *ast.SubrangeSpec:
		return []string{spec.Base.Canonical()}
	case *ast.SubrangeAliasSpec:
		return []string{spec.Base.Canonical()}
	case *ast.ArraySpec:
		return []string{spec.ElementType.Canonical()}
	case *ast.ArrayAliasSpec:
		return []string{spec.Base.Canonical()}
	case *ast.StructSpec:
		deps := make([]string, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			deps = append(deps, f.Type.Canonical())
		}
		return deps
	case *ast.LateBoundSpec:
		return []string{spec.Base.Canonical()}
	default:
		return nil
	}
}

// topoOrder returns decls ordered so that every dependency precedes its
// dependent (spec §4.1 step 2). cycles maps each name involved in a
// dependency cycle to the cycle it was found in; a declaration inside a
// cycle is excluded from the returned order. Order among independent
// declarations is stable (declaration order), matching the requirement
// that "order among independent types is stable".
func topoOrder(decls []*ast.TypeDecl, env typeExistence) (order []*ast.TypeDecl, cycles map[string][]string) {
	byName := make(map[string]*ast.TypeDecl, len(decls))
	for _, d := range decls {
		byName[d.Name.Canonical()] = d
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(decls))
	cycles = make(map[string][]string)
	var stack []string

	var visit func(name string) bool // returns true if name is (or leads into) a cycle
	visit = func(name string) bool {
		switch state[name] {
		case done:
			return false
		case visiting:
			// found a cycle: everything on stack from name's first occurrence on
			// is part of it
			start := 0
			for i, s := range stack {
				if s == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), name)
			for _, s := range cycle {
				cycles[s] = cycle
			}
			return true
		}
		decl, ok := byName[name]
		if !ok {
			return false // not a user type being resolved in this pass (elementary, or undeclared — reported elsewhere)
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range typeDependencies(decl) {
			if env.Has(dep) {
				continue // already resolved (elementary or previously-defined type)
			}
			visit(dep)
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		_, inCycle := cycles[name]
		if !inCycle {
			order = append(order, decl) // post-order: every dependency was appended first
		}
		return inCycle
	}

	for _, d := range decls {
		name := d.Name.Canonical()
		if state[name] == unvisited {
			visit(name)
		}
	}
	return order, cycles
}

// typeExistence abstracts the "is this name already resolvable" query so
// toposort doesn't need the full environment type.
type typeExistence interface {
	Has(name string) bool
}
