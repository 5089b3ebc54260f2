package semantic

import "github.com/ironplc/ironplc-go/lang/ast"

// SymbolTable is the per-scope Id -> VarDecl mapping of spec §3.5: one
// scope for globals, and one scope per POU (program, function, function
// block).
type SymbolTable struct {
	Globals map[string]*ast.VarDecl
	Scopes  map[string]map[string]*ast.VarDecl // POU canonical name -> its scope
}

// BuildSymbolTable walks library once, collecting every VAR_* declaration
// into its owning scope.
func BuildSymbolTable(library *ast.Library) *SymbolTable {
	st := &SymbolTable{
		Globals: map[string]*ast.VarDecl{},
		Scopes:  map[string]map[string]*ast.VarDecl{},
	}
	for _, el := range library.Elements {
		switch d := el.(type) {
		case *ast.GlobalVarDecl:
			for _, vd := range d.Vars {
				st.Globals[vd.Name.Canonical()] = vd
			}
		case *ast.ProgramDecl:
			st.Scopes[d.Name.Canonical()] = scopeOf(d.Vars)
		case *ast.FunctionDecl:
			st.Scopes[d.Name.Canonical()] = scopeOf(d.Vars)
		case *ast.FunctionBlockDecl:
			st.Scopes[d.Name.Canonical()] = scopeOf(d.Vars)
		case *ast.ConfigurationDecl:
			for _, g := range d.Globals {
				for _, vd := range g.Vars {
					st.Globals[vd.Name.Canonical()] = vd
				}
			}
		}
	}
	return st
}

func scopeOf(vars []*ast.VarDecl) map[string]*ast.VarDecl {
	m := make(map[string]*ast.VarDecl, len(vars))
	for _, vd := range vars {
		m[vd.Name.Canonical()] = vd
	}
	return m
}

// Resolve looks up name within pouName's scope, falling back to globals
// for VAR_EXTERNAL-style lookups.
func (st *SymbolTable) Resolve(pouName, name string) (*ast.VarDecl, bool) {
	if scope, ok := st.Scopes[pouName]; ok {
		if vd, ok := scope[name]; ok {
			return vd, true
		}
	}
	vd, ok := st.Globals[name]
	return vd, ok
}

// FunctionBlocks returns every FunctionBlockDecl in library, keyed by
// canonical name.
func FunctionBlocks(library *ast.Library) map[string]*ast.FunctionBlockDecl {
	out := map[string]*ast.FunctionBlockDecl{}
	for _, el := range library.Elements {
		if fb, ok := el.(*ast.FunctionBlockDecl); ok {
			out[fb.Name.Canonical()] = fb
		}
	}
	return out
}
