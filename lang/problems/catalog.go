// Package problems loads the Pxxxx -> message template catalog from an
// embedded YAML resource into an immutable, process-wide table (spec §9
// "Global mutable state": "Model it as an immutable, initialized-once
// table loaded from an embedded resource").
package problems

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Entry is one catalog row: the stable code's human name and message
// template (a fmt.Sprintf format string).
type Entry struct {
	Name    string `yaml:"name"`
	Message string `yaml:"message"`
}

var (
	once    sync.Once
	catalog map[string]Entry
)

func load() {
	var raw map[string]Entry
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		panic(fmt.Sprintf("problems: malformed embedded catalog: %v", err))
	}
	catalog = raw
}

// Lookup returns the catalog entry for code, or (Entry{}, false) if code is
// not in the catalog.
func Lookup(code string) (Entry, bool) {
	once.Do(load)
	e, ok := catalog[code]
	return e, ok
}

// Format renders code's message template with args, for use as a
// Diagnostic's primary label message. It panics if code is not cataloged —
// every code a rule raises must be cataloged, so this is a programmer
// error, not a runtime condition.
func Format(code string, args ...any) string {
	e, ok := Lookup(code)
	if !ok {
		panic(fmt.Sprintf("problems: code %s is not in the catalog", code))
	}
	return fmt.Sprintf(e.Message, args...)
}

// MustName returns the human-readable name for code, panicking if absent.
func MustName(code string) string {
	e, ok := Lookup(code)
	if !ok {
		panic(fmt.Sprintf("problems: code %s is not in the catalog", code))
	}
	return e.Name
}

// Code constants for the diagnostics this module raises (spec §4.1, §4.2,
// §4.3, §4.4, §7). Names match the catalog's "name" field for the same
// code, not the Go convention of CamelCase-only: these are intentionally
// styled after the catalog entries, so a reader can grep either side.
const (
	ElementaryTypeRedeclared       = "P0001"
	TypeAlreadyDefined             = "P0002"
	TypeDependencyCycle            = "P0003"
	UndeclaredType                 = "P0004"
	ArrayDimensionEmpty            = "P0005"
	ArraySizeOverflow              = "P0006"
	SubrangeBaseTypeNotNumeric     = "P0007"
	SubrangeMinStrictlyLessMax     = "P0008"
	SubrangeOutOfBounds            = "P0009"
	StructFieldDuplicateName       = "P0010"
	EnumerationValueDuplicate      = "P0011"
	FunctionBlockNotDeclared       = "P0012"
	FunctionCallMixedArgTypes      = "P0013"
	FunctionCallArgCountMismatch   = "P0014"
	FunctionCallUnknownFormalArg   = "P0015"
	FunctionCallUnknownFormalOutput = "P0016"
	PousCycle                      = "P0017"
	ProgramTaskUndeclared          = "P0018"
	EnumeratedValueUndeclared      = "P0019"
	SymbolicVarUndeclared          = "P0020"
	UnsupportedStdlibType          = "P0021"
	VarDeclConstNotInitialized     = "P0022"
	VarDeclConstNotFb              = "P0023"
	VarDeclGlobalConstMismatch     = "P0024"
	BranchTooFar                   = "P0025"
	NotImplemented                 = "P0026"
	InvalidMagic                   = "P0027"
	SectionSizeMismatch            = "P0028"
	InvalidConstantIndex           = "P0029"
	InvalidConstantType            = "P0030"
)
