package core

import "strings"

// Id is an identifier as written in source: it keeps the original casing for
// diagnostics but compares and hashes by its case-folded canonical form, per
// IEC 61131-3's case-insensitive identifier rule.
type Id struct {
	Original string
	SourceSpan
}

// NewId creates an Id with the given text and span.
func NewId(text string, span SourceSpan) Id {
	return Id{Original: text, SourceSpan: span}
}

// Canonical returns the case-folded form used for comparison and lookup.
func (i Id) Canonical() string { return strings.ToUpper(i.Original) }

// String returns the original-case text, for diagnostics and output.
func (i Id) String() string { return i.Original }

// Equal compares two identifiers by their canonical form, ignoring spans.
func (i Id) Equal(o Id) bool { return i.Canonical() == o.Canonical() }

// IsZero reports whether this Id was never set.
func (i Id) IsZero() bool { return i.Original == "" }

// TypeName, VariableId and ProgramName are distinct newtypes over Id so that
// a function accepting one cannot be passed the other by accident, even
// though all three are, at the representation level, a cased identifier with
// a span.
type (
	TypeName    struct{ Id }
	VariableId  struct{ Id }
	ProgramName struct{ Id }
)

// NewTypeName wraps text and a span as a TypeName.
func NewTypeName(text string, span SourceSpan) TypeName {
	return TypeName{NewId(text, span)}
}

// NewVariableId wraps text and a span as a VariableId.
func NewVariableId(text string, span SourceSpan) VariableId {
	return VariableId{NewId(text, span)}
}

// NewProgramName wraps text and a span as a ProgramName.
func NewProgramName(text string, span SourceSpan) ProgramName {
	return ProgramName{NewId(text, span)}
}
