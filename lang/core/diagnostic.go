package core

import (
	"fmt"
	"sort"
	"strings"
)

// Label attaches a short message to a span, used as the primary or a
// secondary annotation of a Diagnostic.
type Label struct {
	Span    SourceSpan
	Message string
}

// SpanLabel builds a Label from anything with a Span() method.
func SpanLabel(s Spanner, message string) Label {
	return Label{Span: s.Span(), Message: message}
}

// KeyValue is one entry of a Diagnostic's structured context, used by
// tooling that wants to filter or group diagnostics without parsing text.
type KeyValue struct {
	Key   string
	Value string
}

// Diagnostic is a single problem report produced by any pipeline stage. Code
// is a stable "Pxxxx" string: its text may evolve, but the code itself is a
// contract with tooling (see the problems catalog).
type Diagnostic struct {
	Code      string
	Primary   Label
	Secondary []Label
	Context   []KeyValue
}

// NewDiagnostic creates a diagnostic with the given code and primary label.
func NewDiagnostic(code string, primary Label) *Diagnostic {
	return &Diagnostic{Code: code, Primary: primary}
}

// WithSecondary appends a secondary label and returns the diagnostic for
// chaining.
func (d *Diagnostic) WithSecondary(l Label) *Diagnostic {
	d.Secondary = append(d.Secondary, l)
	return d
}

// WithContext appends a key/value context pair and returns the diagnostic
// for chaining.
func (d *Diagnostic) WithContext(key, value string) *Diagnostic {
	d.Context = append(d.Context, KeyValue{Key: key, Value: value})
	return d
}

// Error implements the error interface so a Diagnostic can be used wherever
// a plain error is expected (e.g. a single fatal container error).
func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Code, d.Primary.Message)
	for _, s := range d.Secondary {
		fmt.Fprintf(&b, "; %s", s.Message)
	}
	return b.String()
}

// List accumulates diagnostics from a pipeline stage. Stages that must never
// short-circuit (the semantic rule suite, the type resolver across
// declarations) append to a shared List and keep going.
type List struct {
	items []*Diagnostic
}

// Add appends a diagnostic to the list.
func (l *List) Add(d *Diagnostic) {
	l.items = append(l.items, d)
}

// AddAll appends every diagnostic in other to the list.
func (l *List) AddAll(other []*Diagnostic) {
	l.items = append(l.items, other...)
}

// Len returns the number of diagnostics accumulated so far.
func (l *List) Len() int { return len(l.items) }

// Items returns the accumulated diagnostics in their current order: the
// order they were added, or file/offset order once Sort has been called.
func (l *List) Items() []*Diagnostic { return l.items }

// Sort orders diagnostics by file, then by start offset, so that output is
// deterministic regardless of which rule or declaration produced them first.
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i].Primary.Span, l.items[j].Primary.Span
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Start < b.Start
	})
}

// Err returns nil if the list is empty, or the list itself as an error
// otherwise (List implements error).
func (l *List) Err() error {
	if len(l.items) == 0 {
		return nil
	}
	return l
}

// Error implements the error interface, joining every diagnostic's message
// on its own line.
func (l *List) Error() string {
	var b strings.Builder
	for i, d := range l.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// HasCode reports whether any diagnostic in the list carries the given code,
// primarily useful in tests.
func (l *List) HasCode(code string) bool {
	for _, d := range l.items {
		if d.Code == code {
			return true
		}
	}
	return false
}
