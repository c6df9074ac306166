// Package diag implements structured, span-based diagnostics and their
// Rust-style source-snippet rendering (spec §4.I).
package diag

import (
	"fmt"
	"strings"

	"github.com/takomusic/mfs/internal/source"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Hint Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "hint"
	}
}

// Code is a machine-readable diagnostic identifier, e.g. "E0050".
type Code string

// Error-kind codes from the taxonomy in spec §7.
const (
	CodeUnexpectedChar             Code = "E0001"
	CodeUnterminatedString         Code = "E0002"
	CodeInvalidNumber              Code = "E0003"
	CodeInvalidEscape              Code = "E0004"
	CodeUnexpectedToken            Code = "E0010"
	CodeExpectedIdentifier         Code = "E0011"
	CodeExpectedExpression         Code = "E0012"
	CodeMismatchedBrackets         Code = "E0013"
	CodeUnexpectedEOF              Code = "E0014"
	CodeUndefinedSymbol            Code = "E0020"
	CodeDuplicateSymbol            Code = "E0021"
	CodeDuplicateSoundID           Code = "E0022"
	CodeUndefinedSound             Code = "E0023"
	CodeInvalidSoundKind           Code = "E0024"
	CodeInvalidTrackRole           Code = "E0025"
	CodeBadMeterDenominator        Code = "E0026"
	CodeNonPositiveDuration        Code = "E0027"
	CodeCCOutOfRange               Code = "E0028"
	CodePositionalArgAfterNamed    Code = "E0029"
	CodeDuplicateNamedArg          Code = "E002A"
	CodeModuleNotFound             Code = "E0030"
	CodeCircularImport             Code = "E0031"
	CodeExportNotFound             Code = "E0032"
	CodeTopLevelExecutionInImport  Code = "E0033"
	CodeDivisionByZero             Code = "E0040"
	CodeTypeMismatch               Code = "E0041"
	CodeNotCallable                Code = "E0042"
	CodeNotIndexable               Code = "E0043"
	CodeIndexOutOfBounds           Code = "E0044"
	CodeUseBeforeInit              Code = "E0045"
	CodeRecursionLimitExceeded     Code = "E0046"
	CodeForBoundsNotConst          Code = "E0047"
	CodePitchOutOfRange            Code = "E0050"
	CodeMeterNotAtBarStart         Code = "E0051"
	CodeBeatOutOfRange             Code = "E0052"
	CodeMainNotFound               Code = "E0053"
	CodeMainReturnedNonScore       Code = "E0054"
	CodeNegativeResolvedTime       Code = "E0055"
	CodeLetAtModuleScope           Code = "E0090"

	// Normalizer defaults (spec §4.H.5): a missing meter_map/tempo_map is
	// not an error, just a synthesized default worth surfacing.
	CodeMeterMapSynthesized Code = "W0001"
	CodeTempoMapSynthesized Code = "W0002"
)

// RelatedSpan is a secondary span attached to a diagnostic, e.g.
// "previously declared here".
type RelatedSpan struct {
	Span  source.Span
	Label string
}

// Diagnostic is one structured finding.
type Diagnostic struct {
	Severity     Severity
	Code         Code
	Message      string
	Span         source.Span
	Label        string
	Related      []RelatedSpan
	Notes        []string
	Suggestion   string
}

// Reporter collects diagnostics for one compilation and caches file
// contents (via a *source.Set) for snippet rendering. It is
// single-owner, confined to one compilation — never process-global.
type Reporter struct {
	files       *source.Set
	diagnostics []Diagnostic
}

// NewReporter creates a Reporter backed by the given file set.
func NewReporter(files *source.Set) *Reporter {
	return &Reporter{files: files}
}

// Report appends a diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns every diagnostic collected so far, in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// HasErrors reports whether any error-severity diagnostic was collected.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Counts returns the number of error- and warning-severity diagnostics.
func (r *Reporter) Counts() (errors, warnings int) {
	for _, d := range r.diagnostics {
		switch d.Severity {
		case Error:
			errors++
		case Warning:
			warnings++
		}
	}
	return
}

// Render formats every collected diagnostic in Rust-style output: a
// header line with severity/code/message, a "-->" file:line:col, a
// source snippet with a caret-underline, then related spans.
func (r *Reporter) Render() string {
	var b strings.Builder
	for i, d := range r.diagnostics {
		if i > 0 {
			b.WriteString("\n")
		}
		r.renderOne(&b, d)
	}
	return b.String()
}

func (r *Reporter) renderOne(b *strings.Builder, d Diagnostic) {
	fmt.Fprintf(b, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)

	f := r.files.Get(d.Span.FileID)
	if f == nil {
		return
	}
	fmt.Fprintf(b, "  --> %s:%d:%d\n", f.Path, d.Span.Start.Line, d.Span.Start.Col)

	r.renderSnippet(b, f, d.Span, d.Label)

	for _, rel := range d.Related {
		rf := r.files.Get(rel.Span.FileID)
		if rf == nil {
			continue
		}
		fmt.Fprintf(b, "  note: %s\n", rel.Label)
		fmt.Fprintf(b, "  --> %s:%d:%d\n", rf.Path, rel.Span.Start.Line, rel.Span.Start.Col)
		r.renderSnippet(b, rf, rel.Span, rel.Label)
	}

	for _, note := range d.Notes {
		fmt.Fprintf(b, "  = note: %s\n", note)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(b, "  = suggestion: %s\n", d.Suggestion)
	}
}

func (r *Reporter) renderSnippet(b *strings.Builder, f *source.File, span source.Span, label string) {
	line := f.LineText(span.Start.Line)
	gutter := fmt.Sprintf("%d", span.Start.Line)
	fmt.Fprintf(b, "%s | %s\n", gutter, line)

	underlineLen := 1
	if span.End.Line == span.Start.Line && span.End.Col > span.Start.Col {
		underlineLen = span.End.Col - span.Start.Col
	}
	pad := strings.Repeat(" ", len(gutter)+3+span.Start.Col-1)
	caret := pad + strings.Repeat("^", underlineLen)
	if label != "" {
		caret += " " + label
	}
	fmt.Fprintln(b, caret)
}
