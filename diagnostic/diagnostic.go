// Copyright © 2024 The perlscope authors

// Package diagnostic provides Rust-style annotated rendering of findings for
// perlscope CLI output. It does not depend on the lint or analysis packages
// so that any command can use it without creating import cycles.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start byte column
	EndCol int    // 1-based inclusive end byte column (0 = auto-detect from source)
	Label  string // text shown after the underline
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing help and note lines.
type Diagnostic struct {
	Severity Severity
	// Code names the check that produced the diagnostic, if any.
	Code    string
	Message string
	Spans   []Span
	Help    []string // "= help:" lines, such as a suggested fix
	Notes   []string // "= note:" lines
}
