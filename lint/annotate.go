// Copyright © 2024 The perlscope authors

package lint

import (
	"github.com/luthersystems/perlscope/diagnostic"
)

// Annotated converts d into a diagnostic.Diagnostic for rendering as an
// annotated source snippet. Notes become help lines and a note explains how
// to suppress the check.
func (d Diagnostic) Annotated() diagnostic.Diagnostic {
	out := diagnostic.Diagnostic{
		Severity: annotatedSeverity(d.Severity),
		Code:     d.Analyzer,
		Message:  d.Message,
		Help:     append([]string(nil), d.Notes...),
	}
	if d.Pos.Line > 0 {
		span := diagnostic.Span{
			File: d.Pos.File,
			Line: d.Pos.Line,
			Col:  d.Pos.Col,
		}
		if d.End.Line == d.Pos.Line && d.End.Col > d.Pos.Col {
			span.EndCol = d.End.Col - 1
		}
		out.Spans = append(out.Spans, span)
	}
	if d.Analyzer != SyntaxAnalyzer {
		out.Notes = append(out.Notes, "to suppress: add \"# nolint:"+d.Analyzer+"\" as a comment on this line")
	}
	return out
}

func annotatedSeverity(s Severity) diagnostic.Severity {
	switch s {
	case SeverityError:
		return diagnostic.SeverityError
	case SeverityInfo:
		return diagnostic.SeverityInfo
	default:
		return diagnostic.SeverityWarning
	}
}
