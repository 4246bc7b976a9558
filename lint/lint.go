// Copyright © 2024 The perlscope authors

// Package lint reports problems in Perl source files.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives a parsed file and reports diagnostics. The framework parses
// the file once, runs scope analysis once, hands the results to every
// analyzer and then filters, sorts and formats what they report.
//
// Most checks are thin views over the scope analyzer in package analysis,
// one per issue kind. A few inspect the syntax tree directly.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/perlscope/analysis"
	"github.com/luthersystems/perlscope/ast"
	"github.com/luthersystems/perlscope/parser"
	"github.com/luthersystems/perlscope/parser/token"
	"github.com/luthersystems/perlscope/pragma"
)

// TracerName names the tracer used for lint spans.
const TracerName = "github.com/luthersystems/perlscope/lint"

// SyntaxAnalyzer is the analyzer name attached to parse errors.
const SyntaxAnalyzer = "syntax"

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity returns the severity named s.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	default:
		return severityUnset, fmt.Errorf("unknown severity: %q", s)
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sev, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-variable").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Source is the file content.
	Source []byte

	// Tree is the parsed file. It is never nil, although it may be partial
	// when the file has syntax errors.
	Tree *ast.Tree

	// Pragmas records the strict and warnings state across the file.
	Pragmas *pragma.Map

	// Lines indexes Source by line.
	Lines *token.Lines

	// Issues are the findings of scope analysis in traversal order. Every
	// analyzer of a pass sees the same slice and must not modify it.
	Issues []analysis.ScopeIssue

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic covering span.
func (p *Pass) Reportf(span ast.Span, format string, args ...interface{}) {
	p.Report(p.diagnosticAt(span, fmt.Sprintf(format, args...)))
}

// ReportIssue reports a scope issue, attaching its suggested fix as a note.
func (p *Pass) ReportIssue(issue analysis.ScopeIssue) {
	d := p.diagnosticAt(ast.Span{Start: issue.Range.Start, End: issue.Range.End}, issue.Description)
	d.Unnecessary = issue.Kind == analysis.UnusedVariable || issue.Kind == analysis.UnusedParameter
	p.ReportWithNotes(d, analysis.Suggestion(issue.Kind, issue.Name))
}

func (p *Pass) diagnosticAt(span ast.Span, msg string) Diagnostic {
	return Diagnostic{
		Pos:     positionOf(p.Filename, p.Lines, span.Start),
		End:     positionOf(p.Filename, p.Lines, span.End),
		Span:    span,
		Message: msg,
	}
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// End is the location just beyond the problem.
	End Position `json:"end"`

	// Span is the byte range of the problem.
	Span ast.Span `json:"-"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`

	// Unnecessary marks code that can be removed, such as an unused
	// variable. Editors typically render it faded.
	Unnecessary bool `json:"unnecessary,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

// String returns the position in file:line format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

func positionOf(file string, lines *token.Lines, offset int) Position {
	line, col := lines.Position(offset)
	return Position{File: file, Line: line, Col: col}
}

// String returns the diagnostic in go vet style: file:line: message (analyzer)
// with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer

	// Config adjusts analysis and severities. It may be nil.
	Config *Config
}

// NewLinter returns a Linter running the analyzers cfg enables.
func NewLinter(cfg *Config) (*Linter, error) {
	analyzers, err := cfg.Select(DefaultAnalyzers())
	if err != nil {
		return nil, err
	}
	return &Linter{Analyzers: analyzers, Config: cfg}, nil
}

// LintFile analyzes a single source file and returns all diagnostics. Syntax
// errors do not stop analysis; they are reported as diagnostics of the
// syntax analyzer. The error is non-nil only when an analyzer fails.
func (l *Linter) LintFile(ctx context.Context, source []byte, filename string) ([]Diagnostic, error) {
	ctx, span := l.startSpan(ctx, source, filename)
	defer span.End()

	_, parseSpan := otel.Tracer(TracerName).Start(ctx, "parse")
	tree, errs := parser.Parse(filename, source)
	parseSpan.SetAttributes(attribute.Int("errors", len(errs)))
	parseSpan.End()

	return l.lint(ctx, span, source, filename, tree, errs)
}

// LintTree is like LintFile for a file the caller already parsed. errs are
// the parse errors returned with tree.
func (l *Linter) LintTree(ctx context.Context, source []byte, filename string, tree *ast.Tree, errs []*token.LocationError) ([]Diagnostic, error) {
	ctx, span := l.startSpan(ctx, source, filename)
	defer span.End()
	return l.lint(ctx, span, source, filename, tree, errs)
}

func (l *Linter) startSpan(ctx context.Context, source []byte, filename string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "perlscope.lint",
		trace.WithAttributes(
			attribute.String("file", filename),
			attribute.Int("bytes", len(source)),
		))
}

func (l *Linter) lint(ctx context.Context, span trace.Span, source []byte, filename string, tree *ast.Tree, errs []*token.LocationError) ([]Diagnostic, error) {
	cfg := l.Config
	lines := token.NewLines(source)
	var opts []pragma.Option
	if cfg.assumeStrict() {
		opts = append(opts, pragma.WithBase(pragma.Strict))
	}
	pragmas := pragma.Build(tree, opts...)

	_, analyzeSpan := otel.Tracer(TracerName).Start(ctx, "analyze")
	issues := analysis.New(cfg.analysisConfig(lines)).Analyze(tree, source, pragmas)
	analyzeSpan.SetAttributes(attribute.Int("issues", len(issues)))
	analyzeSpan.End()

	var all []Diagnostic
	if !cfg.ignoreSyntax() {
		all = append(all, syntaxDiagnostics(filename, lines, errs)...)
	}

	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer: analyzer,
			Filename: filename,
			Source:   source,
			Tree:     tree,
			Pragmas:  pragmas,
			Lines:    lines,
			Issues:   issues,
		}
		if err := analyzer.Run(pass); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		all = append(all, pass.diagnostics...)
	}

	for i := range all {
		if sev, ok := cfg.severity(all[i].Analyzer); ok {
			all[i].Severity = sev
		}
	}

	// Filter suppressed diagnostics (# nolint comments)
	all = l.filterSuppressed(all, tree, lines, filename)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pos.Line != all[j].Pos.Line {
			return all[i].Pos.Line < all[j].Pos.Line
		}
		return all[i].Pos.Col < all[j].Pos.Col
	})

	span.SetAttributes(attribute.Int("issues", len(all)))
	return all, nil
}

// LintFiles reads and lints each path in turn. Diagnostics are grouped by
// file in the order given.
func (l *Linter) LintFiles(ctx context.Context, paths []string) ([]Diagnostic, error) {
	var all []Diagnostic
	for _, path := range paths {
		source, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		diags, err := l.LintFile(ctx, source, path)
		if err != nil {
			return nil, err
		}
		all = append(all, diags...)
	}
	return all, nil
}

func syntaxDiagnostics(filename string, lines *token.Lines, errs []*token.LocationError) []Diagnostic {
	diags := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		d := Diagnostic{
			Message:  err.Err.Error(),
			Analyzer: SyntaxAnalyzer,
			Severity: SeverityError,
		}
		if loc := err.Source; loc != nil {
			d.Span = ast.Span{Start: loc.Pos, End: max(loc.End, loc.Pos)}
			d.Pos = positionOf(filename, lines, loc.Pos)
			d.End = positionOf(filename, lines, d.Span.End)
		}
		diags = append(diags, d)
	}
	return diags
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
