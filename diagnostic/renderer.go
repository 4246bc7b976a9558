// Copyright © 2024 The perlscope authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

// Renderer formats diagnostics as Rust-style annotated source snippets. A
// Renderer caches the source files it reads and is not safe for concurrent
// use.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	sources map[string][]string
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, fileFromWriter(w))
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	// Header: "error[check]: message"
	r.writeHeader(ew, d, p)

	for _, span := range d.Spans {
		r.writeSpan(ew, span, d.Severity, p)
	}

	for _, help := range d.Help {
		ew.printf("   %s help: %s\n", p.boldCyan("="), help)
	}
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.boldCyan("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes a one line count of diagnostics by severity, such as
// "2 errors, 1 warning". Nothing is written when diags is empty.
func (r *Renderer) Summary(w io.Writer, diags []Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	p := choosePalette(r.Color, fileFromWriter(w))
	var counts [SeverityNote + 1]int
	for _, d := range diags {
		if d.Severity >= 0 && d.Severity <= SeverityNote {
			counts[d.Severity]++
		}
	}
	var parts []string
	for sev, n := range counts {
		if n == 0 {
			continue
		}
		label := Severity(sev).String()
		if n > 1 {
			label += "s"
		}
		parts = append(parts, p.severityStyle(Severity(sev))(fmt.Sprintf("%d %s", n, label)))
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(parts, ", "))
	return err
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes. This avoids checking every fmt.Fprintf return value.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	label := d.Severity.String()
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	ew.printf("%s: %s\n", p.severityStyle(d.Severity)(label), p.bold(d.Message))
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, sev Severity, p palette) {
	// Location line: "  --> file:line:col"
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	ew.printf("  %s %s\n", p.boldBlue("-->"), loc)

	source, ok := r.sourceLine(span.File, span.Line)
	if !ok {
		// No source available: just show the location line with a gutter
		ew.printf("   %s\n", p.boldBlue("|"))
		return
	}

	lineStr := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(lineStr))
	gutter := p.boldBlue(pad + " |")

	ew.printf(" %s\n", gutter)
	ew.printf(" %s  %s\n", p.boldBlue(lineStr+" |"), expandTabs(source))

	col := max(span.Col, 1)
	col = min(col, len(source)+1)
	endCol := span.EndCol
	if endCol <= 0 {
		endCol = detectEndCol(source, col)
	}
	endCol = min(max(endCol, col), max(len(source), col))

	prefix := source[:col-1]
	marked := ""
	if col <= len(source) {
		marked = source[col-1 : endCol]
	}
	underPad := strings.Repeat(" ", displayWidth(prefix))
	underline := strings.Repeat("^", max(displayWidth(marked), 1))

	style := p.severityStyle(sev)
	ew.printf(" %s  %s%s", gutter, underPad, style(underline))
	if span.Label != "" {
		ew.printf(" %s", style(span.Label))
	}
	ew.print("\n")

	// Trailing gutter
	ew.printf(" %s\n", gutter)
}

// sourceLine returns the 1-based line of file.
func (r *Renderer) sourceLine(file string, line int) (string, bool) {
	if line <= 0 || file == "" {
		return "", false
	}
	lines, ok := r.sources[file]
	if !ok {
		lines = r.readLines(file)
		if r.sources == nil {
			r.sources = make(map[string][]string)
		}
		r.sources[file] = lines
	}
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

func (r *Renderer) readLines(file string) []string {
	reader := r.SourceReader
	if reader == nil {
		reader = func(name string) ([]byte, error) {
			return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
		}
	}
	data, err := reader(file)
	if err != nil {
		return nil
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(nil, len(data)+1)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return lines
}

// detectEndCol scans from col to the end of the current word. Perl sigils
// and package separators are part of the word.
func detectEndCol(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	end := col - 1 // 0-based
	for end < len(source) {
		ch, size := utf8.DecodeRuneInString(source[end:])
		if strings.ContainsRune(" \t;,()[]{}=", ch) {
			break
		}
		end += size
	}
	if end == col-1 {
		return col // single character
	}
	return end // convert back to 1-based end column
}

// displayWidth returns the terminal display width of s, expanding tabs.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += tabWidth
		} else {
			w += runewidth.RuneWidth(ch)
		}
	}
	return w
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// fileFromWriter attempts to extract an *os.File from a writer for terminal
// detection. Returns nil if the writer is not backed by a file.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
