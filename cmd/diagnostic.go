// Copyright © 2024 The perlscope authors

package cmd

import (
	"io"

	"github.com/luthersystems/perlscope/diagnostic"
	"github.com/luthersystems/perlscope/lint"
)

func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(colorFlag)
	if err != nil {
		return diagnostic.ColorAuto
	}
	return mode
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// renderLintDiagnostics renders findings as annotated source snippets
// followed by a summary line.
func renderLintDiagnostics(w io.Writer, r *diagnostic.Renderer, diags []lint.Diagnostic) error {
	ds := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, ld := range diags {
		ds = append(ds, ld.Annotated())
	}
	if err := r.RenderAll(w, ds); err != nil {
		return err
	}
	return r.Summary(w, ds)
}
