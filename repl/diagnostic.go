// Copyright © 2024 The perlscope authors

package repl

import (
	"io"

	"github.com/luthersystems/perlscope/diagnostic"
	"github.com/luthersystems/perlscope/lint"
)

// renderDiagnostics renders findings as annotated snippets of the session
// buffer.
func renderDiagnostics(w io.Writer, sess *Session, color diagnostic.ColorMode, diags []lint.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	src := []byte(sess.Source())
	r := &diagnostic.Renderer{
		Color:        color,
		SourceReader: func(string) ([]byte, error) { return src, nil },
	}
	ds := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, d := range diags {
		ad := d.Annotated()
		ad.Notes = []string{"use :reset to clear the buffer"}
		ds = append(ds, ad)
	}
	_ = r.RenderAll(w, ds)
}
