// Copyright © 2024 The perlscope authors

package diagnostic

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// ParseColorMode returns the mode named by s: auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: want auto, always or never", s)
	}
}

type paint func(a ...interface{}) string

// palette holds the styles of diagnostic output.
type palette struct {
	bold     paint
	boldRed  paint
	yellow   paint
	boldBlue paint
	boldCyan paint
	green    paint
}

func newPalette(enabled bool) palette {
	style := func(attrs ...color.Attribute) paint {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		bold:     style(color.Bold),
		boldRed:  style(color.FgRed, color.Bold),
		yellow:   style(color.FgYellow, color.Bold),
		boldBlue: style(color.FgBlue, color.Bold),
		boldCyan: style(color.FgCyan, color.Bold),
		green:    style(color.FgGreen, color.Bold),
	}
}

var (
	ansiPalette = newPalette(true)
	noPalette   = newPalette(false)
)

// severityStyle returns the style of the severity label.
func (p palette) severityStyle(s Severity) paint {
	switch s {
	case SeverityError:
		return p.boldRed
	case SeverityWarning:
		return p.yellow
	case SeverityInfo:
		return p.green
	default:
		return p.boldCyan
	}
}

// choosePalette selects the appropriate color palette based on the mode
// and the output file descriptor.
func choosePalette(mode ColorMode, w *os.File) palette {
	switch mode {
	case ColorAlways:
		return ansiPalette
	case ColorNever:
		return noPalette
	default: // ColorAuto
		if os.Getenv("NO_COLOR") != "" {
			return noPalette
		}
		if !isTerminal(w) {
			return noPalette
		}
		return ansiPalette
	}
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
