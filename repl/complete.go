// Copyright © 2024 The perlscope authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/perlscope/analysis"
)

// completer implements readline.AutoCompleter. Words starting with a sigil
// complete to variables declared in the session; other words complete to
// subs defined in the session and Perl built-in functions.
type completer struct {
	session *Session
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && isWordRune(line[start-1]) {
		start--
	}
	if start > 0 && isSigil(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.candidates(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len([]rune(prefix))
}

func (c *completer) candidates(prefix string) []string {
	var pool []string
	if isSigil(rune(prefix[0])) {
		pool = c.session.Variables()
	} else {
		pool = append(c.session.Subroutines(), analysis.KnownFunctions()...)
	}
	seen := make(map[string]bool)
	var result []string
	for _, name := range pool {
		if strings.HasPrefix(name, prefix) && name != prefix && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

func isWordRune(r rune) bool {
	return r == '_' || r == ':' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isSigil(r rune) bool {
	return r == '$' || r == '@' || r == '%'
}
