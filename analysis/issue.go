// Copyright © 2024 The perlscope authors

package analysis

import "fmt"

// IssueKind classifies a ScopeIssue.
type IssueKind int

const (
	VariableShadowing IssueKind = iota
	UnusedVariable
	UndeclaredVariable
	VariableRedeclaration
	DuplicateParameter
	ParameterShadowsGlobal
	UnusedParameter
	UnquotedBareword
	UninitializedVariable

	numIssueKinds
)

var issueKindStrings = [numIssueKinds]string{
	VariableShadowing:      "variable-shadowing",
	UnusedVariable:         "unused-variable",
	UndeclaredVariable:     "undeclared-variable",
	VariableRedeclaration:  "variable-redeclaration",
	DuplicateParameter:     "duplicate-parameter",
	ParameterShadowsGlobal: "parameter-shadows-global",
	UnusedParameter:        "unused-parameter",
	UnquotedBareword:       "unquoted-bareword",
	UninitializedVariable:  "uninitialized-variable",
}

// IssueKinds returns every issue kind in declaration order.
func IssueKinds() []IssueKind {
	kinds := make([]IssueKind, numIssueKinds)
	for i := range kinds {
		kinds[i] = IssueKind(i)
	}
	return kinds
}

// ParseIssueKind returns the kind whose String is name.
func ParseIssueKind(name string) (IssueKind, bool) {
	for i, s := range issueKindStrings {
		if s == name {
			return IssueKind(i), true
		}
	}
	return 0, false
}

func (k IssueKind) String() string {
	if k < 0 || k >= numIssueKinds {
		return fmt.Sprintf("issue-kind(%d)", int(k))
	}
	return issueKindStrings[k]
}

// MarshalText encodes k by name.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Range is a half-open byte range [Start, End) in the analyzed source.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ScopeIssue is a single finding of the scope analyzer.
type ScopeIssue struct {
	Kind IssueKind `json:"kind"`
	// Name is the variable (with sigil) or bareword concerned.
	Name        string `json:"name"`
	Line        int    `json:"line"`
	Range       Range  `json:"range"`
	Description string `json:"description"`
}

// Suggestion returns a short hint on how to resolve an issue of the given
// kind concerning name.
func Suggestion(kind IssueKind, name string) string {
	switch kind {
	case VariableShadowing:
		return fmt.Sprintf("Consider renaming '%s' to avoid shadowing", name)
	case UnusedVariable:
		return fmt.Sprintf("Remove unused variable '%s' or prefix it with an underscore", name)
	case UndeclaredVariable:
		return fmt.Sprintf("Declare '%s' with 'my', 'our', or 'local'", name)
	case VariableRedeclaration:
		return fmt.Sprintf("Remove duplicate declaration of '%s'", name)
	case DuplicateParameter:
		return fmt.Sprintf("Remove or rename duplicate parameter '%s'", name)
	case ParameterShadowsGlobal:
		return fmt.Sprintf("Rename parameter '%s' to avoid shadowing", name)
	case UnusedParameter:
		return fmt.Sprintf("Prefix '%s' with an underscore or remove it", name)
	case UnquotedBareword:
		return fmt.Sprintf("Quote bareword '%s' or declare it as a filehandle", name)
	case UninitializedVariable:
		return fmt.Sprintf("Initialize '%s' before use", name)
	}
	return ""
}

// Suggestions returns the suggestion for each issue.
func Suggestions(issues []ScopeIssue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = Suggestion(issue.Kind, issue.Name)
	}
	return out
}
