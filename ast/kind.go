// Copyright © 2024 The perlscope authors

package ast

// Kind discriminates the node variants of a Tree. The comment on each
// constant documents the layout of Node.Kids for that kind. Optional slots
// hold NoNode when absent.
type Kind uint8

const (
	Invalid Kind = iota

	// Program: Kids are the top-level statements.
	Program
	// ExpressionStatement: Kids[0] is the expression.
	ExpressionStatement
	// VariableDeclaration: Op is the declarator (my, our, local, state).
	// Kids[0] is the variable, Kids[1] the optional initializer.
	VariableDeclaration
	// VariableListDeclaration: Op is the declarator. Kids[0] is the optional
	// initializer, Kids[1:] are the declared variables.
	VariableListDeclaration
	// Variable: Sigil and Name hold the variable spelling, e.g. "$" and "x".
	Variable
	// Assignment: Op is the operator (=, +=, ||=, ...). Kids are [lhs, rhs].
	Assignment
	// Binary: Op is the operator. Subscripts use "{}" and "[]", method
	// arrows use "->". Kids are [left, right]. Name is "->" for a subscript
	// written through an arrow, which dereferences the left operand instead
	// of indexing a hash or array variable.
	Binary
	// Ternary: Kids are [condition, then, else].
	Ternary
	// Unary: Op is the prefix operator, including dereference casts
	// ("@{}", "%{}", "${}", "$#"). Kids[0] is the operand.
	Unary
	// Postfix: Op is the postfix operator (++, --). Kids[0] is the operand.
	Postfix
	// Number: Name is the literal text.
	Number
	// String: Op is the quote style (', q, heredoc). Name is the body.
	String
	// Interpolated: Op is the quote style (", qq, `, heredoc). Name is the
	// body. Kids are the expressions interpolated into the body.
	Interpolated
	// QuoteWords: Args are the words of a qw() list.
	QuoteWords
	// Regex: Op is the operator (m, qr, s, tr). Name is the pattern. Kids are
	// interpolated expressions.
	Regex
	// ArrayLiteral: Kids are the elements of an anonymous array or a hash
	// slice key list.
	ArrayLiteral
	// HashLiteral: Kids alternate key, value, key, value.
	HashLiteral
	// List: Op is "()" for a parenthesized list and "," for a bare comma
	// expression. Kids are the elements.
	List
	// Block: Kids are the statements.
	Block
	// Eval: Kids[0] is a block or an expression.
	Eval
	// Do: Kids[0] is a block or an expression.
	Do
	// If: Op is "if" or "unless". Kids are [cond, then] followed by elsif
	// pairs [cond, block] and an optional trailing else block.
	If
	// While: Op is "while" or "until". Kids are [cond, body, continue].
	While
	// For: C-style loop. Kids are [init, cond, update, body].
	For
	// Foreach: Kids are [variable, list, body]. The variable is usually a
	// VariableDeclaration.
	Foreach
	// StatementModifier: Op is the modifier keyword. Kids are
	// [statement, condition].
	StatementModifier
	// Subroutine: Name is empty for anonymous subs. Op is "sub" or
	// "method". Kids are [signature, body].
	Subroutine
	// Signature: Kids are parameter nodes.
	Signature
	// MandatoryParameter: Kids[0] is the variable.
	MandatoryParameter
	// OptionalParameter: Kids are [variable, default].
	OptionalParameter
	// SlurpyParameter: Kids[0] is the array or hash variable.
	SlurpyParameter
	// Return: Kids[0] is the optional value.
	Return
	// MethodCall: Name is the method. Kids are [invocant, args...].
	MethodCall
	// FunctionCall: Name is the function. Kids are the arguments.
	FunctionCall
	// IndirectCall: Name is the function. Kids are [object, args...], as in
	// "print $fh LIST" or "new Foo(...)".
	IndirectCall
	// Package: Name is the package. Kids[0] is the optional block.
	Package
	// Use: Name is the module, Args hold the raw argument text.
	Use
	// No: Name is the module, Args hold the raw argument text.
	No
	// PhaseBlock: Name is BEGIN, END, INIT, CHECK or UNITCHECK. Kids[0] is
	// the block.
	PhaseBlock
	// LabeledStatement: Name is the label. Kids[0] is the statement.
	LabeledStatement
	// LoopControl: Op is last, next or redo. Name is the optional label.
	LoopControl
	// Tie: Kids are [variable, class, args...].
	Tie
	// Untie: Kids[0] is the variable.
	Untie
	// Identifier: Name is the bareword.
	Identifier
	// Readline: Name is the filehandle spelling. Kids[0] is the optional
	// filehandle expression.
	Readline
	// Error: Name is the parse error message. Kids are whatever partial
	// nodes were recovered.
	Error

	numKinds
)

var kindStrings = [numKinds]string{
	Invalid:                 "invalid",
	Program:                 "program",
	ExpressionStatement:     "expression-statement",
	VariableDeclaration:     "variable-declaration",
	VariableListDeclaration: "variable-list-declaration",
	Variable:                "variable",
	Assignment:              "assignment",
	Binary:                  "binary",
	Ternary:                 "ternary",
	Unary:                   "unary",
	Postfix:                 "postfix",
	Number:                  "number",
	String:                  "string",
	Interpolated:            "interpolated",
	QuoteWords:              "qw",
	Regex:                   "regex",
	ArrayLiteral:            "array-literal",
	HashLiteral:             "hash-literal",
	List:                    "list",
	Block:                   "block",
	Eval:                    "eval",
	Do:                      "do",
	If:                      "if",
	While:                   "while",
	For:                     "for",
	Foreach:                 "foreach",
	StatementModifier:       "statement-modifier",
	Subroutine:              "subroutine",
	Signature:               "signature",
	MandatoryParameter:      "mandatory-parameter",
	OptionalParameter:       "optional-parameter",
	SlurpyParameter:         "slurpy-parameter",
	Return:                  "return",
	MethodCall:              "method-call",
	FunctionCall:            "function-call",
	IndirectCall:            "indirect-call",
	Package:                 "package",
	Use:                     "use",
	No:                      "no",
	PhaseBlock:              "phase-block",
	LabeledStatement:        "labeled-statement",
	LoopControl:             "loop-control",
	Tie:                     "tie",
	Untie:                   "untie",
	Identifier:              "identifier",
	Readline:                "readline",
	Error:                   "error",
}

func (k Kind) String() string {
	if k >= numKinds {
		return kindStrings[Invalid]
	}
	return kindStrings[k]
}

// IsSubscript reports whether op is one of the subscript operators "{}" or
// "[]".
func IsSubscript(op string) bool {
	return op == "{}" || op == "[]"
}
