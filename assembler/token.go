package assembler

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	// Identifier covers labels, mnemonics, register names and directive names.
	Identifier Kind = iota
	// Number is an integer literal (decimal, 0x-hex or 0b-binary).
	Number
	// String is a double-quoted string literal, quotes included in Text.
	String
	// Colon terminates a label definition.
	Colon
	// Comma separates operands.
	Comma
	// Hash introduces an immediate value.
	Hash
	// LBracket opens a memory operand.
	LBracket
	// RBracket closes a memory operand.
	RBracket
	// Bang marks pre-index writeback after a memory operand.
	Bang
	// Dot introduces a directive.
	Dot
	// Plus is reserved for offset expressions.
	Plus
	// Minus negates a number or offset.
	Minus
	// Newline ends a statement.
	Newline
	// EOF marks the end of input.
	EOF
	// Illegal carries a diagnostic message in Text.
	Illegal
)

var kindNames = map[Kind]string{
	Identifier: "identifier",
	Number:     "number",
	String:     "string",
	Colon:      "':'",
	Comma:      "','",
	Hash:       "'#'",
	LBracket:   "'['",
	RBracket:   "']'",
	Bang:       "'!'",
	Dot:        "'.'",
	Plus:       "'+'",
	Minus:      "'-'",
	Newline:    "newline",
	EOF:        "end of input",
	Illegal:    "error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical element with its source text and 1-based line.
type Token struct {
	Kind  Kind
	Text  string
	Line  int
	Value int64 // numeric value for Number tokens
}
