/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package scanner

import "fmt"

type TokenType int

const (
	TOK_INVALID TokenType = iota
	TOK_EOF

	TOK_WORD
	TOK_MENTION
	TOK_PARENTHETICAL
	TOK_URL
)

func (t TokenType) ToString() string {
	switch t {
	case TOK_INVALID:
		return "TOK_INVALID"
	case TOK_EOF:
		return "TOK_EOF"
	case TOK_WORD:
		return "TOK_WORD"
	case TOK_MENTION:
		return "TOK_MENTION"
	case TOK_PARENTHETICAL:
		return "TOK_PARENTHETICAL"
	case TOK_URL:
		return "TOK_URL"
	}
	return "TOK_UNKNOWN"
}

func (t TokenType) String() string {
	return t.ToString()
}

// Location is a byte range into the scanned input. End is exclusive.
type Location struct {
	Start int
	End   int
}

type Token struct {
	Type     TokenType
	Lexeme   string
	Location Location

	// Value is the meaningful part of the lexeme: the name of a mention, the
	// inner text of a parenthetical, the locator of a URL.
	Value string

	// Bare is set on URL tokens which were recognized without a scheme.
	Bare bool

	// Children holds the tokens of a parenthetical's inner text, with
	// locations relative to the outer input.
	Children []Token
}

func (t Token) ToString() string {
	return fmt.Sprintf("%s %q [%d:%d]", t.Type.ToString(), t.Lexeme, t.Location.Start, t.Location.End)
}
