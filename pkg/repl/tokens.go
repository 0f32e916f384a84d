/*
 * Copyright (c) 2023, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/dillonhicks/msgparse/pkg/scanner"
	"github.com/fatih/color"
)

var tokenColors = map[scanner.TokenType]func(a ...interface{}) string{
	scanner.TOK_MENTION:       color.New(color.FgCyan, color.Bold).SprintFunc(),
	scanner.TOK_PARENTHETICAL: color.New(color.FgYellow).SprintFunc(),
	scanner.TOK_URL:           color.New(color.FgGreen, color.Underline).SprintFunc(),
	scanner.TOK_WORD:          fmt.Sprint,
}

// TokenWriter prints the token tree of a message, one token per line,
// coloured by token type when the terminal supports it.
type TokenWriter struct {
	w io.Writer
}

func NewTokenWriter(w io.Writer) TokenWriter {
	return TokenWriter{w}
}

func (tw TokenWriter) Write(tokens []scanner.Token) error {
	var b strings.Builder
	writeTokens(&b, tokens, 0)
	_, err := io.WriteString(tw.w, b.String())
	return err
}

func writeTokens(b *strings.Builder, tokens []scanner.Token, indent int) {
	for _, tok := range tokens {
		paint, ok := tokenColors[tok.Type]
		if !ok {
			paint = fmt.Sprint
		}

		b.WriteString(strings.Repeat("    ", indent))
		b.WriteString(paint(tok.ToString()))
		if tok.Bare {
			b.WriteString(" bare")
		}
		b.WriteByte('\n')

		writeTokens(b, tok.Children, indent+1)
	}
}
