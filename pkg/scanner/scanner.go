/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Scanner struct {
	Input     string
	Start     int
	Pos       int
	LastWidth int

	// Offset is added to every emitted location. It is non-zero when the
	// scanner runs over the inner text of a parenthetical.
	Offset int
}

// Scan returns every token of input, in order, without the trailing
// TOK_EOF.
func Scan(input string) []Token {
	s := Scanner{Input: input}
	return s.scanAll()
}

func (s *Scanner) scanAll() []Token {
	var tokens []Token
	for {
		t := s.Emit()
		if t.Type == TOK_EOF {
			return tokens
		}
		tokens = append(tokens, t)
	}
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isWordBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '('
}

// MatchMention returns the length of the next token, assuming it is a
// mention.
//
// Grammar:
//
//	mention         = "@" 1*(ALPHA / DIGIT / "_")
func (s *Scanner) MatchMention() int {
	r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	if r != '@' {
		return 0
	}

	i := s.Pos + width
	size := 0
	r, width = utf8.DecodeRuneInString(s.Input[i:])
	for i < len(s.Input) && isIdentifierRune(r) {
		size += width
		i += width
		r, width = utf8.DecodeRuneInString(s.Input[i:])
	}

	if size == 0 {
		return 0
	}

	return size + 1
}

// MatchScheme returns the length of an http or https scheme prefix at the
// current position, ignoring case.
//
// Grammar:
//
//	scheme          = ("http" / "https") "://"
func (s *Scanner) MatchScheme() int {
	rest := s.Input[s.Pos:]
	for _, prefix := range []string{"https://", "http://"} {
		if len(rest) >= len(prefix) && strings.EqualFold(rest[:len(prefix)], prefix) {
			return len(prefix)
		}
	}
	return 0
}

// MatchURL returns the length of the next token, assuming it is a URL with
// an explicit scheme. Trailing punctuation is not part of the URL.
//
// Grammar:
//
//	url             = scheme 1*(VCHAR)
func (s *Scanner) MatchURL() int {
	scheme := s.MatchScheme()
	if scheme == 0 {
		return 0
	}

	size := s.SkipToBoundary(unicode.IsSpace)
	locator := trimTrailing(s.Input[s.Pos : s.Pos+size])
	if len(locator) <= scheme {
		return 0
	}

	return len(locator)
}

// MatchParenthetical returns the length of the next token, assuming it is a
// balanced parenthetical group. Zero means the group never closes.
//
// Grammar:
//
//	parenthetical   = "(" *(parenthetical / %x00-27 / %x2A-10FFFF) ")"
func (s *Scanner) MatchParenthetical() int {
	if s.Pos >= len(s.Input) || s.Input[s.Pos] != '(' {
		return 0
	}

	depth := 0
	for i := s.Pos; i < len(s.Input); i++ {
		switch s.Input[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i - s.Pos + 1
			}
		}
	}

	return 0
}

// MatchWord returns the length of the next token, assuming it is a word. The
// first rune is always consumed, so an unbalanced "(" starts a word.
//
// Grammar:
//
//	word            = 1*(VCHAR)
func (s *Scanner) MatchWord() int {
	r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	if s.Pos >= len(s.Input) || unicode.IsSpace(r) {
		return 0
	}

	size := width
	r, width = utf8.DecodeRuneInString(s.Input[s.Pos+size:])
	for s.Pos+size < len(s.Input) && !isWordBoundary(r) {
		size += width
		r, width = utf8.DecodeRuneInString(s.Input[s.Pos+size:])
	}

	return size
}

// IsBareDomain reports whether a word looks like a scheme-less locator such
// as "coffee.com" or "dillonhicks.io/index.html".
//
// Grammar:
//
//	bare-domain     = (ALPHA / DIGIT) *VCHAR "." 2*6ALPHA
func IsBareDomain(word string) bool {
	if word == "" || strings.ContainsAny(word, "@()") {
		return false
	}

	r, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return false
	}

	host := word
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}

	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 {
		return false
	}

	tld := host[dot+1:]
	if len(tld) < 2 || len(tld) > 6 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		c := tld[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}

	return true
}

// trimTrailing strips sentence punctuation and unbalanced closing
// parentheses from the end of a locator.
func trimTrailing(locator string) string {
	for len(locator) > 0 {
		last := locator[len(locator)-1]
		switch {
		case strings.IndexByte(".,;:!?'\"", last) >= 0:
			locator = locator[:len(locator)-1]
		case last == ')' && strings.Count(locator, "(") < strings.Count(locator, ")"):
			locator = locator[:len(locator)-1]
		default:
			return locator
		}
	}
	return locator
}

// Emit the next Token found on Scanner.Input
func (s *Scanner) Emit() Token {
	var t Token

	oldStart := s.Start

	for s.Pos < len(s.Input) {
		r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
		if !unicode.IsSpace(r) {
			break
		}
		s.Pos += width
	}
	s.Start = s.Pos

	if s.Pos >= len(s.Input) {
		t.Type = TOK_EOF
		t.Location = Location{Start: s.Offset + s.Pos, End: s.Offset + s.Pos}
		s.LastWidth = s.Start - oldStart
		return t
	}

	r, _ := utf8.DecodeRuneInString(s.Input[s.Pos:])
	skip := 0

	wordFallthrough := func() {
		skip = s.MatchWord()
		t.Type = TOK_WORD
		t.Value = s.Input[s.Pos : s.Pos+skip]

		locator := trimTrailing(t.Value)
		if IsBareDomain(locator) {
			skip = len(locator)
			t.Type = TOK_URL
			t.Value = locator
			t.Bare = true
		}
	}

	switch {
	case r == '(':
		skip = s.MatchParenthetical()
		if skip == 0 {
			wordFallthrough()
			break
		}
		t.Type = TOK_PARENTHETICAL
		t.Value = s.Input[s.Pos+1 : s.Pos+skip-1]

		inner := Scanner{Input: t.Value, Offset: s.Offset + s.Pos + 1}
		t.Children = inner.scanAll()
	case r == '@':
		skip = s.MatchMention()
		if skip == 0 {
			wordFallthrough()
			break
		}
		t.Type = TOK_MENTION
		t.Value = s.Input[s.Pos+1 : s.Pos+skip]
	case r == 'h' || r == 'H':
		skip = s.MatchURL()
		if skip == 0 {
			wordFallthrough()
			break
		}
		t.Type = TOK_URL
		t.Value = s.Input[s.Pos : s.Pos+skip]
	default:
		wordFallthrough()
	}

	s.Pos = s.Start + skip

	t.Lexeme = s.Input[s.Start:s.Pos]
	t.Location = Location{Start: s.Offset + s.Start, End: s.Offset + s.Pos}
	s.Start = s.Pos

	s.LastWidth = s.Start - oldStart

	return t
}

// Rewind the last read token
func (s *Scanner) Rewind() {
	s.Start -= s.LastWidth
	s.Pos = s.Start
	s.LastWidth = 0
}

type boundaryFunc func(rune) bool

// SkipToBoundary returns the number of bytes until the next delimiter.
func (s *Scanner) SkipToBoundary(boundary boundaryFunc) int {
	r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	size := 0

	for s.Pos+size < len(s.Input) && !boundary(r) {
		size += width
		r, width = utf8.DecodeRuneInString(s.Input[s.Pos+size:])
	}

	return size
}
