/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package message

import (
	"github.com/dillonhicks/msgparse/pkg/scanner"
)

// Symbols are the unique special symbols of a token stream, before any link
// is formatted.
type Symbols struct {
	Mentions  []string
	Emoticons []string
	URLs      []string
}

// Extract walks tokens, descending into parentheticals which are not
// emoticons, and collects unique mentions, emoticons and url locators in the
// order they appear.
func Extract(tokens []scanner.Token) Symbols {
	e := extractor{
		seen: map[scanner.TokenType]map[string]struct{}{
			scanner.TOK_MENTION:       {},
			scanner.TOK_PARENTHETICAL: {},
			scanner.TOK_URL:           {},
		},
	}
	e.walk(tokens)
	return e.symbols
}

type extractor struct {
	symbols Symbols
	seen    map[scanner.TokenType]map[string]struct{}
}

func (e *extractor) unique(t scanner.TokenType, value string) bool {
	if _, ok := e.seen[t][value]; ok {
		return false
	}
	e.seen[t][value] = struct{}{}
	return true
}

func (e *extractor) walk(tokens []scanner.Token) {
	for _, t := range tokens {
		switch t.Type {
		case scanner.TOK_MENTION:
			if e.unique(t.Type, t.Value) {
				e.symbols.Mentions = append(e.symbols.Mentions, t.Value)
			}
		case scanner.TOK_PARENTHETICAL:
			if !IsEmoticon(t.Value) {
				e.walk(t.Children)
				continue
			}
			if e.unique(t.Type, t.Value) {
				e.symbols.Emoticons = append(e.symbols.Emoticons, t.Value)
			}
		case scanner.TOK_URL:
			if e.unique(t.Type, t.Value) {
				e.symbols.URLs = append(e.symbols.URLs, t.Value)
			}
		}
	}
}

// IsEmoticon reports whether the inner text of a parenthetical names an
// emoticon: 1 to 15 ASCII letters or digits.
func IsEmoticon(name string) bool {
	if len(name) == 0 || len(name) > MaxEmoticonLength {
		return false
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
