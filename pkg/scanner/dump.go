/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package scanner

import (
	"strings"
)

// Dump renders tokens one per line, nesting the children of parentheticals
// one level deeper.
func Dump(tokens []Token) string {
	var b strings.Builder
	dump(&b, tokens, 0)
	return b.String()
}

func dump(b *strings.Builder, tokens []Token, indent int) {
	level := strings.Repeat("    ", indent)

	for _, t := range tokens {
		b.WriteString(level)
		b.WriteString(t.ToString())
		if t.Bare {
			b.WriteString(" bare")
		}
		b.WriteString("\n")

		if len(t.Children) > 0 {
			dump(b, t.Children, indent+1)
		}
	}
}
