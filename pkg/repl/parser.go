/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package repl

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	CommandParse  = "PARSE"
	CommandTokens = "TOKENS"
	CommandOutput = "OUTPUT"
	CommandHelp   = "HELP"
	CommandExit   = "EXIT"
)

// Command is a single line of REPL input.
type Command struct {
	Name     string
	Argument string
}

// ParseREPLCommand parses input from the command line. Lines which do not
// start with a known command word are messages to parse in full, as are
// lines where help or exit is followed by more text.
//
// This function assumes there is no '\n'
func ParseREPLCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)

	// all commands have a space after them, if not then they are command only
	// like EXIT
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToUpper(word) {
	case CommandHelp, "?":
		// "help me @bob" is a message
		if rest == "" {
			return Command{Name: CommandHelp}, nil
		}
	case CommandExit, "QUIT":
		if rest == "" {
			return Command{Name: CommandExit}, nil
		}
	case CommandTokens:
		if rest == "" {
			return Command{}, errors.New("tokens requires a message")
		}
		return Command{Name: CommandTokens, Argument: rest}, nil
	case CommandOutput:
		if !ValidFormat(rest) {
			return Command{}, errors.Errorf("unknown output format %q, expected one of %s", rest, strings.Join(Formats, ", "))
		}
		return Command{Name: CommandOutput, Argument: rest}, nil
	}

	return Command{Name: CommandParse, Argument: line}, nil
}

const Help = `Type a chat message to list its mentions, emoticons and links.

Commands:
  tokens <message>   print the token tree of a message
  output <format>    switch the output format (text, csv, json, markdown)
  help               show this help
  exit               leave the client
`
