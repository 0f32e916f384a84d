/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package client

import (
	"fmt"
	"io"

	"github.com/chzyer/readline"
	msgparse "github.com/dillonhicks/msgparse/api"
	"github.com/dillonhicks/msgparse/internal/setup"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/dillonhicks/msgparse/pkg/repl"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Command = &cobra.Command{
	Use:   "client",
	Short: "Interactive terminal for parsing messages",

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)
		output := viper.GetString("msgparse.output")
		if !repl.ValidFormat(output) {
			return errors.Errorf("unsupported output format %q", output)
		}

		host := viper.GetString("msgparse.host")
		target, err := proto.ParseConnectionString(host)
		if err != nil {
			return errors.Wrap(err, "error parsing host")
		}

		var parser *message.Parser
		if target.Local() {
			rt := setup.NewRuntime(log)
			defer rt.Close()
			parser = rt.Parser
		}

		client, err := msgparse.NewClient(host, parser)
		if err != nil {
			return errors.Wrapf(err, "unable to connect to %s", target)
		}
		defer client.Close()

		return readlinePrompt(cmd, log, client, output)
	},
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func formatOptions() []readline.PrefixCompleterInterface {
	ret := []readline.PrefixCompleterInterface{}
	for _, f := range repl.Formats {
		ret = append(ret, readline.PcItem(f))
	}
	return ret
}

func readlinePrompt(cmd *cobra.Command, log zerolog.Logger, c msgparse.Client, output string) error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("tokens"),
		readline.PcItem("output", formatOptions()...),
		readline.PcItem("exit"),
	)

	// Setup the readline executor
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31m>\033[0m ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return errors.Wrap(err, "unable to start the terminal")
	}
	defer rl.Close()

	out := rl.Stdout()
	writer := repl.NewOutputWriter(out, output)
	ctx := cmd.Context()

	// Handle input
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		command, err := repl.ParseREPLCommand(line)
		if err != nil {
			log.Error().Err(err).Send()
			continue
		}

		switch command.Name {
		case repl.CommandHelp:
			fmt.Fprint(out, repl.Help)
			continue
		case repl.CommandExit:
			return nil
		case repl.CommandOutput:
			writer = repl.NewOutputWriter(out, command.Argument)
			continue
		case repl.CommandTokens:
			if err := repl.NewTokenWriter(out).Write(message.Tokens(command.Argument, viper.GetInt("parser.max-size"))); err != nil {
				log.Error().Err(err).Send()
			}
			continue
		}

		if command.Argument == "" {
			continue
		}

		result, err := c.Parse(ctx, command.Argument)
		if err != nil {
			log.Error().Err(err).Msg("error parsing message")
			continue
		}

		if err := writer.Write(result); err != nil {
			log.Error().Err(err).Send()
		}
		fmt.Fprintln(out)
	}
}
