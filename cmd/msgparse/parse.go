/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package msgparse

import (
	"context"
	"io"
	"os"
	"strings"

	api "github.com/dillonhicks/msgparse/api"
	"github.com/dillonhicks/msgparse/internal/setup"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/dillonhicks/msgparse/pkg/repl"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runParse(cmd *cobra.Command, args []string) error {
	log := viper.Get("logger").(zerolog.Logger)

	file, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("command") && file == "" {
		return cmd.Help()
	}

	output := viper.GetString("msgparse.output")
	if !repl.ValidFormat(output) {
		return errors.Errorf("unsupported output format %q", output)
	}

	p := &parseRun{
		out:     cmd.OutOrStdout(),
		writer:  repl.NewOutputWriter(cmd.OutOrStdout(), output),
		maxSize: viper.GetInt("parser.max-size"),
	}
	p.tokens, _ = cmd.Flags().GetBool("tokens")

	if !p.tokens {
		host := viper.GetString("msgparse.host")

		var rt *setup.Runtime
		target, err := proto.ParseConnectionString(host)
		if err != nil {
			return err
		}
		if target.Local() {
			rt = setup.NewRuntime(log)
			defer rt.Close()
		}

		client, err := newClient(host, rt)
		if err != nil {
			return errors.Wrapf(err, "unable to connect to %s", host)
		}
		defer client.Close()
		p.client = client
	}

	ctx := cmd.Context()
	if cmd.Flags().Changed("command") {
		content, _ := cmd.Flags().GetString("command")
		return p.run(ctx, content)
	}

	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return errors.Wrap(err, "unable to read messages")
		}
		defer f.Close()
		r = f
	}

	reader := proto.NewMessageReader(r)
	for {
		content, err := reader.ReadMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "unable to read messages from %s", file)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		log.Debug().Str("message", content).Msg("read message")
		if err := p.run(ctx, content); err != nil {
			return err
		}
	}
}

func newClient(host string, rt *setup.Runtime) (api.Client, error) {
	if rt == nil {
		return api.NewClient(host, nil)
	}
	return api.NewClient(host, rt.Parser)
}

type parseRun struct {
	client  api.Client
	out     io.Writer
	writer  repl.OutputWriter
	tokens  bool
	maxSize int
}

func (p *parseRun) run(ctx context.Context, content string) error {
	if p.tokens {
		return repl.NewTokenWriter(p.out).Write(message.Tokens(content, p.maxSize))
	}

	result, err := p.client.Parse(ctx, content)
	if err != nil {
		return err
	}
	return p.writer.Write(result)
}
