/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package msgparse

import (
	"fmt"
	"os"

	"github.com/dillonhicks/msgparse/cmd/msgparse/bench"
	"github.com/dillonhicks/msgparse/cmd/msgparse/cache"
	"github.com/dillonhicks/msgparse/cmd/msgparse/client"
	"github.com/dillonhicks/msgparse/cmd/msgparse/server"
	"github.com/dillonhicks/msgparse/pkg/fetch"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/repl"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Version        = "develop"
	CommitHash     = "n/a"
	BuildTimestamp = "n/a"

	rootCmd = &cobra.Command{
		Use:   "msgparse",
		Short: "Extract the mentions, emoticons and links of chat messages",
		Long: `msgparse extracts the special symbols of a chat message:

  @mentions       names prefixed with @
  (emoticons)     up to 15 alphanumeric characters in parentheses
  links           urls, reported along with the title of the page`,
		Example: `  msgparse -c '@bob (coffee) https://twitter.com/jdorfman'
  msgparse -f messages.txt -o text
  msgparse server --listen unix:///tmp/msgparse.sock`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging()
			initLogLevel()
			initConfig(cmd.Root().PersistentFlags().Lookup("config").Value.String())
			initLogLevel()
			traceConfig()
		},
		RunE:         runParse,
		SilenceUsage: true,
		Version:      Version,
	}
)

func init() {
	// Configure the root binary options
	rootCmd.PersistentFlags().CountP("verbose", "v", "-v for debug logs (-vv for trace)")
	rootCmd.PersistentFlags().Bool("local", true, "Configures the logger to print readable logs")
	rootCmd.PersistentFlags().StringP("host", "H", "local", "Server to send messages to, or local to parse in process")
	rootCmd.PersistentFlags().String("config", "", "Path to the msgparse config file (default ./config.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", repl.FormatJSON, "Output format of results [text, csv, json, markdown]")

	rootCmd.PersistentFlags().Int("max-urls", 0, "Maximum number of links to format per message (0 for unlimited)")
	rootCmd.PersistentFlags().Int("max-size", 0, "Truncate messages to this many bytes (0 for unlimited)")
	rootCmd.PersistentFlags().Duration("timeout", message.DefaultTimeout, "Time allowed for fetching the titles of a message's links")
	rootCmd.PersistentFlags().Int("concurrency", message.DefaultConcurrency, "Maximum number of titles fetched at once")
	rootCmd.PersistentFlags().String("user-agent", fetch.DefaultUserAgent, "User-Agent sent when fetching titles")
	rootCmd.PersistentFlags().Bool("no-fetch", false, "Do not fetch link titles, use the url as title")
	rootCmd.PersistentFlags().Int("cache-size", 128, "Number of titles kept in memory")
	rootCmd.PersistentFlags().String("cache-db", "", "Path to the persistent title cache, or off (default $XDG_CACHE_HOME/msgparse/titles.db)")
	rootCmd.PersistentFlags().Duration("cache-ttl", 0, "Expire persisted titles older than this (0 keeps them forever)")

	// Flags only the one-shot parse understands
	rootCmd.Flags().StringP("command", "c", "", "Parse a single message")
	rootCmd.Flags().StringP("file", "f", "", "Parse every line of a file as a message (- for stdin)")
	rootCmd.Flags().Bool("tokens", false, "Print the token tree of messages instead of their symbols")

	// Bind viper config to the root flags
	viper.BindPFlag("msgparse.local", rootCmd.PersistentFlags().Lookup("local"))
	viper.BindPFlag("msgparse.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("msgparse.host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("msgparse.output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	viper.BindPFlag("parser.max-urls", rootCmd.PersistentFlags().Lookup("max-urls"))
	viper.BindPFlag("parser.max-size", rootCmd.PersistentFlags().Lookup("max-size"))
	viper.BindPFlag("parser.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("parser.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	viper.BindPFlag("fetch.user-agent", rootCmd.PersistentFlags().Lookup("user-agent"))
	viper.BindPFlag("fetch.disabled", rootCmd.PersistentFlags().Lookup("no-fetch"))
	viper.BindPFlag("cache.size", rootCmd.PersistentFlags().Lookup("cache-size"))
	viper.BindPFlag("cache.db", rootCmd.PersistentFlags().Lookup("cache-db"))
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	rootCmd.SetVersionTemplate(fmt.Sprintf("msgparse version: %s git_commit: %s build_time: %s\n", Version, CommitHash, BuildTimestamp))

	viper.AutomaticEnv()

	// Register commands on the root binary command
	server.Command.Version = rootCmd.Version
	client.Command.Version = rootCmd.Version
	cache.Command.Version = rootCmd.Version
	bench.Command.Version = rootCmd.Version
	rootCmd.AddCommand(server.Command)
	rootCmd.AddCommand(client.Command)
	rootCmd.AddCommand(cache.Command)
	rootCmd.AddCommand(bench.Command)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("root command failed")
		os.Exit(1)
	}
}
