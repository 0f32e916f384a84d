/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cache

import (
	"fmt"
	"os"

	"github.com/dillonhicks/msgparse/internal/setup"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Command = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the persistent title cache",
}

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "List cached link titles, most recently fetched first",

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)
		if setup.CachePath() == "" {
			return errors.New("the persistent title cache is disabled")
		}

		db, err := setup.OpenCache(log)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.List(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.URL, e.Title, humanize.Time(e.Fetched)})
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header([]string{"URL", "Title", "Fetched"})
		if err := table.Bulk(rows); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}

		if info, err := os.Stat(db.Path()); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%d titles, %s in %s\n", len(entries), humanize.Bytes(uint64(info.Size())), db.Path())
		}
		return nil
	},
}

var clearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached link title",

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)
		if setup.CachePath() == "" {
			return errors.New("the persistent title cache is disabled")
		}

		db, err := setup.OpenCache(log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Clear(); err != nil {
			return err
		}

		log.Info().Str("path", db.Path()).Msg("cleared title cache")
		return nil
	},
}

func init() {
	Command.AddCommand(listCommand)
	Command.AddCommand(clearCommand)
}
