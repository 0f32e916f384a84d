/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dillonhicks/msgparse/internal/setup"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/dillonhicks/msgparse/pkg/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var Command = &cobra.Command{
	Use:   "server",
	Short: "Answer messages sent over a unix or tcp socket",
	Long: `Answer messages sent over a unix or tcp socket.

Every line received is parsed as one message and answered with one JSON
document holding its mentions, emoticons and links.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		logger := viper.Get("logger").(zerolog.Logger)

		target, err := proto.ParseConnectionString(viper.GetString("server.listen"))
		if err != nil {
			return err
		}

		rt := setup.NewRuntime(logger)
		defer rt.Close()

		// Initialize message server
		srv := server.New(logger, rt.Parser, rt.Cache, server.Config{
			Listen:      target,
			MetricsPort: viper.GetInt("server.prom-port"),
			Pretty:      viper.GetBool("server.pretty"),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		// Serve the messages
		g.Go(func() error {
			return srv.ServeMessages(ctx)
		})

		// Serve the metrics endpoint
		g.Go(func() error {
			return srv.ServeMetrics(ctx)
		})

		err = g.Wait()
		logger.Info().Msg("server stopped")
		return err
	},
}

func init() {
	// Flags for this command
	Command.Flags().StringP("listen", "l", "unix://"+proto.DefaultSocket, "Address to listen on (unix:///path or tcp://host:port)")
	Command.Flags().Int("prom-port", 2112, "Set the port for /metrics (0 disables it)")
	Command.Flags().Bool("pretty", false, "Indent JSON responses")

	// Bind flags to viper
	viper.BindPFlag("server.listen", Command.Flags().Lookup("listen"))
	viper.BindPFlag("server.prom-port", Command.Flags().Lookup("prom-port"))
	viper.BindPFlag("server.pretty", Command.Flags().Lookup("pretty"))
}
