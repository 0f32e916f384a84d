/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package bench

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	msgparse "github.com/dillonhicks/msgparse/api"
	"github.com/dillonhicks/msgparse/internal/setup"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Command = &cobra.Command{
	Use:   "bench",
	Short: "Send a series of test messages to the server",

	RunE: func(cmd *cobra.Command, args []string) error {
		log := viper.Get("logger").(zerolog.Logger)

		host := viper.GetString("msgparse.host")
		target, err := proto.ParseConnectionString(host)
		if err != nil {
			return err
		}

		var parser *message.Parser
		if target.Local() {
			rt := setup.NewRuntime(log)
			defer rt.Close()
			parser = rt.Parser
		}

		pool := viper.GetUint("bench.pool")
		client, err := msgparse.NewClientPool(host, pool, parser)
		if err != nil {
			return errors.Wrapf(err, "unable to connect to %s", target)
		}
		defer client.Close()

		// test
		return timeIt(log, "SymbolMessages", func() error {
			return SymbolMessages(cmd, client, viper.GetInt("bench.count"), int(pool))
		})
	},
}

func init() {
	// Flags for this command
	Command.Flags().Int("count", 1000, "Number of messages to send")
	Command.Flags().Uint("pool", 4, "Number of connections to send them over")

	// Bind flags to viper
	viper.BindPFlag("bench.count", Command.Flags().Lookup("count"))
	viper.BindPFlag("bench.pool", Command.Flags().Lookup("pool"))
}

func timeIt(log zerolog.Logger, name string, f func() error) error {
	t := time.Now()
	defer func() {
		log.Info().Str("dur", time.Since(t).String()).Str("name", name).Send()
	}()
	return f()
}

// SymbolMessages sends count messages carrying mentions and emoticons, and
// no links, so the server's own overhead is measured.
func SymbolMessages(cmd *cobra.Command, client msgparse.Client, count, workers int) error {
	if workers < 1 {
		workers = 1
	}

	var sent, failed atomic.Int64
	start := time.Now()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				content := fmt.Sprintf("@bench%d (test%d) message %d of %d", i%10, i%7, i, count)
				if _, err := client.Parse(cmd.Context(), content); err != nil {
					failed.Add(1)
					continue
				}
				sent.Add(1)
			}
		}()
	}

	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	rate := float64(sent.Load()) / elapsed.Seconds()
	fmt.Fprintf(cmd.OutOrStdout(), "%s messages parsed, %s failed, %s messages/s\n",
		humanize.Comma(sent.Load()), humanize.Comma(failed.Load()), humanize.CommafWithDigits(rate, 1))

	if failed.Load() > 0 {
		return errors.Errorf("%d messages failed", failed.Load())
	}
	return nil
}
