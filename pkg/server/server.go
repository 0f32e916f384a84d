/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dillonhicks/msgparse/pkg/cache"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Config struct {
	Listen      proto.ConnectionString
	MetricsPort int
	Pretty      bool
}

type Server struct {
	log     zerolog.Logger
	metrics MetricsStore
	parser  *message.Parser
	config  Config
}

// New creates a Server. The cache store, when not nil, is exported through
// the metrics endpoint.
func New(log zerolog.Logger, parser *message.Parser, store cache.Store, config Config) *Server {
	metrics := NewMetricsStore()
	if store != nil {
		metrics.RegisterCollector(NewCacheStatsCollector(store))
	}

	return &Server{
		log:     log,
		metrics: metrics,
		parser:  parser,
		config:  config,
	}
}

func (s *Server) Metrics() MetricsStore {
	return s.metrics
}

// HandleParse answers a message with its special symbols. Every message gets
// exactly one response, so clients can pair requests and responses by order.
func (s *Server) HandleParse(ctx context.Context, w proto.ResponseWriter, msg string) error {
	start := time.Now()

	result, err := s.parser.Parse(ctx, msg)
	if err != nil {
		s.log.Error().Err(err).Msg("unable to parse message")
	}

	s.metrics.ObserveMessage(result, time.Since(start))
	s.log.Debug().
		Int("mentions", len(result.Mentions)).
		Int("emoticons", len(result.Emoticons)).
		Int("links", len(result.Links)).
		Dur("took", time.Since(start)).
		Msg("parsed message")

	_, err = w.WriteResult(result)
	return err
}

// ServeMessages listens on the configured connection string and answers
// messages until ctx is cancelled.
func (s *Server) ServeMessages(ctx context.Context) error {
	if s.config.Listen.Local() {
		return errors.New("the server needs a unix or tcp address to listen on")
	}

	sock, err := Listen(s.config.Listen)
	if err != nil {
		s.log.Error().Err(err).Str("listen", s.config.Listen.String()).Msg("unable to listen")
		return err
	}

	srv := NewMessageServer(s.log, HandleMessage(s.HandleParse), s.metrics, s.config.Pretty)
	return srv.Serve(ctx, sock)
}

// ServeMetrics serves /metrics until ctx is cancelled. A zero port disables
// the endpoint.
func (s *Server) ServeMetrics(ctx context.Context) error {
	if s.config.MetricsPort == 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Int("port", s.config.MetricsPort).Msg("/metrics endpoint started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics endpoint failed")
	}
	return nil
}
