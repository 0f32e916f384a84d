/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"io"
	"net"
	"os"
	"sync"

	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type MessageHandler interface {
	ServeMessage(ctx context.Context, w proto.ResponseWriter, msg string) error
}

type HandleMessage func(context.Context, proto.ResponseWriter, string) error

func (f HandleMessage) ServeMessage(ctx context.Context, w proto.ResponseWriter, msg string) error {
	return f(ctx, w, msg)
}

// Listen opens a listener for the target. A stale unix socket left behind by
// a previous run is removed first.
func Listen(target proto.ConnectionString) (net.Listener, error) {
	switch target.Network {
	case proto.NetworkUnix:
		if err := os.Remove(target.Address); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "unable to remove stale socket %s", target.Address)
		}
		return net.Listen("unix", target.Address)
	case proto.NetworkTCP:
		return net.Listen("tcp", target.Address)
	}

	return nil, errors.Errorf("unable to listen on %s", target)
}

type MessageServer struct {
	log     zerolog.Logger
	handler MessageHandler
	metrics MetricsStore
	pretty  bool

	wg sync.WaitGroup
}

func NewMessageServer(log zerolog.Logger, handler MessageHandler, metrics MetricsStore, pretty bool) *MessageServer {
	return &MessageServer{
		log:     log,
		handler: handler,
		metrics: metrics,
		pretty:  pretty,
	}
}

// Serve accepts connections on sock until ctx is cancelled, then closes the
// listener and waits for open connections to finish.
func (ms *MessageServer) Serve(ctx context.Context, sock net.Listener) error {
	go func() {
		<-ctx.Done()
		sock.Close()
	}()

	ms.log.Info().Str("address", sock.Addr().String()).Msg("listening for messages")

	for {
		c, err := sock.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				ms.wg.Wait()
				return nil
			}
			ms.log.Error().Err(err).Msg("unable to accept connection on message socket")
			continue
		}

		ms.metrics.IncClientConnection()

		conn := newConn(ms.log.With().Str("conn", uuid.NewString()).Logger(), ms.handler, ms.pretty)
		ms.wg.Add(1)
		go func() {
			defer ms.wg.Done()
			conn.Handle(ctx, c)
		}()
	}
}

type conn struct {
	log zerolog.Logger
	c   net.Conn

	handler MessageHandler
	pretty  bool
}

func newConn(log zerolog.Logger, handler MessageHandler, pretty bool) *conn {
	return &conn{
		log:     log,
		handler: handler,
		pretty:  pretty,
	}
}

func (c *conn) Handle(ctx context.Context, nc net.Conn) {
	c.c = nc
	defer c.c.Close()

	// Unblock the reader when the server shuts down
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.c.Close()
		case <-done:
		}
	}()

	c.log.Debug().Str("remote", nc.RemoteAddr().String()).Msg("client connected")

	reader := proto.NewMessageReader(c.c)
	writer := proto.NewResponseWriter(c.c, c.pretty)
	for {
		msg, err := reader.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				c.log.Debug().Msg("client disconnected")
				return
			}
			c.log.Error().Err(err).Msg("error reading from the conn")
			return
		}

		c.log.Trace().Str("read", humanize.Bytes(uint64(len(msg)))).Msg("read from conn")

		if err := c.handler.ServeMessage(ctx, writer, msg); err != nil {
			c.log.Error().Err(err).Msg("unable to write response")
			return
		}
	}
}
