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
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dillonhicks/msgparse/pkg/cache"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, listen string) (*Server, net.Listener) {
	t.Helper()

	target, err := proto.ParseConnectionString(listen)
	if err != nil {
		t.Fatal(err)
	}

	parser := message.NewParser(zerolog.Nop(), nil, message.Config{MaxURLs: 1, MaxSize: 64})
	srv := New(zerolog.Nop(), parser, cache.NewLRU(zerolog.Nop(), 8), Config{Listen: target})

	sock, err := Listen(target)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ms := NewMessageServer(zerolog.Nop(), HandleMessage(srv.HandleParse), srv.Metrics(), true)
		ms.Serve(ctx, sock)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return srv, sock
}

func TestServeMessages(t *testing.T) {
	srv, sock := newTestServer(t, "tcp://127.0.0.1:0")

	c, err := net.Dial("tcp", sock.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	messages := []string{
		"@mary had a (littlelamb) http://dillonhicks.io",
		"",
		"http://bitbucket.org http://google.com",
		"@first " + strings.Repeat("x", 100) + " @second",
	}
	want := []message.Result{
		{
			Mentions:  []string{"mary"},
			Emoticons: []string{"littlelamb"},
			Links:     []message.Link{{URL: "http://dillonhicks.io", Title: "http://dillonhicks.io"}},
		},
		{},
		{
			Links: []message.Link{{URL: "http://bitbucket.org", Title: "http://bitbucket.org"}},
		},
		{
			Mentions: []string{"first"},
		},
	}

	for _, m := range messages {
		if err := proto.WriteMessage(c, m); err != nil {
			t.Fatal(err)
		}
	}

	rr := proto.NewResponseReader(c)
	for i, w := range want {
		got, err := rr.ReadResult()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, w) {
			t.Errorf("message %d: wanted %+v, got %+v", i, w, got)
		}
	}

	ms := srv.Metrics().(*metricsStore)
	if n := testutil.ToFloat64(ms.Messages); n != float64(len(messages)) {
		t.Errorf("wanted %d messages counted, got %v", len(messages), n)
	}
	if n := testutil.ToFloat64(ms.ClientConnections); n != 1 {
		t.Errorf("wanted 1 connection counted, got %v", n)
	}
	if n := testutil.ToFloat64(ms.Symbols.WithLabelValues("mention")); n != 2 {
		t.Errorf("wanted 2 mentions counted, got %v", n)
	}
}

func TestServeUnixSocket(t *testing.T) {
	// Socket paths are limited to ~100 bytes, which test temp dirs can exceed
	dir, err := os.MkdirTemp("", "msgparse")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "msgparse.sock")

	// A stale socket file must not prevent listening
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	newTestServer(t, "unix://"+path)

	c, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	proto.WriteMessage(c, "(coffee) (sandwich) @helloworld")

	got, err := proto.NewResponseReader(c).ReadResult()
	if err != nil {
		t.Fatal(err)
	}

	want := message.Result{Mentions: []string{"helloworld"}, Emoticons: []string{"coffee", "sandwich"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wanted %+v, got %+v", want, got)
	}
}

func TestServeClosesOnCancel(t *testing.T) {
	sock, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ms := NewMessageServer(zerolog.Nop(), HandleMessage(func(_ context.Context, w proto.ResponseWriter, _ string) error {
		_, err := w.WriteResult(message.Result{})
		return err
	}), NewMetricsStore(), false)

	done := make(chan error)
	go func() { done <- ms.Serve(ctx, sock) }()

	c, err := net.Dial("tcp", sock.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Wait for a round trip so the connection is being handled
	proto.WriteMessage(c, "ping")
	if _, err := proto.NewResponseReader(c).ReadResult(); err != nil {
		t.Fatal(err)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Error(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	// The open connection is closed by the server
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("wanted io.EOF from a closed connection, got %v", err)
	}
}

func TestMetricsHandler(t *testing.T) {
	store := cache.NewLRU(zerolog.Nop(), 8)
	store.Set(cache.Entry{URL: "http://coffee.com", Title: "coffee"})

	parser := message.NewParser(zerolog.Nop(), nil, message.Config{})
	srv := New(zerolog.Nop(), parser, store, Config{})

	rec := httptest.NewRecorder()
	srv.Metrics().Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"msgparse_cache_entries 1", "msgparse_client_connections", "msgparse_messages"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output is missing %s", name)
		}
	}
}
