/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package msgparse

import (
	"context"
	"io"
	"math"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/pkg/errors"
)

const reconnectAttempts = 3

var ErrClientClosed = errors.New("client is closed")

// A RemoteClient holds a pool of connections to a msgparse server.
type RemoteClient struct {
	target proto.ConnectionString
	conn   chan *remoteConn

	// backoff is the first reconnect delay, doubled on every attempt
	backoff time.Duration

	lock   sync.Mutex
	closed bool
}

type remoteConn struct {
	net.Conn
	responses *proto.ResponseReader
}

func (client *RemoteClient) dial() (*remoteConn, error) {
	c, err := net.Dial(client.target.Network, client.target.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to %s", client.target)
	}
	return &remoteConn{Conn: c, responses: proto.NewResponseReader(c)}, nil
}

func (client *RemoteClient) reconnectWithBackoff() (*remoteConn, error) {
	var conn *remoteConn
	var err error

	// With the default backoff, try for a total of 7 seconds
	for i := 0; i < reconnectAttempts; i++ {
		delay := time.Duration(math.Exp2(float64(i)))
		time.Sleep(delay * client.backoff)

		conn, err = client.dial()
		if err == nil {
			break
		}
	}

	return conn, err
}

func (client *RemoteClient) Open(target proto.ConnectionString, size uint) error {
	if target.Local() {
		return errors.New("a remote client needs a unix or tcp address")
	}

	client.target = target
	client.conn = make(chan *remoteConn, size)
	if client.backoff == 0 {
		client.backoff = time.Second
	}

	for i := uint(0); i < size; i++ {
		c, err := client.dial()
		if err != nil {
			client.Close()
			return err
		}
		client.conn <- c
	}

	return nil
}

// Close closes the idle connections of the pool. Connections still in use
// are closed as their Parse returns.
func (client *RemoteClient) Close() error {
	client.lock.Lock()
	if client.closed || client.conn == nil {
		client.lock.Unlock()
		return nil
	}
	client.closed = true
	client.lock.Unlock()

	var err error
	n := len(client.conn)
	for i := 0; i < n; i++ {
		conn := <-client.conn
		if conn == nil {
			continue
		}
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	// Empty slots wake up any Parse waiting on the pool
	for i := 0; i < n; i++ {
		client.conn <- nil
	}
	return err
}

func (client *RemoteClient) isClosed() bool {
	client.lock.Lock()
	defer client.lock.Unlock()
	return client.closed
}

// release hands a connection back to the pool. A nil connection leaves an
// empty slot, which the next Parse fills by dialing.
func (client *RemoteClient) release(conn *remoteConn) {
	if conn != nil && client.isClosed() {
		conn.Close()
		conn = nil
	}
	client.conn <- conn
}

func retryable(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// Parse sends content to the server and waits for its result. A connection
// reset by the server is re-established before the message is retried. Any
// other failure drops the connection, since a late response on it would be
// read as the answer to the next message.
func (client *RemoteClient) Parse(ctx context.Context, content string) (message.Result, error) {
	if client.isClosed() {
		return message.Result{}, ErrClientClosed
	}

	var conn *remoteConn
	select {
	case conn = <-client.conn:
	case <-ctx.Done():
		return message.Result{}, ctx.Err()
	}
	defer func() {
		client.release(conn)
	}()

	if client.isClosed() {
		return message.Result{}, ErrClientClosed
	}

	if conn == nil {
		fresh, err := client.dial()
		if err != nil {
			return message.Result{}, err
		}
		conn = fresh
	}

	retried := false
retry:
	deadline, _ := ctx.Deadline()
	conn.SetDeadline(deadline)

	result, err := client.roundTrip(conn, content)
	if err != nil && !retried && retryable(err) {
		conn.Close()
		conn = nil
		fresh, rerr := client.reconnectWithBackoff()
		if rerr != nil {
			return message.Result{}, rerr
		}
		conn = fresh
		retried = true
		// We use a goto here because we need to retry sending our message,
		// however, if we recursively call Parse() we'll end up with a
		// duplicated connection in our pool.
		goto retry
	}
	if err != nil {
		conn.Close()
		conn = nil
		return message.Result{}, errors.Wrap(err, "unable to parse message remotely")
	}

	return result, nil
}

func (client *RemoteClient) roundTrip(conn *remoteConn, content string) (message.Result, error) {
	if err := proto.WriteMessage(conn, content); err != nil {
		return message.Result{}, err
	}
	return conn.responses.ReadResult()
}
