/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package msgparse

import (
	"context"

	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
)

type Client interface {
	Open(proto.ConnectionString, uint) error
	Close() error
	Parse(context.Context, string) (message.Result, error)
}

// NewClient creates a new Client which can be used to parse messages, either
// in process or on a remote msgparse server. The client is thread safe, but
// only holds one connection at a time. For a client pool, use NewClientPool
// instead.
//
// The parser is only used for local connection strings and may be nil
// otherwise.
func NewClient(connstr string, parser *message.Parser) (Client, error) {
	return NewClientPool(connstr, 1, parser)
}

// NewClientPool creates a new Client which holds a pool of net.Conn resources
// open to a remote msgparse server. This is useful for parsing large volumes
// of messages concurrently.
func NewClientPool(connstr string, size uint, parser *message.Parser) (Client, error) {
	var client Client

	target, err := proto.ParseConnectionString(connstr)
	if err != nil {
		return nil, err
	}

	if target.Local() {
		client = &LocalClient{parser: parser}
	} else {
		client = &RemoteClient{}
	}

	err = client.Open(target, size)
	if err != nil {
		return nil, err
	}

	return client, nil
}
