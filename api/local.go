/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package msgparse

import (
	"context"

	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/dillonhicks/msgparse/pkg/proto"
	"github.com/pkg/errors"
)

// A LocalClient parses messages in process.
type LocalClient struct {
	target proto.ConnectionString
	parser *message.Parser
}

func NewLocalClient(parser *message.Parser) *LocalClient {
	return &LocalClient{
		target: proto.ConnectionString{Network: proto.NetworkLocal, Address: proto.NetworkLocal},
		parser: parser,
	}
}

func (client *LocalClient) Open(target proto.ConnectionString, _ uint) error {
	if client.parser == nil {
		return errors.New("a local client needs a parser")
	}
	client.target = target
	return nil
}

func (client *LocalClient) Close() error {
	return nil
}

func (client *LocalClient) Parse(ctx context.Context, content string) (message.Result, error) {
	return client.parser.Parse(ctx, content)
}
