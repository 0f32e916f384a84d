/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package proto

import (
	"net/url"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	NetworkLocal = "local"
	NetworkUnix  = "unix"
	NetworkTCP   = "tcp"

	DefaultSocket = "/tmp/msgparse.sock"
)

var ErrUnknownScheme = errors.New("unrecognized scheme")

type ConnectionString struct {
	Network string
	Address string
}

func (c ConnectionString) Local() bool {
	return c.Network == NetworkLocal
}

func (c ConnectionString) String() string {
	if c.Local() {
		return NetworkLocal
	}
	return c.Network + "://" + c.Address
}

// ParseConnectionString takes a connection string and parses it into the
// network and address the application dials or listens on. It will only
// return an error if the scheme is not recognized or a socket path is
// missing.
//
// Formats:
//
//	local (or empty)
//	/path/to/msgparse.sock
//	unix:///path/to/msgparse.sock
//	tcp://<host:port>
func ParseConnectionString(connStr string) (ConnectionString, error) {
	if connStr == "" || connStr == NetworkLocal {
		return ConnectionString{Network: NetworkLocal, Address: NetworkLocal}, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return ConnectionString{}, errors.Wrapf(err, "invalid connection string %s", connStr)
	}

	switch u.Scheme {
	case "":
		if u.Path == "" || !filepath.IsAbs(u.Path) && u.Path[0] != '.' {
			return ConnectionString{}, errors.Errorf("socket path must be absolute or relative to '.': %s", connStr)
		}
		return ConnectionString{Network: NetworkUnix, Address: filepath.Clean(u.Path)}, nil
	case "unix":
		p := u.Host + u.Path
		if p == "" {
			p = DefaultSocket
		}
		return ConnectionString{Network: NetworkUnix, Address: filepath.Clean(p)}, nil
	case "tcp":
		if u.Host == "" {
			return ConnectionString{}, errors.Errorf("missing host in %s", connStr)
		}
		return ConnectionString{Network: NetworkTCP, Address: u.Host}, nil
	}

	return ConnectionString{}, errors.Wrap(ErrUnknownScheme, u.Scheme)
}
