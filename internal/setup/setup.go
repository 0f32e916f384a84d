/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package setup builds the runtime objects shared by the msgparse commands
// out of the viper configuration.
package setup

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/dillonhicks/msgparse/pkg/cache"
	"github.com/dillonhicks/msgparse/pkg/fetch"
	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// CacheDisabled turns the persistent title cache off when given as its path.
const CacheDisabled = "off"

// DefaultCachePath is where titles persist between runs.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "msgparse", "titles.db")
}

// CachePath returns the configured persistent cache path, or "" when the
// persistent cache is disabled.
func CachePath() string {
	path := viper.GetString("cache.db")
	switch path {
	case CacheDisabled:
		return ""
	case "":
		return DefaultCachePath()
	}
	return path
}

// OpenCache opens the configured persistent title cache.
func OpenCache(log zerolog.Logger) (*cache.SQLite, error) {
	return cache.OpenSQLite(log, CachePath(), cache.Options{
		TTL: viper.GetDuration("cache.ttl"),
	})
}

// Runtime holds a configured message parser along with the title cache
// behind it.
type Runtime struct {
	Parser *message.Parser
	Cache  cache.Store

	persistent *cache.SQLite
}

// NewRuntime builds a message parser from the configuration. Title fetching
// goes through an in-memory LRU, backed by SQLite unless cache.db is "off".
// A persistent cache which cannot be opened is logged and skipped.
func NewRuntime(log zerolog.Logger) *Runtime {
	config := message.Config{
		MaxURLs:     viper.GetInt("parser.max-urls"),
		MaxSize:     viper.GetInt("parser.max-size"),
		Timeout:     viper.GetDuration("parser.timeout"),
		Concurrency: viper.GetInt("parser.concurrency"),
	}

	if viper.GetBool("fetch.disabled") {
		log.Debug().Msg("title fetching disabled")
		return &Runtime{Parser: message.NewParser(log, nil, config)}
	}

	rt := &Runtime{}
	lru := cache.NewLRU(log, viper.GetInt("cache.size"))
	rt.Cache = lru

	if CachePath() != "" {
		db, err := OpenCache(log)
		if err != nil {
			log.Warn().Err(err).Str("path", CachePath()).Msg("unable to open the title cache, titles will not persist")
		} else {
			rt.persistent = db
			rt.Cache = cache.Tiered{Memory: lru, Persistent: db, TTL: viper.GetDuration("cache.ttl")}
		}
	}

	fetcher := fetch.New(log, rt.Cache, fetch.Config{
		Timeout:   config.Timeout,
		UserAgent: viper.GetString("fetch.user-agent"),
	})
	rt.Parser = message.NewParser(log, fetcher, config)

	return rt
}

func (rt *Runtime) Close() error {
	if rt.persistent == nil {
		return nil
	}
	return rt.persistent.Close()
}
