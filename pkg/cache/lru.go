/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cache

import (
	"container/list"
	"sync"

	"github.com/rs/zerolog"
)

// LRU is a fixed size in-memory Store which evicts the least recently used
// entry once it grows past its size.
type LRU struct {
	log     zerolog.Logger
	maxSize int

	lock      sync.Mutex
	queue     *list.List
	entries   map[string]*list.Element
	hits      uint64
	misses    uint64
	evictions uint64
}

func NewLRU(log zerolog.Logger, maxSize int) *LRU {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}

	return &LRU{
		log:     log,
		maxSize: maxSize,
		queue:   list.New(),
		entries: make(map[string]*list.Element, maxSize),
	}
}

func (c *LRU) Get(url string) (Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	elem, ok := c.entries[url]
	if !ok {
		c.misses++
		c.log.Debug().Str("url", url).Msg("cache miss")
		return Entry{}, false
	}

	c.hits++
	c.queue.MoveToFront(elem)
	c.log.Debug().Str("url", url).Msg("cache hit")
	return elem.Value.(Entry), true
}

func (c *LRU) Set(e Entry) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if elem, ok := c.entries[e.URL]; ok {
		elem.Value = e
		c.queue.MoveToFront(elem)
		return
	}

	c.entries[e.URL] = c.queue.PushFront(e)

	for c.queue.Len() > c.maxSize {
		oldest := c.queue.Back()
		c.queue.Remove(oldest)
		delete(c.entries, oldest.Value.(Entry).URL)
		c.evictions++
	}

	c.log.Trace().Str("url", e.URL).Int("size", c.queue.Len()).Msg("cache set")
}

func (c *LRU) Clear() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.log.Debug().Int("size", c.queue.Len()).Msg("clearing cache")
	c.queue.Init()
	c.entries = make(map[string]*list.Element, c.maxSize)
	return nil
}

func (c *LRU) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.queue.Len(),
	}
}

// Keys returns the cached URLs, most recently used first.
func (c *LRU) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, c.queue.Len())
	for elem := c.queue.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(Entry).URL)
	}
	return keys
}
