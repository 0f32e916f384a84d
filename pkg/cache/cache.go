/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cache

import "time"

// DefaultSize is the number of entries an LRU holds when no size is given.
const DefaultSize = 128

// Entry is a cached link title.
type Entry struct {
	URL     string
	Title   string
	Fetched time.Time
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Store is a title cache keyed by URL. Implementations are safe for
// concurrent use.
type Store interface {
	Get(url string) (Entry, bool)
	Set(e Entry)
	Clear() error
	Stats() Stats
}
