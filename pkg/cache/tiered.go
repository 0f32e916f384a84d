/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cache

import "time"

// Tiered checks a fast Store before a slow one, promoting hits from the slow
// Store into the fast one.
type Tiered struct {
	Memory     Store
	Persistent Store

	// TTL expires promoted entries in Memory the same way the persistent
	// Store expires them. Zero keeps entries until they are evicted.
	TTL time.Duration
}

func (t Tiered) expired(e Entry) bool {
	return t.TTL > 0 && !e.Fetched.IsZero() && time.Since(e.Fetched) > t.TTL
}

func (t Tiered) Get(url string) (Entry, bool) {
	if e, ok := t.Memory.Get(url); ok && !t.expired(e) {
		return e, true
	}

	e, ok := t.Persistent.Get(url)
	if ok {
		t.Memory.Set(e)
	}
	return e, ok
}

func (t Tiered) Set(e Entry) {
	t.Memory.Set(e)
	t.Persistent.Set(e)
}

func (t Tiered) Clear() error {
	if err := t.Memory.Clear(); err != nil {
		return err
	}
	return t.Persistent.Clear()
}

func (t Tiered) Stats() Stats {
	m := t.Memory.Stats()
	p := t.Persistent.Stats()

	return Stats{
		Hits:      m.Hits + p.Hits,
		Misses:    p.Misses,
		Evictions: m.Evictions,
		Size:      m.Size,
	}
}
