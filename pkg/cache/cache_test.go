/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU(zerolog.Nop(), 2)

	if _, ok := c.Get("http://a.com"); ok {
		t.Error("empty cache should miss")
	}

	c.Set(Entry{URL: "http://a.com", Title: "A"})
	e, ok := c.Get("http://a.com")
	if !ok || e.Title != "A" {
		t.Errorf("wanted title A, got %q (hit: %v)", e.Title, ok)
	}

	c.Set(Entry{URL: "http://a.com", Title: "A2"})
	if e, _ := c.Get("http://a.com"); e.Title != "A2" {
		t.Errorf("set should replace an entry, got %q", e.Title)
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU(zerolog.Nop(), 3)

	for i := 0; i < 3; i++ {
		c.Set(Entry{URL: fmt.Sprintf("http://%d.com", i)})
	}

	// Touch 0 so 1 becomes the least recently used
	c.Get("http://0.com")
	c.Set(Entry{URL: "http://3.com"})

	if _, ok := c.Get("http://1.com"); ok {
		t.Error("http://1.com should have been evicted")
	}

	want := []string{"http://3.com", "http://0.com", "http://2.com"}
	if keys := c.Keys(); !reflect.DeepEqual(keys, want) {
		t.Errorf("wanted keys %v, got %v", want, keys)
	}

	if stats := c.Stats(); stats.Evictions != 1 || stats.Size != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestLRUDefaultSize(t *testing.T) {
	c := NewLRU(zerolog.Nop(), 0)

	for i := 0; i < DefaultSize+10; i++ {
		c.Set(Entry{URL: fmt.Sprintf("http://%d.com", i)})
	}

	if size := c.Stats().Size; size != DefaultSize {
		t.Errorf("wanted size %d, got %d", DefaultSize, size)
	}

	c.Clear()
	if size := c.Stats().Size; size != 0 {
		t.Errorf("wanted an empty cache after clear, got %d", size)
	}
}

func openSQLite(t *testing.T, opts Options) *SQLite {
	t.Helper()

	s, err := OpenSQLite(zerolog.Nop(), filepath.Join(t.TempDir(), "titles.db"), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	s := openSQLite(t, Options{})

	if _, ok := s.Get("http://google.com"); ok {
		t.Error("empty cache should miss")
	}

	s.Set(Entry{URL: "http://google.com", Title: "Google"})
	s.Set(Entry{URL: "http://dillonhicks.io", Title: "Dillon Hicks", Fetched: time.Now().Add(-time.Hour)})

	e, ok := s.Get("http://google.com")
	if !ok || e.Title != "Google" {
		t.Errorf("wanted title Google, got %q (hit: %v)", e.Title, ok)
	}

	entries, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].URL != "http://google.com" {
		t.Errorf("wanted most recent entry first, got %+v", entries)
	}

	if stats := s.Stats(); stats.Size != 2 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if size := s.Stats().Size; size != 0 {
		t.Errorf("wanted an empty cache after clear, got %d", size)
	}
}

func TestSQLiteTTL(t *testing.T) {
	s := openSQLite(t, Options{TTL: time.Minute})

	s.Set(Entry{URL: "http://old.com", Title: "old", Fetched: time.Now().Add(-time.Hour)})
	s.Set(Entry{URL: "http://new.com", Title: "new"})

	if _, ok := s.Get("http://old.com"); ok {
		t.Error("expired entry should miss")
	}
	if _, ok := s.Get("http://new.com"); !ok {
		t.Error("fresh entry should hit")
	}
}

func TestTieredPromotes(t *testing.T) {
	memory := NewLRU(zerolog.Nop(), 2)
	persistent := openSQLite(t, Options{})
	persistent.Set(Entry{URL: "http://coffee.com", Title: "Peet's Coffee & Tea"})

	tiered := Tiered{Memory: memory, Persistent: persistent}

	e, ok := tiered.Get("http://coffee.com")
	if !ok || e.Title != "Peet's Coffee & Tea" {
		t.Fatalf("wanted persistent hit, got %+v (hit: %v)", e, ok)
	}

	if _, ok := memory.Get("http://coffee.com"); !ok {
		t.Error("persistent hit should be promoted to memory")
	}

	tiered.Set(Entry{URL: "http://google.com", Title: "Google"})
	if _, ok := persistent.Get("http://google.com"); !ok {
		t.Error("set should write through to the persistent store")
	}
}

func TestTieredTTL(t *testing.T) {
	memory := NewLRU(zerolog.Nop(), 2)
	persistent := openSQLite(t, Options{TTL: time.Minute})

	tiered := Tiered{Memory: memory, Persistent: persistent, TTL: time.Minute}

	// Loaded into memory shortly before it expires
	tiered.Set(Entry{URL: "http://old.com", Title: "old", Fetched: time.Now().Add(-2 * time.Minute)})
	if _, ok := tiered.Get("http://old.com"); ok {
		t.Error("an entry older than the TTL should miss even when held in memory")
	}

	tiered.Set(Entry{URL: "http://new.com", Title: "new", Fetched: time.Now()})
	if _, ok := tiered.Get("http://new.com"); !ok {
		t.Error("fresh entry should hit")
	}
}
