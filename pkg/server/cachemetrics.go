/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"github.com/dillonhicks/msgparse/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
)

type cacheStatsCollector struct {
	store cache.Store

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	entries   *prometheus.Desc
}

func NewCacheStatsCollector(store cache.Store) prometheus.Collector {
	return &cacheStatsCollector{
		store: store,
		hits: prometheus.NewDesc(
			"msgparse_cache_hits",
			"Number of link titles served from the cache.",
			nil, nil,
		),
		misses: prometheus.NewDesc(
			"msgparse_cache_misses",
			"Number of link titles not found in the cache.",
			nil, nil,
		),
		evictions: prometheus.NewDesc(
			"msgparse_cache_evictions",
			"Number of link titles evicted from the in-memory cache.",
			nil, nil,
		),
		entries: prometheus.NewDesc(
			"msgparse_cache_entries",
			"Number of link titles held in the in-memory cache.",
			nil, nil,
		),
	}
}

// Describe implements Collector.
func (c *cacheStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.entries
}

// Collect implements Collector.
func (c *cacheStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.store.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(stats.Evictions))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(stats.Size))
}
