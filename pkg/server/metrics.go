/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"net/http"
	"time"

	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsStore interface {
	Registry() *prometheus.Registry
	RegisterCollector(c prometheus.Collector)
	Handler() http.Handler

	// Collection
	IncClientConnection()
	ObserveMessage(r message.Result, d time.Duration)
}

type metricsStore struct {
	registry          *prometheus.Registry
	ClientConnections prometheus.Counter
	Messages          prometheus.Counter
	Symbols           *prometheus.CounterVec
	ResponseNS        prometheus.Histogram
}

var (
	SymbolLabel = "symbol"
)

func NewMetricsStore() MetricsStore {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsAll),
		),
	)

	// Link formatting is bounded by a 2s timeout by default, so the buckets
	// stretch a little past it.
	buckets := []float64{}
	for i := 1; i < 20; i++ {
		buckets = append(buckets, float64(i*i*10*int(time.Millisecond)))
	}

	factory := promauto.With(reg)
	return &metricsStore{
		registry: reg,
		ClientConnections: factory.NewCounter(prometheus.CounterOpts{
			Name: "msgparse_client_connections",
			Help: "The total number of client connections",
		}),
		Messages: factory.NewCounter(prometheus.CounterOpts{
			Name: "msgparse_messages",
			Help: "The total number of messages parsed",
		}),
		Symbols: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "msgparse_symbols",
			Help: "Special symbols extracted from messages",
		}, []string{SymbolLabel}),
		ResponseNS: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "msgparse_response_ns",
			Help:    "Time taken to parse a message and format its links",
			Buckets: buckets,
		}),
	}
}

func (ms *metricsStore) Registry() *prometheus.Registry {
	return ms.registry
}

func (ms *metricsStore) RegisterCollector(c prometheus.Collector) {
	ms.registry.MustRegister(c)
}

func (ms *metricsStore) Handler() http.Handler {
	return promhttp.HandlerFor(ms.Registry(), promhttp.HandlerOpts{Registry: ms.Registry()})
}

func (ms *metricsStore) IncClientConnection() {
	ms.ClientConnections.Inc()
}

func (ms *metricsStore) ObserveMessage(r message.Result, d time.Duration) {
	ms.Messages.Inc()
	ms.Symbols.With(prometheus.Labels{SymbolLabel: "mention"}).Add(float64(len(r.Mentions)))
	ms.Symbols.With(prometheus.Labels{SymbolLabel: "emoticon"}).Add(float64(len(r.Emoticons)))
	ms.Symbols.With(prometheus.Labels{SymbolLabel: "link"}).Add(float64(len(r.Links)))
	ms.ResponseNS.Observe(float64(d.Nanoseconds()))
}
