// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports Prometheus metrics describing the lifecycle of
// XMLHttpRequest-style requests.
//
// A nil *Collector is valid and records nothing, so a request with no
// configured collector pays no cost beyond a nil check.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RecordCompleted.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeAborted = "aborted"
)

// Collector holds the request metrics. It is safe for concurrent use.
type Collector struct {
	requestsStarted   *prometheus.CounterVec
	requestsCompleted *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestsInFlight  prometheus.Gauge
	redirectsTotal    *prometheus.CounterVec
	backoffDenied     *prometheus.CounterVec
	responseBytes     *prometheus.CounterVec
}

// New creates a collector on the default registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector using the supplied registerer.
func NewWithRegistry(registry prometheus.Registerer) *Collector {
	f := promauto.With(registry)
	return &Collector{
		requestsStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xhr_requests_started_total",
				Help: "Total number of transport attempts started",
			},
			[]string{"method"},
		),
		requestsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xhr_requests_completed_total",
				Help: "Total number of requests that reached a final outcome",
			},
			[]string{"method", "outcome", "category"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xhr_request_duration_seconds",
				Help:    "Duration of requests from Send to completion in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		requestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "xhr_requests_in_flight",
				Help: "Number of requests sent and not yet completed or aborted",
			},
		),
		redirectsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xhr_redirects_total",
				Help: "Total number of redirects followed",
			},
			[]string{"status_code"},
		),
		backoffDenied: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xhr_backoff_denied_total",
				Help: "Total number of sends refused by the backoff guard",
			},
			[]string{"host"},
		),
		responseBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xhr_response_bytes_total",
				Help: "Total number of response body bytes received",
			},
			[]string{"method"},
		),
	}
}

// RecordStart counts a started transport attempt.
func (c *Collector) RecordStart(method string) {
	if c == nil {
		return
	}

	c.requestsStarted.WithLabelValues(method).Inc()
}

// RecordSend marks a request in flight.
func (c *Collector) RecordSend() {
	if c == nil {
		return
	}

	c.requestsInFlight.Inc()
}

// RecordCompleted counts a request reaching its final outcome and
// observes its duration. Parameter category is the failure category, or
// "" for a request without a transport failure.
func (c *Collector) RecordCompleted(method, outcome, category string, duration time.Duration) {
	if c == nil {
		return
	}

	c.requestsInFlight.Dec()
	c.requestsCompleted.WithLabelValues(method, outcome, category).Inc()
	c.requestDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// RecordRedirect counts a followed redirect.
func (c *Collector) RecordRedirect(statusCode int) {
	if c == nil {
		return
	}

	c.redirectsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordBackoffDenied counts a send refused by the backoff guard.
func (c *Collector) RecordBackoffDenied(host string) {
	if c == nil {
		return
	}

	c.backoffDenied.WithLabelValues(host).Inc()
}

// RecordResponseBytes adds n received body bytes.
func (c *Collector) RecordResponseBytes(method string, n int) {
	if c == nil || n <= 0 {
		return
	}

	c.responseBytes.WithLabelValues(method).Add(float64(n))
}
