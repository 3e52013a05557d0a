// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability exposes the gateway's Prometheus metrics.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway metric vectors. Register once via Default and
// share; promauto panics on duplicate registration.
type Metrics struct {
	// RequestsTotal counts chat requests by final routing decision.
	RequestsTotal *prometheus.CounterVec

	// StepDuration observes per-pipeline-step latency in seconds.
	StepDuration *prometheus.HistogramVec

	// SecurityEvents counts matched suspicious patterns by category.
	SecurityEvents *prometheus.CounterVec

	// StoreFailures counts conversation store failures by operation.
	StoreFailures *prometheus.CounterVec
}

// NewMetrics registers the gateway metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat requests by final routing decision.",
		}, []string{"decision"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Subsystem: "chat",
			Name:      "step_duration_seconds",
			Help:      "Latency of individual pipeline steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent", "action"}),
		SecurityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "security",
			Name:      "suspicious_events_total",
			Help:      "Suspicious pattern matches by category.",
		}, []string{"category"}),
		StoreFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "conversation",
			Name:      "store_failures_total",
			Help:      "Conversation store failures by operation.",
		}, []string{"op"}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the metrics registered on the default Prometheus
// registry, creating them on first call.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
