// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memhost

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics tracks the invocations executed by a host.
type metrics struct {
	invocations *prometheus.CounterVec
	aborts      *prometheus.CounterVec
	promises    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func newMetrics(registerer prometheus.Registerer) *metrics {
	m := &metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evmhost",
			Name:      "invocations_total",
			Help:      "Count of contract invocations segmented by entry point.",
		}, []string{"method"}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evmhost",
			Name:      "aborts_total",
			Help:      "Count of invocations rolled back by a panic, segmented by entry point and error code.",
		}, []string{"method", "code"}),
		promises: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evmhost",
			Name:      "promises_total",
			Help:      "Count of promises scheduled, segmented by the scheduling entry point.",
		}, []string{"method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "evmhost",
			Name:      "invocation_seconds",
			Help:      "Wall clock duration of contract invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if registerer != nil {
		registerer.MustRegister(m.invocations, m.aborts, m.promises, m.latency)
	}
	return m
}

// abortCode extracts the stable code of a panic message, which is the part
// up to the first colon.
func abortCode(message string) string {
	for i, c := range message {
		if c == ':' {
			return message[:i]
		}
	}
	if len(message) > 64 {
		return message[:64]
	}
	return message
}
