// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PersistenceOperations tracks Store calls by outcome.
	PersistenceOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "operations_total",
			Help:      "Total number of persistence store operations",
		},
		[]string{"operation", "result"}, // account_exists/create_account/add_recipient/remove_recipient/list_recipient_keys/pending_message_count/pending_messages/remove_messages/enqueue_message, success/failure
	)

	// PersistenceOperationDuration tracks Store call latency.
	PersistenceOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "operation_duration_seconds",
			Help:      "Persistence store operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15), // 0.1ms to 1.6s
		},
		[]string{"operation"},
	)

	// QueueDepth reports the pending message count carried by the most
	// recent Status the pickup handler produced: the account's count,
	// narrowed to one recipient key only when the request named one.
	QueueDepth = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "last_queue_depth",
			Help:      "Pending message count reported by the last status response",
		},
	)
)
