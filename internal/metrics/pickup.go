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
	// MessagesEnqueued tracks forwarded messages stored for a recipient.
	MessagesEnqueued = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pickup",
			Name:      "messages_enqueued_total",
			Help:      "Total number of messages enqueued for later pickup",
		},
	)

	// MessagesDelivered tracks messages handed back in a Delivery (mode
	// "delivery"); mode "status_fallback" instead counts one per
	// empty-queue DeliveryRequest answered with a Status.
	MessagesDelivered = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pickup",
			Name:      "messages_delivered_total",
			Help:      "Total number of messages delivered to recipients",
		},
		[]string{"mode"}, // delivery, status_fallback
	)

	// MessagesAcked tracks messages removed from the queue on receipt.
	MessagesAcked = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pickup",
			Name:      "messages_acked_total",
			Help:      "Total number of messages removed after messages-received",
		},
	)

	// StatusRequests tracks status-request messages served.
	StatusRequests = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pickup",
			Name:      "status_requests_total",
			Help:      "Total number of status-request messages served",
		},
	)

	// DeliveryBatchSize tracks how many messages a delivery-request
	// handler returns per call.
	DeliveryBatchSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pickup",
			Name:      "delivery_batch_size",
			Help:      "Number of messages returned per delivery request",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)
)
