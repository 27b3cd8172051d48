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
	// MediationRequests tracks mediate-request outcomes.
	MediationRequests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinate",
			Name:      "mediation_requests_total",
			Help:      "Total number of mediate-request messages handled",
		},
		[]string{"result"}, // granted, denied
	)

	// KeylistUpdates tracks per-item keylist update outcomes.
	KeylistUpdates = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinate",
			Name:      "keylist_updates_total",
			Help:      "Total number of keylist update items processed",
		},
		[]string{"action", "result"}, // add/remove, success/server_error
	)

	// KeylistQueries tracks keylist-query requests served.
	KeylistQueries = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinate",
			Name:      "keylist_queries_total",
			Help:      "Total number of keylist query messages served",
		},
	)

	// AccountsCreated tracks accounts provisioned on first mediate-grant.
	AccountsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinate",
			Name:      "accounts_created_total",
			Help:      "Total number of mediation accounts created",
		},
	)
)
