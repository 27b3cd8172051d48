// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"sync"
	"time"
)

// MetricsCollector keeps a lightweight in-process view of mediator
// activity, independent of the Prometheus vectors in envelope.go,
// coordinate.go, pickup.go and persistence.go. Handlers that already
// hold a lock or are on a hot path can bump these counters directly
// without touching the registry.
type MetricsCollector struct {
	mu sync.RWMutex

	// Counters
	EnvelopesPacked    int64
	EnvelopesUnpacked  int64
	EnvelopeErrors     int64
	MessagesEnqueued   int64
	MessagesDelivered  int64
	MessagesAcked      int64
	KeylistUpdates     int64
	PersistenceErrors  int64

	// Timing metrics (in microseconds)
	EnvelopeTimes    []int64
	PersistenceTimes []int64

	// Start time for uptime calculation
	startTime time.Time

	// Configuration
	maxTimingSamples int
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:        time.Now(),
		maxTimingSamples: 1000, // Keep last 1000 samples for each timing metric
	}
}

// RecordEnvelope records a pack or unpack operation
func (mc *MetricsCollector) RecordEnvelope(unpack bool, success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if unpack {
		mc.EnvelopesUnpacked++
	} else {
		mc.EnvelopesPacked++
	}
	if !success {
		mc.EnvelopeErrors++
	}
	mc.recordTiming(&mc.EnvelopeTimes, duration)
}

// RecordMessageEnqueued records a message stored for later pickup
func (mc *MetricsCollector) RecordMessageEnqueued() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.MessagesEnqueued++
}

// RecordMessagesDelivered records messages handed back to a recipient
func (mc *MetricsCollector) RecordMessagesDelivered(count int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.MessagesDelivered += int64(count)
}

// RecordMessagesAcked records messages removed after messages-received
func (mc *MetricsCollector) RecordMessagesAcked(count int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.MessagesAcked += int64(count)
}

// RecordKeylistUpdate records a processed keylist update item
func (mc *MetricsCollector) RecordKeylistUpdate() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.KeylistUpdates++
}

// RecordPersistence records a persistence store call
func (mc *MetricsCollector) RecordPersistence(success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if !success {
		mc.PersistenceErrors++
	}
	mc.recordTiming(&mc.PersistenceTimes, duration)
}

// recordTiming records a timing sample
func (mc *MetricsCollector) recordTiming(timings *[]int64, duration time.Duration) {
	microseconds := duration.Microseconds()
	*timings = append(*timings, microseconds)

	// Keep only last N samples
	if len(*timings) > mc.maxTimingSamples {
		*timings = (*timings)[len(*timings)-mc.maxTimingSamples:]
	}
}

// GetSnapshot returns a snapshot of current metrics
func (mc *MetricsCollector) GetSnapshot() *MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return &MetricsSnapshot{
		Timestamp:            time.Now(),
		Uptime:               time.Since(mc.startTime),
		EnvelopesPacked:      mc.EnvelopesPacked,
		EnvelopesUnpacked:    mc.EnvelopesUnpacked,
		EnvelopeErrors:       mc.EnvelopeErrors,
		MessagesEnqueued:     mc.MessagesEnqueued,
		MessagesDelivered:    mc.MessagesDelivered,
		MessagesAcked:        mc.MessagesAcked,
		KeylistUpdates:       mc.KeylistUpdates,
		PersistenceErrors:    mc.PersistenceErrors,
		AvgEnvelopeTime:      calculateAverage(mc.EnvelopeTimes),
		AvgPersistenceTime:   calculateAverage(mc.PersistenceTimes),
		P95EnvelopeTime:      calculatePercentile(mc.EnvelopeTimes, 95),
		P95PersistenceTime:   calculatePercentile(mc.PersistenceTimes, 95),
	}
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.EnvelopesPacked = 0
	mc.EnvelopesUnpacked = 0
	mc.EnvelopeErrors = 0
	mc.MessagesEnqueued = 0
	mc.MessagesDelivered = 0
	mc.MessagesAcked = 0
	mc.KeylistUpdates = 0
	mc.PersistenceErrors = 0

	mc.EnvelopeTimes = nil
	mc.PersistenceTimes = nil

	mc.startTime = time.Now()
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	// Counters
	EnvelopesPacked   int64
	EnvelopesUnpacked int64
	EnvelopeErrors    int64
	MessagesEnqueued  int64
	MessagesDelivered int64
	MessagesAcked     int64
	KeylistUpdates    int64
	PersistenceErrors int64

	// Timing averages (microseconds)
	AvgEnvelopeTime    float64
	AvgPersistenceTime float64

	// 95th percentile timings (microseconds)
	P95EnvelopeTime    int64
	P95PersistenceTime int64
}

// GetEnvelopeErrorRate returns the envelope error rate as a percentage
func (ms *MetricsSnapshot) GetEnvelopeErrorRate() float64 {
	total := ms.EnvelopesPacked + ms.EnvelopesUnpacked
	if total == 0 {
		return 0
	}
	return float64(ms.EnvelopeErrors) / float64(total) * 100
}

// Helper functions

func calculateAverage(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func calculatePercentile(values []int64, percentile int) int64 {
	if len(values) == 0 {
		return 0
	}

	index := len(values) * percentile / 100
	if index >= len(values) {
		index = len(values) - 1
	}

	// Create a copy and sort (simple bubble sort for small datasets)
	sorted := make([]int64, len(values))
	copy(sorted, values)

	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	return sorted[index]
}

// Global metrics collector instance
var globalCollector = NewMetricsCollector()

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *MetricsCollector {
	return globalCollector
}
