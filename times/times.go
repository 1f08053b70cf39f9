// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package times // import "go.opentelemetry.io/dependency-collector/times"

import "time"

const (
	// DefaultCacheLifetime is the sliding window after which an unmatched begin
	// notification is purged from the keyed operation caches.
	DefaultCacheLifetime = 30 * time.Minute
	// DefaultSweepInterval defines how often expired cache entries are purged.
	DefaultSweepInterval = 1 * time.Minute
	// DefaultReportInterval defines how often completed dependencies are flushed
	// to the next consumer.
	DefaultReportInterval = 5 * time.Second
)

// Compile time check for interface adherence
var _ IntervalsAndTimers = (*Times)(nil)

// Times hold all the intervals and timeouts that are used across the collector in a
// central place and comes with Getters to read them.
type Times struct {
	cacheLifetime  time.Duration
	sweepInterval  time.Duration
	reportInterval time.Duration
}

// IntervalsAndTimers is a meta-interface that exists purely to document its functionality.
type IntervalsAndTimers interface {
	// CacheLifetime defines how long an in-progress call may stay idle in a keyed
	// operation cache before it is purged.
	CacheLifetime() time.Duration
	// SweepInterval defines the interval at which expired cache entries are purged.
	SweepInterval() time.Duration
	// ReportInterval defines the interval at which completed dependencies are sent
	// to the next consumer.
	ReportInterval() time.Duration
}

func (t *Times) CacheLifetime() time.Duration { return t.cacheLifetime }

func (t *Times) SweepInterval() time.Duration { return t.sweepInterval }

func (t *Times) ReportInterval() time.Duration { return t.reportInterval }

// New returns a new Times instance. Zero durations fall back to the defaults.
func New(cacheLifetime, sweepInterval, reportInterval time.Duration) *Times {
	return &Times{
		cacheLifetime:  orDefault(cacheLifetime, DefaultCacheLifetime),
		sweepInterval:  orDefault(sweepInterval, DefaultSweepInterval),
		reportInterval: orDefault(reportInterval, DefaultReportInterval),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
