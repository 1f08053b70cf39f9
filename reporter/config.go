// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/dependency-collector/reporter"

import "time"

const (
	defaultQueueSize    = 4096
	defaultReportJitter = 0.2
)

type Config struct {
	// ServiceName is set as service.name on the reported resource.
	ServiceName string

	// ReportInterval defines how often buffered dependencies are flushed.
	ReportInterval time.Duration

	// ReportJitter, [0..1], is applied as +/- jitter to ReportInterval.
	// Zero selects the default jitter.
	ReportJitter float64

	// QueueSize is the number of dependencies buffered between two flushes.
	// When the queue is full the oldest dependencies are overwritten.
	QueueSize uint32
}

func (cfg *Config) queueSize() uint32 {
	if cfg.QueueSize == 0 {
		return defaultQueueSize
	}
	return cfg.QueueSize
}

func (cfg *Config) reportJitter() float64 {
	if cfg.ReportJitter <= 0 || cfg.ReportJitter > 1 {
		return defaultReportJitter
	}
	return cfg.ReportJitter
}
