// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/dependency-collector/reporter"

import (
	"context"

	"go.opentelemetry.io/dependency-collector/operation"
)

// Reporter is the top-level interface implemented by a full reporter.
type Reporter interface {
	DependencyReporter

	// Start starts the reporter in the background.
	//
	// If the reporter needs to perform a long-running starting operation then it
	// is recommended that Start() returns quickly and the long-running operation
	// is performed in the background.
	Start(context.Context) error

	// Stop triggers a graceful shutdown of the reporter. Dependencies that are
	// still buffered are delivered before Stop returns.
	Stop()
}

// DependencyReporter receives completed dependencies.
type DependencyReporter interface {
	// ReportDependency enqueues a completed dependency for delivery. It must not
	// block on the delivery itself, since it is called on the path of the
	// instrumented application. The reporter must not retain t.
	ReportDependency(t *operation.Telemetry) error
}

// DependencyReporterFunc adapts a function to the DependencyReporter interface.
type DependencyReporterFunc func(t *operation.Telemetry) error

// ReportDependency calls f(t).
func (f DependencyReporterFunc) ReportDependency(t *operation.Telemetry) error {
	return f(t)
}
