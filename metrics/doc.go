// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package metrics counts what the dependency collector observes and forwards the
values to OpenTelemetry instruments.

Metric definitions live in metrics.json, which is embedded into the binary. The
ID constants in ids.go are generated from it:

	metrics
	├── genids/         // generator for ids.go
	├── ids.go          // generated metric IDs
	├── metrics.go      // Start(), Add(), AddSlice() and Snapshot()
	├── metrics.json    // metric definitions, append only
	└── types.go        // Metric, MetricID, MetricValue, MetricDefinition

Counters are exported through the global OTel meter provider, so values only
leave the process once the application installs a provider. Start moves the
export to another meter, such as the one a collector hands to its receivers. Snapshot returns the
in-process totals independently of any provider.
*/
package metrics
