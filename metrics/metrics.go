// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package metrics // import "go.opentelemetry.io/dependency-collector/metrics"

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/dependency-collector/vc"
)

const meterName = "go.opentelemetry.io/dependency-collector"

var (
	//go:embed metrics.json
	metricsJSON []byte

	// metricTypes is indexed by MetricID. Obsolete and unknown IDs hold "".
	metricTypes [IDMax]MetricType

	// totals holds the in-process value of every metric, indexed by MetricID.
	totals [IDMax]atomic.Int64

	// current holds the OTel instruments metrics are recorded to.
	current atomic.Pointer[instruments]
)

type instruments struct {
	counters [IDMax]metric.Int64Counter
	gauges   [IDMax]metric.Int64Gauge
}

func init() {
	for _, md := range GetDefinitions() {
		if md.Obsolete {
			continue
		}
		if md.ID <= IDInvalid || md.ID >= IDMax {
			panic(fmt.Sprintf("metric %s: ID %d out of range, regenerate ids.go", md.Name, md.ID))
		}
		switch md.Type {
		case MetricTypeCounter, MetricTypeGauge:
			metricTypes[md.ID] = md.Type
		default:
			panic(fmt.Sprintf("Unknown metric type: %v", md.Type))
		}
	}

	Start(otel.Meter(meterName, metric.WithInstrumentationVersion(vc.Version())))
}

// Start creates the instruments of all metrics on meter. Values added afterwards
// are recorded to these instruments. In-process totals are kept.
func Start(meter metric.Meter) {
	inst := &instruments{}
	for _, md := range GetDefinitions() {
		if md.Obsolete {
			continue
		}
		switch md.Type {
		case MetricTypeCounter:
			counter, err := meter.Int64Counter(md.Field,
				metric.WithDescription(md.Description),
				metric.WithUnit(md.Unit))
			if err != nil {
				log.Errorf("Creating Int64Counter: %v", err)
				continue
			}
			inst.counters[md.ID] = counter
		case MetricTypeGauge:
			gauge, err := meter.Int64Gauge(md.Field,
				metric.WithDescription(md.Description),
				metric.WithUnit(md.Unit))
			if err != nil {
				log.Errorf("Creating Int64Gauge: %v", err)
				continue
			}
			inst.gauges[md.ID] = gauge
		}
	}
	current.Store(inst)
}

// Add records a single metric value. Counters accumulate, gauges keep the last value.
// Zero-valued counter updates are dropped.
func Add(id MetricID, value MetricValue) {
	if id <= IDInvalid || id >= IDMax {
		log.Errorf("Metric value %d out of range [%d,%d] - needs investigation",
			id, IDInvalid+1, IDMax-1)
		return
	}

	ctx := context.Background()
	inst := current.Load()
	switch metricTypes[id] {
	case MetricTypeCounter:
		if value == 0 {
			return
		}
		totals[id].Add(int64(value))
		if counter := inst.counters[id]; counter != nil {
			counter.Add(ctx, int64(value))
		}
	case MetricTypeGauge:
		totals[id].Store(int64(value))
		if gauge := inst.gauges[id]; gauge != nil {
			gauge.Record(ctx, int64(value))
		}
	default:
		log.Warnf("Invalid metric id %d, skipping", id)
	}
}

// AddSlice records a batch of metrics.
func AddSlice(newMetrics []Metric) {
	for _, m := range newMetrics {
		Add(m.ID, m.Value)
	}
}

// Snapshot returns the current in-process value of every non-zero metric.
func Snapshot() Summary {
	summary := make(Summary)
	for id := IDInvalid + 1; id < IDMax; id++ {
		if v := totals[id].Load(); v != 0 {
			summary[id] = MetricValue(v)
		}
	}
	return summary
}

// Value returns the current in-process value of a single metric.
func Value(id MetricID) MetricValue {
	if id <= IDInvalid || id >= IDMax {
		return 0
	}
	return MetricValue(totals[id].Load())
}

// GetDefinitions returns the metric definitions from the embedded metrics.json file.
func GetDefinitions() []MetricDefinition {
	var defs []MetricDefinition

	dec := json.NewDecoder(bytes.NewReader(metricsJSON))
	dec.DisallowUnknownFields()

	err := dec.Decode(&defs)
	if err != nil {
		panic(fmt.Sprintf("extracting definitions from metrics.json: %v", err))
	}
	return defs
}
