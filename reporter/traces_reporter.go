// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/dependency-collector/reporter"

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"

	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/operation"
	"go.opentelemetry.io/dependency-collector/vc"
)

const (
	scopeName = "go.opentelemetry.io/dependency-collector"

	attrDependencyType       = "dependency.type"
	attrDependencyResultCode = "dependency.result_code"
	attrDependencyAsync      = "dependency.async"
	attrDependencySDKVersion = "dependency.sdk_version"
)

// ErrNilTelemetry is returned when a nil dependency is reported.
var ErrNilTelemetry = errors.New("nil telemetry")

// Assert that we implement the full Reporter interface.
var _ Reporter = (*TracesReporter)(nil)

// TracesReporter buffers completed dependencies and periodically hands them as
// client spans to the next trace consumer.
type TracesReporter struct {
	cfg          *Config
	nextConsumer consumer.Traces

	// queue holds copies of the reported dependencies until the next flush.
	queue *FifoRingBuffer[operation.Telemetry]

	runLoop runLoop
}

// NewTraces builds a new TracesReporter. A nil nextConsumer discards all dependencies.
func NewTraces(cfg *Config, nextConsumer consumer.Traces) (*TracesReporter, error) {
	queue, err := NewFifo[operation.Telemetry](cfg.queueSize(), "dependencies")
	if err != nil {
		return nil, err
	}
	return &TracesReporter{
		cfg:          cfg,
		nextConsumer: nextConsumer,
		queue:        queue,
	}, nil
}

// ReportDependency enqueues a copy of t for the next flush.
func (r *TracesReporter) ReportDependency(t *operation.Telemetry) error {
	if t == nil {
		return ErrNilTelemetry
	}
	if r.nextConsumer == nil {
		return nil
	}
	r.queue.Append(*t)
	return nil
}

// Start flushes buffered dependencies every report interval until ctx is canceled
// or Stop is called.
func (r *TracesReporter) Start(ctx context.Context) error {
	if r.cfg.ReportInterval <= 0 {
		return fmt.Errorf("invalid report interval: %v", r.cfg.ReportInterval)
	}
	r.runLoop.Start(ctx, r.cfg.ReportInterval, r.cfg.reportJitter(), func() {
		if err := r.Flush(ctx); err != nil {
			log.Errorf("Request failed: %v", err)
		}
	})
	return nil
}

// Stop stops the background flushing and delivers what is still buffered.
func (r *TracesReporter) Stop() {
	r.runLoop.Stop()
	if err := r.Flush(context.Background()); err != nil {
		log.Errorf("Final flush failed: %v", err)
	}
}

// Flush sends all buffered dependencies to the next consumer.
func (r *TracesReporter) Flush(ctx context.Context) error {
	if overwrites := r.queue.GetOverwriteCount(); overwrites > 0 {
		metrics.Add(metrics.IDReportQueueOverwrites, metrics.MetricValue(overwrites))
	}

	deps := r.queue.ReadAll()
	if len(deps) == 0 {
		log.Debugf("Skip sending of traces with no dependencies")
		return nil
	}

	traces := r.buildTraces(deps)
	if err := r.nextConsumer.ConsumeTraces(ctx, traces); err != nil {
		metrics.Add(metrics.IDReportErrors, 1)
		return fmt.Errorf("sending %d dependencies: %w", len(deps), err)
	}
	metrics.Add(metrics.IDDependenciesReported, metrics.MetricValue(len(deps)))
	log.Debugf("Reported %d dependencies", len(deps))
	return nil
}

func (r *TracesReporter) buildTraces(deps []operation.Telemetry) ptrace.Traces {
	traces := ptrace.NewTraces()
	rs := traces.ResourceSpans().AppendEmpty()
	if r.cfg.ServiceName != "" {
		rs.Resource().Attributes().PutStr(string(semconv.ServiceNameKey), r.cfg.ServiceName)
	}
	rs.SetSchemaUrl(semconv.SchemaURL)

	ss := rs.ScopeSpans().AppendEmpty()
	ss.Scope().SetName(scopeName)
	ss.Scope().SetVersion(vc.Version())

	spans := ss.Spans()
	spans.EnsureCapacity(len(deps))
	for i := range deps {
		setSpan(spans.AppendEmpty(), &deps[i])
	}
	return traces
}

// setSpan fills span with the client span describing dependency t.
func setSpan(span ptrace.Span, t *operation.Telemetry) {
	span.SetTraceID(pcommon.TraceID(uuid.New()))
	span.SetSpanID(mkSpanID())
	span.SetName(spanName(t))
	span.SetKind(ptrace.SpanKindClient)
	span.SetStartTimestamp(pcommon.NewTimestampFromTime(t.StartTime))
	span.SetEndTimestamp(pcommon.NewTimestampFromTime(t.StartTime.Add(t.Duration)))

	attrs := span.Attributes()
	attrs.PutStr(attrDependencyType, string(t.Kind))
	attrs.PutBool(attrDependencyAsync, t.Async)
	if t.SDKVersion != "" {
		attrs.PutStr(attrDependencySDKVersion, t.SDKVersion)
	}
	if t.ResultCode != "" {
		attrs.PutStr(attrDependencyResultCode, t.ResultCode)
	}

	switch t.Kind {
	case operation.KindHTTP:
		attrs.PutStr(string(semconv.URLFullKey), t.Name)
		if u, err := url.Parse(t.Name); err == nil && u.Hostname() != "" {
			attrs.PutStr(string(semconv.ServerAddressKey), u.Hostname())
		}
		if code, err := strconv.Atoi(t.ResultCode); err == nil {
			attrs.PutInt(string(semconv.HTTPResponseStatusCodeKey), int64(code))
		}
	case operation.KindSQL:
		source, database, _ := strings.Cut(t.Name, " | ")
		database, _, _ = strings.Cut(database, " | ")
		attrs.PutStr(string(semconv.ServerAddressKey), source)
		if database != "" {
			attrs.PutStr(string(semconv.DBNameKey), database)
		}
		if t.CommandName != "" {
			attrs.PutStr(string(semconv.DBStatementKey), t.CommandName)
		}
	}

	if !t.Success {
		span.Status().SetCode(ptrace.StatusCodeError)
		span.Status().SetMessage(t.ResultCode)
	}
}

func spanName(t *operation.Telemetry) string {
	if t.Kind != operation.KindHTTP {
		return t.Name
	}
	u, err := url.Parse(t.Name)
	if err != nil || u.Host == "" {
		return t.Name
	}
	return u.Host + u.Path
}

func mkSpanID() pcommon.SpanID {
	id := uuid.New()
	var spanID pcommon.SpanID
	copy(spanID[:], id[:8])
	return spanID
}
