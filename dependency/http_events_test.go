// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/operation"
	"go.opentelemetry.io/dependency-collector/vc"
)

// Upper bound for scheduling noise in duration checks.
const slack = 500 * time.Millisecond

func TestHTTPEventsBasicPairing(t *testing.T) {
	c, rec := newTestCollector(t)
	p := c.HTTPEvents()

	p.OnBeginHTTP(1, "http://x/a")
	assert.Empty(t, rec.all())
	time.Sleep(100 * time.Millisecond)
	p.OnEndHTTP(1, boolPtr(true), true, intPtr(200))

	dep := rec.only(t)
	assert.Equal(t, "http://x/a", dep.Name)
	assert.Equal(t, operation.KindHTTP, dep.Kind)
	assert.True(t, dep.Success)
	assert.Equal(t, "200", dep.ResultCode)
	assert.False(t, dep.Async)
	assert.Equal(t, vc.SDKVersion(vc.SourceFramework), dep.SDKVersion)
	assert.GreaterOrEqual(t, dep.Duration, 100*time.Millisecond)
	assert.Less(t, dep.Duration, 100*time.Millisecond+slack)

	_, pending := c.Tables().HTTPEvents.Get(1)
	assert.False(t, pending)
}

func TestHTTPEventsEndWithoutBegin(t *testing.T) {
	c, rec := newTestCollector(t)
	before := metrics.Value(metrics.IDDependencyEndWithoutBegin)

	assert.NotPanics(t, func() {
		c.HTTPEvents().OnEndHTTP(99, boolPtr(true), true, intPtr(200))
	})

	assert.Empty(t, rec.all())
	assert.Equal(t, before+1, metrics.Value(metrics.IDDependencyEndWithoutBegin))
}

func TestHTTPEventsRepeatedBegins(t *testing.T) {
	c, rec := newTestCollector(t)
	p := c.HTTPEvents()
	before := metrics.Value(metrics.IDDependencyBeginWhilePending)

	p.OnBeginHTTP(1, "http://x/a")
	time.Sleep(100 * time.Millisecond)
	p.OnBeginHTTP(1, "http://x/a")
	time.Sleep(100 * time.Millisecond)
	p.OnEndHTTP(1, nil, true, intPtr(200))

	dep := rec.only(t)
	assert.GreaterOrEqual(t, dep.Duration, 200*time.Millisecond)
	assert.Less(t, dep.Duration, 200*time.Millisecond+slack)
	assert.Equal(t, before+1, metrics.Value(metrics.IDDependencyBeginWhilePending))
}

func TestHTTPEventsSecondEndFindsNothing(t *testing.T) {
	c, rec := newTestCollector(t)
	p := c.HTTPEvents()

	p.OnBeginHTTP(1, "http://x/a")
	p.OnEndHTTP(1, nil, true, intPtr(200))
	p.OnEndHTTP(1, nil, true, intPtr(500))
	p.OnExceptionHTTP(1, errors.New("late failure"))

	dep := rec.only(t)
	assert.Equal(t, "200", dep.ResultCode)
}

func TestHTTPEventsSelfTraffic(t *testing.T) {
	for name, url := range map[string]string{
		"ingestion endpoint": config.DefaultIngestionEndpoint,
		"transport endpoint": transportEndpoint + "/v1/traces",
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := newTestCollector(t)
			before := metrics.Value(metrics.IDDependencySelfTraffic)

			c.HTTPEvents().OnBeginHTTP(1, url)
			assert.Zero(t, c.Tables().HTTPEvents.Len())
			c.HTTPEvents().OnEndHTTP(1, nil, true, intPtr(200))

			assert.Empty(t, rec.all())
			assert.Equal(t, before+1, metrics.Value(metrics.IDDependencySelfTraffic))
		})
	}
}

func TestHTTPEventsEmptyResourceName(t *testing.T) {
	c, rec := newTestCollector(t)
	before := metrics.Value(metrics.IDDependencyEmptyResource)

	c.HTTPEvents().OnBeginHTTP(1, "")
	c.HTTPEvents().OnEndHTTP(1, nil, true, intPtr(200))

	assert.Empty(t, rec.all())
	assert.Equal(t, before+1, metrics.Value(metrics.IDDependencyEmptyResource))
}

func TestHTTPEventsException(t *testing.T) {
	c, rec := newTestCollector(t)
	p := c.HTTPEvents()

	p.OnBeginHTTP(1, "http://x/a")
	p.OnExceptionHTTP(1, errors.New("connection reset"))

	dep := rec.only(t)
	assert.False(t, dep.Success)
	assert.Empty(t, dep.ResultCode)
}

// The success flag of end events must never override the status code.
func TestHTTPEventsStatusCodeDecidesOutcome(t *testing.T) {
	tests := map[string]struct {
		success     *bool
		statusCode  *int
		wantCode    string
		wantSuccess bool
	}{
		"success without status": {success: boolPtr(true), wantCode: ""},
		"no flag and no status":  {wantCode: ""},
		"failure flag with 200":  {success: boolPtr(false), statusCode: intPtr(200), wantCode: "200", wantSuccess: true},
		"success flag with 500":  {success: boolPtr(true), statusCode: intPtr(500), wantCode: "500"},
		"success flag with 404":  {success: boolPtr(true), statusCode: intPtr(404), wantCode: "404"},
		"redirect":               {statusCode: intPtr(302), wantCode: "302", wantSuccess: true},
		"last success code":      {statusCode: intPtr(399), wantCode: "399", wantSuccess: true},
		"informational":          {statusCode: intPtr(101), wantCode: "101"},
		"zero status":            {success: boolPtr(true), statusCode: intPtr(0), wantCode: ""},
		"negative status":        {success: boolPtr(true), statusCode: intPtr(-1), wantCode: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c, rec := newTestCollector(t)
			p := c.HTTPEvents()

			p.OnBeginHTTP(7, "http://x/a")
			p.OnEndHTTP(7, tc.success, true, tc.statusCode)

			dep := rec.only(t)
			assert.Equal(t, tc.wantCode, dep.ResultCode)
			assert.Equal(t, tc.wantSuccess, dep.Success)
		})
	}
}

func TestHTTPEventsAsyncFlag(t *testing.T) {
	c, rec := newTestCollector(t)
	p := c.HTTPEvents()

	p.OnBeginHTTP(1, "http://x/a")
	p.OnEndHTTP(1, nil, false, intPtr(200))

	assert.True(t, rec.only(t).Async)
}

func TestHTTPEventsCustomCreatedRecord(t *testing.T) {
	c, rec := newTestCollector(t)
	p := c.HTTPEvents()
	cache := c.Tables().HTTPEvents

	custom := &operation.Record{
		Telemetry:     operation.NewTelemetry("custom", operation.KindHTTP),
		CustomCreated: true,
	}
	require.NoError(t, cache.Store(1, custom))

	p.OnBeginHTTP(1, "http://x/a")
	p.OnEndHTTP(1, nil, true, intPtr(200))

	assert.Empty(t, rec.all())
	got, ok := cache.Get(1)
	require.True(t, ok)
	assert.Same(t, custom, got)
	assert.Equal(t, "custom", got.Telemetry.Name)
}

func TestHTTPEventsConcurrentPairs(t *testing.T) {
	const n = 500

	c, rec := newTestCollector(t)
	p := c.HTTPEvents()

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := int64(i)
			p.OnBeginHTTP(id, fmt.Sprintf("http://x/%d", i))
			p.OnBeginHTTP(id, fmt.Sprintf("http://x/%d", i))
			p.OnEndHTTP(id, nil, true, intPtr(200))
		}()
	}
	wg.Wait()

	deps := rec.all()
	require.Len(t, deps, n)
	names := make(map[string]struct{}, n)
	for _, dep := range deps {
		assert.GreaterOrEqual(t, dep.Duration, time.Duration(0))
		assert.Less(t, dep.Duration, 10*time.Second)
		names[dep.Name] = struct{}{}
	}
	assert.Len(t, names, n)
	assert.Zero(t, c.Tables().HTTPEvents.Len())
}

func TestHTTPEventsConcurrentClosers(t *testing.T) {
	const closers = 32

	c, rec := newTestCollector(t)
	p := c.HTTPEvents()
	p.OnBeginHTTP(1, "http://x/a")

	var wg sync.WaitGroup
	for i := range closers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				p.OnEndHTTP(1, nil, true, intPtr(200))
			} else {
				p.OnExceptionHTTP(1, errors.New("failed"))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, rec.all(), 1)
}

func TestHTTPEventsReporterFailureIsContained(t *testing.T) {
	before := metrics.Value(metrics.IDDependencyCallbackErrors)

	c, rec := newTestCollector(t)
	rec.err = errors.New("queue closed")
	p := c.HTTPEvents()

	p.OnBeginHTTP(1, "http://x/a")
	assert.NotPanics(t, func() { p.OnEndHTTP(1, nil, true, intPtr(200)) })

	assert.Len(t, rec.all(), 1)
	assert.Zero(t, c.Tables().HTTPEvents.Len())
	assert.Equal(t, before+1, metrics.Value(metrics.IDDependencyCallbackErrors))
}

type panickingReporter struct{}

func (panickingReporter) ReportDependency(*operation.Telemetry) error {
	panic("reporter exploded")
}

func TestHTTPEventsPanicIsContained(t *testing.T) {
	before := metrics.Value(metrics.IDDependencyCallbackErrors)

	cache := newTestCollectorTables(t).HTTPEvents
	p := NewHTTPEventProcessing(cache, nil, panickingReporter{})

	p.OnBeginHTTP(1, "http://x/a")
	assert.NotPanics(t, func() { p.OnEndHTTP(1, nil, true, intPtr(200)) })
	assert.Equal(t, before+1, metrics.Value(metrics.IDDependencyCallbackErrors))

	// The failed call was removed before reporting and cannot be reported twice.
	assert.Zero(t, cache.Len())
}

func TestHTTPOutcome(t *testing.T) {
	for code, want := range map[int]struct {
		resultCode string
		success    bool
	}{
		-1:  {"", false},
		0:   {"", false},
		199: {"199", false},
		200: {"200", true},
		204: {"204", true},
		399: {"399", true},
		400: {"400", false},
		503: {"503", false},
	} {
		resultCode, success := httpOutcome(code)
		assert.Equal(t, want.resultCode, resultCode, "status %d", code)
		assert.Equal(t, want.success, success, "status %d", code)
	}
}
