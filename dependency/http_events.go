// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"strconv"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/dependency-collector/operation"
	"go.opentelemetry.io/dependency-collector/reporter"
	"go.opentelemetry.io/dependency-collector/vc"
)

// HTTPEventProcessing correlates HTTP calls reported through numbered events.
// Calls are keyed by the event id and held in a Cache, so calls whose end event
// never arrives are eventually purged.
type HTTPEventProcessing struct {
	c correlator[int64]
}

// NewHTTPEventProcessing returns a processor storing pending calls in cache.
func NewHTTPEventProcessing(cache *operation.Cache, filter trafficFilter,
	rep reporter.DependencyReporter) *HTTPEventProcessing {
	return &HTTPEventProcessing{
		c: correlator[int64]{
			holder:     cacheHolder{cache: cache},
			kind:       operation.KindHTTP,
			sdkVersion: vc.SDKVersion(vc.SourceFramework),
			filter:     filter,
			reporter:   rep,
		},
	}
}

// OnBeginHTTP starts tracking the call id to resourceName, the full request URL.
func (p *HTTPEventProcessing) OnBeginHTTP(id int64, resourceName string) {
	guard("OnBeginHTTP", id, func() (step, error) {
		return p.c.begin(id, resourceName, nil)
	})
}

// OnEndHTTP completes the call id.
//
// The success flag is not consulted, the outcome derives from statusCode alone.
// A missing status code is a failure with an empty result code.
func (p *HTTPEventProcessing) OnEndHTTP(id int64, success *bool, synchronous bool, statusCode *int) {
	guard("OnEndHTTP", id, func() (step, error) {
		return p.c.end(id, func(t *operation.Telemetry) {
			t.Async = !synchronous
			code := -1
			if statusCode != nil {
				code = *statusCode
			}
			t.ResultCode, t.Success = httpOutcome(code)
		})
	})
}

// OnExceptionHTTP completes the call id as failed.
func (p *HTTPEventProcessing) OnExceptionHTTP(id int64, err error) {
	guard("OnExceptionHTTP", id, func() (step, error) {
		return p.c.end(id, func(t *operation.Telemetry) {
			log.Debugf("HTTP call %d to %s failed: %v", id, t.Name, err)
			t.ResultCode, t.Success = "", false
		})
	})
}

// httpOutcome returns the result code and success of a call that ended with
// statusCode. Non-positive codes mean no response was received.
func httpOutcome(statusCode int) (resultCode string, success bool) {
	if statusCode <= 0 {
		return "", false
	}
	return strconv.Itoa(statusCode), statusCode >= 200 && statusCode < 400
}
