// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/dependency-collector/operation"
	"go.opentelemetry.io/dependency-collector/reporter"
	"go.opentelemetry.io/dependency-collector/vc"
)

// HTTPClientProcessing correlates HTTP calls intercepted on the client side.
// Calls are keyed by the identity of their *http.Request. Pending calls are
// never purged, every begin must be paired with an end or an exception.
type HTTPClientProcessing struct {
	c correlator[*http.Request]
}

// NewHTTPClientProcessing returns a processor storing pending calls in table.
func NewHTTPClientProcessing(table *operation.Table[http.Request], filter trafficFilter,
	rep reporter.DependencyReporter) *HTTPClientProcessing {
	return &HTTPClientProcessing{
		c: correlator[*http.Request]{
			holder:     tableHolder[http.Request]{table: table},
			kind:       operation.KindHTTP,
			sdkVersion: vc.SDKVersion(vc.SourceProfiler),
			filter:     filter,
			reporter:   rep,
		},
	}
}

// ResourceName returns the full URL of req including the query, or "" for nil.
func ResourceName(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.String()
}

// OnBeginGetResponse is called before the request is sent.
func (p *HTTPClientProcessing) OnBeginGetResponse(req *http.Request) {
	p.onBegin("OnBeginGetResponse", req)
}

// OnBeginGetRequestStream is called before the request body is written. It may
// be called several times before OnBeginGetResponse, the first call sets the
// start time.
func (p *HTTPClientProcessing) OnBeginGetRequestStream(req *http.Request) {
	p.onBegin("OnBeginGetRequestStream", req)
}

func (p *HTTPClientProcessing) onBegin(callback string, req *http.Request) {
	guard(callback, requestKey(req), func() (step, error) {
		return p.c.begin(req, ResourceName(req), nil)
	})
}

// OnEndGetResponse completes the call with the status code of resp. A nil resp
// completes the call as failed with an empty result code.
func (p *HTTPClientProcessing) OnEndGetResponse(req *http.Request, resp *http.Response) {
	guard("OnEndGetResponse", requestKey(req), func() (step, error) {
		return p.c.end(req, func(t *operation.Telemetry) {
			code := -1
			if resp != nil {
				code = resp.StatusCode
			}
			t.ResultCode, t.Success = httpOutcome(code)
		})
	})
}

// OnExceptionGetResponse completes the call as failed.
func (p *HTTPClientProcessing) OnExceptionGetResponse(req *http.Request, err error) {
	p.onException("OnExceptionGetResponse", req, err)
}

// OnExceptionGetRequestStream completes the call as failed. A call whose body
// could not be written never reaches OnBeginGetResponse.
func (p *HTTPClientProcessing) OnExceptionGetRequestStream(req *http.Request, err error) {
	p.onException("OnExceptionGetRequestStream", req, err)
}

func (p *HTTPClientProcessing) onException(callback string, req *http.Request, err error) {
	guard(callback, requestKey(req), func() (step, error) {
		return p.c.end(req, func(t *operation.Telemetry) {
			log.Debugf("HTTP call to %s failed: %v", t.Name, err)
			t.ResultCode, t.Success = "", false
		})
	})
}

// Transport returns an http.RoundTripper reporting every request sent through
// base, http.DefaultTransport if nil.
func (p *HTTPClientProcessing) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, p: p}
}

type transport struct {
	base http.RoundTripper
	p    *HTTPClientProcessing
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if hasBody(req) {
		t.p.OnBeginGetRequestStream(req)
	}
	t.p.OnBeginGetResponse(req)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.p.OnExceptionGetResponse(req, err)
		return resp, err
	}
	t.p.OnEndGetResponse(req, resp)
	return resp, nil
}

// requestKey describes req in log messages.
func requestKey(req *http.Request) string {
	if req == nil {
		return "<nil request>"
	}
	return req.Method + " " + ResourceName(req)
}
