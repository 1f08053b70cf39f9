// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package urlfilter recognizes URLs that belong to the telemetry backend itself.
//
// Outbound calls to those URLs are the collector's own uploads and must never be
// tracked: every tracked upload would produce a dependency that is uploaded in turn.
package urlfilter // import "go.opentelemetry.io/dependency-collector/urlfilter"

import (
	"net"
	"net/url"
	"strings"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// EndpointConfig exposes the endpoints the collector delivers telemetry to.
type EndpointConfig interface {
	// IngestionEndpoint returns the fixed ingestion endpoint of the backend.
	IngestionEndpoint() string
	// TransportEndpoint returns the delivery endpoint of the currently configured
	// transport. It may change at runtime and may be empty.
	TransportEndpoint() string
}

// endpoint is the normalized host and path prefix of a backend URL.
type endpoint struct {
	raw  string
	host string
	path string
}

// Filter matches URLs against the ingestion endpoint and the current transport endpoint.
type Filter struct {
	cfg       EndpointConfig
	ingestion *endpoint
	// transport caches the parsed transport endpoint, keyed by its raw value.
	transport atomic.Pointer[endpoint]
}

// New returns a Filter reading endpoints from cfg.
func New(cfg EndpointConfig) *Filter {
	f := &Filter{cfg: cfg}
	f.ingestion = parseEndpoint(cfg.IngestionEndpoint())
	return f
}

// IsOwnTrafficURL reports whether rawURL targets the telemetry backend.
// It returns false for empty or unparseable input.
func (f *Filter) IsOwnTrafficURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	target := parseEndpoint(rawURL)
	if target == nil {
		return false
	}
	return target.matches(f.ingestion) || target.matches(f.transportEndpoint())
}

func (f *Filter) transportEndpoint() *endpoint {
	raw := f.cfg.TransportEndpoint()
	if raw == "" {
		return nil
	}
	if cached := f.transport.Load(); cached != nil && cached.raw == raw {
		return cached
	}
	ep := parseEndpoint(raw)
	if ep == nil {
		log.Warnf("Ignoring unparseable transport endpoint %q", raw)
		return nil
	}
	f.transport.Store(ep)
	return ep
}

// matches reports whether e addresses the same host as backend, below its path.
func (e *endpoint) matches(backend *endpoint) bool {
	if backend == nil || e.host != backend.host {
		return false
	}
	if backend.path == "" {
		return true
	}
	return e.path == backend.path || strings.HasPrefix(e.path, backend.path+"/")
}

func parseEndpoint(raw string) *endpoint {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil
	}
	return &endpoint{
		raw:  raw,
		host: normalizeHost(u),
		path: strings.TrimRight(strings.ToLower(u.EscapedPath()), "/"),
	}
}

func normalizeHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port == "",
		port == "80" && u.Scheme == "http",
		port == "443" && u.Scheme == "https":
		return host
	}
	return net.JoinHostPort(host, port)
}
