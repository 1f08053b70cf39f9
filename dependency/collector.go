// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/reporter"
	"go.opentelemetry.io/dependency-collector/urlfilter"
)

// Collector wires the dependency processors to one set of Tables and one reporter.
type Collector struct {
	tables tablesRef

	httpEvents *HTTPEventProcessing
	httpClient *HTTPClientProcessing
	sql        *SQLProcessing
}

// New validates cfg and returns a Collector reporting completed dependencies to rep.
// The background cache sweep stops when ctx is canceled or Close is called.
func New(ctx context.Context, cfg *config.Config, rep reporter.DependencyReporter) (*Collector, error) {
	if cfg == nil || rep == nil {
		return nil, errors.New("config and reporter are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Collector{}
	tables, err := c.tables.loadOrCreate(func() (*Tables, error) {
		return NewTables(ctx, cfg.CacheSize, cfg.Times())
	})
	if err != nil {
		return nil, err
	}

	filter := urlfilter.New(cfg)
	c.httpEvents = NewHTTPEventProcessing(tables.HTTPEvents, filter, rep)
	c.httpClient = NewHTTPClientProcessing(tables.HTTPRequests, filter, rep)
	c.sql = NewSQLProcessing(tables.SQLCommands, rep)

	log.Debugf("Dependency collector started, cache size %d, lifetime %v",
		cfg.CacheSize, cfg.Times().CacheLifetime())
	return c, nil
}

// HTTPEvents returns the processor for numbered HTTP events.
func (c *Collector) HTTPEvents() *HTTPEventProcessing {
	return c.httpEvents
}

// HTTPClient returns the processor for intercepted HTTP requests.
func (c *Collector) HTTPClient() *HTTPClientProcessing {
	return c.httpClient
}

// SQL returns the processor for SQL commands.
func (c *Collector) SQL() *SQLProcessing {
	return c.sql
}

// Tables returns the pending calls of the collector, or nil after Close.
func (c *Collector) Tables() *Tables {
	return c.tables.p.Load()
}

// Close stops the background cache sweep. Callbacks must not be issued afterwards.
func (c *Collector) Close() {
	if t := c.tables.take(); t != nil {
		t.Close()
	}
}
