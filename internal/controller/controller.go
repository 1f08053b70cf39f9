// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/dependency-collector/internal/controller"

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"go.opentelemetry.io/dependency-collector/dependency"
	"go.opentelemetry.io/dependency-collector/reporter"
)

const (
	// eventQueueSize bounds the numbered events buffered between the HTTP client
	// and the event listener.
	eventQueueSize = 1024
	// maxConcurrentFetches limits the number of requests in flight.
	maxConcurrentFetches = 16
	// sqliteDatabase is the schema name SQLite attaches the main database as.
	sqliteDatabase = "main"
)

// Controller is an instance that runs, manages and stops the collector.
type Controller struct {
	config    *Config
	reporter  reporter.Reporter
	transport http.RoundTripper
	collector *dependency.Collector

	events       chan dependency.Event
	listenerDone <-chan struct{}

	shutdownOnce sync.Once
}

// New creates a new controller
func New(cfg *Config, opts ...Option) *Controller {
	c := &Controller{
		config:    cfg,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		c = opt.applyOption(c)
	}
	return c
}

// Start starts the controller
// The controller should only be started once.
func (c *Controller) Start(ctx context.Context) error {
	if c.config == nil || c.config.Config == nil {
		return errors.New("missing configuration")
	}

	if err := c.startReporter(ctx); err != nil {
		return err
	}

	collector, err := dependency.New(ctx, c.config.Config, c.reporter)
	if err != nil {
		return fmt.Errorf("failed to start dependency collector: %w", err)
	}
	c.collector = collector

	if c.config.Events {
		c.events = make(chan dependency.Event, eventQueueSize)
		c.listenerDone = dependency.NewEventListener(collector.HTTPEvents()).Start(ctx, c.events)
		log.Debug("Started event listener")
	}

	log.Infof("Dependency collector started (ingestion endpoint %s)",
		c.config.IngestionEndpoint())
	return nil
}

// Run issues the configured HTTP requests and SQL query concurrently and waits
// for all of them. Failed calls are reported as failed dependencies and do not
// make Run fail.
func (c *Controller) Run(ctx context.Context) error {
	if c.collector == nil {
		return errors.New("controller not started")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	client := c.httpClient()
	for _, u := range c.config.urls() {
		g.Go(func() error {
			return fetch(gctx, client, u)
		})
	}

	if c.config.Query != "" {
		g.Go(func() error {
			return c.query(gctx)
		})
	}

	return g.Wait()
}

func (c *Controller) httpClient() *http.Client {
	var rt http.RoundTripper
	if c.config.Events {
		rt = dependency.NewEventTransport(c.transport, c.events)
	} else {
		rt = c.collector.HTTPClient().Transport(c.transport)
	}
	return &http.Client{Transport: rt, Timeout: c.config.RequestTimeout}
}

func fetch(ctx context.Context, client *http.Client, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", u, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("GET %s failed: %v", u, err)
		return nil
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		log.Warnf("Reading the response of %s failed: %v", u, err)
		return nil
	}
	log.Infof("GET %s: %s (%d bytes)", u, resp.Status, n)
	return nil
}

func (c *Controller) query(ctx context.Context) error {
	db, err := sql.Open("sqlite", c.config.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.config.SQLiteDSN, err)
	}
	defer db.Close()

	wrapped := c.collector.SQL().Wrap(db, c.config.SQLiteDSN, sqliteDatabase)
	rows, err := wrapped.QueryContext(ctx, c.config.Query)
	if err != nil {
		log.Warnf("Query failed: %v", err)
		return nil
	}
	defer rows.Close()

	var n int
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		log.Warnf("Reading query rows failed: %v", err)
		return nil
	}
	log.Infof("Query returned %d rows", n)
	return nil
}

// Shutdown stops the controller. Pending events are handled and buffered
// dependencies are reported before it returns.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		log.Info("Stop processing ...")
		if c.events != nil {
			close(c.events)
			<-c.listenerDone
		}
		if c.collector != nil {
			c.collector.Close()
		}
		if c.reporter != nil {
			c.reporter.Stop()
		}
	})
}
