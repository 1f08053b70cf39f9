// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/dependency-collector/operation"
)

// TablesConfig is the subset of config.Config needed to build Tables.
type TablesConfig interface {
	operation.Times
}

// Tables holds all pending calls of one Collector.
type Tables struct {
	// HTTPEvents holds calls reported through numbered events.
	HTTPEvents *operation.Cache
	// HTTPRequests holds calls made through an instrumented http.RoundTripper.
	HTTPRequests *operation.Table[http.Request]
	// SQLCommands holds commands run through an instrumented database handle.
	SQLCommands *operation.Table[Command]

	closeOnce sync.Once
}

// NewTables creates empty tables. The cache sweep runs until Close is called or
// ctx is canceled.
func NewTables(ctx context.Context, capacity uint32, intervals TablesConfig) (*Tables, error) {
	httpEvents, err := operation.NewCache(ctx, capacity, intervals)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP event cache: %w", err)
	}
	return &Tables{
		HTTPEvents:   httpEvents,
		HTTPRequests: operation.NewTable[http.Request](),
		SQLCommands:  operation.NewTable[Command](),
	}, nil
}

// Close stops the background sweep of the tables.
func (t *Tables) Close() {
	t.closeOnce.Do(t.HTTPEvents.Close)
}

// tablesRef lazily holds the Tables of a Collector.
type tablesRef struct {
	p atomic.Pointer[Tables]
}

// loadOrCreate returns the held Tables, creating them first if needed. Concurrent
// callers all receive the same instance; tables created by losing callers are
// closed right away.
func (r *tablesRef) loadOrCreate(create func() (*Tables, error)) (*Tables, error) {
	for {
		if t := r.p.Load(); t != nil {
			return t, nil
		}
		t, err := create()
		if err != nil {
			return nil, err
		}
		if r.p.CompareAndSwap(nil, t) {
			return t, nil
		}
		t.Close()
	}
}

// take removes and returns the held Tables.
func (r *tablesRef) take() *Tables {
	return r.p.Swap(nil)
}
