// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/operation"
)

const transportEndpoint = "https://endpointaddress"

// recorder collects reported dependencies.
type recorder struct {
	mu   sync.Mutex
	deps []operation.Telemetry
	err  error
}

func (r *recorder) ReportDependency(t *operation.Telemetry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps = append(r.deps, *t)
	return r.err
}

func (r *recorder) all() []operation.Telemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]operation.Telemetry(nil), r.deps...)
}

func (r *recorder) only(t *testing.T) operation.Telemetry {
	t.Helper()
	deps := r.all()
	require.Len(t, deps, 1)
	return deps[0]
}

func newTestConfig() *config.Config {
	cfg := config.Default()
	cfg.SetTransportEndpoint(transportEndpoint)
	return cfg
}

func newTestCollector(t *testing.T) (*Collector, *recorder) {
	t.Helper()
	rec := &recorder{}
	c, err := New(context.Background(), newTestConfig(), rec)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, rec
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func newTestCollectorTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := NewTables(context.Background(), 1024, newTestConfig().Times())
	require.NoError(t, err)
	t.Cleanup(tables.Close)
	return tables
}
