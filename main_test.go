// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/times"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultIngestionEndpoint, cfg.IngestionEndpoint())
	assert.Empty(t, cfg.TransportEndpoint())
	assert.Equal(t, uint32(config.DefaultCacheSize), cfg.CacheSize)
	assert.Equal(t, times.DefaultCacheLifetime, cfg.CacheLifetime)
	assert.Equal(t, times.DefaultReportInterval, cfg.ReportInterval)
	assert.Equal(t, defaultArgServiceName, cfg.ServiceName)
	assert.False(t, cfg.Events)
	require.NoError(t, cfg.Validate())
}

func TestParseArgs(t *testing.T) {
	cfg, err := parseArgs([]string{
		"-url", "http://a.example/x,http://b.example",
		"-events",
		"-sqlite", ":memory:",
		"-query", "SELECT 1",
		"-transport-endpoint", "https://collector.example:4318/v1/traces",
		"-cache-size", "128",
		"-cache-lifetime", "2m",
		"-sweep-interval", "10s",
		"-reporter-interval", "1s",
		"-v",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://a.example/x,http://b.example", cfg.URLs)
	assert.True(t, cfg.Events)
	assert.Equal(t, ":memory:", cfg.SQLiteDSN)
	assert.Equal(t, "SELECT 1", cfg.Query)
	assert.Equal(t, "https://collector.example:4318/v1/traces", cfg.TransportEndpoint())
	assert.Equal(t, uint32(128), cfg.CacheSize)
	assert.Equal(t, 2*time.Minute, cfg.CacheLifetime)
	assert.Equal(t, 10*time.Second, cfg.SweepInterval)
	assert.Equal(t, time.Second, cfg.ReportInterval)
	assert.True(t, cfg.VerboseMode)
	require.NoError(t, cfg.Validate())
}

func TestParseArgsEnvironment(t *testing.T) {
	t.Setenv("OTEL_DEPENDENCY_COLLECTOR_URL", "http://env.example")
	t.Setenv("OTEL_DEPENDENCY_COLLECTOR_CACHE_SIZE", "64")

	cfg, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example", cfg.URLs)
	assert.Equal(t, uint32(64), cfg.CacheSize)
}

func TestParseArgsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.conf")
	require.NoError(t, os.WriteFile(path,
		[]byte("url http://file.example\nunknown-option 1\n"), 0o600))

	cfg, err := parseArgs([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "http://file.example", cfg.URLs)
}

func TestParseArgsOversizedCache(t *testing.T) {
	_, err := parseArgs([]string{"-cache-size", "8589934592"})
	require.Error(t, err)
}

func TestStdoutConsumer(t *testing.T) {
	var buf bytes.Buffer
	c, err := newStdoutConsumer(&buf)
	require.NoError(t, err)

	td := ptrace.NewTraces()
	span := td.ResourceSpans().AppendEmpty().ScopeSpans().AppendEmpty().Spans().AppendEmpty()
	span.SetName("example.com/a")

	require.NoError(t, c.ConsumeTraces(t.Context(), td))
	require.NoError(t, c.ConsumeTraces(t.Context(), td))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var unmarshaler ptrace.JSONUnmarshaler
	got, err := unmarshaler.UnmarshalTraces(lines[0])
	require.NoError(t, err)
	assert.Equal(t, 1, got.SpanCount())
	assert.Equal(t, "example.com/a",
		got.ResourceSpans().At(0).ScopeSpans().At(0).Spans().At(0).Name())
}
