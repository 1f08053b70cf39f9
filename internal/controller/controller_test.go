// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/operation"
)

type recordingReporter struct {
	mu      sync.Mutex
	deps    []operation.Telemetry
	started bool
	stopped bool
}

func (r *recordingReporter) ReportDependency(t *operation.Telemetry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps = append(r.deps, *t)
	return nil
}

func (r *recordingReporter) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *recordingReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

func (r *recordingReporter) dependencies() []operation.Telemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]operation.Telemetry(nil), r.deps...)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestConfig() *Config {
	return &Config{
		Config:         config.Default(),
		RequestTimeout: 5 * time.Second,
	}
}

func TestControllerStart(t *testing.T) {
	for _, tt := range []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "with a nil config",
			wantErr: true,
		},
		{
			name:    "with an empty config",
			config:  &Config{},
			wantErr: true,
		},
		{
			name:   "with the default config",
			config: newTestConfig(),
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recordingReporter{}
			ctlr := New(tt.config, WithReporter(rep))
			defer ctlr.Shutdown()

			err := ctlr.Start(t.Context())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, rep.started)
		})
	}
}

func TestControllerRunBeforeStart(t *testing.T) {
	ctlr := New(newTestConfig(), WithReporter(&recordingReporter{}))
	require.Error(t, ctlr.Run(t.Context()))
}

func TestControllerFetch(t *testing.T) {
	for _, events := range []bool{false, true} {
		name := "client"
		if events {
			name = "events"
		}
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t)
			cfg := newTestConfig()
			cfg.Events = events
			cfg.URLs = srv.URL + "/a, " + srv.URL + "/missing,," + srv.URL + "/b"

			rep := &recordingReporter{}
			ctlr := New(cfg, WithReporter(rep))
			require.NoError(t, ctlr.Start(t.Context()))
			require.NoError(t, ctlr.Run(t.Context()))
			ctlr.Shutdown()

			assert.True(t, rep.stopped)
			deps := rep.dependencies()
			require.Len(t, deps, 3)

			byName := make(map[string]operation.Telemetry, len(deps))
			for _, d := range deps {
				assert.Equal(t, operation.KindHTTP, d.Kind)
				byName[d.Name] = d
			}
			assert.Equal(t, "200", byName[srv.URL+"/a"].ResultCode)
			assert.True(t, byName[srv.URL+"/a"].Success)
			assert.Equal(t, "200", byName[srv.URL+"/b"].ResultCode)
			assert.Equal(t, "404", byName[srv.URL+"/missing"].ResultCode)
			assert.False(t, byName[srv.URL+"/missing"].Success)
		})
	}
}

func TestControllerSkipsSelfTraffic(t *testing.T) {
	srv := newTestServer(t)
	cfg := newTestConfig()
	cfg.SetTransportEndpoint(srv.URL + "/v2/track")
	cfg.URLs = srv.URL + "/v2/track," + srv.URL + "/other"

	rep := &recordingReporter{}
	ctlr := New(cfg, WithReporter(rep))
	require.NoError(t, ctlr.Start(t.Context()))
	require.NoError(t, ctlr.Run(t.Context()))
	ctlr.Shutdown()

	deps := rep.dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, srv.URL+"/other", deps[0].Name)
}

func TestControllerQuery(t *testing.T) {
	for name, tc := range map[string]struct {
		query   string
		success bool
	}{
		"valid":   {query: "SELECT 1 UNION ALL SELECT 2", success: true},
		"invalid": {query: "SELECT * FROM missing_table", success: false},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.SQLiteDSN = ":memory:"
			cfg.Query = tc.query

			rep := &recordingReporter{}
			ctlr := New(cfg, WithReporter(rep))
			require.NoError(t, ctlr.Start(t.Context()))
			require.NoError(t, ctlr.Run(t.Context()))
			ctlr.Shutdown()

			deps := rep.dependencies()
			require.Len(t, deps, 1)
			assert.Equal(t, operation.KindSQL, deps[0].Kind)
			assert.Equal(t, ":memory: | main", deps[0].Name)
			assert.Equal(t, tc.query, deps[0].CommandName)
			assert.Equal(t, tc.success, deps[0].Success)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		modify  func(cfg *Config)
		wantErr bool
	}{
		"defaults": {modify: func(*Config) {}},
		"urls": {
			modify: func(cfg *Config) { cfg.URLs = "http://a.example, https://b.example/x" },
		},
		"unsupported scheme": {
			modify:  func(cfg *Config) { cfg.URLs = "ftp://a.example" },
			wantErr: true,
		},
		"query without data source": {
			modify:  func(cfg *Config) { cfg.Query = "SELECT 1" },
			wantErr: true,
		},
		"zero reporter interval": {
			modify:  func(cfg *Config) { cfg.ReportInterval = 0 },
			wantErr: true,
		},
		"zero cache size": {
			modify:  func(cfg *Config) { cfg.CacheSize = 0 },
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := newTestConfig()
			tc.modify(cfg)
			if tc.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
