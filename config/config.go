// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the configuration of the dependency collector.
package config // import "go.opentelemetry.io/dependency-collector/config"

import (
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/dependency-collector/times"
)

const (
	// DefaultIngestionEndpoint is the fixed ingestion endpoint of the telemetry backend.
	DefaultIngestionEndpoint = "https://dc.services.visualstudio.com/v2/track"
	// DefaultCacheSize is the default item capacity of each keyed operation cache.
	DefaultCacheSize = 1 << 16
	// DefaultReportQueueSize is the default number of completed dependencies buffered
	// between two reports.
	DefaultReportQueueSize = 4096
)

// Config is the configuration for the dependency collector.
//
// A Config must not be copied after first use.
type Config struct {
	// IngestionEndpointURL is the fixed ingestion endpoint of the telemetry backend.
	IngestionEndpointURL string `mapstructure:"ingestion_endpoint"`
	// CacheSize defines the item capacity of each keyed operation cache.
	CacheSize uint32 `mapstructure:"cache_size"`
	// CacheLifetime is the sliding eviction window of the keyed operation caches.
	CacheLifetime time.Duration `mapstructure:"cache_lifetime"`
	// SweepInterval defines how often expired cache entries are purged.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// ReportInterval defines how often completed dependencies are flushed.
	ReportInterval time.Duration `mapstructure:"report_interval"`
	// ReportQueueSize bounds the number of dependencies buffered between reports.
	ReportQueueSize uint32 `mapstructure:"report_queue_size"`
	// VerboseMode enables debug logging.
	VerboseMode bool `mapstructure:"verbose_mode"`

	// transportEndpoint is the delivery endpoint of the currently active telemetry
	// transport. It may change at runtime.
	transportEndpoint atomic.Pointer[string]
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		IngestionEndpointURL: DefaultIngestionEndpoint,
		CacheSize:            DefaultCacheSize,
		CacheLifetime:        times.DefaultCacheLifetime,
		SweepInterval:        times.DefaultSweepInterval,
		ReportInterval:       times.DefaultReportInterval,
		ReportQueueSize:      DefaultReportQueueSize,
	}
}

// IngestionEndpoint returns the fixed ingestion endpoint of the telemetry backend.
func (cfg *Config) IngestionEndpoint() string {
	return cfg.IngestionEndpointURL
}

// TransportEndpoint returns the delivery endpoint of the active telemetry transport.
func (cfg *Config) TransportEndpoint() string {
	if p := cfg.transportEndpoint.Load(); p != nil {
		return *p
	}
	return ""
}

// SetTransportEndpoint replaces the delivery endpoint of the active telemetry transport.
func (cfg *Config) SetTransportEndpoint(endpoint string) {
	cfg.transportEndpoint.Store(&endpoint)
}

// Times returns the intervals derived from this configuration.
func (cfg *Config) Times() *times.Times {
	return times.New(cfg.CacheLifetime, cfg.SweepInterval, cfg.ReportInterval)
}

// Validate runs validations on the provided configuration, and returns errors
// if invalid values were provided.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.IngestionEndpointURL == "" {
		errs = append(errs, errors.New("ingestion endpoint must not be empty"))
	} else if err := validateEndpoint(cfg.IngestionEndpointURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid ingestion endpoint: %w", err))
	}

	if endpoint := cfg.TransportEndpoint(); endpoint != "" {
		if err := validateEndpoint(endpoint); err != nil {
			errs = append(errs, fmt.Errorf("invalid transport endpoint: %w", err))
		}
	}

	if cfg.CacheSize == 0 {
		errs = append(errs, errors.New("cache size must be greater than zero"))
	}
	if cfg.ReportQueueSize == 0 {
		errs = append(errs, errors.New("report queue size must be greater than zero"))
	}
	if cfg.SweepInterval > cfg.CacheLifetime && cfg.CacheLifetime > 0 {
		errs = append(errs, fmt.Errorf("sweep interval %v exceeds cache lifetime %v",
			cfg.SweepInterval, cfg.CacheLifetime))
	}

	return errors.Join(errs...)
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", endpoint)
	}
	return nil
}
