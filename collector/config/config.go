// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package config // import "go.opentelemetry.io/dependency-collector/collector/config"

import (
	"errors"
	"fmt"
	"strings"
	"time"

	dcconfig "go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/internal/controller"
	"go.opentelemetry.io/dependency-collector/times"
)

const (
	defaultProbeInterval  = 1 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	defaultServiceName    = "dependency-receiver"
)

// Config is the configuration for the collector.
type Config struct {
	IngestionEndpoint string        `mapstructure:"ingestion_endpoint"`
	TransportEndpoint string        `mapstructure:"transport_endpoint"`
	CacheSize         uint32        `mapstructure:"cache_size"`
	CacheLifetime     time.Duration `mapstructure:"cache_lifetime"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	ReporterInterval  time.Duration `mapstructure:"reporter_interval"`
	ReportQueueSize   uint32        `mapstructure:"report_queue_size"`
	ProbeInterval     time.Duration `mapstructure:"probe_interval"`
	URLs              []string      `mapstructure:"urls"`
	Events            bool          `mapstructure:"events"`
	SQLiteDSN         string        `mapstructure:"sqlite_dsn"`
	Query             string        `mapstructure:"query"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ServiceName       string        `mapstructure:"service_name"`
	VerboseMode       bool          `mapstructure:"verbose_mode"`
}

// Default returns the default receiver configuration.
func Default() *Config {
	return &Config{
		IngestionEndpoint: dcconfig.DefaultIngestionEndpoint,
		CacheSize:         dcconfig.DefaultCacheSize,
		CacheLifetime:     times.DefaultCacheLifetime,
		SweepInterval:     times.DefaultSweepInterval,
		ReporterInterval:  times.DefaultReportInterval,
		ReportQueueSize:   dcconfig.DefaultReportQueueSize,
		ProbeInterval:     defaultProbeInterval,
		RequestTimeout:    defaultRequestTimeout,
		ServiceName:       defaultServiceName,
	}
}

// Validate checks if the receiver configuration is valid.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.ProbeInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid probe interval: %v", cfg.ProbeInterval))
	}
	if len(cfg.URLs) == 0 && cfg.Query == "" {
		errs = append(errs, errors.New("at least one url or a query must be configured"))
	}
	errs = append(errs, cfg.ControllerConfig().Validate())
	return errors.Join(errs...)
}

// ControllerConfig converts the receiver configuration into the configuration
// of the controller running the probes.
func (cfg *Config) ControllerConfig() *controller.Config {
	c := &controller.Config{
		Config:         dcconfig.Default(),
		URLs:           strings.Join(cfg.URLs, ","),
		Events:         cfg.Events,
		SQLiteDSN:      cfg.SQLiteDSN,
		Query:          cfg.Query,
		RequestTimeout: cfg.RequestTimeout,
		ServiceName:    cfg.ServiceName,
	}
	c.IngestionEndpointURL = cfg.IngestionEndpoint
	c.CacheSize = cfg.CacheSize
	c.CacheLifetime = cfg.CacheLifetime
	c.SweepInterval = cfg.SweepInterval
	c.ReportInterval = cfg.ReporterInterval
	c.ReportQueueSize = cfg.ReportQueueSize
	c.VerboseMode = cfg.VerboseMode
	if cfg.TransportEndpoint != "" {
		c.SetTransportEndpoint(cfg.TransportEndpoint)
	}
	return c
}
