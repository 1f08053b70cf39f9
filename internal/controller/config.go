// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/dependency-collector/internal/controller"

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/collector/consumer"

	"go.opentelemetry.io/dependency-collector/config"
)

type Config struct {
	*config.Config

	// URLs is a comma-separated list of URLs fetched through the instrumented client.
	URLs string
	// Events routes HTTP requests through the numbered event source.
	Events bool
	// SQLiteDSN is the data source the Query is run against.
	SQLiteDSN string
	// Query is run through the instrumented SQL wrapper if set.
	Query string
	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration
	// ServiceName is set as service.name on reported dependencies.
	ServiceName string
	Version     bool

	// NextConsumer receives the reported dependencies as trace batches. It is
	// used when no Reporter is set.
	NextConsumer consumer.Traces

	Fs *flag.FlagSet
}

// Dump visits all flag sets, and dumps them all to debug
// Used for verbose mode logging.
func (cfg *Config) Dump() {
	log.Debug("Config:")
	cfg.Fs.VisitAll(func(f *flag.Flag) {
		log.Debug(fmt.Sprintf("%s: %v", f.Name, f.Value))
	})
}

// Validate runs validations on the provided configuration, and returns errors
// if invalid values were provided.
func (cfg *Config) Validate() error {
	if cfg.Config == nil {
		return errors.New("missing collector configuration")
	}
	errs := []error{cfg.Config.Validate()}

	for _, raw := range cfg.urls() {
		u, err := url.Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid url: %w", err))
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("unsupported scheme in %q", raw))
		}
	}
	if cfg.Query != "" && cfg.SQLiteDSN == "" {
		errs = append(errs, errors.New("a query requires an sqlite data source"))
	}
	if cfg.ReportInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid reporter interval: %v", cfg.ReportInterval))
	}

	return errors.Join(errs...)
}

func (cfg *Config) urls() []string {
	var urls []string
	for _, u := range strings.Split(cfg.URLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
