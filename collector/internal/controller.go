// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "go.opentelemetry.io/dependency-collector/collector/internal"

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/receiver"
	"go.uber.org/zap"

	"go.opentelemetry.io/dependency-collector/collector/config"
	"go.opentelemetry.io/dependency-collector/internal/controller"
	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/periodiccaller"
	"go.opentelemetry.io/dependency-collector/vc"
)

const (
	ctrlName = "go.opentelemetry.io/dependency-collector"
)

// Options are the receiver settings that cannot be expressed in the collector configuration.
type Options struct {
	Transport  http.RoundTripper
	OnShutdown func()
}

// Controller is a bridge between the Collector's [receiver.Traces]
// interface and our [controller.Controller]
type Controller struct {
	ctlr       *controller.Controller
	logger     *zap.Logger
	interval   time.Duration
	onShutdown func()

	cancel context.CancelFunc
	stop   func()
}

func NewController(cfg *config.Config, rs receiver.Settings,
	nextConsumer consumer.Traces, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctlrCfg := cfg.ControllerConfig()
	ctlrCfg.NextConsumer = nextConsumer
	if ctlrCfg.VerboseMode {
		log.SetLevel(log.DebugLevel)
	}

	// Provide internal metrics via the collectors telemetry.
	meter := rs.MeterProvider.Meter(ctrlName)
	metrics.Start(meter)

	var ctlrOpts []controller.Option
	if opts.Transport != nil {
		ctlrOpts = append(ctlrOpts, controller.WithTransport(opts.Transport))
	}

	return &Controller{
		ctlr:       controller.New(ctlrCfg, ctlrOpts...),
		logger:     rs.Logger,
		interval:   cfg.ProbeInterval,
		onShutdown: opts.OnShutdown,
	}, nil
}

// Start starts the receiver.
func (c *Controller) Start(_ context.Context, _ component.Host) error {
	// The context passed to Start only covers the startup.
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.ctlr.Start(ctx); err != nil {
		cancel()
		return err
	}
	c.cancel = cancel
	c.stop = periodiccaller.Start(ctx, c.interval, func() {
		if err := c.ctlr.Run(ctx); err != nil {
			c.logger.Warn("Dependency probe failed", zap.Error(err))
		}
	})

	c.logger.Info("Dependency receiver started",
		zap.String("version", vc.Version()),
		zap.Duration("probe_interval", c.interval))
	return nil
}

// Shutdown stops the receiver.
func (c *Controller) Shutdown(_ context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.stop != nil {
		c.stop()
	}
	c.ctlr.Shutdown()
	if c.onShutdown != nil {
		c.onShutdown()
	}
	return nil
}
