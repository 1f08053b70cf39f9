// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector provides an OpenTelemetry Collector receiver that probes
// the configured HTTP endpoints and SQL databases and reports every call as a
// client span.
package collector // import "go.opentelemetry.io/dependency-collector/collector"

import (
	"context"
	"errors"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/receiver"

	"go.opentelemetry.io/dependency-collector/collector/config"
	"go.opentelemetry.io/dependency-collector/collector/internal"
)

var (
	typeStr = component.MustNewType("dependency")

	errInvalidConfig = errors.New("invalid config")
)

// NewFactory creates a factory for the receiver.
func NewFactory() receiver.Factory {
	return receiver.NewFactory(
		typeStr,
		defaultConfig,
		receiver.WithTraces(BuildTracesReceiver(), component.StabilityLevelAlpha))
}

// BuildTracesReceiver builds a traces receiver.
func BuildTracesReceiver(options ...Option) receiver.CreateTracesFunc {
	return func(_ context.Context,
		rs receiver.Settings,
		baseCfg component.Config,
		nextConsumer consumer.Traces,
	) (receiver.Traces, error) {
		cfg, ok := baseCfg.(*config.Config)
		if !ok {
			return nil, errInvalidConfig
		}

		opts := &internal.Options{}
		for _, option := range options {
			opts = option.apply(opts)
		}

		return internal.NewController(cfg, rs, nextConsumer, *opts)
	}
}

func defaultConfig() component.Config {
	return config.Default()
}
