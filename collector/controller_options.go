// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package collector // import "go.opentelemetry.io/dependency-collector/collector"

import (
	"net/http"

	"go.opentelemetry.io/dependency-collector/collector/internal"
)

type Option interface {
	apply(*internal.Options) *internal.Options
}

type optFunc func(*internal.Options) *internal.Options

func (f optFunc) apply(o *internal.Options) *internal.Options { return f(o) }

// WithTransport is a function that allows to configure the round tripper probes are sent through.
func WithTransport(rt http.RoundTripper) Option {
	return optFunc(func(option *internal.Options) *internal.Options {
		option.Transport = rt
		return option
	})
}

// WithOnShutdown is a function that allows to configure a function to be called when the controller is shutdown.
func WithOnShutdown(onShutdown func()) Option {
	return optFunc(func(option *internal.Options) *internal.Options {
		option.OnShutdown = onShutdown
		return option
	})
}
