// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/dependency-collector/internal/controller"

import (
	"net/http"

	"go.opentelemetry.io/dependency-collector/reporter"
)

type Option interface {
	applyOption(*Controller) *Controller
}
type controllerOptionFunc func(*Controller) *Controller

func (f controllerOptionFunc) applyOption(c *Controller) *Controller {
	return f(c)
}

// WithReporter sets a custom reporter that will be run for that controller.
// This defaults to [reporter.TracesReporter]
func WithReporter(rep reporter.Reporter) Option {
	return controllerOptionFunc(func(c *Controller) *Controller {
		c.reporter = rep
		return c
	})
}

// WithTransport sets the round tripper the instrumented HTTP client sends through.
// This defaults to [http.DefaultTransport]
func WithTransport(rt http.RoundTripper) Option {
	return controllerOptionFunc(func(c *Controller) *Controller {
		c.transport = rt
		return c
	})
}
