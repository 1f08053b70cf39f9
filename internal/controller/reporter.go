// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/dependency-collector/internal/controller"

import (
	"context"
	"fmt"

	"go.opentelemetry.io/dependency-collector/reporter"
)

// startReporter sets up the reporter on the controller and starts it
func (c *Controller) startReporter(ctx context.Context) error {
	if c.reporter == nil {
		rep, err := reporter.NewTraces(&reporter.Config{
			ServiceName:    c.config.ServiceName,
			ReportInterval: c.config.ReportInterval,
			QueueSize:      c.config.ReportQueueSize,
		}, c.config.NextConsumer)
		if err != nil {
			return err
		}
		c.reporter = rep
	}

	if err := c.reporter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reporter: %w", err)
	}
	return nil
}
