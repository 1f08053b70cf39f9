// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/dependency-collector/reporter"

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/dependency-collector/periodiccaller"
)

// runLoop implements the run loop for all reporters
type runLoop struct {
	mu   sync.Mutex
	stop func()
}

// Start calls run every reportInterval, +/- jitter, until ctx is canceled or Stop
// is called. Starting a running loop is a no-op.
func (rl *runLoop) Start(ctx context.Context, reportInterval time.Duration, jitter float64,
	run func()) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.stop != nil {
		return
	}
	rl.stop = periodiccaller.StartWithJitter(ctx, reportInterval, jitter, run)
}

// Stop blocks until the loop has exited. Stopping a loop that never started is a no-op.
func (rl *runLoop) Stop() {
	rl.mu.Lock()
	stop := rl.stop
	rl.stop = nil
	rl.mu.Unlock()

	if stop != nil {
		stop()
	}
}
