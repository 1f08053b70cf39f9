// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package periodiccaller allows periodic calls of functions.
package periodiccaller // import "go.opentelemetry.io/dependency-collector/periodiccaller"

import (
	"context"
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"
)

// Start starts a timer that calls <callback> every <interval> until the <ctx> is canceled
// or the returned stop function is called. The stop function blocks until the
// background goroutine has exited, so no callback runs after it returns.
func Start(ctx context.Context, interval time.Duration, callback func()) (stop func()) {
	return run(ctx, func() time.Duration { return interval }, callback)
}

// StartWithJitter starts a timer that calls <callback> every <baseDuration+jitter>
// until the <ctx> is canceled or stop is called. <jitter>, [0..1], is used to add
// +/- jitter to <baseDuration> at every iteration of the timer.
func StartWithJitter(ctx context.Context, baseDuration time.Duration, jitter float64,
	callback func()) (stop func()) {
	return run(ctx, func() time.Duration { return AddJitter(baseDuration, jitter) }, callback)
}

func run(ctx context.Context, next func() time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})
	ticker := time.NewTicker(next())

	go func() {
		defer close(exited)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				callback()
			case <-ctx.Done():
				return
			}
			ticker.Reset(next())
		}
	}()

	return func() {
		cancel()
		<-exited
	}
}

// AddJitter adds +/- jitter (jitter is [0..1]) to baseDuration.
func AddJitter(baseDuration time.Duration, jitter float64) time.Duration {
	if jitter < 0.0 || jitter > 1.0 {
		log.Errorf("Jitter (%f) out of range [0..1].", jitter)
		return baseDuration
	}
	return time.Duration((1 + jitter - 2*jitter*rand.Float64()) * float64(baseDuration))
}
