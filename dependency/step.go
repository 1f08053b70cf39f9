// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/operation"
)

// step is the outcome of a single begin, end or exception callback.
type step uint8

const (
	stepNone step = iota
	// stepTracked: a new pending record was stored.
	stepTracked
	// stepAlreadyTracked: a record for the key was pending, the begin was ignored.
	stepAlreadyTracked
	// stepSelfTraffic: the call targets the telemetry backend and is not tracked.
	stepSelfTraffic
	// stepNoResource: the begin carried no resource name.
	stepNoResource
	// stepNoBegin: no pending record was found for an end or exception.
	stepNoBegin
	// stepCustom: the pending record was created by user code and left untouched.
	stepCustom
	// stepCompleted: the record was removed, finalized and handed to the reporter.
	stepCompleted
)

func (s step) String() string {
	switch s {
	case stepTracked:
		return "tracked"
	case stepAlreadyTracked:
		return "already tracked"
	case stepSelfTraffic:
		return "self traffic"
	case stepNoResource:
		return "no resource name"
	case stepNoBegin:
		return "end without begin"
	case stepCustom:
		return "custom created"
	case stepCompleted:
		return "completed"
	}
	return "none"
}

// guard runs a correlation callback and contains everything it returns or raises.
// Nothing, including a panic, propagates to the instrumented call site.
func guard(callback string, key any, fn func() (step, error)) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Add(metrics.IDDependencyCallbackErrors, 1)
			log.Errorf("Unexpected internal error in %s for %v: %v", callback, key, r)
		}
	}()

	s, err := fn()
	if err != nil {
		metrics.Add(metrics.IDDependencyCallbackErrors, 1)
		if errors.Is(err, operation.ErrInvalidArgument) {
			log.Warnf("%s for %v: %v", callback, key, err)
		} else {
			log.Errorf("%s for %v failed after %v: %v", callback, key, s, err)
		}
	}
	record(callback, key, s)
}

// record counts and logs a correlation anomaly.
func record(callback string, key any, s step) {
	switch s {
	case stepTracked, stepCompleted, stepNone:
		return
	case stepAlreadyTracked:
		metrics.Add(metrics.IDDependencyBeginWhilePending, 1)
	case stepSelfTraffic:
		metrics.Add(metrics.IDDependencySelfTraffic, 1)
	case stepNoResource:
		metrics.Add(metrics.IDDependencyEmptyResource, 1)
		log.Warnf("%s for %v: %v", callback, key, s)
		return
	case stepNoBegin:
		metrics.Add(metrics.IDDependencyEndWithoutBegin, 1)
	case stepCustom:
		metrics.Add(metrics.IDDependencyCustomSkipped, 1)
	}
	log.Debugf("%s for %v: %v", callback, key, s)
}

// errUnexpectedPayload is returned for event payload fields of an unsupported type.
var errUnexpectedPayload = errors.New("unexpected payload")

func payloadError(field string, v any) error {
	return fmt.Errorf("%w: %s of type %T", errUnexpectedPayload, field, v)
}
