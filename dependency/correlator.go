// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package dependency correlates begin and end notifications of outbound calls
// into completed dependencies.
//
// Each processor owns a correlator over one store: HTTPEventProcessing keys calls
// by numeric event id, HTTPClientProcessing and SQLProcessing key them by the
// identity of the request or command object. The first begin for a key starts
// the call, later begins are ignored until the call is closed, and exactly one
// end or exception closes it.
package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/operation"
	"go.opentelemetry.io/dependency-collector/reporter"
	"go.opentelemetry.io/dependency-collector/successfailurecounter"
)

// trafficFilter recognizes calls made to the telemetry backend.
type trafficFilter interface {
	IsOwnTrafficURL(rawURL string) bool
}

// holder is the store a correlator keeps pending records in.
type holder[K any] interface {
	get(key K) (*operation.Record, bool, error)
	// storeIfAbsent stores rec unless a record is pending for key.
	storeIfAbsent(key K, rec *operation.Record) (stored bool, err error)
	// compareAndRemove removes the record for key only if it is rec.
	compareAndRemove(key K, rec *operation.Record) (bool, error)
}

type cacheHolder struct {
	cache *operation.Cache
}

func (h cacheHolder) get(id int64) (*operation.Record, bool, error) {
	rec, ok := h.cache.Get(id)
	return rec, ok, nil
}

func (h cacheHolder) storeIfAbsent(id int64, rec *operation.Record) (bool, error) {
	_, stored, err := h.cache.StoreIfAbsent(id, rec)
	return stored, err
}

func (h cacheHolder) compareAndRemove(id int64, rec *operation.Record) (bool, error) {
	return h.cache.CompareAndRemove(id, rec), nil
}

type tableHolder[T any] struct {
	table *operation.Table[T]
}

func (h tableHolder[T]) get(key *T) (*operation.Record, bool, error) {
	return h.table.Get(key)
}

func (h tableHolder[T]) storeIfAbsent(key *T, rec *operation.Record) (bool, error) {
	err := h.table.Store(key, rec)
	if errors.Is(err, operation.ErrDuplicateKey) {
		return false, nil
	}
	return err == nil, err
}

func (h tableHolder[T]) compareAndRemove(key *T, rec *operation.Record) (bool, error) {
	return h.table.CompareAndRemove(key, rec)
}

// correlator implements begin/end pairing for one kind of call over one store.
type correlator[K any] struct {
	holder     holder[K]
	kind       operation.Kind
	sdkVersion string
	// filter is nil for kinds that cannot reach the telemetry backend.
	filter   trafficFilter
	reporter reporter.DependencyReporter
}

// begin starts tracking the call identified by key, unless it is already tracked.
// init completes the new telemetry before it is stored.
func (c *correlator[K]) begin(key K, resourceName string,
	init func(*operation.Telemetry)) (step, error) {
	metrics.Add(metrics.IDDependencyBeginCalls, 1)

	if resourceName == "" {
		return stepNoResource, nil
	}
	if c.filter != nil && c.filter.IsOwnTrafficURL(resourceName) {
		return stepSelfTraffic, nil
	}

	// Any pending record keeps its start time, including custom-created ones.
	if _, ok, err := c.holder.get(key); err != nil {
		return stepNone, err
	} else if ok {
		return stepAlreadyTracked, nil
	}

	t := operation.NewTelemetry(resourceName, c.kind)
	t.SDKVersion = c.sdkVersion
	if init != nil {
		init(t)
	}

	stored, err := c.holder.storeIfAbsent(key, operation.NewRecord(t))
	if err != nil {
		return stepNone, err
	}
	if !stored {
		return stepAlreadyTracked, nil
	}
	return stepTracked, nil
}

// end closes the call identified by key. finish sets the outcome on the telemetry
// before it is reported.
func (c *correlator[K]) end(key K, finish func(*operation.Telemetry)) (step, error) {
	metrics.Add(metrics.IDDependencyEndCalls, 1)

	rec, ok, err := c.holder.get(key)
	if err != nil {
		return stepNone, err
	}
	if !ok {
		return stepNoBegin, nil
	}
	if rec.CustomCreated {
		return stepCustom, nil
	}

	// Only the caller that removes the record may complete it.
	removed, err := c.holder.compareAndRemove(key, rec)
	if err != nil {
		return stepNone, err
	}
	if !removed {
		return stepNoBegin, nil
	}

	t := rec.Telemetry
	t.Stop()
	finish(t)

	sfc := successfailurecounter.New(metrics.IDDependencySucceeded, metrics.IDDependencyFailed)
	sfc.Report(t.Success)

	if err := c.reporter.ReportDependency(t); err != nil {
		return stepCompleted, fmt.Errorf("reporting dependency %s: %w", t.Name, err)
	}
	return stepCompleted, nil
}
