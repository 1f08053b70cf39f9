// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package operation holds in-progress dependency calls between their begin and
// end notifications.
//
// Two stores are provided. Cache is keyed by a numeric call identifier and evicts
// idle entries after a sliding lifetime. Table is keyed by the identity of the
// call-site object and never evicts anything on its own.
package operation // import "go.opentelemetry.io/dependency-collector/operation"

import (
	"errors"
	"time"
)

var (
	// ErrInvalidArgument is returned when a nil key or an empty record is passed to a store.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicateKey is returned when a Table already holds a live entry for a key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Kind tags the type of the outbound call.
type Kind string

const (
	KindHTTP Kind = "Http"
	KindSQL  Kind = "SQL"
)

// Telemetry is the dependency payload that is built between begin and end and
// eventually handed to a reporter.
type Telemetry struct {
	// Name is the resource name: the full URL for HTTP, or
	// "dataSource | database[ | procedure]" for SQL.
	Name string
	Kind Kind
	// CommandName holds the SQL command text.
	CommandName string
	// ResultCode is the HTTP status code or the database error number.
	// Empty if none is known.
	ResultCode string
	Success    bool
	Async      bool
	// StartTime carries a monotonic clock reading, Duration is derived from it.
	StartTime time.Time
	Duration  time.Duration
	// SDKVersion identifies the notification source the dependency was collected by.
	SDKVersion string
}

// NewTelemetry starts a dependency of the given kind at the current time.
func NewTelemetry(name string, kind Kind) *Telemetry {
	return &Telemetry{
		Name:      name,
		Kind:      kind,
		StartTime: time.Now(),
	}
}

// Stop fixes the duration of the dependency at the current time.
func (t *Telemetry) Stop() {
	t.Duration = max(time.Since(t.StartTime), 0)
}

// Record is an in-progress call as held by a Cache or a Table.
type Record struct {
	Telemetry *Telemetry
	// CustomCreated marks records created by user code. They are never completed
	// or removed by the correlation protocol.
	CustomCreated bool
}

// NewRecord wraps telemetry into a record created by the correlation protocol.
func NewRecord(t *Telemetry) *Record {
	return &Record{Telemetry: t}
}

func (r *Record) empty() bool {
	return r == nil || r.Telemetry == nil
}
