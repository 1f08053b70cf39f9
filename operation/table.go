// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package operation // import "go.opentelemetry.io/dependency-collector/operation"

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Table maps the identity of a call-site object to its in-progress record.
//
// Keys compare by address: two distinct objects with equal contents are
// distinct keys. Entries are not reclaimed when the key object becomes
// unreachable; every entry stored must be removed by the caller that stored it.
//
// All operations are lock-free and safe for concurrent use.
type Table[T any] struct {
	m    sync.Map // *T -> *Record
	size atomic.Int64
}

// NewTable returns an empty Table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Store inserts rec for key. It fails with ErrDuplicateKey if key already holds
// a live record, which is left untouched.
func (t *Table[T]) Store(key *T, rec *Record) error {
	if key == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}
	if rec.empty() {
		return fmt.Errorf("%w: empty record", ErrInvalidArgument)
	}
	if _, loaded := t.m.LoadOrStore(key, rec); loaded {
		return fmt.Errorf("%w: %p", ErrDuplicateKey, key)
	}
	t.size.Add(1)
	return nil
}

// Get returns the record for key.
func (t *Table[T]) Get(key *T) (*Record, bool, error) {
	if key == nil {
		return nil, false, fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}
	v, ok := t.m.Load(key)
	if !ok {
		return nil, false, nil
	}
	return v.(*Record), true, nil
}

// Remove removes the record for key and reports whether one was present.
func (t *Table[T]) Remove(key *T) (bool, error) {
	if key == nil {
		return false, fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}
	if _, loaded := t.m.LoadAndDelete(key); loaded {
		t.size.Add(-1)
		return true, nil
	}
	return false, nil
}

// CompareAndRemove removes the record for key only if it is rec.
func (t *Table[T]) CompareAndRemove(key *T, rec *Record) (bool, error) {
	if key == nil {
		return false, fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}
	if t.m.CompareAndDelete(key, rec) {
		t.size.Add(-1)
		return true, nil
	}
	return false, nil
}

// Len returns the number of live records.
func (t *Table[T]) Len() int {
	return int(t.size.Load())
}
