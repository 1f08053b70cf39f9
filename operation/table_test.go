// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package operation_test

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/dependency-collector/operation"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://bing.com", http.NoBody)
	require.NoError(t, err)
	return req
}

func TestTableNilKey(t *testing.T) {
	tbl := operation.NewTable[http.Request]()

	require.ErrorIs(t, tbl.Store(nil, newRecord()), operation.ErrInvalidArgument)
	_, _, err := tbl.Get(nil)
	require.ErrorIs(t, err, operation.ErrInvalidArgument)
	_, err = tbl.Remove(nil)
	require.ErrorIs(t, err, operation.ErrInvalidArgument)
	_, err = tbl.CompareAndRemove(nil, newRecord())
	require.ErrorIs(t, err, operation.ErrInvalidArgument)
}

func TestTableStoreRejectsEmptyRecord(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	req := newRequest(t)

	require.ErrorIs(t, tbl.Store(req, nil), operation.ErrInvalidArgument)
	require.ErrorIs(t, tbl.Store(req, &operation.Record{}), operation.ErrInvalidArgument)
	assert.Equal(t, 0, tbl.Len())
}

func TestTableStoreGet(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	req := newRequest(t)
	rec := newRecord()

	_, ok, err := tbl.Get(req)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tbl.Store(req, rec))
	got, ok, err := tbl.Get(req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, rec, got)
}

func TestTableStoreDuplicateKey(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	req := newRequest(t)
	first, second := newRecord(), newRecord()

	require.NoError(t, tbl.Store(req, first))
	require.ErrorIs(t, tbl.Store(req, second), operation.ErrDuplicateKey)

	got, ok, err := tbl.Get(req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestTableKeysCompareByIdentity(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	a, b := newRequest(t), newRequest(t)
	require.Equal(t, a.URL.String(), b.URL.String())

	require.NoError(t, tbl.Store(a, newRecord()))
	_, ok, err := tbl.Get(b)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tbl.Store(b, newRecord()))
	assert.Equal(t, 2, tbl.Len())
}

func TestTableRemove(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	req := newRequest(t)
	require.NoError(t, tbl.Store(req, newRecord()))

	present, err := tbl.Remove(req)
	require.NoError(t, err)
	assert.True(t, present)

	for range 2 {
		present, err = tbl.Remove(req)
		require.NoError(t, err)
		assert.False(t, present)
	}
	_, ok, err := tbl.Get(req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestTableCompareAndRemove(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	req := newRequest(t)
	first, second := newRecord(), newRecord()
	require.NoError(t, tbl.Store(req, first))

	removed, err := tbl.CompareAndRemove(req, second)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = tbl.CompareAndRemove(req, first)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestTableConcurrentStoreRemoveSameKey(t *testing.T) {
	tbl := operation.NewTable[http.Request]()
	req := newRequest(t)

	var stored, duplicates, removed atomic.Int64
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tbl.Store(req, newRecord())
			switch {
			case err == nil:
				stored.Add(1)
			default:
				assert.ErrorIs(t, err, operation.ErrDuplicateKey)
				duplicates.Add(1)
			}
			if ok, err := tbl.Remove(req); err == nil && ok {
				removed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(64), stored.Load()+duplicates.Load())
	// Every successful store is removed exactly once.
	assert.Equal(t, stored.Load(), removed.Load())
	assert.Equal(t, 0, tbl.Len())
}
