// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/dependency-collector/reporter"

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FifoRingBuffer implements a first-in-first-out ring buffer that is safe for concurrent access.
// Once full, new elements overwrite the oldest ones.
type FifoRingBuffer[T any] struct {
	mu sync.Mutex

	// name identifies the ring buffer in log messages.
	name string

	data []T

	// readPos is the position of the oldest element, count the number of stored elements.
	readPos, count int

	// overwriteCount counts overwritten elements since the last GetOverwriteCount call.
	overwriteCount uint32
	// warned is set once the first overwrite was logged and reset by ReadAll.
	warned bool
}

// NewFifo returns an empty ring buffer holding up to size elements.
func NewFifo[T any](size uint32, name string) (*FifoRingBuffer[T], error) {
	if size == 0 {
		return nil, fmt.Errorf("unsupported size of fifo %s: %d", name, size)
	}
	return &FifoRingBuffer[T]{
		name: name,
		data: make([]T, size),
	}, nil
}

// Append adds v to the ring buffer. It reports whether the oldest element had to be
// overwritten to make room.
func (q *FifoRingBuffer[T]) Append(v T) (overwritten bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := len(q.data)
	q.data[(q.readPos+q.count)%size] = v
	if q.count < size {
		q.count++
		return false
	}

	q.readPos = (q.readPos + 1) % size
	q.overwriteCount++
	if !q.warned {
		log.Warnf("Overwriting elements in buffer for %s", q.name)
		q.warned = true
	}
	return true
}

// Len returns the number of buffered elements.
func (q *FifoRingBuffer[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// ReadAll removes and returns all elements, oldest first.
func (q *FifoRingBuffer[T]) ReadAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	size := len(q.data)
	data := make([]T, q.count)
	for i := range data {
		pos := (q.readPos + i) % size
		data[i] = q.data[pos]
		// Allow for element to be GCed
		q.data[pos] = zero
	}

	q.readPos = 0
	q.count = 0
	q.warned = false
	return data
}

// GetOverwriteCount returns and resets the number of overwritten elements.
func (q *FifoRingBuffer[T]) GetOverwriteCount() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := q.overwriteCount
	q.overwriteCount = 0
	return count
}
