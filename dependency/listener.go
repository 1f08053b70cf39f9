// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/dependency-collector/metrics"
)

// EventID identifies the kind of a transport event.
type EventID int

const (
	// EventBeginGetResponse carries [id, url].
	EventBeginGetResponse EventID = 140
	// EventEndGetResponse carries [id] or [id, success, synchronous, statusCode].
	EventEndGetResponse EventID = 141
	// EventBeginGetRequestStream carries [id, url].
	EventBeginGetRequestStream EventID = 142
	// EventEndGetRequestStream carries [id] and is not used for correlation.
	EventEndGetRequestStream EventID = 143
)

// Event is a loosely typed notification about an outbound HTTP call.
type Event struct {
	ID      EventID
	Payload []any
}

// EventListener decodes transport events and drives an HTTPEventProcessing.
type EventListener struct {
	http *HTTPEventProcessing
}

// NewEventListener returns a listener forwarding to p.
func NewEventListener(p *HTTPEventProcessing) *EventListener {
	return &EventListener{http: p}
}

// Start handles events on a separate goroutine until events is closed or ctx is
// canceled. The returned channel is closed once the goroutine has exited.
func (l *EventListener) Start(ctx context.Context, events <-chan Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				l.OnEvent(ev)
			}
		}
	}()
	return done
}

// OnEvent handles a single event. Malformed events are logged and dropped.
func (l *EventListener) OnEvent(ev Event) {
	if ev.Payload == nil {
		return
	}
	guard("OnEvent", ev.ID, func() (step, error) {
		switch ev.ID {
		case EventBeginGetResponse, EventBeginGetRequestStream:
			return stepNone, l.onBegin(ev.Payload)
		case EventEndGetResponse:
			return stepNone, l.onEnd(ev.Payload)
		}
		return stepNone, nil
	})
}

func (l *EventListener) onBegin(payload []any) error {
	if len(payload) < 2 {
		return nil
	}
	id, err := toInt64(payload[0])
	if err != nil {
		return payloadError("id", payload[0])
	}
	uri, err := toString(payload[1])
	if err != nil {
		return payloadError("url", payload[1])
	}
	l.http.OnBeginHTTP(id, uri)
	return nil
}

func (l *EventListener) onEnd(payload []any) error {
	if len(payload) < 1 {
		return nil
	}
	id, err := toInt64(payload[0])
	if err != nil {
		return payloadError("id", payload[0])
	}

	var (
		success     *bool
		synchronous bool
		statusCode  *int
	)
	// Short end events carry no outcome and are only sent for asynchronous calls.
	if len(payload) >= 4 {
		if payload[1] != nil {
			v, err := toBool(payload[1])
			if err != nil {
				return payloadError("success", payload[1])
			}
			success = &v
		}
		if payload[2] != nil {
			if synchronous, err = toBool(payload[2]); err != nil {
				return payloadError("synchronous", payload[2])
			}
		}
		if payload[3] != nil {
			v, err := toInt64(payload[3])
			if err != nil {
				return payloadError("statusCode", payload[3])
			}
			code := int(v)
			statusCode = &code
		}
	}

	l.http.OnEndHTTP(id, success, synchronous, statusCode)
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, errUnexpectedPayload
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	n, err := toInt64(v)
	return n != 0, err
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case interface{ String() string }:
		return s.String(), nil
	}
	return "", errUnexpectedPayload
}

// EventTransport is an http.RoundTripper that reports each request it sends as
// numbered events. Sending an event never blocks: events that do not fit into
// the channel are dropped and counted.
type EventTransport struct {
	base   http.RoundTripper
	events chan<- Event
	nextID atomic.Int64
}

// NewEventTransport wraps base, http.DefaultTransport if nil.
func NewEventTransport(base http.RoundTripper, events chan<- Event) *EventTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &EventTransport{base: base, events: events}
}

// RoundTrip implements http.RoundTripper.
func (t *EventTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := t.nextID.Add(1)
	uri := ResourceName(req)

	if hasBody(req) {
		t.emit(Event{ID: EventBeginGetRequestStream, Payload: []any{id, uri}})
	}
	t.emit(Event{ID: EventBeginGetResponse, Payload: []any{id, uri}})

	resp, err := t.base.RoundTrip(req)

	if hasBody(req) {
		t.emit(Event{ID: EventEndGetRequestStream, Payload: []any{id}})
	}
	var status any
	if err == nil && resp != nil {
		status = resp.StatusCode
	}
	t.emit(Event{ID: EventEndGetResponse, Payload: []any{id, err == nil, true, status}})
	return resp, err
}

func (t *EventTransport) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		metrics.Add(metrics.IDHTTPEventsDropped, 1)
		log.Debugf("Dropped event %d: channel full", ev.ID)
	}
}

func hasBody(req *http.Request) bool {
	return req.Body != nil && req.Body != http.NoBody
}
