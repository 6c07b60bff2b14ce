// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// EventQueueSize is the buffer size for subscriber channels
	EventQueueSize = 20
	// AsyncQueueSize is the buffer size for the async publish queue
	AsyncQueueSize = 1000
)

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

type asyncEvent struct {
	eventType EventType
	event     Event
}

// EventBus provides typed publish/subscribe event delivery between
// components. Synchronous Publish blocks on each subscriber channel;
// PublishAsync enqueues for background delivery.
type EventBus struct {
	logger      *slog.Logger
	subscribers map[EventType]map[EventSubscriberId]chan Event
	metrics     *eventMetrics
	lastSubId   EventSubscriberId
	asyncQueue  chan asyncEvent
	stopCh      chan struct{}
	asyncDone   sync.WaitGroup
	stopped     bool
	mu          sync.RWMutex
}

// NewEventBus creates an EventBus and starts its async delivery worker
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		logger:      logger.With("component", "eventbus"),
		subscribers: make(map[EventType]map[EventSubscriberId]chan Event),
		asyncQueue:  make(chan asyncEvent, AsyncQueueSize),
		stopCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		e.metrics = newEventMetrics(promRegistry)
	}
	e.asyncDone.Add(1)
	go e.asyncWorker()
	return e
}

func (e *EventBus) asyncWorker() {
	defer e.asyncDone.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case ae, ok := <-e.asyncQueue:
			if !ok {
				return
			}
			e.Publish(ae.eventType, ae.event)
		}
	}
}

// Subscribe registers a consumer for events of a particular type and
// returns the subscriber ID and delivery channel
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Event, EventQueueSize)
	e.lastSubId++
	subId := e.lastSubId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]chan Event)
	}
	e.subscribers[eventType][subId] = ch
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Inc()
	}
	return subId, ch
}

// SubscribeFunc registers a callback invoked for each event of the given
// type. The callback goroutine exits when the subscriber is unsubscribed
// or the bus is stopped.
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	go func() {
		for evt := range evtCh {
			handlerFunc(evt)
		}
	}()
	return subId
}

// Unsubscribe stops event delivery for an existing subscriber
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	var chToClose chan Event
	if evtTypeSubs, ok := e.subscribers[eventType]; ok {
		if ch, ok2 := evtTypeSubs[subId]; ok2 {
			chToClose = ch
			delete(evtTypeSubs, subId)
			if len(evtTypeSubs) == 0 {
				delete(e.subscribers, eventType)
			}
			if e.metrics != nil {
				e.metrics.subscribers.WithLabelValues(string(eventType)).Dec()
			}
		}
	}
	e.mu.Unlock()
	if chToClose != nil {
		close(chToClose)
	}
}

// Publish delivers an event of a particular type to all subscribers,
// blocking until each subscriber channel accepts it
func (e *EventBus) Publish(eventType EventType, evt Event) {
	// The read lock is held across the sends so Stop cannot close a
	// channel with a delivery in flight
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ch := range e.subscribers[eventType] {
		ch <- evt
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
	}
}

// PublishAsync enqueues an event for background delivery and returns
// immediately. Returns false if the bus is stopped or the queue is full.
func (e *EventBus) PublishAsync(eventType EventType, evt Event) bool {
	e.mu.RLock()
	stopped := e.stopped
	e.mu.RUnlock()
	if stopped {
		return false
	}
	select {
	case e.asyncQueue <- asyncEvent{eventType: eventType, event: evt}:
		return true
	default:
		e.logger.Warn(
			"async event queue full, dropping event",
			"type", eventType,
		)
		if e.metrics != nil {
			e.metrics.droppedTotal.WithLabelValues(string(eventType)).Inc()
		}
		return false
	}
}

// Stop shuts down the async worker and closes all subscriber channels so
// SubscribeFunc goroutines exit cleanly
func (e *EventBus) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	subsCopy := e.subscribers
	e.subscribers = make(map[EventType]map[EventSubscriberId]chan Event)
	e.mu.Unlock()
	close(e.stopCh)
	e.asyncDone.Wait()
	for _, evtTypeSubs := range subsCopy {
		for _, ch := range evtTypeSubs {
			close(ch)
		}
	}
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}
