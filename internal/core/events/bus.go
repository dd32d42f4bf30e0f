package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrBusDraining = errors.New("event bus is draining")

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// Scoped is implemented by events that belong to one company.
type Scoped interface {
	Company() int64
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

// EventBus fans committed domain events out to in-process subscribers.
// Asynchronous deliveries are tracked so Drain can wait for them on shutdown.
type EventBus struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
	inflight sync.WaitGroup
	draining bool
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(eb.handlers[eventType]))
}

// Publish delivers event to every subscriber in the background. Handlers get a
// context detached from the caller's cancellation, since the request that
// produced the event has usually finished by the time they run.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	if eb.draining {
		eb.mu.RUnlock()
		return ErrBusDraining
	}
	handlers := eb.handlers[event.EventType()]
	if len(handlers) > 0 {
		eb.inflight.Add(len(handlers))
	}
	eb.mu.RUnlock()

	attrs := eventAttrs(event)
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", attrs...)
		return nil
	}
	eb.logger.Debug("publishing event", append(attrs, "handlers_count", len(handlers))...)

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go func(h Handler) {
			defer eb.inflight.Done()
			if err := eb.deliver(detached, h, event); err != nil {
				eb.logger.ErrorContext(detached, "event handler failed", append(attrs, "error", err)...)
			}
		}(handler)
	}
	return nil
}

// PublishSync runs subscribers in order and stops at the first failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType()]
	eb.mu.RUnlock()

	attrs := eventAttrs(event)
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", attrs...)
		return nil
	}

	for _, handler := range handlers {
		if err := eb.deliver(ctx, handler, event); err != nil {
			eb.logger.ErrorContext(ctx, "event handler failed", append(attrs, "error", err)...)
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Drain stops accepting asynchronous events and waits for deliveries already
// in flight, or for ctx to end.
func (eb *EventBus) Drain(ctx context.Context) error {
	eb.mu.Lock()
	eb.draining = true
	eb.mu.Unlock()

	done := make(chan struct{})
	go func() {
		eb.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus drain: %w", ctx.Err())
	}
}

func (eb *EventBus) deliver(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, event)
}

func eventAttrs(event Event) []any {
	attrs := []any{"event_type", event.EventType(), "event_id", event.EventID()}
	if s, ok := event.(Scoped); ok {
		attrs = append(attrs, "company_id", s.Company())
	}
	return attrs
}
