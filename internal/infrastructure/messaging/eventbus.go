// Package messaging implements the in-process event bus of EduPulse Insights.
// Domain events produced by command handlers fan out here to subscribers such
// as the leaderboard cache updaters and the risk alert logger.
package messaging

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNilEvent is returned when a nil event is published.
	ErrNilEvent = errors.New("event cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a simple in-memory implementation of shared.EventBus.
// Suitable for single-instance deployments and testing. Handler failures are
// logged and never propagate to the publisher: event side effects are
// best-effort, the command that produced the event has already committed.
type InMemoryEventBus struct {
	mu         sync.RWMutex
	handlers   map[shared.EventType][]shared.EventHandler
	asyncMode  bool
	workerPool chan struct{}
	log        *logger.Logger
	metrics    *BusMetrics
	closed     bool
	closeCh    chan struct{}
	wg         sync.WaitGroup
}

// Config contains configuration for InMemoryEventBus.
type Config struct {
	// AsyncMode runs handlers on a bounded worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async mode.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config Config) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	return &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		asyncMode:  config.AsyncMode,
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		log:        config.Logger.With(logger.String("component", "eventbus")),
		metrics:    NewBusMetrics(),
		closeCh:    make(chan struct{}),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debug("subscribed handler", logger.String("event_type", string(eventType)))
	return nil
}

// Unsubscribe removes a previously registered handler. Handlers are matched
// by function identity, so the same value passed to Subscribe must be used.
func (b *InMemoryEventBus) Unsubscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	target := reflect.ValueOf(handler).Pointer()
	registered := b.handlers[eventType]
	for i, h := range registered {
		if reflect.ValueOf(h).Pointer() == target {
			b.handlers[eventType] = append(registered[:i:i], registered[i+1:]...)
			b.log.Debug("unsubscribed handler", logger.String("event_type", string(eventType)))
			return nil
		}
	}
	return nil
}

// Publish sends an event to all handlers subscribed to its type.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, len(b.handlers[event.EventType()]))
	copy(handlers, b.handlers[event.EventType()])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	b.metrics.RecordPublish(event.EventType())

	if b.asyncMode {
		for _, handler := range handlers {
			b.executeAsync(event, handler)
		}
		return nil
	}

	for _, handler := range handlers {
		if err := b.execute(event, handler); err != nil {
			b.log.Error("handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}
	return nil
}

// Close waits for pending async handlers and shuts the bus down.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Info("event bus closed")
	return nil
}

// Metrics returns the bus counters.
func (b *InMemoryEventBus) Metrics() *BusMetrics {
	return b.metrics
}

// executeAsync runs a handler on the worker pool.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}

		if err := b.execute(event, handler); err != nil {
			b.log.Error("async handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}()
}

// execute runs one handler with panic recovery and metrics.
func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()

	start := time.Now()
	err = handler(event)
	b.metrics.RecordExecution(event.EventType(), time.Since(start), err == nil)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// BusMetrics tracks event bus counters.
type BusMetrics struct {
	mu sync.RWMutex

	Published     map[shared.EventType]int64
	Executions    int64
	Successes     int64
	Failures      int64
	TotalDuration time.Duration
}

// NewBusMetrics creates a new metrics tracker.
func NewBusMetrics() *BusMetrics {
	return &BusMetrics{
		Published: make(map[shared.EventType]int64),
	}
}

// RecordPublish records one published event.
func (m *BusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published[eventType]++
}

// RecordExecution records one handler execution.
func (m *BusMetrics) RecordExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Executions++
	m.TotalDuration += duration
	if success {
		m.Successes++
	} else {
		m.Failures++
	}
}

// Snapshot returns a point-in-time copy of the counters.
func (m *BusMetrics) Snapshot() BusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var published int64
	for _, v := range m.Published {
		published += v
	}

	avg := time.Duration(0)
	if m.Executions > 0 {
		avg = m.TotalDuration / time.Duration(m.Executions)
	}

	return BusMetricsSnapshot{
		TotalPublished:  published,
		TotalExecutions: m.Executions,
		Successes:       m.Successes,
		Failures:        m.Failures,
		AverageDuration: avg,
	}
}

// BusMetricsSnapshot is a point-in-time snapshot of bus counters.
type BusMetricsSnapshot struct {
	TotalPublished  int64
	TotalExecutions int64
	Successes       int64
	Failures        int64
	AverageDuration time.Duration
}
