// Package broadcast fans order events out to live observers.
//
// Every observer owns a bounded queue drained by its own goroutine, so a
// slow or dead observer never blocks Publish or the other observers. An
// observer whose write fails, or whose queue overflows, is unregistered.
// Durable observers such as broker relays keep their registration on
// overflow and lose their oldest queued events instead.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/metrics"
	"github.com/google/uuid"
)

// ErrClosed is returned by Register after Close.
var ErrClosed = errors.New("broadcast hub closed")

// Conn is the transport behind one observer.
type Conn interface {
	WriteMessage(ctx context.Context, msg []byte) error
	Close() error
}

// Durable marks an observer that must outlive backpressure. When its queue is
// full the hub drops the oldest queued event instead of unregistering it.
type Durable interface {
	Conn
	Durable()
}

// Message is the wire shape of every event.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

const (
	defaultQueueSize    = 64
	defaultWriteTimeout = 5 * time.Second
)

type Hub struct {
	logger       *slog.Logger
	queueSize    int
	writeTimeout time.Duration

	mu        sync.RWMutex
	observers map[string]*observer
	closed    bool
	wg        sync.WaitGroup
}

type Option func(*Hub)

func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:       logger,
		queueSize:    defaultQueueSize,
		writeTimeout: defaultWriteTimeout,
		observers:    make(map[string]*observer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type observer struct {
	id      string
	conn    Conn
	durable bool
	queue   chan []byte
	done    chan struct{}
	once    sync.Once
}

func (o *observer) stop() {
	o.once.Do(func() {
		close(o.done)
		_ = o.conn.Close()
	})
}

// Register adds conn and returns the id to unregister it with.
func (h *Hub) Register(conn Conn) (string, error) {
	_, durable := conn.(Durable)
	o := &observer{
		id:      uuid.NewString(),
		conn:    conn,
		durable: durable,
		queue:   make(chan []byte, h.queueSize),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrClosed
	}
	h.observers[o.id] = o
	n := len(h.observers)
	h.wg.Add(1)
	h.mu.Unlock()

	metrics.FeedObservers.Set(float64(n))
	h.logger.Info("observer registered", "observer_id", o.id, "observers", n)

	go h.pump(o)
	return o.id, nil
}

// Unregister removes the observer and closes its connection. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	o, ok := h.observers[id]
	if ok {
		delete(h.observers, id)
	}
	n := len(h.observers)
	h.mu.Unlock()

	if !ok {
		return
	}
	o.stop()
	metrics.FeedObservers.Set(float64(n))
	h.logger.Info("observer removed", "observer_id", id, "observers", n)
}

// Publish serializes {event, data} once and queues it for every observer.
// It never blocks on an observer and never fails the caller.
func (h *Hub) Publish(event string, data any) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*observer, 0, len(h.observers))
	for _, o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.RUnlock()

	for _, o := range targets {
		select {
		case <-o.done:
		case o.queue <- payload:
		default:
			if o.durable {
				h.displaceOldest(o, payload, event)
				continue
			}
			h.logger.Warn("observer queue full, dropping observer", "observer_id", o.id, "event", event)
			h.Unregister(o.id)
		}
	}
}

// displaceOldest makes room for payload in a durable observer's full queue.
func (h *Hub) displaceOldest(o *observer, payload []byte, event string) {
	select {
	case <-o.queue:
		h.logger.Warn("observer queue full, dropped oldest event", "observer_id", o.id, "event", event)
	default:
	}
	select {
	case o.queue <- payload:
	default:
		h.logger.Warn("observer queue full, dropped event", "observer_id", o.id, "event", event)
	}
}

// Len returns the number of registered observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Close disconnects every observer and waits for their writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	observers := h.observers
	h.observers = make(map[string]*observer)
	h.mu.Unlock()

	for _, o := range observers {
		o.stop()
	}
	h.wg.Wait()
	metrics.FeedObservers.Set(0)
}

func (h *Hub) pump(o *observer) {
	defer h.wg.Done()
	for {
		select {
		case <-o.done:
			return
		case msg := <-o.queue:
			ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
			err := o.conn.WriteMessage(ctx, msg)
			cancel()
			if err != nil {
				h.logger.Info("observer write failed", "observer_id", o.id, "error", err)
				h.Unregister(o.id)
				return
			}
		}
	}
}
