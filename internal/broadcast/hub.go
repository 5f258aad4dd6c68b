package broadcast

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/orbitdine/internal/models"
)

const DefaultBuffer = 64

// Mirror receives a copy of every published event.
type Mirror interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type Subscriber struct {
	ID string

	ch      chan Event
	mu      sync.RWMutex
	tables  map[uint]struct{}
	dropped atomic.Uint64
}

func (s *Subscriber) Events() <-chan Event { return s.ch }

// Join adds tableID to the subscriber's scope.
func (s *Subscriber) Join(tableID uint) {
	s.mu.Lock()
	s.tables[tableID] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

// wants reports whether the event is in scope; no joined tables means everything.
func (s *Subscriber) wants(tableID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[tableID]
	return ok
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	log    *slog.Logger
	mirror Mirror
	now    func() time.Time
}

func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
		log:    log.With("component", "broadcast"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetMirror must be called before the hub is shared.
func (h *Hub) SetMirror(m Mirror) { h.mirror = m }

func (h *Hub) Subscribe(tables ...uint) *Subscriber {
	s := &Subscriber{
		ID:     uuid.NewString(),
		ch:     make(chan Event, h.buffer),
		tables: make(map[uint]struct{}, len(tables)),
	}
	for _, t := range tables {
		s.tables[t] = struct{}{}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}

	h.mu.RLock()
	for s := range h.subs {
		if !s.wants(ev.TableID) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
			h.log.Warn("event_dropped", "subscriber", s.ID, "event", ev.Kind.WireName(), "table_id", ev.TableID)
		}
	}
	h.mu.RUnlock()

	if h.mirror != nil {
		key := strconv.FormatUint(uint64(ev.TableID), 10)
		if err := h.mirror.PublishEvent(ctx, key, ev.Message()); err != nil {
			h.log.Warn("mirror_error", "event", ev.Kind.WireName(), "error", err)
		}
	}
}

func (h *Hub) OrderCreated(ctx context.Context, order models.OrderDetail) {
	h.Publish(ctx, Event{Kind: KindOrderCreated, TableID: order.TableID, Payload: order})
}

func (h *Hub) OrderStatusChanged(ctx context.Context, id, tableID uint, status models.OrderStatus) {
	h.Publish(ctx, Event{
		Kind:    KindOrderStatusChanged,
		TableID: tableID,
		Payload: StatusPayload{ID: id, TableID: tableID, Status: status},
	})
}

func (h *Hub) TableServiceRequest(ctx context.Context, tableID uint, requestType string) {
	h.Publish(ctx, Event{
		Kind:    KindTableServiceRequest,
		TableID: tableID,
		Payload: TableRequestPayload{TableID: tableID, Type: requestType},
	})
}
