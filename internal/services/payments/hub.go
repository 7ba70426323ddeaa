package payments

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"payments-portal/internal/logger"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber represents a connection that receives status events for one payment
type Subscriber struct {
	PaymentID bson.ObjectID
	Ch        chan PaymentEvent
	Done      chan struct{}
}

// ConnInfo holds connection metadata
type ConnInfo struct {
	ID          ulid.ULID
	ConnectedAt time.Time
	Subscriber  *Subscriber
}

// paymentSubs holds the subscribers watching one payment
type paymentSubs struct {
	mu sync.RWMutex
	m  map[ulid.ULID]ConnInfo
}

// Hub fans status events out to stream connections
type Hub struct {
	mu          sync.RWMutex
	subscribers map[bson.ObjectID]*paymentSubs
	connIndex   map[ulid.ULID]bson.ObjectID
	bufferSize  int
	dropped     atomic.Uint64
}

// NewHub creates a new event hub with configurable buffer size
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[bson.ObjectID]*paymentSubs),
		connIndex:   make(map[ulid.ULID]bson.ObjectID),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers connULID for events about paymentID.
// The returned func unsubscribes and is safe to call more than once.
func (h *Hub) Subscribe(connULID ulid.ULID, paymentID bson.ObjectID) (*Subscriber, func()) {
	log := logger.L()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("subscribing connection", "conn_id", connULID.String(), "payment_id", paymentID.Hex())
	}

	sub := &Subscriber{
		PaymentID: paymentID,
		Ch:        make(chan PaymentEvent, h.bufferSize),
		Done:      make(chan struct{}),
	}

	h.mu.Lock()
	bucket, exists := h.subscribers[paymentID]
	if !exists {
		bucket = &paymentSubs{m: make(map[ulid.ULID]ConnInfo)}
		h.subscribers[paymentID] = bucket
	}
	h.connIndex[connULID] = paymentID

	bucket.mu.Lock()
	bucket.m[connULID] = ConnInfo{
		ID:          connULID,
		ConnectedAt: time.Now(),
		Subscriber:  sub,
	}
	bucket.mu.Unlock()
	h.mu.Unlock()

	return sub, func() { h.Unsubscribe(connULID) }
}

// Unsubscribe removes a subscriber and closes its channels
func (h *Hub) Unsubscribe(connULID ulid.ULID) {
	log := logger.L()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("unsubscribing connection", "conn_id", connULID.String())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	pid, ok := h.connIndex[connULID]
	if !ok {
		return
	}
	delete(h.connIndex, connULID)

	bucket := h.subscribers[pid]
	if bucket == nil {
		return
	}

	bucket.mu.Lock()
	info, exists := bucket.m[connULID]
	delete(bucket.m, connULID)
	empty := len(bucket.m) == 0
	if exists {
		close(info.Subscriber.Ch)
		close(info.Subscriber.Done)
	}
	bucket.mu.Unlock()

	if empty {
		delete(h.subscribers, pid)
	}
}

// Broadcast delivers ev to every subscriber of ev.Payment.ID
func (h *Hub) Broadcast(_ context.Context, ev PaymentEvent) {
	if ev.Payment == nil {
		return
	}

	log := logger.L()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("broadcasting event", "payment_id", ev.Payment.ID.Hex(), "event_type", ev.Type, "status", ev.Payment.Status)
	}

	bucket := h.bucket(ev.Payment.ID)
	if bucket == nil {
		return
	}

	// Subscribers get a copy; the caller may keep mutating its Payment.
	snapshot := *ev.Payment
	ev.Payment = &snapshot

	bucket.mu.RLock()
	for _, info := range bucket.m {
		sendOrDrop(info.Subscriber.Ch, ev, func() {
			h.dropped.Add(1)
			log.Warn("outbox full, dropping event", "conn_id", info.ID.String(), "payment_id", snapshot.ID.Hex(), "event_type", ev.Type)
		})
	}
	bucket.mu.RUnlock()
}

// SubscriberCount returns the current number of subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, bucket := range h.subscribers {
		bucket.mu.RLock()
		total += len(bucket.m)
		bucket.mu.RUnlock()
	}
	return total
}

// Stats returns current counters for observability / tests.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.SubscriberCount(), h.dropped.Load()
}

// sendOrDrop is the only place that can decide to drop an event.
func sendOrDrop(ch chan PaymentEvent, ev PaymentEvent, onDrop func()) {
	select {
	case ch <- ev:
	default:
		onDrop()
	}
}

func (h *Hub) bucket(pid bson.ObjectID) *paymentSubs {
	h.mu.RLock()
	b := h.subscribers[pid]
	h.mu.RUnlock()
	return b
}
