// Package live pushes full relation snapshots to subscribers. The model
// is deliberately not incremental: adjacency sets are small, and pushing
// the whole decoded list on every change avoids diff-consistency bugs.
package live

import (
	"context"
	"expvar"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/graph"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

var (
	subscriptionsGauge   = expvar.NewInt("live_subscriptions")
	snapshotsPushedTotal = expvar.NewInt("live_snapshots_pushed_total")
)

// SnapshotSource produces the decoded relation list for a user.
type SnapshotSource interface {
	Relations(ctx context.Context, uid string) (*graph.RelationList, error)
}

// Callback receives pushed snapshots. It must not block; transports
// buffer internally and drop when a client falls behind.
type Callback func(*graph.RelationList)

// Hub fans store changes out to per-uid subscribers. All subscribers
// share the hub's single store watch regardless of how many uids are
// subscribed; cross-instance changes arrive through the store's own
// change channel.
type Hub struct {
	store  relstore.Store
	source SnapshotSource

	mu          sync.RWMutex
	subscribers map[string]map[int]Callback
	nextID      int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a subscription hub over the given store.
func NewHub(store relstore.Store, source SnapshotSource) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		store:       store,
		source:      source,
		subscribers: make(map[string]map[int]Callback),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run consumes store change events until Shutdown (call in goroutine).
func (h *Hub) Run() {
	events, stop := h.store.Watch(h.ctx)
	defer stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.push(ev.UID)
		}
	}
}

// Subscribe registers a callback for uid and immediately delivers the
// current snapshot. The returned func cancels the subscription; calling
// it more than once is safe.
func (h *Hub) Subscribe(uid string, fn Callback) (func(), error) {
	// Register before computing the initial snapshot: a write landing
	// in between then redelivers through push, so the client can at
	// worst receive a fresher duplicate, never miss the change.
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subscribers[uid] == nil {
		h.subscribers[uid] = make(map[int]Callback)
	}
	h.subscribers[uid][id] = fn
	h.mu.Unlock()
	subscriptionsGauge.Add(1)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.subscribers[uid]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subscribers, uid)
				}
			}
			h.mu.Unlock()
			subscriptionsGauge.Add(-1)
		})
	}

	list, err := h.source.Relations(h.ctx, uid)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	fn(list)
	snapshotsPushedTotal.Add(1)

	return unsubscribe, nil
}

// SubscriberCount reports active subscriptions for uid.
func (h *Hub) SubscriberCount(uid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[uid])
}

// push recomputes and redelivers the snapshot for uid if anyone local
// is subscribed.
func (h *Hub) push(uid string) {
	h.mu.RLock()
	n := len(h.subscribers[uid])
	h.mu.RUnlock()
	if n == 0 {
		return
	}

	list, err := h.source.Relations(h.ctx, uid)
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Failed to rebuild relation snapshot")
		return
	}

	h.mu.RLock()
	callbacks := make([]Callback, 0, n)
	for _, fn := range h.subscribers[uid] {
		callbacks = append(callbacks, fn)
	}
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(list)
		snapshotsPushedTotal.Add(1)
	}
}

// Shutdown stops the hub's watch loop.
func (h *Hub) Shutdown() {
	h.cancel()
}
