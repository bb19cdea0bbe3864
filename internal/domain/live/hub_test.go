package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/graph"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

func newTestHub(t *testing.T, uids ...string) (*Hub, *graph.Engine, *relstore.MemoryStore) {
	t.Helper()

	store := relstore.NewMemoryStore()
	ctx := context.Background()
	for _, uid := range uids {
		p := directory.Profile{UID: uid, Username: uid + "-name"}
		err := store.Write(ctx, relstore.WriteSet{directory.ProfilePath(uid): p})
		if err != nil {
			t.Fatalf("seed profile %s: %v", uid, err)
		}
	}

	engine := graph.NewEngine(store, directory.New(store, time.Minute), nil)
	hub := NewHub(store, engine)
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub, engine, store
}

func collect(t *testing.T) (Callback, <-chan *graph.RelationList) {
	t.Helper()
	ch := make(chan *graph.RelationList, 16)
	return func(list *graph.RelationList) { ch <- list }, ch
}

func waitSnapshot(t *testing.T, ch <-chan *graph.RelationList) *graph.RelationList {
	t.Helper()
	select {
	case list := <-ch:
		return list
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	hub, engine, _ := newTestHub(t, "a", "b")
	ctx := context.Background()

	if _, err := engine.Follow(ctx, "b", "a"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	fn, ch := collect(t)
	unsubscribe, err := hub.Subscribe("a", fn)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	list := waitSnapshot(t, ch)
	if len(list.RequestsReceived) != 1 || list.RequestsReceived[0].UID != "b" {
		t.Errorf("initial snapshot requestsReceived = %+v", list.RequestsReceived)
	}
	if hub.SubscriberCount("a") != 1 {
		t.Errorf("subscriber count = %d", hub.SubscriberCount("a"))
	}
}

func TestChangeTriggersRedelivery(t *testing.T) {
	hub, engine, _ := newTestHub(t, "a", "b")
	ctx := context.Background()

	fn, ch := collect(t)
	unsubscribe, err := hub.Subscribe("a", fn)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()
	waitSnapshot(t, ch)

	if _, err := engine.Follow(ctx, "b", "a"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	// A single write touches both sides; at least one redelivery for "a"
	// must carry the new request.
	deadline := time.After(time.Second)
	for {
		select {
		case list := <-ch:
			if len(list.RequestsReceived) == 1 && list.RequestsReceived[0].UID == "b" {
				return
			}
		case <-deadline:
			t.Fatal("no snapshot with the new request arrived")
		}
	}
}

func TestBothSidesOfWriteGetPushed(t *testing.T) {
	hub, engine, _ := newTestHub(t, "a", "b")
	ctx := context.Background()

	fnA, chA := collect(t)
	unsubA, err := hub.Subscribe("a", fnA)
	if err != nil {
		t.Fatalf("Subscribe a: %v", err)
	}
	defer unsubA()
	fnB, chB := collect(t)
	unsubB, err := hub.Subscribe("b", fnB)
	if err != nil {
		t.Fatalf("Subscribe b: %v", err)
	}
	defer unsubB()
	waitSnapshot(t, chA)
	waitSnapshot(t, chB)

	if _, err := engine.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	sawSent := false
	deadline := time.After(time.Second)
	for !sawSent {
		select {
		case list := <-chA:
			if len(list.RequestsSent) == 1 {
				sawSent = true
			}
		case <-deadline:
			t.Fatal("subscriber a never saw the sent request")
		}
	}

	sawReceived := false
	deadline = time.After(time.Second)
	for !sawReceived {
		select {
		case list := <-chB:
			if len(list.RequestsReceived) == 1 {
				sawReceived = true
			}
		case <-deadline:
			t.Fatal("subscriber b never saw the received request")
		}
	}
}

// racingSource performs a store write after computing the first
// snapshot, so the write lands inside Subscribe's initial-delivery
// window and the returned snapshot is already stale.
type racingSource struct {
	source SnapshotSource
	store  *relstore.MemoryStore
	write  relstore.WriteSet
	once   sync.Once
}

func (s *racingSource) Relations(ctx context.Context, uid string) (*graph.RelationList, error) {
	list, err := s.source.Relations(ctx, uid)
	s.once.Do(func() {
		if werr := s.store.Write(ctx, s.write); werr != nil {
			panic(werr)
		}
	})
	return list, err
}

func TestWriteDuringSubscribeIsRedelivered(t *testing.T) {
	store := relstore.NewMemoryStore()
	ctx := context.Background()
	for _, uid := range []string{"a", "b"} {
		p := directory.Profile{UID: uid, Username: uid + "-name"}
		if err := store.Write(ctx, relstore.WriteSet{directory.ProfilePath(uid): p}); err != nil {
			t.Fatalf("seed profile %s: %v", uid, err)
		}
	}
	engine := graph.NewEngine(store, directory.New(store, time.Minute), nil)

	src := &racingSource{
		source: engine,
		store:  store,
		write: relstore.WriteSet{
			"usersData/a/followers/b": map[string]int64{"timestamp": 42},
		},
	}
	hub := NewHub(store, src)
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	// Let the hub's watch attach before the racing write fires.
	time.Sleep(50 * time.Millisecond)

	fn, ch := collect(t)
	unsubscribe, err := hub.Subscribe("a", fn)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	// The initial snapshot is stale; the concurrent write must still
	// reach the subscriber as a redelivery.
	deadline := time.After(time.Second)
	for {
		select {
		case list := <-ch:
			if len(list.Followers) == 1 && list.Followers[0].UID == "b" {
				return
			}
		case <-deadline:
			t.Fatal("snapshot written during subscribe was never redelivered")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub, engine, _ := newTestHub(t, "a", "b")
	ctx := context.Background()

	fn, ch := collect(t)
	unsubscribe, err := hub.Subscribe("a", fn)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	waitSnapshot(t, ch)

	unsubscribe()
	unsubscribe() // safe to repeat
	if hub.SubscriberCount("a") != 0 {
		t.Fatalf("subscriber count = %d after unsubscribe", hub.SubscriberCount("a"))
	}

	if _, err := engine.Follow(ctx, "b", "a"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	select {
	case list := <-ch:
		t.Errorf("received snapshot after unsubscribe: %+v", list)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeUserWithNoEdges(t *testing.T) {
	hub, _, _ := newTestHub(t, "a")

	fn, ch := collect(t)
	unsubscribe, err := hub.Subscribe("a", fn)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	list := waitSnapshot(t, ch)
	if len(list.Followers)+len(list.Following)+len(list.Friends)+
		len(list.RequestsSent)+len(list.RequestsReceived)+len(list.Blocked) != 0 {
		t.Errorf("expected empty snapshot, got %+v", list)
	}
}
