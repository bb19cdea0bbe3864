package relstore

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process Store used in tests and single-node setups.
// Branches are plain maps; Write holds the lock for the whole submission,
// which gives it the same "all paths land together" behavior as the Redis
// backend.
type MemoryStore struct {
	mu       sync.RWMutex
	branches map[string]map[string]json.RawMessage

	watchMu  sync.Mutex
	watchers map[int]chan Event
	nextID   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		branches: make(map[string]map[string]json.RawMessage),
		watchers: make(map[int]chan Event),
	}
}

func (s *MemoryStore) Read(ctx context.Context, path string) (json.RawMessage, error) {
	branch, leaf, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.branches[branch]
	if !ok {
		return nil, nil
	}
	return entries[leaf], nil
}

func (s *MemoryStore) ReadBranch(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(s.branches[path]))
	for leaf, raw := range s.branches[path] {
		out[leaf] = raw
	}
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, ws WriteSet) error {
	if len(ws) == 0 {
		return nil
	}

	type entry struct {
		branch, leaf string
		value        json.RawMessage // nil deletes
	}
	entries := make([]entry, 0, len(ws))
	for path, v := range ws {
		branch, leaf, err := SplitPath(path)
		if err != nil {
			return err
		}
		e := entry{branch: branch, leaf: leaf}
		if v != nil {
			raw, err := encodeValue(v)
			if err != nil {
				return err
			}
			e.value = raw
		}
		entries = append(entries, e)
	}

	s.mu.Lock()
	for _, e := range entries {
		if e.value == nil {
			if m, ok := s.branches[e.branch]; ok {
				delete(m, e.leaf)
				if len(m) == 0 {
					delete(s.branches, e.branch)
				}
			}
			continue
		}
		m := s.branches[e.branch]
		if m == nil {
			m = make(map[string]json.RawMessage)
			s.branches[e.branch] = m
		}
		m[e.leaf] = e.value
	}
	s.mu.Unlock()

	s.notify(ws.UIDs())
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, 64)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	cancel := func() {
		s.watchMu.Lock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
		s.watchMu.Unlock()
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}

func (s *MemoryStore) notify(uids []string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, uid := range uids {
		for _, ch := range s.watchers {
			select {
			case ch <- Event{UID: uid}:
			default:
				// Watcher is behind; it re-reads on the next event anyway.
			}
		}
	}
}
