// Package directory serves profile snapshots for graph read-outs. It is a
// read-through cache over the profile node in the relation store: reads
// inside the TTL never touch the store, and the engine invalidates an
// entry whenever it writes a user's profile-visible fields. Relationship
// edge writes never invalidate, profiles are unaffected by them.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

// DefaultTTL bounds how stale a served snapshot can be.
const DefaultTTL = 5 * time.Minute

// ErrUnknownUser means the uid has no profile record in the store.
var ErrUnknownUser = errors.New("unknown user")

// Profile is the snapshot attached to decoded relation lists.
type Profile struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	UpdatedAt   int64  `json:"updatedAt,omitempty"`
}

// ProfilePath is the tree path of a user's profile node.
func ProfilePath(uid string) string {
	return relstore.Root + "/" + uid + "/profile"
}

type entry struct {
	profile   Profile
	fetchedAt time.Time
}

// Directory is the read-through profile cache.
type Directory struct {
	store relstore.Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// New creates a directory over the given store. A non-positive ttl falls
// back to DefaultTTL.
func New(store relstore.Store, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the profile snapshot for uid, from cache when fresh.
func (d *Directory) Get(ctx context.Context, uid string) (*Profile, error) {
	d.mu.RLock()
	e, ok := d.entries[uid]
	d.mu.RUnlock()

	if ok && d.now().Sub(e.fetchedAt) < d.ttl {
		p := e.profile
		return &p, nil
	}

	raw, err := d.store.Read(ctx, ProfilePath(uid))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrUnknownUser
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = uid
	}

	d.mu.Lock()
	d.entries[uid] = entry{profile: p, fetchedAt: d.now()}
	d.mu.Unlock()

	return &p, nil
}

// Invalidate drops the cached entry for uid immediately.
func (d *Directory) Invalidate(uid string) {
	d.mu.Lock()
	delete(d.entries, uid)
	d.mu.Unlock()
}

// Len reports the number of cached entries.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
