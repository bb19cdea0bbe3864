// Package relstore provides the key-tree store that backs the social graph.
//
// Paths look like "usersData/{uid}/followers/{otherUid}". The segment before
// the leaf names a branch (an adjacency set or the profile node); the leaf is
// the entry key. A submission is a map of path -> value where a nil value is
// a tombstone. The store guarantees that all paths of one submission apply
// together, nothing more: there is no isolation from concurrent writers, so
// callers must submit write-sets that fully re-express the target state of
// every path they touch.
package relstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// Root is the top-level branch holding all per-user graph data.
const Root = "usersData"

var (
	// ErrBadPath reports a path that does not have at least branch + leaf.
	ErrBadPath = errors.New("relstore: malformed path")
	// ErrUnavailable reports that a submission could not be delivered.
	ErrUnavailable = errors.New("relstore: store unavailable")
)

// WriteSet maps tree paths to their new values. A nil value deletes the
// path. Values are marshaled to JSON before storage.
type WriteSet map[string]any

// Event notifies watchers that the subtree of a user changed.
type Event struct {
	UID string
}

// Store is the key-tree contract. A branch is everything up to the last
// path segment; Read addresses a single leaf, ReadBranch lists a branch.
type Store interface {
	// Read returns the raw JSON value at path, or nil if the path is absent.
	Read(ctx context.Context, path string) (json.RawMessage, error)

	// ReadBranch returns all leaves directly under path, keyed by leaf name.
	// An absent branch yields an empty map.
	ReadBranch(ctx context.Context, path string) (map[string]json.RawMessage, error)

	// Write applies the whole write-set as one submission.
	Write(ctx context.Context, ws WriteSet) error

	// Watch returns a channel of change events and a cancel func. Events
	// coalesce to the affected user id; watchers re-read what they need.
	Watch(ctx context.Context) (<-chan Event, func())
}

// SplitPath splits a tree path into its branch and leaf parts.
func SplitPath(path string) (branch, leaf string, err error) {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return "", "", ErrBadPath
	}
	return path[:i], path[i+1:], nil
}

// PathUID extracts the user id a path belongs to (the segment right after
// the root). Returns "" for paths outside the root.
func PathUID(path string) string {
	rest, ok := strings.CutPrefix(path, Root+"/")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i > 0 {
		return rest[:i]
	}
	return rest
}

// UIDs returns the distinct user ids touched by the write-set, sorted.
func (ws WriteSet) UIDs() []string {
	seen := make(map[string]bool, 2)
	uids := make([]string, 0, 2)
	for path := range ws {
		uid := PathUID(path)
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

func encodeValue(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
