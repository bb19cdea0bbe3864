package graph

import (
	"encoding/json"
	"time"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

// RequestStatusPending is the only status a stored follow request carries;
// accepted or declined requests are deleted, never updated in place.
const RequestStatusPending = "pending"

// EdgeValue is the stored form of a follow or friend edge. Older records
// may hold a bare `true` instead; decodeTimestamp tolerates both.
type EdgeValue struct {
	Timestamp int64 `json:"timestamp"`
}

// RequestValue is the stored form of a pending follow request.
type RequestValue struct {
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
}

// BlockValue is the stored form of a block edge. It embeds a profile
// snapshot of the blocked user so the blocked list renders without a
// directory lookup even after the target's account is gone.
type BlockValue struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photoURL"`
	Timestamp int64  `json:"timestamp"`
}

// Relation is one decoded adjacency entry with its profile snapshot.
type Relation struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Since       int64  `json:"since"`
	Status      string `json:"status,omitempty"`
}

// RelationList is the full decoded relationship view of one user. The hub
// pushes this whole structure on every change; the sets are small enough
// that full redelivery beats diffing.
type RelationList struct {
	UID              string     `json:"uid"`
	Followers        []Relation `json:"followers"`
	Following        []Relation `json:"following"`
	Friends          []Relation `json:"friends"`
	RequestsSent     []Relation `json:"requestsSent"`
	RequestsReceived []Relation `json:"requestsReceived"`
	Blocked          []Relation `json:"blocked"`
}

// FollowOutcome tells the caller which branch a follow took.
type FollowOutcome string

const (
	// OutcomeRequested means a pending follow request was created.
	OutcomeRequested FollowOutcome = "requested"
	// OutcomeFriends means the target already followed the actor, so the
	// follow completed immediately as a mutual friendship.
	OutcomeFriends FollowOutcome = "friends"
)

// EventKind identifies the transitions the engine reports to the
// notification collaborator.
type EventKind string

const (
	EventRequestCreated  EventKind = "request_created"
	EventRequestAccepted EventKind = "request_accepted"
)

// Tree paths under the store root. Every edge lives at two mirrored paths,
// one under each endpoint, so "my followers" and "my following" are O(1)
// branch reads with no join.

func followingPath(uid, other string) string {
	return relstore.Root + "/" + uid + "/following/" + other
}

func followersPath(uid, other string) string {
	return relstore.Root + "/" + uid + "/followers/" + other
}

func friendsPath(uid, other string) string {
	return relstore.Root + "/" + uid + "/friends/" + other
}

func blockedPath(uid, other string) string {
	return relstore.Root + "/" + uid + "/blockedUsers/" + other
}

func sentRequestPath(uid, other string) string {
	return relstore.Root + "/" + uid + "/followRequests/sent/" + other
}

func receivedRequestPath(uid, other string) string {
	return relstore.Root + "/" + uid + "/followRequests/received/" + other
}

func followingBranch(uid string) string {
	return relstore.Root + "/" + uid + "/following"
}

func followersBranch(uid string) string {
	return relstore.Root + "/" + uid + "/followers"
}

func friendsBranch(uid string) string {
	return relstore.Root + "/" + uid + "/friends"
}

func blockedBranch(uid string) string {
	return relstore.Root + "/" + uid + "/blockedUsers"
}

func sentRequestsBranch(uid string) string {
	return relstore.Root + "/" + uid + "/followRequests/sent"
}

func receivedRequestsBranch(uid string) string {
	return relstore.Root + "/" + uid + "/followRequests/received"
}

func newEdgeValue(now time.Time) EdgeValue {
	return EdgeValue{Timestamp: now.UnixMilli()}
}

func newRequestValue(now time.Time) RequestValue {
	return RequestValue{Timestamp: now.UnixMilli(), Status: RequestStatusPending}
}

func newBlockValue(p *directory.Profile, now time.Time) BlockValue {
	return BlockValue{
		UID:       p.UID,
		Username:  p.Username,
		PhotoURL:  p.PhotoURL,
		Timestamp: now.UnixMilli(),
	}
}

// decodeTimestamp extracts the timestamp from a stored edge or request
// value, accepting the legacy bare-boolean form.
func decodeTimestamp(raw json.RawMessage) int64 {
	if raw == nil {
		return 0
	}
	var v EdgeValue
	if err := json.Unmarshal(raw, &v); err == nil && v.Timestamp != 0 {
		return v.Timestamp
	}
	return 0
}
