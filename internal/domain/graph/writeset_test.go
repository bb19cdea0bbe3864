package graph

import (
	"testing"
	"time"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

var testNow = time.UnixMilli(1700000000000)

func assertWrites(t *testing.T, ws relstore.WriteSet, wantSet, wantDeleted []string) {
	t.Helper()

	if len(ws) != len(wantSet)+len(wantDeleted) {
		t.Errorf("write-set has %d paths, want %d", len(ws), len(wantSet)+len(wantDeleted))
	}
	for _, path := range wantSet {
		v, ok := ws[path]
		if !ok {
			t.Errorf("missing write for %s", path)
			continue
		}
		if v == nil {
			t.Errorf("expected value at %s, got tombstone", path)
		}
	}
	for _, path := range wantDeleted {
		v, ok := ws[path]
		if !ok {
			t.Errorf("missing tombstone for %s", path)
			continue
		}
		if v != nil {
			t.Errorf("expected tombstone at %s, got %v", path, v)
		}
	}
}

func TestFollowWriteSetRequestBranch(t *testing.T) {
	ws := followWriteSet("a", "b", false, testNow)

	assertWrites(t, ws,
		[]string{
			"usersData/a/followRequests/sent/b",
			"usersData/b/followRequests/received/a",
		},
		nil,
	)

	req, ok := ws["usersData/a/followRequests/sent/b"].(RequestValue)
	if !ok {
		t.Fatalf("sent request has wrong type %T", ws["usersData/a/followRequests/sent/b"])
	}
	if req.Status != RequestStatusPending {
		t.Errorf("request status = %q, want pending", req.Status)
	}
	if req.Timestamp != testNow.UnixMilli() {
		t.Errorf("request timestamp = %d, want %d", req.Timestamp, testNow.UnixMilli())
	}
}

func TestFollowWriteSetMutualBranch(t *testing.T) {
	ws := followWriteSet("a", "b", true, testNow)

	assertWrites(t, ws,
		[]string{
			"usersData/a/following/b",
			"usersData/b/followers/a",
			"usersData/b/following/a",
			"usersData/a/followers/b",
			"usersData/a/friends/b",
			"usersData/b/friends/a",
		},
		[]string{
			"usersData/a/followRequests/sent/b",
			"usersData/b/followRequests/received/a",
			"usersData/b/followRequests/sent/a",
			"usersData/a/followRequests/received/b",
		},
	)
}

func TestAcceptRequestWriteSet(t *testing.T) {
	// b accepts the request a sent: both follow directions, the
	// friendship, and every request path between the two.
	ws := acceptRequestWriteSet("b", "a", testNow)

	assertWrites(t, ws,
		[]string{
			"usersData/a/following/b",
			"usersData/b/followers/a",
			"usersData/b/following/a",
			"usersData/a/followers/b",
			"usersData/a/friends/b",
			"usersData/b/friends/a",
		},
		[]string{
			"usersData/a/followRequests/sent/b",
			"usersData/b/followRequests/received/a",
			"usersData/b/followRequests/sent/a",
			"usersData/a/followRequests/received/b",
		},
	)
}

func TestUnfollowWriteSet(t *testing.T) {
	ws := unfollowWriteSet("a", "b")

	assertWrites(t, ws, nil, []string{
		"usersData/a/following/b",
		"usersData/b/followers/a",
		"usersData/a/friends/b",
		"usersData/b/friends/a",
		"usersData/a/followRequests/sent/b",
		"usersData/b/followRequests/received/a",
		"usersData/b/followRequests/sent/a",
		"usersData/a/followRequests/received/b",
	})
}

func TestRemoveFollowerWriteSet(t *testing.T) {
	ws := removeFollowerWriteSet("a", "b")

	assertWrites(t, ws, nil, []string{
		"usersData/b/following/a",
		"usersData/a/followers/b",
		"usersData/a/friends/b",
		"usersData/b/friends/a",
	})
}

func TestBlockWriteSet(t *testing.T) {
	target := &directory.Profile{UID: "b", Username: "bee", PhotoURL: "https://cdn/b.jpg"}
	ws := blockWriteSet("a", target, testNow)

	assertWrites(t, ws,
		[]string{"usersData/a/blockedUsers/b"},
		[]string{
			"usersData/a/following/b",
			"usersData/b/followers/a",
			"usersData/b/following/a",
			"usersData/a/followers/b",
			"usersData/a/friends/b",
			"usersData/b/friends/a",
			"usersData/a/followRequests/sent/b",
			"usersData/b/followRequests/received/a",
			"usersData/b/followRequests/sent/a",
			"usersData/a/followRequests/received/b",
		},
	)

	bv, ok := ws["usersData/a/blockedUsers/b"].(BlockValue)
	if !ok {
		t.Fatalf("block value has wrong type %T", ws["usersData/a/blockedUsers/b"])
	}
	if bv.UID != "b" || bv.Username != "bee" {
		t.Errorf("block value snapshot = %+v", bv)
	}
}

func TestUnblockWriteSet(t *testing.T) {
	ws := unblockWriteSet("a", "b")
	assertWrites(t, ws, nil, []string{"usersData/a/blockedUsers/b"})
}

func TestCancelAndDeclineWriteSets(t *testing.T) {
	assertWrites(t, cancelRequestWriteSet("a", "b"), nil, []string{
		"usersData/a/followRequests/sent/b",
		"usersData/b/followRequests/received/a",
	})

	// a declines the request b sent.
	assertWrites(t, declineRequestWriteSet("a", "b"), nil, []string{
		"usersData/b/followRequests/sent/a",
		"usersData/a/followRequests/received/b",
	})
}

func TestPurgeWriteSet(t *testing.T) {
	ws := purgeWriteSet("u", adjacency{
		followers:        []string{"f1"},
		following:        []string{"g1"},
		friends:          []string{"f1"},
		requestsSent:     []string{"r1"},
		requestsReceived: []string{"r2"},
		blocked:          []string{"b1"},
	})

	assertWrites(t, ws, nil, []string{
		"usersData/u/followers/f1",
		"usersData/f1/following/u",
		"usersData/u/following/g1",
		"usersData/g1/followers/u",
		"usersData/u/friends/f1",
		"usersData/f1/friends/u",
		"usersData/u/followRequests/sent/r1",
		"usersData/r1/followRequests/received/u",
		"usersData/u/followRequests/received/r2",
		"usersData/r2/followRequests/sent/u",
		"usersData/u/blockedUsers/b1",
	})
}
