package graph

import (
	"time"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

// Write-set builders. Each one is a pure function from the inputs the
// operation depends on to the full path -> value map of its submission.
// Values fully re-express the target state of every touched path (a nil
// value is a tombstone), which is what makes retries and racing writers
// safe: whichever submission lands last wins cleanly.

// followWriteSet builds the submission for actor following target. When
// the target already follows the actor the request step is skipped and
// both follow directions plus the friendship are written at once; any
// stale request pair between the two is cleared in the same submission.
func followWriteSet(actor, target string, targetFollowsActor bool, now time.Time) relstore.WriteSet {
	if !targetFollowsActor {
		req := newRequestValue(now)
		return relstore.WriteSet{
			sentRequestPath(actor, target):     req,
			receivedRequestPath(target, actor): req,
		}
	}

	edge := newEdgeValue(now)
	return relstore.WriteSet{
		followingPath(actor, target): edge,
		followersPath(target, actor): edge,
		followingPath(target, actor): edge,
		followersPath(actor, target): edge,
		friendsPath(actor, target):   edge,
		friendsPath(target, actor):   edge,

		sentRequestPath(actor, target):     nil,
		receivedRequestPath(target, actor): nil,
		sentRequestPath(target, actor):     nil,
		receivedRequestPath(actor, target): nil,
	}
}

// cancelRequestWriteSet removes the pending request pair from actor to
// target. Deleting an absent request is a no-op, not an error.
func cancelRequestWriteSet(actor, target string) relstore.WriteSet {
	return relstore.WriteSet{
		sentRequestPath(actor, target):     nil,
		receivedRequestPath(target, actor): nil,
	}
}

// acceptRequestWriteSet builds the submission for actor accepting the
// request target sent. Acceptance always produces a mutual follow and an
// immediate friendship; there is no accepted-but-not-followed-back state.
// Both request directions are consumed so a pending request can never
// coexist with its follow edge.
func acceptRequestWriteSet(actor, target string, now time.Time) relstore.WriteSet {
	edge := newEdgeValue(now)
	return relstore.WriteSet{
		followingPath(target, actor): edge,
		followersPath(actor, target): edge,
		followingPath(actor, target): edge,
		followersPath(target, actor): edge,
		friendsPath(actor, target):   edge,
		friendsPath(target, actor):   edge,

		sentRequestPath(target, actor):     nil,
		receivedRequestPath(actor, target): nil,
		sentRequestPath(actor, target):     nil,
		receivedRequestPath(target, actor): nil,
	}
}

// declineRequestWriteSet removes the request target sent to actor.
func declineRequestWriteSet(actor, target string) relstore.WriteSet {
	return relstore.WriteSet{
		sentRequestPath(target, actor):     nil,
		receivedRequestPath(actor, target): nil,
	}
}

// unfollowWriteSet removes actor's follow of target. The friendship
// cannot survive the loss of either directional follow, so the friend
// pair goes unconditionally, as do stale requests in both directions.
func unfollowWriteSet(actor, target string) relstore.WriteSet {
	return relstore.WriteSet{
		followingPath(actor, target): nil,
		followersPath(target, actor): nil,
		friendsPath(actor, target):   nil,
		friendsPath(target, actor):   nil,

		sentRequestPath(actor, target):     nil,
		receivedRequestPath(target, actor): nil,
		sentRequestPath(target, actor):     nil,
		receivedRequestPath(actor, target): nil,
	}
}

// removeFollowerWriteSet removes target's follow of actor, and with it
// the friendship.
func removeFollowerWriteSet(actor, target string) relstore.WriteSet {
	return relstore.WriteSet{
		followingPath(target, actor): nil,
		followersPath(actor, target): nil,
		friendsPath(actor, target):   nil,
		friendsPath(target, actor):   nil,
	}
}

// blockWriteSet creates the block edge and deletes every other edge type
// between the two users, in both directions, in the same submission. The
// block edge is stored once, under the blocker only.
func blockWriteSet(actor string, target *directory.Profile, now time.Time) relstore.WriteSet {
	return relstore.WriteSet{
		blockedPath(actor, target.UID): newBlockValue(target, now),

		followingPath(actor, target.UID): nil,
		followersPath(target.UID, actor): nil,
		followingPath(target.UID, actor): nil,
		followersPath(actor, target.UID): nil,
		friendsPath(actor, target.UID):   nil,
		friendsPath(target.UID, actor):   nil,

		sentRequestPath(actor, target.UID):     nil,
		receivedRequestPath(target.UID, actor): nil,
		sentRequestPath(target.UID, actor):     nil,
		receivedRequestPath(actor, target.UID): nil,
	}
}

// unblockWriteSet removes the block edge only. Blocking is destructive;
// unblocking restores nothing.
func unblockWriteSet(actor, target string) relstore.WriteSet {
	return relstore.WriteSet{
		blockedPath(actor, target): nil,
	}
}

// adjacency holds the peer uids found in one user's own sets, the inputs
// the purge write-set is computed from.
type adjacency struct {
	followers        []string
	following        []string
	friends          []string
	requestsSent     []string
	requestsReceived []string
	blocked          []string
}

// purgeWriteSet deletes every edge referencing uid: the mirror entries
// under every peer found in uid's own sets, plus all of uid's own
// entries across the six path groups.
func purgeWriteSet(uid string, adj adjacency) relstore.WriteSet {
	ws := relstore.WriteSet{}

	for _, peer := range adj.followers {
		ws[followersPath(uid, peer)] = nil
		ws[followingPath(peer, uid)] = nil
	}
	for _, peer := range adj.following {
		ws[followingPath(uid, peer)] = nil
		ws[followersPath(peer, uid)] = nil
	}
	for _, peer := range adj.friends {
		ws[friendsPath(uid, peer)] = nil
		ws[friendsPath(peer, uid)] = nil
	}
	for _, peer := range adj.requestsSent {
		ws[sentRequestPath(uid, peer)] = nil
		ws[receivedRequestPath(peer, uid)] = nil
	}
	for _, peer := range adj.requestsReceived {
		ws[receivedRequestPath(uid, peer)] = nil
		ws[sentRequestPath(peer, uid)] = nil
	}
	for _, peer := range adj.blocked {
		ws[blockedPath(uid, peer)] = nil
	}

	return ws
}
