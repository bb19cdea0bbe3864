package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/validator"
)

// Notifier receives relation transitions after a successful submission.
// Delivery is fire and forget: a notifier failure never rolls back or
// blocks the mutation that already landed.
type Notifier interface {
	RelationEvent(ctx context.Context, kind EventKind, actorID, targetID string)
}

// Engine executes relationship mutations. Every operation reads whatever
// current state its branching depends on, computes a full target-state
// write-set, and submits it in one shot. The engine holds no locks;
// consistency across racing actors comes from the write-sets themselves.
type Engine struct {
	store    relstore.Store
	dir      *directory.Directory
	notifier Notifier
	now      func() time.Time
}

// NewEngine creates a relation engine. notifier may be nil.
func NewEngine(store relstore.Store, dir *directory.Directory, notifier Notifier) *Engine {
	return &Engine{
		store:    store,
		dir:      dir,
		notifier: notifier,
		now:      time.Now,
	}
}

// Follow either creates a pending follow request toward target or, when
// target already follows the actor, completes immediately as a mutual
// friendship with no request step.
func (e *Engine) Follow(ctx context.Context, actorID, targetID string) (FollowOutcome, error) {
	if err := e.checkPair(ctx, actorID, targetID); err != nil {
		return "", err
	}
	if err := e.checkNotBlocked(ctx, actorID, targetID); err != nil {
		return "", err
	}

	// Does the target already follow the actor?
	raw, err := e.store.Read(ctx, followingPath(targetID, actorID))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	mutual := raw != nil

	if err := e.submit(ctx, followWriteSet(actorID, targetID, mutual, e.now())); err != nil {
		return "", err
	}

	if mutual {
		return OutcomeFriends, nil
	}
	e.emit(EventRequestCreated, actorID, targetID)
	return OutcomeRequested, nil
}

// CancelRequest withdraws the actor's pending request toward target.
// Cancelling an absent request is a no-op.
func (e *Engine) CancelRequest(ctx context.Context, actorID, targetID string) error {
	if err := e.checkPair(ctx, actorID, targetID); err != nil {
		return err
	}
	return e.submit(ctx, cancelRequestWriteSet(actorID, targetID))
}

// AcceptRequest accepts the request target sent to the actor. Acceptance
// produces a mutual follow and an immediate friendship.
func (e *Engine) AcceptRequest(ctx context.Context, actorID, targetID string) error {
	if err := e.checkPair(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := e.checkNotBlocked(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := e.submit(ctx, acceptRequestWriteSet(actorID, targetID, e.now())); err != nil {
		return err
	}
	e.emit(EventRequestAccepted, actorID, targetID)
	return nil
}

// DeclineRequest drops the request target sent to the actor. No edge is
// created and the requester is not notified.
func (e *Engine) DeclineRequest(ctx context.Context, actorID, targetID string) error {
	if err := e.checkPair(ctx, actorID, targetID); err != nil {
		return err
	}
	return e.submit(ctx, declineRequestWriteSet(actorID, targetID))
}

// Unfollow removes the actor's follow of target along with the
// friendship and any stale requests between the two.
func (e *Engine) Unfollow(ctx context.Context, actorID, targetID string) error {
	if err := e.checkPair(ctx, actorID, targetID); err != nil {
		return err
	}
	return e.submit(ctx, unfollowWriteSet(actorID, targetID))
}

// RemoveFollower removes target's follow of the actor, and the
// friendship with it.
func (e *Engine) RemoveFollower(ctx context.Context, actorID, targetID string) error {
	if err := e.checkPair(ctx, actorID, targetID); err != nil {
		return err
	}
	return e.submit(ctx, removeFollowerWriteSet(actorID, targetID))
}

// Block creates the block edge and severs every other edge between the
// two users in the same submission.
func (e *Engine) Block(ctx context.Context, actorID, targetID string) error {
	if err := e.checkIDs(actorID, targetID); err != nil {
		return err
	}
	target, err := e.dir.Get(ctx, targetID)
	if err != nil {
		if errors.Is(err, directory.ErrUnknownUser) {
			return fmt.Errorf("%w: %s", ErrNotFound, targetID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return e.submit(ctx, blockWriteSet(actorID, target, e.now()))
}

// Unblock removes the block edge only; nothing the block destroyed comes
// back.
func (e *Engine) Unblock(ctx context.Context, actorID, targetID string) error {
	if err := e.checkIDs(actorID, targetID); err != nil {
		return err
	}
	return e.submit(ctx, unblockWriteSet(actorID, targetID))
}

// PurgeUser is the account-deletion entry point. It walks uid's own sets
// to find every peer and deletes both mirrors of every edge referencing
// uid in one submission. The profile node itself is owned by the
// identity provider and is not touched here.
func (e *Engine) PurgeUser(ctx context.Context, uid string) error {
	if !validator.IsUID(uid) {
		return fmt.Errorf("%w: malformed uid", ErrInvalidOperation)
	}

	adj := adjacency{}
	for _, b := range []struct {
		branch string
		into   *[]string
	}{
		{followersBranch(uid), &adj.followers},
		{followingBranch(uid), &adj.following},
		{friendsBranch(uid), &adj.friends},
		{sentRequestsBranch(uid), &adj.requestsSent},
		{receivedRequestsBranch(uid), &adj.requestsReceived},
		{blockedBranch(uid), &adj.blocked},
	} {
		entries, err := e.store.ReadBranch(ctx, b.branch)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		for peer := range entries {
			*b.into = append(*b.into, peer)
		}
	}

	ws := purgeWriteSet(uid, adj)
	if len(ws) == 0 {
		return nil
	}
	return e.submit(ctx, ws)
}

// PutProfile writes a user's profile node. It exists for the
// registration collaborator that owns user records; the engine itself
// only ever mutates edges. The directory entry is invalidated so graph
// read-outs never serve the pre-write snapshot.
func (e *Engine) PutProfile(ctx context.Context, p *directory.Profile) error {
	if !validator.IsUID(p.UID) {
		return fmt.Errorf("%w: malformed uid", ErrInvalidOperation)
	}
	stored := *p
	stored.UpdatedAt = e.now().UnixMilli()

	err := e.submit(ctx, relstore.WriteSet{directory.ProfilePath(p.UID): stored})
	if err != nil {
		return err
	}
	e.dir.Invalidate(p.UID)
	return nil
}

// checkIDs rejects self-targeting and malformed uids.
func (e *Engine) checkIDs(actorID, targetID string) error {
	if !validator.IsUID(actorID) || !validator.IsUID(targetID) {
		return fmt.Errorf("%w: malformed uid", ErrInvalidOperation)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot target yourself", ErrInvalidOperation)
	}
	return nil
}

// checkPair additionally requires the target to have a profile record.
func (e *Engine) checkPair(ctx context.Context, actorID, targetID string) error {
	if err := e.checkIDs(actorID, targetID); err != nil {
		return err
	}
	if _, err := e.dir.Get(ctx, targetID); err != nil {
		if errors.Is(err, directory.ErrUnknownUser) {
			return fmt.Errorf("%w: %s", ErrNotFound, targetID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// checkNotBlocked refuses edge-creating operations while a block stands
// in either direction between the two users. A block may only coexist
// with tombstones, so no follow, request, or friend edge may be written
// until the blocker lifts it.
func (e *Engine) checkNotBlocked(ctx context.Context, actorID, targetID string) error {
	for _, path := range []string{
		blockedPath(actorID, targetID),
		blockedPath(targetID, actorID),
	} {
		raw, err := e.store.Read(ctx, path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if raw != nil {
			return fmt.Errorf("%w: blocked", ErrPermissionDenied)
		}
	}
	return nil
}

func (e *Engine) submit(ctx context.Context, ws relstore.WriteSet) error {
	if err := e.store.Write(ctx, ws); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Engine) emit(kind EventKind, actorID, targetID string) {
	if e.notifier == nil {
		return
	}
	// Detached from the request context: the mutation already succeeded
	// and the event must not be lost to a caller hangup.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("kind", string(kind)).Msg("Notifier panicked")
			}
		}()
		e.notifier.RelationEvent(context.Background(), kind, actorID, targetID)
	}()
}
