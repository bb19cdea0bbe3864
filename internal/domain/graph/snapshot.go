package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
)

// Relations returns the full decoded relationship view for uid, with
// profile snapshots resolved through the directory. This is the payload
// the hub pushes to subscribers and the snapshot endpoint serves.
func (e *Engine) Relations(ctx context.Context, uid string) (*RelationList, error) {
	list := &RelationList{UID: uid}

	var err error
	if list.Followers, err = e.decodeEdges(ctx, followersBranch(uid)); err != nil {
		return nil, err
	}
	if list.Following, err = e.decodeEdges(ctx, followingBranch(uid)); err != nil {
		return nil, err
	}
	if list.Friends, err = e.decodeEdges(ctx, friendsBranch(uid)); err != nil {
		return nil, err
	}
	if list.RequestsSent, err = e.decodeRequests(ctx, sentRequestsBranch(uid)); err != nil {
		return nil, err
	}
	if list.RequestsReceived, err = e.decodeRequests(ctx, receivedRequestsBranch(uid)); err != nil {
		return nil, err
	}
	if list.Blocked, err = e.decodeBlocks(ctx, blockedBranch(uid)); err != nil {
		return nil, err
	}

	return list, nil
}

func (e *Engine) decodeEdges(ctx context.Context, branch string) ([]Relation, error) {
	entries, err := e.store.ReadBranch(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rels := make([]Relation, 0, len(entries))
	for peer, raw := range entries {
		rels = append(rels, e.resolve(ctx, peer, decodeTimestamp(raw), ""))
	}
	sortRelations(rels)
	return rels, nil
}

func (e *Engine) decodeRequests(ctx context.Context, branch string) ([]Relation, error) {
	entries, err := e.store.ReadBranch(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rels := make([]Relation, 0, len(entries))
	for peer, raw := range entries {
		var req RequestValue
		if err := json.Unmarshal(raw, &req); err != nil {
			req.Status = RequestStatusPending
		}
		rels = append(rels, e.resolve(ctx, peer, req.Timestamp, req.Status))
	}
	sortRelations(rels)
	return rels, nil
}

func (e *Engine) decodeBlocks(ctx context.Context, branch string) ([]Relation, error) {
	entries, err := e.store.ReadBranch(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rels := make([]Relation, 0, len(entries))
	for peer, raw := range entries {
		// Block values carry their own snapshot; the directory is not
		// consulted, so blocked entries outlive the target's account.
		var bv BlockValue
		if err := json.Unmarshal(raw, &bv); err != nil {
			bv.UID = peer
		}
		if bv.UID == "" {
			bv.UID = peer
		}
		rels = append(rels, Relation{
			UID:      bv.UID,
			Username: bv.Username,
			PhotoURL: bv.PhotoURL,
			Since:    bv.Timestamp,
		})
	}
	sortRelations(rels)
	return rels, nil
}

// resolve attaches the peer's profile snapshot, falling back to the bare
// uid when the peer has no profile record anymore.
func (e *Engine) resolve(ctx context.Context, peer string, since int64, status string) Relation {
	rel := Relation{UID: peer, Since: since, Status: status}

	p, err := e.dir.Get(ctx, peer)
	if err != nil {
		if !errors.Is(err, directory.ErrUnknownUser) {
			// Transient lookup failure; serve the bare relation rather
			// than failing the whole snapshot.
			log.Warn().Err(err).Str("uid", peer).Msg("Profile lookup failed during snapshot")
		}
		return rel
	}

	rel.Username = p.Username
	rel.DisplayName = p.DisplayName
	rel.PhotoURL = p.PhotoURL
	return rel
}

func sortRelations(rels []Relation) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Since != rels[j].Since {
			return rels[i].Since < rels[j].Since
		}
		return rels[i].UID < rels[j].UID
	})
}
