package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/graph"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/push"
)

// Pusher delivers a push message to one device.
type Pusher interface {
	Send(ctx context.Context, msg *push.PushMessage) error
}

// Emitter turns relation transitions into stored notifications and push
// deliveries. It implements graph.Notifier; the engine calls it after a
// submission has already succeeded, so nothing here may fail the
// mutation — every error ends at the log.
type Emitter struct {
	repo   Repository
	dir    *directory.Directory
	pusher Pusher // may be nil
}

// NewEmitter creates a relation-event emitter. pusher may be nil.
func NewEmitter(repo Repository, dir *directory.Directory, pusher Pusher) *Emitter {
	return &Emitter{repo: repo, dir: dir, pusher: pusher}
}

// RelationEvent records the transition for the affected user. For both
// supported kinds the recipient is the target: a created request lands
// in the target's inbox, an acceptance notifies the requester.
func (e *Emitter) RelationEvent(ctx context.Context, kind graph.EventKind, actorID, targetID string) {
	actorName := actorID
	if p, err := e.dir.Get(ctx, actorID); err == nil && p.Username != "" {
		actorName = p.Username
	}

	var notifType Type
	var title, body string
	switch kind {
	case graph.EventRequestCreated:
		notifType = TypeFollowRequest
		title = "New follow request"
		body = actorName + " wants to follow you"
	case graph.EventRequestAccepted:
		notifType = TypeRequestAccepted
		title = "Follow request accepted"
		body = actorName + " accepted your follow request"
	default:
		log.Warn().Str("kind", string(kind)).Msg("Unknown relation event kind")
		return
	}

	n := &Notification{
		ID:        uuid.New(),
		UserID:    targetID,
		Type:      notifType,
		Title:     title,
		Body:      sql.NullString{String: body, Valid: true},
		IsRead:    false,
		CreatedAt: time.Now(),
	}
	n.SetData(&NotificationData{ActorID: actorID, Kind: string(kind)})

	if err := e.repo.Create(ctx, n); err != nil {
		log.Error().Err(err).
			Str("kind", string(kind)).
			Str("user_id", targetID).
			Msg("Failed to store relation notification")
		return
	}

	e.pushToDevices(ctx, targetID, title, body, actorID)
}

func (e *Emitter) pushToDevices(ctx context.Context, userID, title, body, actorID string) {
	if e.pusher == nil {
		return
	}

	tokens, err := e.repo.ListDeviceTokens(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list device tokens")
		return
	}

	for _, token := range tokens {
		msg := &push.PushMessage{
			Token: token,
			Title: title,
			Body:  body,
			Data:  map[string]string{"actor_id": actorID},
		}
		if err := e.pusher.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Push delivery failed")
		}
	}
}
