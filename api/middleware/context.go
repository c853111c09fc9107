package middleware

import (
	"context"

	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxActorType contextKey = "actor_type"
	ctxActorID   contextKey = "actor_id"
)

// WithActor injects the calling actor into the context.
func WithActor(ctx context.Context, actorType enums.ActorType, actorID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorType, actorType)
	return context.WithValue(ctx, ctxActorID, actorID)
}

// ActorFromContext returns the actor injected by the Actor middleware.
func ActorFromContext(ctx context.Context) (enums.ActorType, uuid.UUID, bool) {
	if ctx == nil {
		return "", uuid.Nil, false
	}
	actorType, ok := ctx.Value(ctxActorType).(enums.ActorType)
	if !ok {
		return "", uuid.Nil, false
	}
	actorID, ok := ctx.Value(ctxActorID).(uuid.UUID)
	if !ok {
		return "", uuid.Nil, false
	}
	return actorType, actorID, true
}
