package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/groupbuy-backend/api/responses"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	ActorTypeHeader = "X-Actor-Type"
	ActorIDHeader   = "X-Actor-Id"
)

// Actor reads the caller identity forwarded by the gateway. Requests without
// a well-formed identity are rejected.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawType := strings.ToLower(strings.TrimSpace(r.Header.Get(ActorTypeHeader)))
			rawID := strings.TrimSpace(r.Header.Get(ActorIDHeader))
			if rawType == "" || rawID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
				return
			}
			actorType, err := enums.ParseActorType(rawType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor type"))
				return
			}
			actorID, err := uuid.Parse(rawID)
			if err != nil || actorID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid actor id"))
				return
			}

			ctx := WithActor(r.Context(), actorType, actorID)
			if logg != nil {
				ctx = logg.WithActor(ctx, actorType.String(), actorID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
