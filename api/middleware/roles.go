package middleware

import (
	"net/http"
	"slices"

	"github.com/angelmondragon/groupbuy-backend/api/responses"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
)

// RequireActorType only lets the listed actor types through.
func RequireActorType(logg *logger.Logger, allowed ...enums.ActorType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorType, _, ok := ActorFromContext(r.Context())
			if !ok || !slices.Contains(allowed, actorType) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "actor type not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
