package commitments

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/groupbuy-backend/api/middleware"
	"github.com/angelmondragon/groupbuy-backend/api/responses"
	"github.com/angelmondragon/groupbuy-backend/api/validators"
	internalcommitments "github.com/angelmondragon/groupbuy-backend/internal/commitments"
	"github.com/angelmondragon/groupbuy-backend/internal/reports"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
)

const maxTextLen = 2000

// Exporter renders a deal's commitment sheet for download.
type Exporter interface {
	Export(ctx context.Context, dealID uuid.UUID, actor internalcommitments.Actor, format reports.Format) (*reports.File, error)
}

// Create lets a member commit to a deal.
func Create(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, dealID, ok := actorAndID(w, r, logg, "dealId")
		if !ok {
			return
		}
		var body createCommitmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]internalcommitments.LineInput, 0, len(body.SizeCommitments))
		for _, l := range body.SizeCommitments {
			lines = append(lines, internalcommitments.LineInput{Size: l.Size, Quantity: l.Quantity})
		}
		created, err := svc.CreateCommitment(r.Context(), internalcommitments.CreateCommitmentInput{
			DealID: dealID,
			UserID: actor.ID,
			Lines:  lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCommitmentResponse(created))
	}
}

// UpdateStatus approves or declines one commitment.
func UpdateStatus(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, commitmentID, ok := actorAndID(w, r, logg, "commitmentId")
		if !ok {
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateStatus(r.Context(), internalcommitments.UpdateStatusInput{
			CommitmentID: commitmentID,
			Status:       enums.CommitmentStatus(body.Status),
			Response:     sanitized(body.DistributorResponse),
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCommitmentResponse(updated))
	}
}

// BulkDecision applies one decision to every pending commitment on a deal.
func BulkDecision(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, dealID, ok := actorAndID(w, r, logg, "dealId")
		if !ok {
			return
		}
		var body bulkDecisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.BulkTransition(r.Context(), internalcommitments.BulkTransitionInput{
			DealID:   dealID,
			Status:   enums.CommitmentStatus(body.Status),
			Response: sanitized(body.DistributorResponse),
			Actor:    actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBulkResultResponse(result))
	}
}

// DecisionChange reverses a deal's bulk decision.
func DecisionChange(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, dealID, ok := actorAndID(w, r, logg, "dealId")
		if !ok {
			return
		}
		var body decisionChangeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ChangeDealDecision(r.Context(), internalcommitments.DecisionChangeInput{
			DealID: dealID,
			Status: enums.BulkDecision(body.Status),
			Reason: validators.SanitizeString(body.Reason, 500),
			Notes:  sanitized(body.Notes),
			Actor:  actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBulkResultResponse(result))
	}
}

// Export streams the deal's commitment sheet as xlsx or pdf.
func Export(svc Exporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, dealID, ok := actorAndID(w, r, logg, "dealId")
		if !ok {
			return
		}
		format, err := reports.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := svc.Export(r.Context(), dealID, actor, format)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, file.Filename, file.ContentType, file.Body)
	}
}

func actorAndID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, param string) (internalcommitments.Actor, uuid.UUID, bool) {
	actorType, actorID, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
		return internalcommitments.Actor{}, uuid.Nil, false
	}
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", param)))
		return internalcommitments.Actor{}, uuid.Nil, false
	}
	return internalcommitments.Actor{Type: actorType, ID: actorID}, id, true
}

func sanitized(v *string) *string {
	if v == nil {
		return nil
	}
	s := validators.SanitizeString(*v, maxTextLen)
	return &s
}
