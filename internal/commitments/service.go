package commitments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/groupbuy-backend/internal/deals"
	"github.com/angelmondragon/groupbuy-backend/internal/users"
	"github.com/angelmondragon/groupbuy-backend/pkg/besteffort"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"github.com/angelmondragon/groupbuy-backend/pkg/metrics"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	pathSingle   = "single"
	pathBulk     = "bulk"
	pathReversal = "reversal"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	WithTx(tx *gorm.DB) *users.Repository
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, change *models.CommitmentStatusChange) besteffort.Result
}

// Actor is the distributor, admin or member performing an operation.
type Actor struct {
	Type enums.ActorType
	ID   uuid.UUID
}

// Service is the commitment lifecycle engine.
type Service interface {
	CreateCommitment(ctx context.Context, input CreateCommitmentInput) (*models.Commitment, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Commitment, error)
	BulkTransition(ctx context.Context, input BulkTransitionInput) (*BulkResult, error)
	ChangeDealDecision(ctx context.Context, input DecisionChangeInput) (*BulkResult, error)
}

// LineInput is one requested size line on a new commitment.
type LineInput struct {
	Size     string
	Quantity int
}

// CreateCommitmentInput captures a member's commit to a deal.
type CreateCommitmentInput struct {
	DealID uuid.UUID
	UserID uuid.UUID
	Lines  []LineInput
}

// UpdateStatusInput captures a single commitment decision.
type UpdateStatusInput struct {
	CommitmentID uuid.UUID
	Status       enums.CommitmentStatus
	Response     *string
	Actor        Actor
}

// BulkTransitionInput captures a blanket decision over a deal's pending commitments.
type BulkTransitionInput struct {
	DealID   uuid.UUID
	Status   enums.CommitmentStatus
	Response *string
	Actor    Actor
}

// DecisionChangeInput captures a reversal of a deal's bulk decision.
type DecisionChangeInput struct {
	DealID uuid.UUID
	Status enums.BulkDecision
	Reason string
	Notes  *string
	Actor  Actor
}

// BulkResult reports a multi-commitment operation. Failed commitments keep
// their previous status and can be retried.
type BulkResult struct {
	Affected     int
	FailedIDs    []uuid.UUID
	BulkStatus   enums.BulkDecision
	TotalSold    int
	TotalRevenue decimal.Decimal
}

// ServiceParams configure the commitment service.
type ServiceParams struct {
	Commitments Repository
	Deals       deals.Repository
	Users       userLookup
	Audit       auditRecorder
	TX          txRunner
	Logger      *logger.Logger
	Metrics     *metrics.CommitmentMetrics
	Now         func() time.Time
}

type service struct {
	commitments Repository
	deals       deals.Repository
	users       userLookup
	audit       auditRecorder
	tx          txRunner
	logg        *logger.Logger
	metrics     *metrics.CommitmentMetrics
	now         func() time.Time
}

// NewService builds the commitment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Commitments == nil {
		return nil, fmt.Errorf("commitments repository required")
	}
	if params.Deals == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		commitments: params.Commitments,
		deals:       params.Deals,
		users:       params.Users,
		audit:       params.Audit,
		tx:          params.TX,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         now,
	}, nil
}

func (s *service) CreateCommitment(ctx context.Context, input CreateCommitmentInput) (*models.Commitment, error) {
	if input.DealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	deal, err := s.deals.FindByID(ctx, input.DealID)
	if err != nil {
		return nil, notFoundOr(err, "deal not found", "load deal")
	}
	if deal.Status != enums.DealStatusActive || deal.BulkAction {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deal is closed to new commitments")
	}
	now := s.now().UTC()
	if !deal.CommitmentWindowContains(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "commitment window is closed")
	}
	if err := deals.ValidateSizes(deal.Sizes); err != nil {
		return nil, err
	}

	lines := make(types.SizeCommitments, 0, len(input.Lines))
	for _, in := range input.Lines {
		size, ok := deal.Sizes.Find(strings.TrimSpace(in.Size))
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size %q is not offered on this deal", in.Size))
		}
		lines = append(lines, deals.PriceLine(size, in.Quantity))
	}

	commitment := &models.Commitment{
		DealID:          deal.ID,
		UserID:          input.UserID,
		SizeCommitments: lines,
		Quantity:        lines.Quantity(),
		TotalPrice:      lines.Total(),
		Status:          enums.CommitmentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.commitments.Create(ctx, commitment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commitment")
	}
	return created, nil
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one size line is required")
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		size := strings.TrimSpace(line.Size)
		if size == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "size is required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for %q must be positive", size))
		}
		if _, dup := seen[size]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size %q listed more than once", size))
		}
		seen[size] = struct{}{}
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Commitment, error) {
	if input.CommitmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commitment id required")
	}
	if !input.Status.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or declined")
	}
	if err := requireReviewer(input.Actor); err != nil {
		return nil, err
	}
	ctx = s.logg.WithCommitmentID(ctx, input.CommitmentID.String())
	ctx = s.logg.WithActor(ctx, input.Actor.Type.String(), input.Actor.ID.String())

	var (
		result *models.Commitment
		moved  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.commitments.WithTx(tx)
		commitment, err := repo.FindByID(ctx, input.CommitmentID)
		if err != nil {
			return notFoundOr(err, "commitment not found", "load commitment")
		}
		deal, err := s.deals.WithTx(tx).LockByID(ctx, commitment.DealID)
		if err != nil {
			return notFoundOr(err, "deal not found", "load deal")
		}
		if err := authorize(input.Actor, deal); err != nil {
			return err
		}
		if commitment.Status == enums.CommitmentStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled commitments cannot be decided")
		}
		if deal.BulkAction && input.Actor.Type != enums.ActorTypeAdmin {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal has a bulk decision; use a decision change")
		}

		if commitment.Status == input.Status {
			if input.Response != nil {
				if err := repo.UpdateResponse(ctx, commitment.ID, input.Response); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update distributor response")
				}
				commitment.DistributorResponse = input.Response
			}
			result = commitment
			return nil
		}

		ok, err := s.transition(ctx, tx, *commitment, deal, input.Status, input.Response, input.Actor, pathSingle)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "commitment was changed concurrently")
		}
		moved = true

		previous := commitment.Status
		commitment.Status = input.Status
		if input.Response != nil {
			commitment.DistributorResponse = input.Response
		}
		if previous == enums.CommitmentStatusApproved || input.Status == enums.CommitmentStatusApproved {
			if _, err := s.recompute(ctx, tx, deal.ID); err != nil {
				return err
			}
		}
		result = commitment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if moved {
		s.metrics.AddTransitions(pathSingle, input.Status.String(), 1)
	}
	return result, nil
}

func (s *service) BulkTransition(ctx context.Context, input BulkTransitionInput) (*BulkResult, error) {
	if input.DealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if !input.Status.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or declined")
	}
	if err := requireReviewer(input.Actor); err != nil {
		return nil, err
	}
	ctx = s.logg.WithDealID(ctx, input.DealID.String())
	ctx = s.logg.WithActor(ctx, input.Actor.Type.String(), input.Actor.ID.String())
	decision := enums.BulkDecisionFor(input.Status)

	var (
		deal    *models.Deal
		pending []models.Commitment
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deal, err = s.deals.WithTx(tx).LockByID(ctx, input.DealID)
		if err != nil {
			return notFoundOr(err, "deal not found", "load deal")
		}
		if err := authorize(input.Actor, deal); err != nil {
			return err
		}
		if deal.BulkAction && deal.BulkStatus != nil && *deal.BulkStatus != decision {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal already has a different bulk decision; use a decision change")
		}
		pending, err = s.commitments.WithTx(tx).ListByDeal(ctx, deal.ID, enums.CommitmentStatusPending)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending commitments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	moves := make([]plannedMove, 0, len(pending))
	for _, c := range pending {
		moves = append(moves, plannedMove{commitment: c, target: input.Status})
	}
	result := s.applyMoves(ctx, deal, moves, input.Response, input.Actor, pathBulk)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		totals, err := s.recompute(ctx, tx, deal.ID)
		if err != nil {
			return err
		}
		if err := s.deals.WithTx(tx).RecordBulkDecision(ctx, deal.ID, decision); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record bulk decision")
		}
		result.TotalSold = totals.TotalSold
		result.TotalRevenue = totals.TotalRevenue
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.BulkStatus = decision
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"affected":    result.Affected,
		"failed":      len(result.FailedIDs),
		"bulk_status": decision.String(),
	}), "bulk transition complete")
	return result, nil
}

func (s *service) ChangeDealDecision(ctx context.Context, input DecisionChangeInput) (*BulkResult, error) {
	if input.DealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if err := requireReviewer(input.Actor); err != nil {
		return nil, err
	}
	ctx = s.logg.WithDealID(ctx, input.DealID.String())
	ctx = s.logg.WithActor(ctx, input.Actor.Type.String(), input.Actor.ID.String())

	var (
		deal       *models.Deal
		previous   enums.BulkDecision
		candidates []models.Commitment
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deal, err = s.deals.WithTx(tx).LockByID(ctx, input.DealID)
		if err != nil {
			return notFoundOr(err, "deal not found", "load deal")
		}
		if err := authorize(input.Actor, deal); err != nil {
			return err
		}
		if !deal.BulkAction || deal.BulkStatus == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deal has no decision to change")
		}
		previous = *deal.BulkStatus
		if previous == input.Status {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("deal decision is already %s", previous))
		}
		candidates, err = s.commitments.WithTx(tx).ListByDeal(ctx, deal.ID, ReversalSources(input.Status)...)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commitments to move")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	target := input.Status.CommitmentStatus()
	moves := make([]plannedMove, 0, len(candidates))
	for _, c := range candidates {
		moves = append(moves, plannedMove{commitment: c, target: target})
	}
	result := s.applyMoves(ctx, deal, moves, nil, input.Actor, pathReversal)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		totals, err := s.recompute(ctx, tx, deal.ID)
		if err != nil {
			return err
		}
		dealRepo := s.deals.WithTx(tx)
		if err := dealRepo.AppendDecisionChange(ctx, &models.DealDecisionChange{
			DealID:         deal.ID,
			PreviousStatus: previous,
			NewStatus:      input.Status,
			Reason:         reason,
			Notes:          input.Notes,
			ChangedBy:      input.Actor.ID,
			ChangedAt:      s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append decision history")
		}
		if err := dealRepo.RecordBulkDecision(ctx, deal.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record bulk decision")
		}
		result.TotalSold = totals.TotalSold
		result.TotalRevenue = totals.TotalRevenue
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.BulkStatus = input.Status
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"affected":        result.Affected,
		"failed":          len(result.FailedIDs),
		"previous_status": previous.String(),
		"new_status":      input.Status.String(),
	}), "deal decision changed")
	return result, nil
}

// ReversalSources lists the commitment statuses a reversal to decision moves.
// Commitments already in the target status are left alone.
func ReversalSources(decision enums.BulkDecision) []enums.CommitmentStatus {
	if decision == enums.BulkDecisionApproved {
		return []enums.CommitmentStatus{enums.CommitmentStatusDeclined, enums.CommitmentStatusPending}
	}
	return []enums.CommitmentStatus{enums.CommitmentStatusApproved, enums.CommitmentStatusPending}
}

type plannedMove struct {
	commitment models.Commitment
	target     enums.CommitmentStatus
}

// applyMoves transitions each commitment in its own transaction so one failure
// leaves the others intact.
func (s *service) applyMoves(ctx context.Context, deal *models.Deal, moves []plannedMove, response *string, actor Actor, path string) *BulkResult {
	result := &BulkResult{}
	if len(moves) == 0 {
		return result
	}
	distributor := s.distributorFor(ctx, nil, deal)

	var errs error
	for _, move := range moves {
		c := move.commitment
		var moved bool
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ok, err := s.transitionWith(ctx, tx, c, deal, distributor, move.target, response, actor, path)
			moved = ok
			return err
		})
		switch {
		case err != nil:
			result.FailedIDs = append(result.FailedIDs, c.ID)
			errs = multierr.Append(errs, fmt.Errorf("commitment %s: %w", c.ID, err))
		case moved:
			result.Affected++
			s.metrics.AddTransitions(path, move.target.String(), 1)
		default:
			s.logg.Debug(s.logg.WithCommitmentID(ctx, c.ID.String()), "commitment changed since snapshot; skipped")
		}
	}
	if errs != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"path":       path,
			"failed_ids": idStrings(result.FailedIDs),
		})
		s.logg.Error(logCtx, "some commitments could not be transitioned", errs)
	}
	return result
}

func (s *service) transition(ctx context.Context, tx *gorm.DB, c models.Commitment, deal *models.Deal, target enums.CommitmentStatus, response *string, actor Actor, path string) (bool, error) {
	return s.transitionWith(ctx, tx, c, deal, s.distributorFor(ctx, tx, deal), target, response, actor, path)
}

// transitionWith applies one guarded status change and records its audit row
// in the same transaction.
func (s *service) transitionWith(ctx context.Context, tx *gorm.DB, c models.Commitment, deal *models.Deal, distributor models.User, target enums.CommitmentStatus, response *string, actor Actor, path string) (bool, error) {
	ok, err := s.commitments.WithTx(tx).TransitionStatus(ctx, c.ID, c.Status, target, response)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update commitment status")
	}
	if !ok {
		return false, nil
	}

	effectiveResponse := c.DistributorResponse
	if response != nil {
		effectiveResponse = response
	}
	change := &models.CommitmentStatusChange{
		CommitmentID:        c.ID,
		DealID:              deal.ID,
		UserID:              c.UserID,
		DealName:            deal.Name,
		DistributorName:     distributor.DisplayName(),
		DistributorEmail:    distributor.Email,
		PreviousStatus:      c.Status,
		NewStatus:           target,
		DistributorResponse: effectiveResponse,
		CommitmentDetails:   Snapshot(c),
		ProcessedBy:         actor.Type,
		ProcessedByID:       actor.ID,
		CreatedAt:           s.now().UTC(),
	}
	if res := s.audit.Record(ctx, tx, change); !res.OK() {
		s.metrics.IncAuditFailure(path)
	}
	return true, nil
}

// recompute rescans the deal's commitments and writes fresh totals.
func (s *service) recompute(ctx context.Context, tx *gorm.DB, dealID uuid.UUID) (Totals, error) {
	all, err := s.commitments.WithTx(tx).ListByDeal(ctx, dealID)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deal commitments")
	}
	totals := RecomputeTotals(all)
	if err := s.deals.WithTx(tx).UpdateAggregates(ctx, dealID, totals.TotalSold, totals.TotalRevenue); err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update deal totals")
	}
	return totals, nil
}

// distributorFor loads the snapshot identity for audit rows, on tx when the
// caller already holds one. A lookup failure leaves the fields blank rather
// than failing the transition.
func (s *service) distributorFor(ctx context.Context, tx *gorm.DB, deal *models.Deal) models.User {
	lookup := s.users.FindByID
	if tx != nil {
		// a failed read rolls back only its own savepoint
		lookup = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			var user *models.User
			err := tx.Transaction(func(sp *gorm.DB) error {
				found, err := s.users.WithTx(sp).FindByID(ctx, id)
				user = found
				return err
			})
			return user, err
		}
	}
	var distributor models.User
	besteffort.Run(ctx, s.logg, "distributor.lookup", map[string]any{"distributor_id": deal.DistributorID.String()}, func(ctx context.Context) error {
		user, err := lookup(ctx, deal.DistributorID)
		if err != nil {
			return err
		}
		distributor = *user
		return nil
	})
	return distributor
}

func requireReviewer(actor Actor) error {
	if actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if actor.Type != enums.ActorTypeDistributor && actor.Type != enums.ActorTypeAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only distributors or admins can decide commitments")
	}
	return nil
}

func authorize(actor Actor, deal *models.Deal) error {
	if actor.Type == enums.ActorTypeAdmin {
		return nil
	}
	if deal.DistributorID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "deal does not belong to distributor")
	}
	return nil
}

func notFoundOr(err error, notFound, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
