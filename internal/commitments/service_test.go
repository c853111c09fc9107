package commitments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/groupbuy-backend/internal/deals"
	"github.com/angelmondragon/groupbuy-backend/internal/statuschanges"
	"github.com/angelmondragon/groupbuy-backend/internal/testdb"
	"github.com/angelmondragon/groupbuy-backend/internal/users"
	"github.com/angelmondragon/groupbuy-backend/pkg/besteffort"
	pkgdb "github.com/angelmondragon/groupbuy-backend/pkg/db"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	svc         Service
	commitments Repository
	deals       deals.Repository
	changes     statuschanges.Repository
	distributor *models.User
	member      *models.User
	deal        *models.Deal
	seq         int
}

type fixtureOption func(*ServiceParams)

func withAudit(a auditRecorder) fixtureOption {
	return func(p *ServiceParams) { p.Audit = a }
}

func withCommitmentRepo(wrap func(Repository) Repository) fixtureOption {
	return func(p *ServiceParams) { p.Commitments = wrap(p.Commitments) }
}

func withUsers(wrap func(userLookup) userLookup) fixtureOption {
	return func(p *ServiceParams) { p.Users = wrap(p.Users) }
}

// txTrackingUsers counts lookups that were bound to a transaction.
type txTrackingUsers struct {
	userLookup
	txBound int
}

func (u *txTrackingUsers) WithTx(tx *gorm.DB) *users.Repository {
	u.txBound++
	return u.userLookup.WithTx(tx)
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testdb.Open(t)
	logg := logger.New(logger.Options{ServiceName: "commitments-test", Output: io.Discard})

	usersRepo := users.NewRepository(db)
	distributor, err := usersRepo.Create(ctx, &models.User{Email: "dist@example.com", Name: "Dana", Role: enums.ActorTypeDistributor, IsActive: true})
	require.NoError(t, err)
	member, err := usersRepo.Create(ctx, &models.User{Email: "member@example.com", Name: "Milo", Role: enums.ActorTypeMember, IsActive: true})
	require.NoError(t, err)

	dealsRepo := deals.NewRepository(db)
	deal, err := dealsRepo.Create(ctx, &models.Deal{
		Name:          "Spring Reds",
		DistributorID: distributor.ID,
		Sizes: types.DealSizes{{
			Size:          "750ml",
			Name:          "Cabernet 750ml",
			OriginalCost:  decimal.NewFromInt(25),
			DiscountPrice: decimal.NewFromInt(20),
			DiscountTiers: []types.DiscountTier{{TierQuantity: 10, TierDiscount: decimal.NewFromInt(18)}},
		}},
	})
	require.NoError(t, err)

	changes := statuschanges.NewRepository(db)
	params := ServiceParams{
		Commitments: NewRepository(db),
		Deals:       dealsRepo,
		Users:       usersRepo,
		Audit:       statuschanges.NewRecorder(changes, logg),
		TX:          pkgdb.Wrap(db),
		Logger:      logg,
		Now:         func() time.Time { return fixedNow },
	}
	base := params.Commitments
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)

	return &fixture{
		db:          db,
		svc:         svc,
		commitments: base,
		deals:       dealsRepo,
		changes:     changes,
		distributor: distributor,
		member:      member,
		deal:        deal,
	}
}

func (f *fixture) distributorActor() Actor {
	return Actor{Type: enums.ActorTypeDistributor, ID: f.distributor.ID}
}

func (f *fixture) adminActor() Actor {
	return Actor{Type: enums.ActorTypeAdmin, ID: uuid.New()}
}

func (f *fixture) addCommitment(t *testing.T, status enums.CommitmentStatus, qty int, unit int64) *models.Commitment {
	t.Helper()
	f.seq++
	price := decimal.NewFromInt(unit)
	total := price.Mul(decimal.NewFromInt(int64(qty)))
	c, err := f.commitments.Create(context.Background(), &models.Commitment{
		DealID: f.deal.ID,
		UserID: f.member.ID,
		SizeCommitments: types.SizeCommitments{{
			Size: "750ml", Name: "Cabernet 750ml", Quantity: qty, PricePerUnit: price, TotalPrice: total,
		}},
		Quantity:   qty,
		TotalPrice: total,
		Status:     status,
		CreatedAt:  fixedNow.Add(-time.Duration(100-f.seq) * time.Minute),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) reloadDeal(t *testing.T) *models.Deal {
	t.Helper()
	deal, err := f.deals.FindByID(context.Background(), f.deal.ID)
	require.NoError(t, err)
	return deal
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Commitment {
	t.Helper()
	c, err := f.commitments.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) auditRows(t *testing.T, id uuid.UUID) []models.CommitmentStatusChange {
	t.Helper()
	rows, err := f.changes.ListByCommitment(context.Background(), id)
	require.NoError(t, err)
	return rows
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func strPtr(v string) *string { return &v }

func TestUpdateStatusApprovesAndRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	c := f.addCommitment(t, enums.CommitmentStatusPending, 10, 20)

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		CommitmentID: c.ID,
		Status:       enums.CommitmentStatusApproved,
		Response:     strPtr("ok"),
		Actor:        f.distributorActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CommitmentStatusApproved, updated.Status)

	stored := f.reload(t, c.ID)
	assert.Equal(t, enums.CommitmentStatusApproved, stored.Status)
	require.NotNil(t, stored.DistributorResponse)
	assert.Equal(t, "ok", *stored.DistributorResponse)

	deal := f.reloadDeal(t)
	assert.Equal(t, 10, deal.TotalSold)
	assert.True(t, deal.TotalRevenue.Equal(decimal.NewFromInt(200)), "revenue %s", deal.TotalRevenue)

	rows := f.auditRows(t, c.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.CommitmentStatusPending, rows[0].PreviousStatus)
	assert.Equal(t, enums.CommitmentStatusApproved, rows[0].NewStatus)
	assert.Equal(t, "Spring Reds", rows[0].DealName)
	assert.Equal(t, "Dana", rows[0].DistributorName)
	assert.Equal(t, "dist@example.com", rows[0].DistributorEmail)
	assert.Equal(t, enums.ActorTypeDistributor, rows[0].ProcessedBy)
	assert.True(t, rows[0].CommitmentDetails.TotalPrice.Equal(decimal.NewFromInt(200)))
	assert.False(t, rows[0].ProcessedForEmail)
}

func TestUpdateStatusLeavingApprovedRecomputes(t *testing.T) {
	f := newFixture(t)
	c := f.addCommitment(t, enums.CommitmentStatusPending, 10, 20)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: c.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: c.ID, Status: enums.CommitmentStatusDeclined, Actor: f.distributorActor()})
	require.NoError(t, err)

	deal := f.reloadDeal(t)
	assert.Zero(t, deal.TotalSold)
	assert.True(t, deal.TotalRevenue.IsZero())

	rows := f.auditRows(t, c.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.CommitmentStatusApproved, rows[1].PreviousStatus)
	assert.Equal(t, enums.CommitmentStatusDeclined, rows[1].NewStatus)
}

func TestUpdateStatusSameStatusOnlyUpdatesResponse(t *testing.T) {
	f := newFixture(t)
	c := f.addCommitment(t, enums.CommitmentStatusDeclined, 4, 20)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		CommitmentID: c.ID,
		Status:       enums.CommitmentStatusDeclined,
		Response:     strPtr("still no"),
		Actor:        f.distributorActor(),
	})
	require.NoError(t, err)

	assert.Empty(t, f.auditRows(t, c.ID))
	stored := f.reload(t, c.ID)
	require.NotNil(t, stored.DistributorResponse)
	assert.Equal(t, "still no", *stored.DistributorResponse)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.addCommitment(t, enums.CommitmentStatusPending, 1, 20)
	cancelled := f.addCommitment(t, enums.CommitmentStatusCancelled, 1, 20)

	_, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: uuid.New(), Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: pending.ID, Status: enums.CommitmentStatusApproved, Actor: Actor{Type: enums.ActorTypeDistributor, ID: uuid.New()}})
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: pending.ID, Status: enums.CommitmentStatusApproved, Actor: Actor{Type: enums.ActorTypeMember, ID: f.member.ID}})
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: pending.ID, Status: enums.CommitmentStatusPending, Actor: f.distributorActor()})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: cancelled.ID, Status: enums.CommitmentStatusApproved, Actor: f.adminActor()})
	requireCode(t, err, pkgerrors.CodeStateConflict)

	assert.Equal(t, enums.CommitmentStatusPending, f.reload(t, pending.ID).Status)
}

func TestUpdateStatusAdminCanActOnAnyDeal(t *testing.T) {
	f := newFixture(t)
	c := f.addCommitment(t, enums.CommitmentStatusPending, 3, 20)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{CommitmentID: c.ID, Status: enums.CommitmentStatusApproved, Actor: f.adminActor()})
	require.NoError(t, err)

	rows := f.auditRows(t, c.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.ActorTypeAdmin, rows[0].ProcessedBy)
}

type failingAudit struct{ calls int }

func (a *failingAudit) Record(context.Context, *gorm.DB, *models.CommitmentStatusChange) besteffort.Result {
	a.calls++
	return besteffort.Result{Op: "status_change.record", Err: errors.New("audit store down")}
}

func TestAuditFailureDoesNotAbortTransition(t *testing.T) {
	audit := &failingAudit{}
	f := newFixture(t, withAudit(audit))
	c := f.addCommitment(t, enums.CommitmentStatusPending, 10, 20)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{CommitmentID: c.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)

	assert.Equal(t, 1, audit.calls)
	assert.Equal(t, enums.CommitmentStatusApproved, f.reload(t, c.ID).Status)
	assert.Equal(t, 10, f.reloadDeal(t).TotalSold)
}

func TestBulkTransitionWithNoPendingIsNoOp(t *testing.T) {
	f := newFixture(t)
	approved := f.addCommitment(t, enums.CommitmentStatusApproved, 2, 20)

	res, err := f.svc.BulkTransition(context.Background(), BulkTransitionInput{
		DealID: f.deal.ID,
		Status: enums.CommitmentStatusApproved,
		Actor:  f.distributorActor(),
	})
	require.NoError(t, err)
	assert.Zero(t, res.Affected)
	assert.Empty(t, res.FailedIDs)
	assert.Empty(t, f.auditRows(t, approved.ID))

	deal := f.reloadDeal(t)
	assert.True(t, deal.BulkAction)
	assert.Equal(t, enums.DealStatusInactive, deal.Status)
}

func TestBulkDeclineThenReverseToApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addCommitment(t, enums.CommitmentStatusPending, 10, 20)
	b := f.addCommitment(t, enums.CommitmentStatusPending, 5, 18)
	c := f.addCommitment(t, enums.CommitmentStatusPending, 2, 20)

	res, err := f.svc.BulkTransition(ctx, BulkTransitionInput{
		DealID:   f.deal.ID,
		Status:   enums.CommitmentStatusDeclined,
		Response: strPtr("supplier cancelled"),
		Actor:    f.distributorActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Affected)
	assert.Equal(t, enums.BulkDecisionRejected, res.BulkStatus)
	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		assert.Equal(t, enums.CommitmentStatusDeclined, f.reload(t, id).Status)
		rows := f.auditRows(t, id)
		require.Len(t, rows, 1)
		assert.Equal(t, enums.CommitmentStatusPending, rows[0].PreviousStatus)
	}
	deal := f.reloadDeal(t)
	require.NotNil(t, deal.BulkStatus)
	assert.Equal(t, enums.BulkDecisionRejected, *deal.BulkStatus)
	assert.Zero(t, deal.TotalSold)

	res, err = f.svc.ChangeDealDecision(ctx, DecisionChangeInput{
		DealID: f.deal.ID,
		Status: enums.BulkDecisionApproved,
		Reason: "stock found",
		Notes:  strPtr("second warehouse"),
		Actor:  f.distributorActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Affected)
	assert.Equal(t, 17, res.TotalSold)
	assert.True(t, res.TotalRevenue.Equal(decimal.NewFromInt(330)), "revenue %s", res.TotalRevenue)

	remaining, err := f.commitments.ListByDeal(ctx, f.deal.ID, enums.CommitmentStatusPending, enums.CommitmentStatusDeclined)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	deal = f.reloadDeal(t)
	require.NotNil(t, deal.BulkStatus)
	assert.Equal(t, enums.BulkDecisionApproved, *deal.BulkStatus)
	assert.Equal(t, 17, deal.TotalSold)
	assert.True(t, deal.TotalRevenue.Equal(decimal.NewFromInt(330)))

	rows := f.auditRows(t, a.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.CommitmentStatusDeclined, rows[1].PreviousStatus)
	assert.Equal(t, enums.CommitmentStatusApproved, rows[1].NewStatus)

	history, err := f.deals.ListDecisionChanges(ctx, f.deal.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.BulkDecisionRejected, history[0].PreviousStatus)
	assert.Equal(t, enums.BulkDecisionApproved, history[0].NewStatus)
	assert.Equal(t, "stock found", history[0].Reason)
	assert.Equal(t, f.distributor.ID, history[0].ChangedBy)
}

func TestReversalLeavesTargetStatusUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addCommitment(t, enums.CommitmentStatusPending, 1, 20)
	b := f.addCommitment(t, enums.CommitmentStatusPending, 1, 20)

	_, err := f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusDeclined, Actor: f.distributorActor()})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{CommitmentID: a.ID, Status: enums.CommitmentStatusApproved, Actor: f.adminActor()})
	require.NoError(t, err)
	before := len(f.auditRows(t, a.ID))
	late := f.addCommitment(t, enums.CommitmentStatusPending, 3, 20)

	res, err := f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: f.deal.ID, Status: enums.BulkDecisionApproved, Reason: "reopened", Actor: f.adminActor()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)

	assert.Len(t, f.auditRows(t, a.ID), before, "already approved commitment must not get a new audit row")
	assert.Equal(t, enums.CommitmentStatusApproved, f.reload(t, b.ID).Status)
	lateRows := f.auditRows(t, late.ID)
	require.Len(t, lateRows, 1)
	assert.Equal(t, enums.CommitmentStatusPending, lateRows[0].PreviousStatus)
}

func TestReversalToRejectedMovesApprovedAndPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addCommitment(t, enums.CommitmentStatusPending, 4, 20)
	_, err := f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)
	assert.Equal(t, 4, f.reloadDeal(t).TotalSold)
	b := f.addCommitment(t, enums.CommitmentStatusPending, 2, 20)
	cancelled := f.addCommitment(t, enums.CommitmentStatusCancelled, 9, 20)

	res, err := f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: f.deal.ID, Status: enums.BulkDecisionRejected, Reason: "recall", Actor: f.distributorActor()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
	assert.Equal(t, enums.CommitmentStatusDeclined, f.reload(t, a.ID).Status)
	assert.Equal(t, enums.CommitmentStatusDeclined, f.reload(t, b.ID).Status)
	assert.Equal(t, enums.CommitmentStatusCancelled, f.reload(t, cancelled.ID).Status)
	assert.Zero(t, f.reloadDeal(t).TotalSold)
}

func TestChangeDealDecisionPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCommitment(t, enums.CommitmentStatusPending, 1, 20)

	_, err := f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: f.deal.ID, Status: enums.BulkDecisionApproved, Reason: "x", Actor: f.distributorActor()})
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: f.deal.ID, Status: enums.BulkDecisionApproved, Reason: "  ", Actor: f.distributorActor()})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)

	_, err = f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: f.deal.ID, Status: enums.BulkDecisionApproved, Reason: "again", Actor: f.distributorActor()})
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: uuid.New(), Status: enums.BulkDecisionRejected, Reason: "x", Actor: f.adminActor()})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.ChangeDealDecision(ctx, DecisionChangeInput{DealID: f.deal.ID, Status: enums.BulkDecisionRejected, Reason: "x", Actor: Actor{Type: enums.ActorTypeDistributor, ID: uuid.New()}})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestBulkTransitionRejectsConflictingDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCommitment(t, enums.CommitmentStatusPending, 1, 20)

	_, err := f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)

	_, err = f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusDeclined, Actor: f.distributorActor()})
	requireCode(t, err, pkgerrors.CodeStateConflict)

	res, err := f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)
	assert.Zero(t, res.Affected)
}

type flakyRepo struct {
	Repository
	failID uuid.UUID
}

func (f *flakyRepo) WithTx(tx *gorm.DB) Repository {
	return &flakyRepo{Repository: f.Repository.WithTx(tx), failID: f.failID}
}

func (f *flakyRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.CommitmentStatus, response *string) (bool, error) {
	if id == f.failID {
		return false, errors.New("write timeout")
	}
	return f.Repository.TransitionStatus(ctx, id, from, to, response)
}

func TestBulkTransitionReportsPartialFailure(t *testing.T) {
	failID := uuid.New()
	f := newFixture(t, withCommitmentRepo(func(r Repository) Repository {
		return &flakyRepo{Repository: r, failID: failID}
	}))
	ctx := context.Background()
	ok := f.addCommitment(t, enums.CommitmentStatusPending, 10, 20)
	broken, err := f.commitments.Create(ctx, &models.Commitment{
		ID:         failID,
		DealID:     f.deal.ID,
		UserID:     f.member.ID,
		Quantity:   5,
		TotalPrice: decimal.NewFromInt(100),
		Status:     enums.CommitmentStatusPending,
		CreatedAt:  fixedNow,
	})
	require.NoError(t, err)

	res, err := f.svc.BulkTransition(ctx, BulkTransitionInput{DealID: f.deal.ID, Status: enums.CommitmentStatusApproved, Actor: f.distributorActor()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
	assert.Equal(t, []uuid.UUID{broken.ID}, res.FailedIDs)
	assert.Equal(t, 10, res.TotalSold)

	assert.Equal(t, enums.CommitmentStatusApproved, f.reload(t, ok.ID).Status)
	assert.Equal(t, enums.CommitmentStatusPending, f.reload(t, broken.ID).Status)
	assert.Empty(t, f.auditRows(t, broken.ID))
}

func TestCreateCommitmentPricesWithTiers(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.CreateCommitment(context.Background(), CreateCommitmentInput{
		DealID: f.deal.ID,
		UserID: f.member.ID,
		Lines:  []LineInput{{Size: "750ml", Quantity: 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CommitmentStatusPending, c.Status)
	assert.Equal(t, 12, c.Quantity)
	assert.True(t, c.TotalPrice.Equal(decimal.NewFromInt(216)), "total %s", c.TotalPrice)

	stored := f.reload(t, c.ID)
	require.Len(t, stored.SizeCommitments, 1)
	require.NotNil(t, stored.SizeCommitments[0].AppliedDiscountTier)
	assert.Equal(t, 10, stored.SizeCommitments[0].AppliedDiscountTier.TierQuantity)
}

func TestCreateCommitmentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCommitment(ctx, CreateCommitmentInput{DealID: f.deal.ID, UserID: f.member.ID, Lines: []LineInput{{Size: "1.5L", Quantity: 1}}})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.CreateCommitment(ctx, CreateCommitmentInput{DealID: f.deal.ID, UserID: f.member.ID, Lines: []LineInput{{Size: "750ml", Quantity: 0}}})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.CreateCommitment(ctx, CreateCommitmentInput{DealID: uuid.New(), UserID: f.member.ID, Lines: []LineInput{{Size: "750ml", Quantity: 1}}})
	requireCode(t, err, pkgerrors.CodeNotFound)

	closed := fixedNow.Add(-time.Hour)
	require.NoError(t, f.db.Model(&models.Deal{}).Where("id = ?", f.deal.ID).Update("commitment_end_at", closed).Error)
	_, err = f.svc.CreateCommitment(ctx, CreateCommitmentInput{DealID: f.deal.ID, UserID: f.member.ID, Lines: []LineInput{{Size: "750ml", Quantity: 1}}})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStatusReadsDistributorInsideTransaction(t *testing.T) {
	tracker := &txTrackingUsers{}
	f := newFixture(t, withUsers(func(base userLookup) userLookup {
		tracker.userLookup = base
		return tracker
	}))
	c := f.addCommitment(t, enums.CommitmentStatusPending, 2, 20)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		CommitmentID: c.ID,
		Status:       enums.CommitmentStatusDeclined,
		Actor:        f.distributorActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tracker.txBound)

	rows := f.auditRows(t, c.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dana", rows[0].DistributorName)
}
