package deals

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/groupbuy-backend/internal/testdb"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryRoundTripsSizes(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.Open(t))

	deal, err := repo.Create(ctx, &models.Deal{
		Name:          "Spring Reds",
		DistributorID: uuid.New(),
		Sizes:         types.DealSizes{wineSize()},
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DealStatusActive, found.Status)
	require.Len(t, found.Sizes, 1)
	assert.Len(t, found.Sizes[0].DiscountTiers, 2)
	assert.True(t, found.TotalRevenue.IsZero())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryAggregatesAndDecision(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	repo := NewRepository(db)

	deal, err := repo.Create(ctx, &models.Deal{Name: "Whites", DistributorID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		locked, err := txRepo.LockByID(ctx, deal.ID)
		if err != nil {
			return err
		}
		if err := txRepo.UpdateAggregates(ctx, locked.ID, 30, decimal.RequireFromString("612.50")); err != nil {
			return err
		}
		return txRepo.RecordBulkDecision(ctx, locked.ID, enums.BulkDecisionRejected)
	}))

	found, err := repo.FindByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, found.TotalSold)
	assert.True(t, found.TotalRevenue.Equal(decimal.RequireFromString("612.5")))
	assert.True(t, found.BulkAction)
	require.NotNil(t, found.BulkStatus)
	assert.Equal(t, enums.BulkDecisionRejected, *found.BulkStatus)
	assert.Equal(t, enums.DealStatusInactive, found.Status)
}

func TestRepositoryDecisionHistoryIsOrdered(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.Open(t))
	dealID := uuid.New()
	actor := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AppendDecisionChange(ctx, &models.DealDecisionChange{
		DealID: dealID, PreviousStatus: enums.BulkDecisionApproved, NewStatus: enums.BulkDecisionRejected,
		Reason: "supplier short", ChangedBy: actor, ChangedAt: base.Add(time.Hour),
	}))
	require.NoError(t, repo.AppendDecisionChange(ctx, &models.DealDecisionChange{
		DealID: dealID, PreviousStatus: enums.BulkDecisionRejected, NewStatus: enums.BulkDecisionApproved,
		Reason: "stock found", ChangedBy: actor, ChangedAt: base.Add(2 * time.Hour),
	}))

	history, err := repo.ListDecisionChanges(ctx, dealID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "supplier short", history[0].Reason)
	assert.Equal(t, enums.BulkDecisionApproved, history[1].NewStatus)
}

func TestRepositoryCreateWithoutSizes(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.Open(t))

	deal, err := repo.Create(ctx, &models.Deal{Name: "Draft", DistributorID: uuid.New()})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.Sizes)
	assert.Empty(t, found.Sizes)
}
