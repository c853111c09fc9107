package statuschanges

import (
	"context"

	"github.com/angelmondragon/groupbuy-backend/pkg/besteffort"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"gorm.io/gorm"
)

// Recorder writes audit rows inside the caller's transaction without letting
// an audit failure abort it.
type Recorder struct {
	repo Repository
	logg *logger.Logger
}

// NewRecorder builds a recorder over the provided repository.
func NewRecorder(repo Repository, logg *logger.Logger) *Recorder {
	return &Recorder{repo: repo, logg: logg}
}

// Record inserts change under a savepoint of tx. On failure only the
// savepoint is rolled back and the returned Result carries the error.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, change *models.CommitmentStatusChange) besteffort.Result {
	fields := map[string]any{
		"commitment_id":   change.CommitmentID.String(),
		"deal_id":         change.DealID.String(),
		"previous_status": change.PreviousStatus.String(),
		"new_status":      change.NewStatus.String(),
	}
	return besteffort.Run(ctx, r.logg, "status_change.record", fields, func(ctx context.Context) error {
		if tx == nil {
			return r.repo.Create(ctx, change)
		}
		return tx.Transaction(func(sp *gorm.DB) error {
			return r.repo.WithTx(sp).Create(ctx, change)
		})
	})
}
