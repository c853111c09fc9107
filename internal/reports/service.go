package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/groupbuy-backend/internal/commitments"
	"github.com/angelmondragon/groupbuy-backend/internal/deals"
	"github.com/angelmondragon/groupbuy-backend/pkg/db/models"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Format selects the export encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat defaults to xlsx.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatXLSX):
		return FormatXLSX, nil
	case string(FormatPDF):
		return FormatPDF, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported export format %q", value))
	}
}

// File is a rendered export.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

type memberLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Exporter renders a deal's commitment sheet for its distributor or an admin.
type Exporter struct {
	deals       deals.Repository
	commitments commitments.Repository
	members     memberLookup
}

// NewExporter wires exporter dependencies.
func NewExporter(dealRepo deals.Repository, commitmentRepo commitments.Repository, members memberLookup) (*Exporter, error) {
	if dealRepo == nil || commitmentRepo == nil || members == nil {
		return nil, fmt.Errorf("deals, commitments and members are required")
	}
	return &Exporter{deals: dealRepo, commitments: commitmentRepo, members: members}, nil
}

// Export loads the deal and renders it in the requested format.
func (e *Exporter) Export(ctx context.Context, dealID uuid.UUID, actor commitments.Actor, format Format) (*File, error) {
	deal, err := e.deals.FindByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	switch actor.Type {
	case enums.ActorTypeAdmin:
	case enums.ActorTypeDistributor:
		if deal.DistributorID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "deal does not belong to distributor")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only distributors or admins can export commitments")
	}

	list, err := e.commitments.ListByDeal(ctx, deal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commitments")
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.UserID)
	}
	members, err := e.members.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load members")
	}
	sheet := BuildSheet(deal, list, members)

	base := "deal-" + deal.ID.String() + "-commitments"
	switch format {
	case FormatPDF:
		body, err := DealSummaryPDF(sheet)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render pdf")
		}
		return &File{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := CommitmentSheetXLSX(sheet)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render xlsx")
		}
		return &File{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	}
}
