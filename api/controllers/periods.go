package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/groupbuy-backend/api/responses"
	"github.com/angelmondragon/groupbuy-backend/api/validators"
	"github.com/angelmondragon/groupbuy-backend/internal/periods"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
)

type periodResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	periods.Window
}

// CommitmentPeriod returns the commitment window and deal timeframe for a
// target month. month defaults to next month, year to the month's year.
func CommitmentPeriod(calc periods.Calculator, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := now().AddDate(0, 1, 0)
		month := next.Month()
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := periods.ParseMonth(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			month = parsed
		}
		year, err := validators.ParseQueryInt(r, "year", next.Year(), 2000, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		window, err := calc.CommitmentDates(month, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, periodResponse{Month: int(month), Year: year, Window: window})
	}
}
