package periods

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
)

// Window is the commitment window and deal timeframe for one target month.
type Window struct {
	CommitmentStart time.Time `json:"commitmentStartDate"`
	CommitmentEnd   time.Time `json:"commitmentEndDate"`
	DealStart       time.Time `json:"dealStartDate"`
	DealEnd         time.Time `json:"dealEndDate"`
}

// Calculator resolves the dates for a deal running in month/year.
type Calculator interface {
	CommitmentDates(month time.Month, year int) (Window, error)
}

// MonthlyCalendar opens commitments on OpenDay and closes them at the end of
// CloseDay of the month before the deal runs. Days past the end of a short
// month are clamped to its last day.
type MonthlyCalendar struct {
	OpenDay  int
	CloseDay int
	Location *time.Location
}

// NewMonthlyCalendar validates the open/close days.
func NewMonthlyCalendar(openDay, closeDay int, loc *time.Location) (*MonthlyCalendar, error) {
	if openDay < 1 || openDay > 31 {
		return nil, fmt.Errorf("open day %d out of range", openDay)
	}
	if closeDay < openDay || closeDay > 31 {
		return nil, fmt.Errorf("close day %d must be between open day %d and 31", closeDay, openDay)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MonthlyCalendar{OpenDay: openDay, CloseDay: closeDay, Location: loc}, nil
}

func (c *MonthlyCalendar) CommitmentDates(month time.Month, year int) (Window, error) {
	if err := validatePeriod(month, year); err != nil {
		return Window{}, err
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	dealStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	prev := dealStart.AddDate(0, -1, 0)
	lastPrev := daysIn(prev.Month(), prev.Year())

	openDay := min(c.OpenDay, lastPrev)
	closeDay := min(c.CloseDay, lastPrev)
	return Window{
		CommitmentStart: time.Date(prev.Year(), prev.Month(), openDay, 0, 0, 0, 0, loc),
		CommitmentEnd:   endOfDay(time.Date(prev.Year(), prev.Month(), closeDay, 0, 0, 0, 0, loc)),
		DealStart:       dealStart,
		DealEnd:         endOfDay(time.Date(year, month, daysIn(month, year), 0, 0, 0, 0, loc)),
	}, nil
}

func validatePeriod(month time.Month, year int) error {
	if month < time.January || month > time.December {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %d", month))
	}
	if year < 2000 || year > 9999 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid year %d", year))
	}
	return nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Millisecond)
}

// ParseMonth accepts a full or three letter English month name, or 1-12.
func ParseMonth(value string) (time.Month, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "month is required")
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 12 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %q", value))
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if v == name || v == name[:3] {
			return m, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %q", value))
}
