package periods

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyCalendarUsesPrecedingMonth(t *testing.T) {
	cal, err := NewMonthlyCalendar(1, 20, time.UTC)
	require.NoError(t, err)

	w, err := cal.CommitmentDates(time.March, 2025)
	require.NoError(t, err)

	assert.True(t, w.CommitmentStart.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.CommitmentEnd.Equal(time.Date(2025, 2, 20, 23, 59, 59, 999000000, time.UTC)))
	assert.True(t, w.DealStart.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.DealEnd.Equal(time.Date(2025, 3, 31, 23, 59, 59, 999000000, time.UTC)))
}

func TestMonthlyCalendarCrossesYearAndClampsShortMonths(t *testing.T) {
	cal, err := NewMonthlyCalendar(25, 31, time.UTC)
	require.NoError(t, err)

	jan, err := cal.CommitmentDates(time.January, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2025, jan.CommitmentStart.Year())
	assert.Equal(t, time.December, jan.CommitmentStart.Month())
	assert.Equal(t, 31, jan.CommitmentEnd.Day())

	mar, err := cal.CommitmentDates(time.March, 2024)
	require.NoError(t, err)
	assert.Equal(t, time.February, mar.CommitmentEnd.Month())
	assert.Equal(t, 29, mar.CommitmentEnd.Day())
}

func TestMonthlyCalendarRejectsBadInput(t *testing.T) {
	_, err := NewMonthlyCalendar(0, 20, nil)
	require.Error(t, err)
	_, err = NewMonthlyCalendar(21, 20, nil)
	require.Error(t, err)

	cal, err := NewMonthlyCalendar(1, 20, nil)
	require.NoError(t, err)
	_, err = cal.CommitmentDates(time.Month(13), 2025)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseMonth(t *testing.T) {
	cases := map[string]time.Month{
		"January":   time.January,
		" february": time.February,
		"SEP":       time.September,
		"12":        time.December,
	}
	for input, want := range cases {
		got, err := ParseMonth(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, bad := range []string{"", "13", "Smarch"} {
		_, err := ParseMonth(bad)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), bad)
	}
}

func TestOverrideCalendarPrefersExplicitWindow(t *testing.T) {
	base, err := NewMonthlyCalendar(1, 20, time.UTC)
	require.NoError(t, err)
	pinned := Window{
		CommitmentStart: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		CommitmentEnd:   time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC),
		DealStart:       time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		DealEnd:         time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
	}
	cal, err := NewOverrideCalendar(base, []Override{{Year: 2025, Month: time.December, Window: pinned}})
	require.NoError(t, err)

	got, err := cal.CommitmentDates(time.December, 2025)
	require.NoError(t, err)
	assert.Equal(t, pinned, got)

	fallback, err := cal.CommitmentDates(time.January, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.CommitmentStart.Day())
}

func TestOverrideCalendarRejectsDuplicates(t *testing.T) {
	base, err := NewMonthlyCalendar(1, 20, time.UTC)
	require.NoError(t, err)
	o := Override{Year: 2025, Month: time.May}
	_, err = NewOverrideCalendar(base, []Override{o, o})
	require.Error(t, err)
}

func TestFromConfigLoadsOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periods.json")
	body := `[{"year": 2025, "month": 7,
	  "commitmentStartDate": "2025-06-02T00:00:00Z",
	  "commitmentEndDate": "2025-06-13T23:59:59Z",
	  "dealStartDate": "2025-07-01T00:00:00Z",
	  "dealEndDate": "2025-07-31T23:59:59Z"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cal, err := FromConfig(1, 20, path, time.UTC)
	require.NoError(t, err)

	w, err := cal.CommitmentDates(time.July, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, w.CommitmentStart.Day())
	assert.Equal(t, 13, w.CommitmentEnd.Day())

	_, err = FromConfig(1, 20, filepath.Join(t.TempDir(), "missing.json"), time.UTC)
	require.Error(t, err)
}
