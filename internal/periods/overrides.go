package periods

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Override pins the window for one (year, month).
type Override struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Window
}

type periodKey struct {
	year  int
	month time.Month
}

// OverrideCalendar answers from explicit overrides and falls back to the base calculator.
type OverrideCalendar struct {
	base      Calculator
	overrides map[periodKey]Window
}

// NewOverrideCalendar indexes overrides by period. A duplicate period or a
// window that ends before it starts is rejected.
func NewOverrideCalendar(base Calculator, overrides []Override) (*OverrideCalendar, error) {
	if base == nil {
		return nil, fmt.Errorf("base calculator required")
	}
	index := make(map[periodKey]Window, len(overrides))
	for _, o := range overrides {
		if err := validatePeriod(o.Month, o.Year); err != nil {
			return nil, err
		}
		key := periodKey{year: o.Year, month: o.Month}
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("duplicate override for %s %d", o.Month, o.Year)
		}
		if o.CommitmentEnd.Before(o.CommitmentStart) || o.DealEnd.Before(o.DealStart) {
			return nil, fmt.Errorf("override for %s %d ends before it starts", o.Month, o.Year)
		}
		index[key] = o.Window
	}
	return &OverrideCalendar{base: base, overrides: index}, nil
}

func (c *OverrideCalendar) CommitmentDates(month time.Month, year int) (Window, error) {
	if w, ok := c.overrides[periodKey{year: year, month: month}]; ok {
		return w, nil
	}
	return c.base.CommitmentDates(month, year)
}

// LoadOverrides reads a JSON array of overrides from path.
func LoadOverrides(path string) ([]Override, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read period overrides: %w", err)
	}
	var overrides []Override
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse period overrides: %w", err)
	}
	return overrides, nil
}

// FromConfig builds the monthly calendar and layers any overrides file on top.
func FromConfig(openDay, closeDay int, overridesFile string, loc *time.Location) (Calculator, error) {
	base, err := NewMonthlyCalendar(openDay, closeDay, loc)
	if err != nil {
		return nil, err
	}
	if overridesFile == "" {
		return base, nil
	}
	overrides, err := LoadOverrides(overridesFile)
	if err != nil {
		return nil, err
	}
	return NewOverrideCalendar(base, overrides)
}
