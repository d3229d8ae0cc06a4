package models

import (
	"errors"
	"time"
)

// YearlySummary is one (borough, year) row of the joined incident/population
// table. Population and Rate are NaN when the population table has no value
// for the cell; Count is always defined because summaries are only built for
// cells with at least one incident.
type YearlySummary struct {
	Borough    Borough
	Year       int
	Count      int
	Population float64
	// Rate is incidents per thousand residents: Count * 1000 / Population.
	Rate float64
}

// Validate checks the summary row's invariants.
func (s *YearlySummary) Validate() error {
	if !s.Borough.Valid() {
		return errors.New("summary borough must be valid")
	}
	if s.Count < 0 {
		return errors.New("summary count must be non-negative")
	}
	if !IsMissing(s.Rate) {
		if s.Rate < 0 {
			return errors.New("summary rate must be non-negative")
		}
		if s.Rate == 0 && s.Count != 0 {
			return errors.New("summary rate can only be zero when count is zero")
		}
	}
	return nil
}

// RateChange holds the year-over-year difference in incident rate for one
// (borough, year). Change is NaN for each borough's earliest year.
type RateChange struct {
	Borough Borough
	Year    int
	Rate    float64
	Change  float64
}

// HourCount is the number of incidents observed in one hour of day (0-23).
type HourCount struct {
	Hour  int
	Count int
}

// MonthCount is the number of incidents observed in one calendar month.
type MonthCount struct {
	Month time.Month
	Count int
}

// ModelCell is one (hour, month, borough) combination observed in the
// incident data, with its incident count and, after fitting, the model's
// predicted expected count.
type ModelCell struct {
	Hour      int
	Month     time.Month
	Borough   Borough
	Count     int
	Predicted float64
}

// Validate checks the cell's invariants.
func (c *ModelCell) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return errors.New("model cell hour must be in 0..23")
	}
	if c.Month < time.January || c.Month > time.December {
		return errors.New("model cell month must be a calendar month")
	}
	if !c.Borough.Valid() {
		return errors.New("model cell borough must be valid")
	}
	if c.Count < 0 {
		return errors.New("model cell count must be non-negative")
	}
	return nil
}
