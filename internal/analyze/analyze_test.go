package analyze

import (
	"math"
	"testing"
	"time"

	"github.com/urbanstats/nycshootings/internal/models"
)

func incidentAt(t *testing.T, borough models.Borough, year int, month time.Month, day, hour int) models.Incident {
	t.Helper()
	in := models.Incident{
		OccurredAt: time.Date(year, month, day, hour, 15, 0, 0, time.UTC),
		Borough:    borough,
		Latitude:   models.Missing(),
		Longitude:  models.Missing(),
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("test incident invalid: %v", err)
	}
	return in
}

func TestYearlySummariesEndToEndExample(t *testing.T) {
	incidents := []models.Incident{
		incidentAt(t, models.Bronx, 2010, time.March, 1, 12),
		incidentAt(t, models.Bronx, 2010, time.June, 9, 23),
		incidentAt(t, models.Brooklyn, 2011, time.January, 5, 2),
	}
	populations := []models.PopulationRecord{
		{Borough: models.Bronx, Year: 2010, Population: 100000},
		{Borough: models.Brooklyn, Year: 2011, Population: 50000},
	}

	summaries := YearlySummaries(incidents, populations)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(summaries))
	}

	// rate = count * 1000 / population, so both boroughs land on 0.02
	// incidents per thousand residents.
	bronx := summaries[0]
	if bronx.Borough != models.Bronx || bronx.Year != 2010 || bronx.Count != 2 {
		t.Errorf("unexpected Bronx row: %+v", bronx)
	}
	if math.Abs(bronx.Rate-0.02) > 1e-12 {
		t.Errorf("Bronx rate = %f, want 0.02", bronx.Rate)
	}

	brooklyn := summaries[1]
	if brooklyn.Borough != models.Brooklyn || brooklyn.Year != 2011 || brooklyn.Count != 1 {
		t.Errorf("unexpected Brooklyn row: %+v", brooklyn)
	}
	if math.Abs(brooklyn.Rate-0.02) > 1e-12 {
		t.Errorf("Brooklyn rate = %f, want 0.02", brooklyn.Rate)
	}
}

func TestYearlySummariesJoinCompleteness(t *testing.T) {
	// Incidents in a (borough, year) the population table does not cover
	// must still produce a row, with a missing rate rather than zero.
	incidents := []models.Incident{
		incidentAt(t, models.StatenIsland, 2015, time.May, 2, 3),
	}

	summaries := YearlySummaries(incidents, nil)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(summaries))
	}
	row := summaries[0]
	if row.Count != 1 {
		t.Errorf("count = %d, want 1", row.Count)
	}
	if !models.IsMissing(row.Population) || !models.IsMissing(row.Rate) {
		t.Error("uncovered cell must carry missing population and rate")
	}
}

func TestYearlySummariesZeroPopulation(t *testing.T) {
	incidents := []models.Incident{
		incidentAt(t, models.Queens, 2012, time.May, 2, 3),
	}
	populations := []models.PopulationRecord{
		{Borough: models.Queens, Year: 2012, Population: 0},
	}

	summaries := YearlySummaries(incidents, populations)
	if !models.IsMissing(summaries[0].Rate) {
		t.Error("zero population must yield a missing rate, not a division result")
	}
}

func TestYearlySummariesRateNonNegative(t *testing.T) {
	incidents := []models.Incident{
		incidentAt(t, models.Bronx, 2010, time.March, 1, 12),
		incidentAt(t, models.Manhattan, 2011, time.April, 2, 6),
		incidentAt(t, models.Manhattan, 2011, time.April, 2, 7),
	}
	populations := []models.PopulationRecord{
		{Borough: models.Bronx, Year: 2010, Population: 1385108},
		{Borough: models.Manhattan, Year: 2011, Population: 1585873},
	}

	for _, s := range YearlySummaries(incidents, populations) {
		if models.IsMissing(s.Rate) {
			continue
		}
		if s.Rate < 0 {
			t.Errorf("rate %f is negative", s.Rate)
		}
		if s.Rate == 0 && s.Count != 0 {
			t.Errorf("rate is zero with count %d", s.Count)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("summary row invalid: %v", err)
		}
	}
}

func TestRateChangesFirstYearRule(t *testing.T) {
	// Shuffled input: ordering must be established by the computation.
	summaries := []models.YearlySummary{
		{Borough: models.Bronx, Year: 2012, Count: 30, Population: 1000000, Rate: 0.030},
		{Borough: models.Brooklyn, Year: 2011, Count: 10, Population: 500000, Rate: 0.020},
		{Borough: models.Bronx, Year: 2010, Count: 20, Population: 1000000, Rate: 0.020},
		{Borough: models.Bronx, Year: 2011, Count: 25, Population: 1000000, Rate: 0.025},
	}

	changes := RateChanges(summaries)
	if len(changes) != 4 {
		t.Fatalf("expected 4 change rows, got %d", len(changes))
	}

	// Bronx rows come first, ascending by year.
	if !models.IsMissing(changes[0].Change) {
		t.Error("earliest Bronx year must have a missing change")
	}
	if math.Abs(changes[1].Change-0.005) > 1e-12 {
		t.Errorf("Bronx 2011 change = %f, want 0.005", changes[1].Change)
	}
	if math.Abs(changes[2].Change-0.005) > 1e-12 {
		t.Errorf("Bronx 2012 change = %f, want 0.005", changes[2].Change)
	}

	// Brooklyn's only year is its first.
	if changes[3].Borough != models.Brooklyn || !models.IsMissing(changes[3].Change) {
		t.Errorf("Brooklyn first year must have a missing change: %+v", changes[3])
	}
}

func TestRateChangesMissingRatePropagates(t *testing.T) {
	summaries := []models.YearlySummary{
		{Borough: models.Queens, Year: 2010, Count: 5, Population: 1000000, Rate: 0.005},
		{Borough: models.Queens, Year: 2011, Count: 7, Population: models.Missing(), Rate: models.Missing()},
		{Borough: models.Queens, Year: 2012, Count: 6, Population: 1000000, Rate: 0.006},
	}

	changes := RateChanges(summaries)
	if !models.IsMissing(changes[1].Change) {
		t.Error("change into a missing-rate year must be missing")
	}
	if !models.IsMissing(changes[2].Change) {
		t.Error("change out of a missing-rate year must be missing")
	}
}

func TestHourlyDistributionCompleteness(t *testing.T) {
	incidents := []models.Incident{
		incidentAt(t, models.Bronx, 2019, time.July, 1, 23),
		incidentAt(t, models.Bronx, 2019, time.July, 2, 23),
		incidentAt(t, models.Queens, 2019, time.July, 3, 0),
	}

	hourly := HourlyDistribution(incidents)
	if len(hourly) != 24 {
		t.Fatalf("expected 24 hours, got %d", len(hourly))
	}

	total := 0
	for i, h := range hourly {
		if h.Hour != i {
			t.Errorf("hour at position %d is %d", i, h.Hour)
		}
		total += h.Count
	}
	if total != len(incidents) {
		t.Errorf("hourly counts sum to %d, want %d", total, len(incidents))
	}
	if hourly[23].Count != 2 || hourly[0].Count != 1 {
		t.Errorf("unexpected counts: hour23=%d hour0=%d", hourly[23].Count, hourly[0].Count)
	}
	if hourly[12].Count != 0 {
		t.Error("hours without incidents must be present with zero count")
	}
}

func TestMonthlyDistributionCalendarOrder(t *testing.T) {
	// December before January in the input; output must still be calendar
	// ordered.
	incidents := []models.Incident{
		incidentAt(t, models.Bronx, 2019, time.December, 5, 1),
		incidentAt(t, models.Bronx, 2019, time.January, 5, 1),
		incidentAt(t, models.Bronx, 2019, time.January, 6, 1),
	}

	monthly := MonthlyDistribution(incidents)
	if len(monthly) != 12 {
		t.Fatalf("expected 12 months, got %d", len(monthly))
	}
	if monthly[0].Month != time.January || monthly[11].Month != time.December {
		t.Error("months must run January through December")
	}
	if monthly[0].Count != 2 || monthly[11].Count != 1 {
		t.Errorf("unexpected counts: jan=%d dec=%d", monthly[0].Count, monthly[11].Count)
	}
}

func TestModelCells(t *testing.T) {
	incidents := []models.Incident{
		incidentAt(t, models.Bronx, 2019, time.July, 1, 22),
		incidentAt(t, models.Bronx, 2020, time.July, 9, 22), // same cell, different year
		incidentAt(t, models.Brooklyn, 2019, time.July, 1, 22),
	}

	cells := ModelCells(incidents)
	if len(cells) != 2 {
		t.Fatalf("expected 2 observed cells, got %d", len(cells))
	}

	if cells[0].Borough != models.Bronx || cells[0].Count != 2 {
		t.Errorf("unexpected first cell: %+v", cells[0])
	}
	if cells[1].Borough != models.Brooklyn || cells[1].Count != 1 {
		t.Errorf("unexpected second cell: %+v", cells[1])
	}
	for _, c := range cells {
		if err := c.Validate(); err != nil {
			t.Errorf("cell invalid: %v", err)
		}
	}
}
