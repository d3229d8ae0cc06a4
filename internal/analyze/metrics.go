package analyze

import (
	"sort"
	"time"

	"github.com/urbanstats/nycshootings/internal/models"
)

// HourlyDistribution counts incidents per hour of day. The result always
// has exactly 24 entries in hour order; hours with no incidents carry a
// zero count.
func HourlyDistribution(incidents []models.Incident) []models.HourCount {
	var counts [24]int
	for _, in := range incidents {
		counts[in.Hour()]++
	}

	out := make([]models.HourCount, 24)
	for hour := 0; hour < 24; hour++ {
		out[hour] = models.HourCount{Hour: hour, Count: counts[hour]}
	}
	return out
}

// MonthlyDistribution counts incidents per calendar month, ordered January
// through December regardless of input order.
func MonthlyDistribution(incidents []models.Incident) []models.MonthCount {
	var counts [13]int // indexed by time.Month, 1-12
	for _, in := range incidents {
		counts[in.Month()]++
	}

	out := make([]models.MonthCount, 0, 12)
	for month := time.January; month <= time.December; month++ {
		out = append(out, models.MonthCount{Month: month, Count: counts[month]})
	}
	return out
}

// ModelCells builds the model input: one cell per (hour, month, borough)
// combination actually observed, with its incident count. Cells are ordered
// by borough, month, hour so the fit and report are reproducible across
// runs.
func ModelCells(incidents []models.Incident) []models.ModelCell {
	type key struct {
		borough models.Borough
		month   time.Month
		hour    int
	}
	counts := make(map[key]int)
	for _, in := range incidents {
		counts[key{in.Borough, in.Month(), in.Hour()}]++
	}

	out := make([]models.ModelCell, 0, len(counts))
	for k, count := range counts {
		out = append(out, models.ModelCell{
			Hour:    k.hour,
			Month:   k.month,
			Borough: k.borough,
			Count:   count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Borough != out[j].Borough {
			return out[i].Borough < out[j].Borough
		}
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}
