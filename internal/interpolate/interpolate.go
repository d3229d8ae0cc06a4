// Package interpolate fills gaps in the yearly borough population series.
//
// The population source reports decennial census counts and projections, so
// most years inside the analysis range have no value. Each borough's series
// is completed by linear interpolation between its nearest known years.
// Interpolation never extrapolates: years before a borough's first known
// value or after its last stay missing, and a borough with fewer than two
// known points keeps all of its gaps.
package interpolate

import (
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/urbanstats/nycshootings/internal/models"
)

// Fill restricts the population records to [minYear, maxYear] and returns
// one record per (borough, year) for every year in the range, in borough
// then year order. Records for years with no original value carry either an
// interpolated population or a missing one.
func Fill(records []models.PopulationRecord, minYear, maxYear int) []models.PopulationRecord {
	known := make(map[models.Borough]map[int]float64)
	for _, r := range records {
		if r.Year < minYear || r.Year > maxYear || models.IsMissing(r.Population) {
			continue
		}
		if known[r.Borough] == nil {
			known[r.Borough] = make(map[int]float64)
		}
		known[r.Borough][r.Year] = r.Population
	}

	out := make([]models.PopulationRecord, 0, len(known)*(maxYear-minYear+1))
	for _, borough := range models.Boroughs() {
		byYear, ok := known[borough]
		if !ok {
			continue
		}
		out = append(out, fillBorough(borough, byYear, minYear, maxYear)...)
	}
	return out
}

// fillBorough completes one borough's series over the year range.
func fillBorough(borough models.Borough, byYear map[int]float64, minYear, maxYear int) []models.PopulationRecord {
	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	var pl interp.PiecewiseLinear
	haveLine := false
	if len(years) >= 2 {
		xs := make([]float64, len(years))
		ys := make([]float64, len(years))
		for i, year := range years {
			xs[i] = float64(year)
			ys[i] = byYear[year]
		}
		if err := pl.Fit(xs, ys); err == nil {
			haveLine = true
		}
	}

	firstKnown, lastKnown := years[0], years[len(years)-1]

	out := make([]models.PopulationRecord, 0, maxYear-minYear+1)
	for year := minYear; year <= maxYear; year++ {
		record := models.PopulationRecord{
			Borough:    borough,
			Year:       year,
			Population: models.Missing(),
		}
		if value, ok := byYear[year]; ok {
			record.Population = value
		} else if haveLine && year > firstKnown && year < lastKnown {
			record.Population = pl.Predict(float64(year))
			record.Interpolated = true
		}
		out = append(out, record)
	}
	return out
}
