// Package analyze derives the report tables from the cleaned incident and
// population records: yearly borough summaries, hourly and monthly incident
// distributions, year-over-year rate changes, and the per-cell counts the
// model is fitted on.
//
// Every function here is a pure derivation over immutable inputs and
// produces deterministically ordered output. Missing populations propagate
// to missing rates and missing changes; they never become zeros.
package analyze

import (
	"sort"

	"github.com/urbanstats/nycshootings/internal/models"
)

// ratePerThousand derives incidents per thousand residents, or missing when
// the denominator is absent or zero.
func ratePerThousand(count int, population float64) float64 {
	if models.IsMissing(population) || population == 0 {
		return models.Missing()
	}
	return float64(count) * 1000.0 / population
}

// YearlySummaries counts incidents per (borough, year) and left-joins the
// population series. Every (borough, year) with at least one incident
// appears in the output; a cell the population table cannot cover gets a
// missing population and rate rather than being dropped. Output is ordered
// by borough then year.
func YearlySummaries(incidents []models.Incident, populations []models.PopulationRecord) []models.YearlySummary {
	counts := make(map[models.Borough]map[int]int)
	for _, in := range incidents {
		if counts[in.Borough] == nil {
			counts[in.Borough] = make(map[int]int)
		}
		counts[in.Borough][in.Year()]++
	}

	population := make(map[models.Borough]map[int]float64)
	for _, p := range populations {
		if population[p.Borough] == nil {
			population[p.Borough] = make(map[int]float64)
		}
		population[p.Borough][p.Year] = p.Population
	}

	var out []models.YearlySummary
	for _, borough := range models.Boroughs() {
		byYear, ok := counts[borough]
		if !ok {
			continue
		}
		years := make([]int, 0, len(byYear))
		for year := range byYear {
			years = append(years, year)
		}
		sort.Ints(years)

		for _, year := range years {
			count := byYear[year]
			pop := models.Missing()
			if v, ok := population[borough][year]; ok {
				pop = v
			}
			out = append(out, models.YearlySummary{
				Borough:    borough,
				Year:       year,
				Count:      count,
				Population: pop,
				Rate:       ratePerThousand(count, pop),
			})
		}
	}
	return out
}

// RateChanges computes, within each borough, the difference between each
// year's rate and the immediately preceding summarized year's rate. The
// ordering by (borough, year) is established here, not assumed from the
// input. Each borough's earliest year, and any year whose own or prior rate
// is missing, gets a missing change.
func RateChanges(summaries []models.YearlySummary) []models.RateChange {
	ordered := make([]models.YearlySummary, len(summaries))
	copy(ordered, summaries)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Borough != ordered[j].Borough {
			return ordered[i].Borough < ordered[j].Borough
		}
		return ordered[i].Year < ordered[j].Year
	})

	out := make([]models.RateChange, 0, len(ordered))
	for i, s := range ordered {
		change := models.Missing()
		if i > 0 && ordered[i-1].Borough == s.Borough {
			prior := ordered[i-1].Rate
			if !models.IsMissing(s.Rate) && !models.IsMissing(prior) {
				change = s.Rate - prior
			}
		}
		out = append(out, models.RateChange{
			Borough: s.Borough,
			Year:    s.Year,
			Rate:    s.Rate,
			Change:  change,
		})
	}
	return out
}
