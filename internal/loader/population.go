package loader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/urbanstats/nycshootings/internal/logger"
	"github.com/urbanstats/nycshootings/internal/models"
)

// colPopBorough is the borough column of the population table. The table is
// wide: one row per borough, one column per census/projection year, plus an
// "Age Group" column and per-year "share of total" columns that carry no
// count data.
const colPopBorough = "Borough"

// Population reshapes the wide population table to long format: one record
// per (borough, year). Borough names are canonicalized to the incident
// table's vocabulary; the citywide aggregate row and any column that is not
// a plain year are discarded. Rows whose borough does not match any of the
// five known names are logged and skipped, an accepted gap rather than a
// fatal error.
func Population(df dataframe.DataFrame) ([]models.PopulationRecord, error) {
	names := df.Names()

	boroughCol := -1
	yearCols := make(map[int]int) // year -> column position
	for i, name := range names {
		if name == colPopBorough {
			boroughCol = i
			continue
		}
		if year, ok := parseYearColumn(name); ok {
			yearCols[year] = i
		}
	}
	if boroughCol < 0 {
		return nil, fmt.Errorf("population loader: source table is missing expected column %q", colPopBorough)
	}
	if len(yearCols) == 0 {
		return nil, fmt.Errorf("population loader: source table has no per-year columns")
	}

	years := make([]int, 0, len(yearCols))
	for year := range yearCols {
		years = append(years, year)
	}
	sort.Ints(years)

	var out []models.PopulationRecord
	for _, row := range df.Records()[1:] {
		borough, err := models.ParseBorough(row[boroughCol])
		if err != nil {
			// The citywide total row always lands here; anything else is a
			// name the join vocabulary does not know.
			if !isCitywideRow(row[boroughCol]) {
				logger.Warn("population loader: skipping unmatched borough %q", row[boroughCol])
			}
			continue
		}

		for _, year := range years {
			raw := strings.TrimSpace(row[yearCols[year]])
			if raw == "" {
				continue
			}
			count, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("population loader: non-integer count %q for %s %d", raw, borough, year)
			}
			record := models.PopulationRecord{
				Borough:    borough,
				Year:       year,
				Population: float64(count),
			}
			if err := record.Validate(); err != nil {
				return nil, fmt.Errorf("population loader: %w", err)
			}
			out = append(out, record)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("population loader: no borough rows in source table")
	}

	return out, nil
}

// parseYearColumn reports whether a column name is a plain calendar year.
// This excludes "Age Group" and derived columns like
// "2010 - Boro share of NYC total".
func parseYearColumn(name string) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil || year < 1900 || year > 2100 {
		return 0, false
	}
	return year, true
}

func isCitywideRow(name string) bool {
	return strings.Contains(strings.ToUpper(name), "TOTAL")
}
