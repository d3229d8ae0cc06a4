// Package loader turns the raw string DataFrames produced by fetch into
// typed domain records. Schema problems (a missing expected column) are
// fatal; malformed values in individual rows are tolerated according to the
// field: demographics degrade to Unknown, coordinates to missing, while a
// row without a usable date, time, or borough is dropped and counted.
package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/urbanstats/nycshootings/internal/logger"
	"github.com/urbanstats/nycshootings/internal/models"
)

// Column names in the NYPD shooting-incident table that the analysis needs.
const (
	colOccurDate  = "OCCUR_DATE"
	colOccurTime  = "OCCUR_TIME"
	colBorough    = "BORO"
	colMurderFlag = "STATISTICAL_MURDER_FLAG"
	colPerpAge    = "PERP_AGE_GROUP"
	colPerpSex    = "PERP_SEX"
	colPerpRace   = "PERP_RACE"
	colVicAge     = "VIC_AGE_GROUP"
	colVicSex     = "VIC_SEX"
	colVicRace    = "VIC_RACE"
	colLatitude   = "Latitude"
	colLongitude  = "Longitude"
)

// requiredIncidentColumns is the schema contract with the incident source.
// Everything else in the table (incident key, precinct, jurisdiction code,
// location descriptors, state-plane coordinates, the combined Lon_Lat text
// column) is sparse or redundant and is discarded.
var requiredIncidentColumns = []string{
	colOccurDate, colOccurTime, colBorough, colMurderFlag,
	colPerpAge, colPerpSex, colPerpRace,
	colVicAge, colVicSex, colVicRace,
	colLatitude, colLongitude,
}

const (
	occurDateLayout = "01/02/2006" // MM/DD/YYYY
	occurTimeLayout = "15:04:05"   // HH:MM:SS
)

// Incidents cleans the raw incident table into typed records.
func Incidents(df dataframe.DataFrame) ([]models.Incident, error) {
	idx, err := columnIndex(df, requiredIncidentColumns)
	if err != nil {
		return nil, fmt.Errorf("incident loader: %w", err)
	}

	records := df.Records()
	incidents := make([]models.Incident, 0, len(records)-1)
	dropped := 0

	for _, row := range records[1:] {
		incident, ok := parseIncidentRow(row, idx)
		if !ok {
			dropped++
			continue
		}
		if err := incident.Validate(); err != nil {
			dropped++
			continue
		}
		incidents = append(incidents, incident)
	}

	if dropped > 0 {
		logger.Warn("incident loader: dropped %d of %d rows with unusable date, time, or borough", dropped, len(records)-1)
	}
	if len(incidents) == 0 {
		return nil, fmt.Errorf("incident loader: no usable rows in source table")
	}

	return incidents, nil
}

// parseIncidentRow coerces one raw CSV row. ok is false when the row lacks
// a parseable date, time, or borough; those fields are load-bearing for
// every downstream aggregate and cannot degrade to a sentinel.
func parseIncidentRow(row []string, idx map[string]int) (models.Incident, bool) {
	date, err := time.Parse(occurDateLayout, strings.TrimSpace(row[idx[colOccurDate]]))
	if err != nil {
		return models.Incident{}, false
	}
	clock, err := time.Parse(occurTimeLayout, strings.TrimSpace(row[idx[colOccurTime]]))
	if err != nil {
		return models.Incident{}, false
	}
	borough, err := models.ParseBorough(row[idx[colBorough]])
	if err != nil {
		return models.Incident{}, false
	}

	incident := models.Incident{
		OccurredAt: time.Date(
			date.Year(), date.Month(), date.Day(),
			clock.Hour(), clock.Minute(), clock.Second(),
			0, time.UTC,
		),
		Borough:  borough,
		Fatal:    parseMurderFlag(row[idx[colMurderFlag]]),
		PerpAge:  models.ParseAgeGroup(row[idx[colPerpAge]]),
		PerpSex:  models.ParseSex(row[idx[colPerpSex]]),
		PerpRace: models.ParseRace(row[idx[colPerpRace]]),
		VicAge:   models.ParseAgeGroup(row[idx[colVicAge]]),
		VicSex:   models.ParseSex(row[idx[colVicSex]]),
		VicRace:  models.ParseRace(row[idx[colVicRace]]),
	}

	incident.Latitude, incident.Longitude = parseCoordinates(
		row[idx[colLatitude]], row[idx[colLongitude]],
	)

	return incident, true
}

// parseMurderFlag accepts the two encodings seen in the source data.
func parseMurderFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "Y":
		return true
	default:
		return false
	}
}

// parseCoordinates returns the lat/lon pair, or (missing, missing) when
// either half is absent or unparseable. A half-present pair is useless for
// mapping, so the pair invariant is enforced here rather than failing the
// record.
func parseCoordinates(latRaw, lonRaw string) (float64, float64) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if latErr != nil || lonErr != nil {
		return models.Missing(), models.Missing()
	}
	return lat, lon
}

// columnIndex maps the wanted column names to their positions, failing fast
// on the first column missing from the table.
func columnIndex(df dataframe.DataFrame, wanted []string) (map[string]int, error) {
	positions := make(map[string]int, df.Ncol())
	for i, name := range df.Names() {
		positions[name] = i
	}

	idx := make(map[string]int, len(wanted))
	for _, name := range wanted {
		pos, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("source table is missing expected column %q", name)
		}
		idx[name] = pos
	}
	return idx, nil
}
