package models

import "strings"

// The demographic fields in the incident table are frequently absent or
// recorded with sentinel strings. Each categorical therefore carries an
// explicit Unknown variant, and parsing an out-of-vocabulary value yields
// Unknown rather than an error: demographics are never critical fields.

// AgeGroup is a victim or perpetrator age bracket.
type AgeGroup int

const (
	AgeUnknown AgeGroup = iota
	AgeUnder18
	Age18To24
	Age25To44
	Age45To64
	Age65Plus
)

var ageGroupNames = map[AgeGroup]string{
	AgeUnknown: "UNKNOWN",
	AgeUnder18: "<18",
	Age18To24:  "18-24",
	Age25To44:  "25-44",
	Age45To64:  "45-64",
	Age65Plus:  "65+",
}

func (a AgeGroup) String() string { return ageGroupNames[a] }

// ParseAgeGroup maps a raw age-bracket string to an AgeGroup.
// Unrecognized values (including data-entry noise like "1020") map to
// AgeUnknown.
func ParseAgeGroup(s string) AgeGroup {
	switch strings.TrimSpace(s) {
	case "<18":
		return AgeUnder18
	case "18-24":
		return Age18To24
	case "25-44":
		return Age25To44
	case "45-64":
		return Age45To64
	case "65+":
		return Age65Plus
	default:
		return AgeUnknown
	}
}

// Sex is a recorded victim or perpetrator sex.
type Sex int

const (
	SexUnknown Sex = iota
	Male
	Female
)

func (s Sex) String() string {
	switch s {
	case Male:
		return "M"
	case Female:
		return "F"
	default:
		return "U"
	}
}

// ParseSex maps the incident table's single-letter codes to a Sex.
func ParseSex(s string) Sex {
	switch strings.TrimSpace(s) {
	case "M":
		return Male
	case "F":
		return Female
	default:
		return SexUnknown
	}
}

// Race is a recorded victim or perpetrator race category.
type Race int

const (
	RaceUnknown Race = iota
	White
	Black
	WhiteHispanic
	BlackHispanic
	AsianPacificIslander
	AmericanIndianAlaskan
)

var raceNames = map[Race]string{
	RaceUnknown:           "UNKNOWN",
	White:                 "WHITE",
	Black:                 "BLACK",
	WhiteHispanic:         "WHITE HISPANIC",
	BlackHispanic:         "BLACK HISPANIC",
	AsianPacificIslander:  "ASIAN / PACIFIC ISLANDER",
	AmericanIndianAlaskan: "AMERICAN INDIAN/ALASKAN NATIVE",
}

func (r Race) String() string { return raceNames[r] }

// ParseRace maps a raw race string to a Race, defaulting to RaceUnknown.
func ParseRace(s string) Race {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range raceNames {
		if r != RaceUnknown && name == normalized {
			return r
		}
	}
	return RaceUnknown
}
