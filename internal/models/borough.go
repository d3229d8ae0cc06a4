package models

import (
	"fmt"
	"strings"
)

// Borough identifies one of the five New York City boroughs. The zero value
// is invalid so that an unset field cannot silently pass for a real borough.
type Borough int

const (
	BoroughInvalid Borough = iota
	Bronx
	Brooklyn
	Manhattan
	Queens
	StatenIsland
)

// boroughNames holds the canonical (incident-table) spelling per borough.
var boroughNames = map[Borough]string{
	Bronx:        "BRONX",
	Brooklyn:     "BROOKLYN",
	Manhattan:    "MANHATTAN",
	Queens:       "QUEENS",
	StatenIsland: "STATEN ISLAND",
}

// Boroughs returns all five boroughs in a fixed, deterministic order.
func Boroughs() []Borough {
	return []Borough{Bronx, Brooklyn, Manhattan, Queens, StatenIsland}
}

// String returns the canonical upper-case borough name.
func (b Borough) String() string {
	if name, ok := boroughNames[b]; ok {
		return name
	}
	return "INVALID"
}

// Valid reports whether b is one of the five known boroughs.
func (b Borough) Valid() bool {
	_, ok := boroughNames[b]
	return ok
}

// ParseBorough maps a borough name to its enum value. Matching is by
// canonical upper-case form, so both the incident table's "BRONX" and the
// population table's "Bronx" resolve to the same value.
func ParseBorough(s string) (Borough, error) {
	canonical := CanonicalBoroughName(s)
	for b, name := range boroughNames {
		if name == canonical {
			return b, nil
		}
	}
	return BoroughInvalid, fmt.Errorf("unknown borough %q", s)
}

// CanonicalBoroughName upper-cases and trims a borough name so the two
// source tables share a single join vocabulary.
func CanonicalBoroughName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
