// Package models defines the core domain entities for the shooting-incident
// analysis: cleaned incident records, borough population records, and the
// derived summary rows produced by the aggregation and modeling stages.
//
// Numeric fields that can be absent (coordinates, populations, rates,
// year-over-year changes) are represented as NaN rather than zero, so a
// missing value can never be confused with a legitimate measurement. All
// entities are immutable snapshots: once a stage has produced them they are
// only read, never mutated in place.
package models

import (
	"errors"
	"math"
	"time"
)

// Missing returns the sentinel used for absent numeric values.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Incident is one cleaned shooting event from the incident table.
// OccurredAt combines the source's separate date and time columns into a
// single local timestamp.
type Incident struct {
	OccurredAt time.Time
	Borough    Borough
	Fatal      bool // statistical murder flag: victim died

	PerpAge  AgeGroup
	PerpSex  Sex
	PerpRace Race
	VicAge   AgeGroup
	VicSex   Sex
	VicRace  Race

	// Latitude and Longitude are NaN when the source row carries no
	// coordinates. They are always both present or both absent.
	Latitude  float64
	Longitude float64
}

// Validate checks the cleaned record's invariants.
func (in *Incident) Validate() error {
	if in.OccurredAt.IsZero() {
		return errors.New("incident timestamp must be set")
	}
	if !in.Borough.Valid() {
		return errors.New("incident borough must be one of the five boroughs")
	}
	if IsMissing(in.Latitude) != IsMissing(in.Longitude) {
		return errors.New("latitude and longitude must be both present or both absent")
	}
	if !IsMissing(in.Latitude) {
		if in.Latitude < -90 || in.Latitude > 90 {
			return errors.New("latitude out of range")
		}
		if in.Longitude < -180 || in.Longitude > 180 {
			return errors.New("longitude out of range")
		}
	}
	return nil
}

// HasCoordinates reports whether the incident carries a usable lat/lon pair.
func (in *Incident) HasCoordinates() bool {
	return !IsMissing(in.Latitude) && !IsMissing(in.Longitude)
}

// Year returns the calendar year the incident occurred in.
func (in *Incident) Year() int { return in.OccurredAt.Year() }

// Month returns the calendar month the incident occurred in.
func (in *Incident) Month() time.Month { return in.OccurredAt.Month() }

// Hour returns the hour of day (0-23) the incident occurred at.
func (in *Incident) Hour() int { return in.OccurredAt.Hour() }
