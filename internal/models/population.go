package models

import "fmt"

// PopulationRecord is one (borough, year) population observation in long
// format, either taken directly from the population table or produced by
// the interpolation stage. Population is NaN when no value is known and
// none could be interpolated.
type PopulationRecord struct {
	Borough      Borough
	Year         int
	Population   float64
	Interpolated bool
}

// Validate checks the record's invariants.
func (p *PopulationRecord) Validate() error {
	if !p.Borough.Valid() {
		return fmt.Errorf("population record borough must be valid")
	}
	if p.Year < 1900 || p.Year > 2100 {
		return fmt.Errorf("population record year %d out of plausible range", p.Year)
	}
	if !IsMissing(p.Population) && p.Population < 0 {
		return fmt.Errorf("population must be non-negative, got %f", p.Population)
	}
	return nil
}
