package gam

import (
	"math"
	"testing"
	"time"

	"github.com/urbanstats/nycshootings/internal/models"
)

// fullGrid builds one cell per (hour, month) for each given borough, with
// counts produced by gen.
func fullGrid(boroughs []models.Borough, gen func(hour int, month time.Month, b models.Borough) int) []models.ModelCell {
	var cells []models.ModelCell
	for _, b := range boroughs {
		for month := time.January; month <= time.December; month++ {
			for hour := 0; hour < 24; hour++ {
				cells = append(cells, models.ModelCell{
					Hour:    hour,
					Month:   month,
					Borough: b,
					Count:   gen(hour, month, b),
				})
			}
		}
	}
	return cells
}

func TestFitNoiselessBoroughEffect(t *testing.T) {
	// Counts depend only on borough, exactly log-linear in the dummy
	// coding, so the model can reproduce the data and the pseudo-R²
	// approaches 1.
	cells := fullGrid([]models.Borough{models.Bronx, models.Brooklyn},
		func(hour int, month time.Month, b models.Borough) int {
			if b == models.Brooklyn {
				return 4
			}
			return 2
		})

	model, err := Fit(cells, Options{})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	predicted := model.PredictCells(cells)
	for _, c := range predicted {
		if c.Predicted < 0 {
			t.Fatalf("negative prediction %f for cell %+v", c.Predicted, c)
		}
		want := 2.0
		if c.Borough == models.Brooklyn {
			want = 4.0
		}
		if math.Abs(c.Predicted-want) > 0.01 {
			t.Fatalf("prediction %f for %s, want %f", c.Predicted, c.Borough, want)
		}
	}

	if r2 := PseudoR2(predicted); r2 < 0.999 {
		t.Errorf("pseudo-R² = %f, want near 1.0 on noiseless input", r2)
	}
}

func TestFitSmoothHourlyCycle(t *testing.T) {
	// Counts follow a log-sinusoid in hour of day; rounding to integers is
	// the only noise, so the fit should explain nearly all variation.
	cells := fullGrid([]models.Borough{models.Queens},
		func(hour int, month time.Month, b models.Borough) int {
			mean := math.Exp(1.5 + 0.8*math.Sin(2*math.Pi*float64(hour)/24))
			return int(math.Round(mean))
		})

	model, err := Fit(cells, Options{HourHarmonics: 3, MonthHarmonics: 2})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	predicted := model.PredictCells(cells)
	for _, c := range predicted {
		if c.Predicted < 0 {
			t.Fatalf("negative prediction %f", c.Predicted)
		}
	}

	if r2 := PseudoR2(predicted); r2 < 0.9 {
		t.Errorf("pseudo-R² = %f, want > 0.9 for a generating function inside the basis", r2)
	}

	// The hourly effect should peak near hour 6 (sin maximum) and trough
	// near hour 18.
	peak := model.Predict(models.ModelCell{Hour: 6, Month: time.June, Borough: models.Queens})
	trough := model.Predict(models.ModelCell{Hour: 18, Month: time.June, Borough: models.Queens})
	if peak <= trough {
		t.Errorf("expected peak (%f) above trough (%f)", peak, trough)
	}
}

func TestFitDegenerateInput(t *testing.T) {
	single := []models.ModelCell{
		{Hour: 1, Month: time.March, Borough: models.Bronx, Count: 3},
	}
	if _, err := Fit(single, Options{}); err == nil {
		t.Error("expected error for a single input cell")
	}

	// Fewer cells than coefficients.
	few := []models.ModelCell{
		{Hour: 1, Month: time.March, Borough: models.Bronx, Count: 3},
		{Hour: 2, Month: time.April, Borough: models.Bronx, Count: 5},
		{Hour: 3, Month: time.May, Borough: models.Brooklyn, Count: 2},
	}
	if _, err := Fit(few, Options{}); err == nil {
		t.Error("expected error when cells cannot identify the coefficients")
	}
}

func TestFitRejectsInvalidCells(t *testing.T) {
	bad := fullGrid([]models.Borough{models.Bronx}, func(int, time.Month, models.Borough) int { return 1 })
	bad[0].Hour = 24
	if _, err := Fit(bad, Options{}); err == nil {
		t.Error("expected error for out-of-range hour")
	}
}

func TestPseudoR2Formula(t *testing.T) {
	cells := []models.ModelCell{
		{Hour: 0, Month: time.January, Borough: models.Bronx, Count: 2, Predicted: 2},
		{Hour: 1, Month: time.January, Borough: models.Bronx, Count: 4, Predicted: 3},
		{Hour: 2, Month: time.January, Borough: models.Bronx, Count: 6, Predicted: 6},
	}

	// mean = 4, SST = 4+0+4 = 8, SSR = 0+1+0 = 1.
	want := 1.0 - 1.0/8.0
	if got := PseudoR2(cells); math.Abs(got-want) > 1e-12 {
		t.Errorf("PseudoR2 = %f, want %f", got, want)
	}
}

func TestPredictionCyclicContinuity(t *testing.T) {
	cells := fullGrid([]models.Borough{models.Manhattan},
		func(hour int, month time.Month, b models.Borough) int {
			mean := math.Exp(1.0 + 0.5*math.Cos(2*math.Pi*float64(hour)/24))
			return int(math.Round(mean))
		})

	model, err := Fit(cells, Options{})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// A Fourier basis wraps: hours 23 and 0 are neighbors and their fitted
	// means must be close relative to the curve's full swing.
	at := func(hour int) float64 {
		return model.Predict(models.ModelCell{Hour: hour, Month: time.June, Borough: models.Manhattan})
	}
	gapMidnight := math.Abs(at(23) - at(0))
	swing := math.Abs(at(0) - at(12))
	if gapMidnight > swing/2 {
		t.Errorf("fitted curve breaks at midnight: gap %f vs swing %f", gapMidnight, swing)
	}
}
