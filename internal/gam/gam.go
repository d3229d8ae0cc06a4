// Package gam fits a Poisson additive model of incident counts on hour of
// day, month of year, and borough.
//
// Hour and month are cyclic predictors, represented by truncated Fourier
// bases (sine/cosine pairs per harmonic) so the fitted curve is smooth and
// wraps around midnight and the year boundary. Borough enters as a
// categorical effect via dummy coding against the first observed borough.
// The response is Poisson with the canonical log link, fitted by iteratively
// reweighted least squares; each iteration solves a weighted least-squares
// problem through a QR factorization.
//
// Fitting failures are surfaced as errors: a design matrix with more
// coefficients than cells, a singular weighted system, or failure to reach
// the deviance tolerance within the iteration budget.
package gam

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/urbanstats/nycshootings/internal/models"
)

// Options controls the basis size and the IRLS stopping rule.
type Options struct {
	HourHarmonics  int
	MonthHarmonics int
	MaxIterations  int
	Tolerance      float64
}

func (o Options) withDefaults() Options {
	if o.HourHarmonics <= 0 {
		o.HourHarmonics = 3
	}
	if o.MonthHarmonics <= 0 {
		o.MonthHarmonics = 2
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 50
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-8
	}
	return o
}

// muFloor keeps the IRLS weights and working response finite when a fitted
// mean collapses toward zero.
const muFloor = 1e-10

// Model is a fitted Poisson additive model.
type Model struct {
	opts       Options
	boroughs   []models.Borough // observed levels, sorted; first is the reference
	coeffs     []float64
	deviance   float64
	iterations int
}

// Fit estimates the model from the observed (hour, month, borough) cells.
func Fit(cells []models.ModelCell, opts Options) (*Model, error) {
	opts = opts.withDefaults()

	for i := range cells {
		if err := cells[i].Validate(); err != nil {
			return nil, fmt.Errorf("gam: invalid input cell: %w", err)
		}
	}

	m := &Model{
		opts:     opts,
		boroughs: observedBoroughs(cells),
	}

	n := len(cells)
	p := m.coefficientCount()
	if n < p {
		return nil, fmt.Errorf("gam: %d cells cannot identify %d coefficients", n, p)
	}

	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i, c := range cells {
		x.SetRow(i, m.designRow(c))
		y[i] = float64(c.Count)
	}

	coeffs, deviance, iterations, err := irls(x, y, opts)
	if err != nil {
		return nil, err
	}

	m.coeffs = coeffs
	m.deviance = deviance
	m.iterations = iterations
	return m, nil
}

// irls runs iteratively reweighted least squares for the Poisson log-link
// family and returns the coefficient vector, the final deviance, and the
// number of iterations used.
func irls(x *mat.Dense, y []float64, opts Options) ([]float64, float64, int, error) {
	n, p := x.Dims()

	// Standard GLM start: mu from the response nudged off zero.
	eta := make([]float64, n)
	mu := make([]float64, n)
	for i, v := range y {
		mu[i] = v + 0.5
		eta[i] = math.Log(mu[i])
	}

	xw := mat.NewDense(n, p, nil)
	zw := mat.NewDense(n, 1, nil)
	coeffs := make([]float64, p)

	lastDeviance := math.Inf(1)
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		// Weighted system: rows of X and the working response scaled by
		// sqrt(w), with w = mu for the canonical Poisson link.
		for i := 0; i < n; i++ {
			w := mu[i]
			if w < muFloor {
				w = muFloor
			}
			sw := math.Sqrt(w)
			z := eta[i] + (y[i]-mu[i])/w
			for j := 0; j < p; j++ {
				xw.Set(i, j, sw*x.At(i, j))
			}
			zw.Set(i, 0, sw*z)
		}

		var qr mat.QR
		qr.Factorize(xw)
		var beta mat.Dense
		if err := qr.SolveTo(&beta, false, zw); err != nil {
			return nil, 0, iter, fmt.Errorf("gam: weighted least squares is singular: %w", err)
		}
		for j := 0; j < p; j++ {
			coeffs[j] = beta.At(j, 0)
		}

		for i := 0; i < n; i++ {
			dot := 0.0
			for j := 0; j < p; j++ {
				dot += x.At(i, j) * coeffs[j]
			}
			eta[i] = dot
			mu[i] = math.Exp(dot)
		}

		deviance := poissonDeviance(y, mu)
		if math.IsNaN(deviance) || math.IsInf(deviance, 0) {
			return nil, 0, iter, fmt.Errorf("gam: deviance diverged at iteration %d", iter)
		}

		if math.Abs(deviance-lastDeviance)/(math.Abs(deviance)+0.1) < opts.Tolerance {
			return coeffs, deviance, iter, nil
		}
		lastDeviance = deviance
	}

	return nil, 0, opts.MaxIterations, fmt.Errorf("gam: no convergence after %d iterations (deviance %g)", opts.MaxIterations, lastDeviance)
}

// poissonDeviance is the scaled Poisson deviance; the y*log(y/mu) term is
// zero by continuity when y is zero.
func poissonDeviance(y, mu []float64) float64 {
	d := 0.0
	for i := range y {
		m := mu[i]
		if m < muFloor {
			m = muFloor
		}
		if y[i] > 0 {
			d += y[i]*math.Log(y[i]/m) - (y[i] - m)
		} else {
			d += m
		}
	}
	return 2 * d
}

// Predict returns the expected count for one cell. Poisson means are
// exp(linear predictor), so predictions are always non-negative.
func (m *Model) Predict(c models.ModelCell) float64 {
	row := m.designRow(c)
	dot := 0.0
	for j, v := range row {
		dot += v * m.coeffs[j]
	}
	return math.Exp(dot)
}

// PredictCells returns a copy of the input cells with Predicted populated.
func (m *Model) PredictCells(cells []models.ModelCell) []models.ModelCell {
	out := make([]models.ModelCell, len(cells))
	copy(out, cells)
	for i := range out {
		out[i].Predicted = m.Predict(out[i])
	}
	return out
}

// PseudoR2 computes 1 - SSR/SST over cells that carry predictions.
func PseudoR2(cells []models.ModelCell) float64 {
	observed := make([]float64, len(cells))
	predicted := make([]float64, len(cells))
	for i, c := range cells {
		observed[i] = float64(c.Count)
		predicted[i] = c.Predicted
	}
	return stat.RSquaredFrom(predicted, observed, nil)
}

// Deviance returns the final Poisson deviance of the fit.
func (m *Model) Deviance() float64 { return m.deviance }

// Iterations returns the number of IRLS iterations used.
func (m *Model) Iterations() int { return m.iterations }

// coefficientCount is the design matrix width: intercept, two columns per
// harmonic, and one dummy per non-reference borough level.
func (m *Model) coefficientCount() int {
	return 1 + 2*m.opts.HourHarmonics + 2*m.opts.MonthHarmonics + len(m.boroughs) - 1
}

// designRow builds one row of the design matrix.
func (m *Model) designRow(c models.ModelCell) []float64 {
	row := make([]float64, m.coefficientCount())
	row[0] = 1
	j := 1

	for k := 1; k <= m.opts.HourHarmonics; k++ {
		angle := 2 * math.Pi * float64(k) * float64(c.Hour) / 24
		row[j] = math.Sin(angle)
		row[j+1] = math.Cos(angle)
		j += 2
	}
	for k := 1; k <= m.opts.MonthHarmonics; k++ {
		angle := 2 * math.Pi * float64(k) * float64(c.Month-1) / 12
		row[j] = math.Sin(angle)
		row[j+1] = math.Cos(angle)
		j += 2
	}
	for _, b := range m.boroughs[1:] {
		if c.Borough == b {
			row[j] = 1
		}
		j++
	}
	return row
}

// observedBoroughs returns the borough levels present in the input, sorted
// so the reference level is stable across runs.
func observedBoroughs(cells []models.ModelCell) []models.Borough {
	seen := make(map[models.Borough]bool)
	for _, c := range cells {
		seen[c.Borough] = true
	}
	out := make([]models.Borough, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
