package fit

import (
	"context"
	"fmt"
	"math"
)

// PolynomialFitter fits FC as an ordinary least-squares polynomial surface
// over RPM and P. For degree d the basis contains every monomial
// RPM^i * P^j with i+j <= d, ordered by total degree then by RPM power, so
// degree 2 yields coefficients for [1, RPM, P, RPM², RPM·P, P²].
type PolynomialFitter struct {
	Degree int
}

// NewPolynomialFitter returns a fitter of the default degree.
func NewPolynomialFitter() *PolynomialFitter {
	return &PolynomialFitter{Degree: DefaultFitDegree}
}

// Fit solves the normal equations of the least-squares problem. It fails
// when the degree is not positive, when there are fewer points than basis
// terms, or when the system is singular (e.g. all points coincide).
func (f *PolynomialFitter) Fit(ctx context.Context, points []Point) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Degree < 1 {
		return nil, fmt.Errorf("%w: polynomial degree must be >= 1, got %d", ErrFitFailed, f.Degree)
	}

	terms := basisTerms(f.Degree)
	if len(points) < len(terms) {
		return nil, fmt.Errorf("%w: need at least %d data points for a degree-%d surface, got %d",
			ErrFitFailed, len(terms), f.Degree, len(points))
	}

	// Accumulate A = XᵀX and b = Xᵀy.
	n := len(terms)
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n+1) // augmented column holds b
	}
	row := make([]float64, n)
	for _, pt := range points {
		for i, t := range terms {
			row[i] = math.Pow(pt.RPM, float64(t.i)) * math.Pow(pt.P, float64(t.j))
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a[i][j] += row[i] * row[j]
			}
			a[i][n] += row[i] * pt.FC
		}
	}

	coeffs, err := solve(a)
	if err != nil {
		return nil, err
	}
	return coeffs, nil
}

type term struct{ i, j int }

func basisTerms(degree int) []term {
	var terms []term
	for total := 0; total <= degree; total++ {
		for i := total; i >= 0; i-- {
			terms = append(terms, term{i: i, j: total - i})
		}
	}
	return terms
}

// solve runs Gaussian elimination with partial pivoting on the augmented
// matrix a (n rows, n+1 columns) and returns the solution vector.
func solve(a [][]float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("%w: normal equations are singular; the data points do not span the surface", ErrFitFailed)
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := a[r][n]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}

// Predict evaluates the fitted surface at one point, using the same basis
// ordering Fit produced the coefficients in.
func (f *PolynomialFitter) Predict(coeffs []float64, rpm, p float64) float64 {
	terms := basisTerms(f.Degree)
	var sum float64
	for i, t := range terms {
		if i >= len(coeffs) {
			break
		}
		sum += coeffs[i] * math.Pow(rpm, float64(t.i)) * math.Pow(p, float64(t.j))
	}
	return sum
}
