package lowrank

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// machineEps is the double precision machine epsilon used in the
// numerical rank tolerance.
const machineEps = 0x1p-52

// ErrorPoint is one sample of the reconstruction error curve.
type ErrorPoint struct {
	K int
	// AbsError is the Frobenius norm of A minus its rank-K truncation.
	AbsError float64
	// RelError is AbsError over the Frobenius norm of A. It is zero
	// for a zero matrix rather than NaN.
	RelError float64
	// Bound is the square root of the tail sum of squared singular
	// values, which equals AbsError up to roundoff.
	Bound float64
}

// Analysis is the singular value decomposition of one matrix together
// with the quantities the rank operations derive from it. Factorizing
// once lets truncations at several ranks reuse the decomposition.
type Analysis struct {
	rows, cols int
	orig       *mat.Dense
	u, v       mat.Dense
	values     []float64
	normF      float64
}

// Analyze factorizes a with a thin SVD.
func Analyze(a mat.Matrix) (*Analysis, error) {
	rows, cols := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("lowrank: SVD failed to converge")
	}

	an := &Analysis{
		rows:   rows,
		cols:   cols,
		orig:   mat.DenseCopyOf(a),
		values: svd.Values(nil),
		normF:  mat.Norm(a, 2),
	}
	svd.UTo(&an.u)
	svd.VTo(&an.v)
	return an, nil
}

// Values returns the singular values in descending order.
func (a *Analysis) Values() []float64 {
	out := make([]float64, len(a.values))
	copy(out, a.values)
	return out
}

// Dims returns the dimensions of the analyzed matrix.
func (a *Analysis) Dims() (rows, cols int) {
	return a.rows, a.cols
}

// NormF returns the Frobenius norm of the analyzed matrix.
func (a *Analysis) NormF() float64 {
	return a.normF
}

// Rank reports the numerical rank. A singular value counts toward the
// rank when it exceeds max(rows, cols) * eps * sigma_max, the tolerance
// LAPACK-style rank estimates use.
func (a *Analysis) Rank() int {
	if len(a.values) == 0 || a.values[0] == 0 {
		return 0
	}
	tol := float64(max(a.rows, a.cols)) * machineEps * a.values[0]
	rank := 0
	for _, v := range a.values {
		if v > tol {
			rank++
		}
	}
	return rank
}

// MaxK returns the largest meaningful truncation rank, min(rows, cols).
func (a *Analysis) MaxK() int {
	return len(a.values)
}

func (a *Analysis) clampK(k int) int {
	if k < 0 {
		return 0
	}
	if k > len(a.values) {
		return len(a.values)
	}
	return k
}

// Truncate reconstructs the best rank-k approximation of the analyzed
// matrix. k is clamped to [0, min(rows, cols)]; k = 0 yields the zero
// matrix.
func (a *Analysis) Truncate(k int) *mat.Dense {
	k = a.clampK(k)
	out := mat.NewDense(a.rows, a.cols, nil)
	if k == 0 {
		return out
	}

	uk := a.u.Slice(0, a.rows, 0, k)
	vk := a.v.Slice(0, a.cols, 0, k)
	sk := mat.NewDiagDense(k, a.values[:k])
	out.Product(uk, sk, vk.T())
	return out
}

// ErrorAt measures the Frobenius reconstruction error at rank k by
// explicit subtraction, alongside the singular value tail bound.
func (a *Analysis) ErrorAt(k int) ErrorPoint {
	k = a.clampK(k)

	var diff mat.Dense
	diff.Sub(a.orig, a.Truncate(k))
	abs := mat.Norm(&diff, 2)

	rel := 0.0
	if a.normF > 0 {
		rel = abs / a.normF
	}

	return ErrorPoint{
		K:        k,
		AbsError: abs,
		RelError: rel,
		Bound:    a.tailBound(k),
	}
}

// ErrorCurve samples the reconstruction error at every rank from 1 to
// maxK. maxK values outside [1, min(rows, cols)] default to the full
// range.
func (a *Analysis) ErrorCurve(maxK int) []ErrorPoint {
	if maxK < 1 || maxK > len(a.values) {
		maxK = len(a.values)
	}
	points := make([]ErrorPoint, 0, maxK)
	for k := 1; k <= maxK; k++ {
		points = append(points, a.ErrorAt(k))
	}
	return points
}

func (a *Analysis) tailBound(k int) float64 {
	sum := 0.0
	for _, v := range a.values[k:] {
		sum += v * v
	}
	return math.Sqrt(sum)
}
