// Package lowrank generates small test matrices and measures how well
// truncated singular value decompositions approximate them.
package lowrank

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dist selects the sampling distribution for generated matrices.
type Dist string

const (
	DistUniform Dist = "uniform"
	DistNormal  Dist = "normal"
)

// Spec describes a random matrix to generate.
type Spec struct {
	Rows int
	Cols int
	// Rank plants an exact low rank. Zero means full rank.
	Rank int
	Dist Dist
	Seed uint64
}

func (s Spec) normalize() (Spec, error) {
	if s.Rows < 1 || s.Cols < 1 {
		return s, fmt.Errorf("lowrank: matrix dimensions must be positive, got %dx%d", s.Rows, s.Cols)
	}
	minDim := min(s.Rows, s.Cols)
	if s.Rank == 0 {
		s.Rank = minDim
	}
	if s.Rank < 0 || s.Rank > minDim {
		return s, fmt.Errorf("lowrank: rank %d out of range [1, %d]", s.Rank, minDim)
	}
	if s.Dist == "" {
		s.Dist = DistUniform
	}
	switch s.Dist {
	case DistUniform, DistNormal:
	default:
		return s, fmt.Errorf("lowrank: unknown distribution %q", s.Dist)
	}
	return s, nil
}

// Generate samples a Rows x Cols matrix from the spec. The same seed
// always yields the same matrix. When Rank is below min(Rows, Cols) the
// matrix is built as a product of two thin factors, which makes the
// planted rank exact.
func Generate(spec Spec) (*mat.Dense, error) {
	spec, err := spec.normalize()
	if err != nil {
		return nil, err
	}

	src := rand.NewSource(spec.Seed)
	sample := sampler(spec.Dist, src)

	if spec.Rank == min(spec.Rows, spec.Cols) {
		a := mat.NewDense(spec.Rows, spec.Cols, nil)
		fill(a, sample)
		return a, nil
	}

	left := mat.NewDense(spec.Rows, spec.Rank, nil)
	right := mat.NewDense(spec.Rank, spec.Cols, nil)
	fill(left, sample)
	fill(right, sample)

	var a mat.Dense
	a.Mul(left, right)
	return &a, nil
}

func sampler(dist Dist, src rand.Source) func() float64 {
	switch dist {
	case DistNormal:
		return distuv.Normal{Mu: 0, Sigma: 1, Src: src}.Rand
	default:
		return distuv.Uniform{Min: -1, Max: 1, Src: src}.Rand
	}
}

func fill(m *mat.Dense, sample func() float64) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, sample())
		}
	}
}
