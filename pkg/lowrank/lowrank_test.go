package lowrank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGenerateDeterministic(t *testing.T) {
	spec := Spec{Rows: 8, Cols: 5, Seed: 42}

	first, err := Generate(spec)
	require.NoError(t, err)
	second, err := Generate(spec)
	require.NoError(t, err)

	assert.True(t, mat.Equal(first, second), "same seed must yield the same matrix")

	spec.Seed = 43
	third, err := Generate(spec)
	require.NoError(t, err)
	assert.False(t, mat.Equal(first, third), "different seeds must yield different matrices")
}

func TestGenerateDims(t *testing.T) {
	a, err := Generate(Spec{Rows: 7, Cols: 3, Seed: 1})
	require.NoError(t, err)

	rows, cols := a.Dims()
	assert.Equal(t, 7, rows)
	assert.Equal(t, 3, cols)
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{name: "zero rows", spec: Spec{Rows: 0, Cols: 4}},
		{name: "negative cols", spec: Spec{Rows: 4, Cols: -1}},
		{name: "negative rank", spec: Spec{Rows: 4, Cols: 4, Rank: -2}},
		{name: "rank above min dim", spec: Spec{Rows: 4, Cols: 6, Rank: 5}},
		{name: "unknown distribution", spec: Spec{Rows: 4, Cols: 4, Dist: "poisson"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestPlantedRankIsExact(t *testing.T) {
	for _, dist := range []Dist{DistUniform, DistNormal} {
		t.Run(string(dist), func(t *testing.T) {
			a, err := Generate(Spec{Rows: 12, Cols: 9, Rank: 4, Dist: dist, Seed: 7})
			require.NoError(t, err)

			an, err := Analyze(a)
			require.NoError(t, err)
			assert.Equal(t, 4, an.Rank())
		})
	}
}

func TestFullRankByDefault(t *testing.T) {
	a, err := Generate(Spec{Rows: 6, Cols: 4, Seed: 11})
	require.NoError(t, err)

	an, err := Analyze(a)
	require.NoError(t, err)
	assert.Equal(t, 4, an.Rank())
}

func TestAnalyzeRankOne(t *testing.T) {
	// Outer product of two vectors has rank one.
	a := mat.NewDense(3, 2, nil)
	u := []float64{1, 2, 3}
	v := []float64{4, 5}
	for i := range u {
		for j := range v {
			a.Set(i, j, u[i]*v[j])
		}
	}

	an, err := Analyze(a)
	require.NoError(t, err)
	assert.Equal(t, 1, an.Rank())

	values := an.Values()
	require.Len(t, values, 2)
	assert.InDelta(t, an.NormF(), values[0], 1e-12, "only singular value carries the whole norm")
}

func TestErrorCurveNonIncreasing(t *testing.T) {
	a, err := Generate(Spec{Rows: 10, Cols: 8, Seed: 3})
	require.NoError(t, err)

	an, err := Analyze(a)
	require.NoError(t, err)

	points := an.ErrorCurve(0)
	require.Len(t, points, 8)

	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, points[i].AbsError, points[i-1].AbsError+1e-9,
			"error must not grow from k=%d to k=%d", points[i-1].K, points[i].K)
	}
}

func TestErrorVanishesAtPlantedRank(t *testing.T) {
	a, err := Generate(Spec{Rows: 12, Cols: 9, Rank: 4, Seed: 5})
	require.NoError(t, err)

	an, err := Analyze(a)
	require.NoError(t, err)

	pt := an.ErrorAt(4)
	assert.Less(t, pt.RelError, 1e-10, "rank-4 truncation of a rank-4 matrix must reconstruct it")
}

func TestErrorMatchesTailBound(t *testing.T) {
	a, err := Generate(Spec{Rows: 9, Cols: 7, Seed: 17})
	require.NoError(t, err)

	an, err := Analyze(a)
	require.NoError(t, err)

	tol := 1e-8 * (1 + an.NormF())
	for _, pt := range an.ErrorCurve(0) {
		assert.InDelta(t, pt.Bound, pt.AbsError, tol, "k=%d", pt.K)
	}
}

func TestTruncateClamps(t *testing.T) {
	a, err := Generate(Spec{Rows: 5, Cols: 4, Seed: 23})
	require.NoError(t, err)

	an, err := Analyze(a)
	require.NoError(t, err)

	zero := an.Truncate(-3)
	rows, cols := zero.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cols)
	assert.InDelta(t, 0, mat.Norm(zero, 2), 0)

	full := an.Truncate(100)
	assert.True(t, mat.EqualApprox(a, full, 1e-10), "full-rank truncation reconstructs the input")
}

func TestZeroMatrix(t *testing.T) {
	an, err := Analyze(mat.NewDense(4, 4, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, an.Rank())

	pt := an.ErrorAt(2)
	assert.Equal(t, 0.0, pt.AbsError)
	assert.Equal(t, 0.0, pt.RelError, "relative error of a zero matrix is zero, not NaN")
}

func TestErrorCurveRange(t *testing.T) {
	a, err := Generate(Spec{Rows: 6, Cols: 6, Seed: 2})
	require.NoError(t, err)

	an, err := Analyze(a)
	require.NoError(t, err)

	points := an.ErrorCurve(3)
	require.Len(t, points, 3)
	assert.Equal(t, 1, points[0].K)
	assert.Equal(t, 3, points[2].K)

	// Out-of-range limits fall back to the full curve.
	assert.Len(t, an.ErrorCurve(-1), 6)
	assert.Len(t, an.ErrorCurve(99), 6)
}
