package lowrank

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestReadMatrix(t *testing.T) {
	m, err := ReadMatrix(strings.NewReader("1,2.5\n-3,4e2\n"))
	require.NoError(t, err)

	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 2.5, m.At(0, 1))
	assert.Equal(t, 400.0, m.At(1, 1))
}

func TestReadMatrixRejectsRaggedRows(t *testing.T) {
	_, err := ReadMatrix(strings.NewReader("1,2,3\n4,5\n"))
	assert.Error(t, err)
}

func TestReadMatrixRejectsEmptyInput(t *testing.T) {
	_, err := ReadMatrix(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyMatrix)
}

func TestReadMatrixNamesBadCell(t *testing.T) {
	_, err := ReadMatrix(strings.NewReader("1,2\n3,oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 col 2")
}

func TestMatrixRoundTrip(t *testing.T) {
	a, err := Generate(Spec{Rows: 4, Cols: 3, Seed: 9})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, a))

	back, err := ReadMatrix(&buf)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(a, back, 1e-12))
}

func TestWriteCurveCSV(t *testing.T) {
	points := []ErrorPoint{
		{K: 1, AbsError: 2.0, RelError: 0.5, Bound: 2.0},
		{K: 2, AbsError: 1.0, RelError: 0.25, Bound: 1.0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCurveCSV(&buf, points))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"k", "abs_error", "rel_error", "bound"}, records[0])
	assert.Equal(t, "2", records[2][0])
}

func TestWriteTable(t *testing.T) {
	points := []ErrorPoint{{K: 1, AbsError: 0.5, RelError: 0.1, Bound: 0.5}}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, points))

	out := buf.String()
	assert.Contains(t, out, "abs error")
	assert.Contains(t, out, "5.000000e-01")
}
