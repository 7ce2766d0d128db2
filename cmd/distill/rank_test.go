package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// setRankFlags swaps in flag values for one test and restores the
// defaults afterwards, since the flag variables are package globals.
func setRankFlags(t *testing.T, input string, rows, cols, rank int, seed uint64) {
	t.Helper()
	prevInput, prevRows, prevCols := rankInput, rankRows, rankCols
	prevRank, prevSeed, prevDist := rankPlanted, rankSeed, rankDist
	t.Cleanup(func() {
		rankInput, rankRows, rankCols = prevInput, prevRows, prevCols
		rankPlanted, rankSeed, rankDist = prevRank, prevSeed, prevDist
	})
	rankInput = input
	rankRows, rankCols, rankPlanted, rankSeed = rows, cols, rank, seed
	rankDist = "uniform"
}

func TestRankMatrixReadsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,0\n0,1\n"), 0o644))

	setRankFlags(t, path, 0, 0, 0, 0)

	a, err := rankMatrix()
	require.NoError(t, err)

	rows, cols := a.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 1.0, a.At(0, 0))
	assert.Equal(t, 0.0, a.At(0, 1))
}

func TestRankMatrixMissingFile(t *testing.T) {
	setRankFlags(t, filepath.Join(t.TempDir(), "absent.csv"), 0, 0, 0, 0)

	_, err := rankMatrix()
	assert.Error(t, err)
}

func TestRankMatrixGeneratesDeterministically(t *testing.T) {
	setRankFlags(t, "", 8, 6, 3, 7)

	first, err := rankMatrix()
	require.NoError(t, err)
	second, err := rankMatrix()
	require.NoError(t, err)

	rows, cols := first.Dims()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 6, cols)
	assert.True(t, mat.Equal(first, second), "same seed must yield the same matrix")
}

func TestRankMatrixRejectsBadSpec(t *testing.T) {
	setRankFlags(t, "", 4, 4, 9, 1)

	_, err := rankMatrix()
	assert.Error(t, err)
}
