package lowrank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlot(t *testing.T) {
	a, err := Generate(Spec{Rows: 6, Cols: 5, Rank: 2, Seed: 31})
	require.NoError(t, err)
	an, err := Analyze(a)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "curve.png")
	err = RenderPlot(an.ErrorCurve(0), path, PlotOptions{})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderPlotLogScaleHandlesZeros(t *testing.T) {
	// A planted rank-2 matrix has near-zero error beyond k=2, which a
	// log axis cannot place without the floor.
	a, err := Generate(Spec{Rows: 6, Cols: 5, Rank: 2, Seed: 31})
	require.NoError(t, err)
	an, err := Analyze(a)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "curve-log.png")
	err = RenderPlot(an.ErrorCurve(0), path, PlotOptions{LogScale: true})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRenderPlotRejectsEmptyCurve(t *testing.T) {
	err := RenderPlot(nil, filepath.Join(t.TempDir(), "never.png"), PlotOptions{})
	assert.Error(t, err)
}
