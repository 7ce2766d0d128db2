package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lowrk/distill/pkg/lowrank"
)

var (
	curveMaxK     int
	curvePlot     string
	curveCSV      string
	curveLogScale bool
)

func init() {
	flags := rankCurveCmd.Flags()
	flags.IntVar(&curveMaxK, "max-k", 0, "Largest truncation rank to sample (0 = up to min(rows, cols))")
	flags.StringVar(&curvePlot, "plot", "", "Render the curve to an image file (.png, .svg, .pdf)")
	flags.StringVar(&curveCSV, "csv", "", "Write the curve to a CSV file")
	flags.BoolVar(&curveLogScale, "log-scale", false, "Use a logarithmic error axis in the plot")
	rankCmd.AddCommand(rankCurveCmd)
}

var rankCurveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Tabulate reconstruction error against truncation rank",
	Long: `Curve truncates the matrix at every rank from 1 to max-k and prints
the Frobenius reconstruction error together with the singular value
tail bound, which the measured error must match.

Examples:
  distill rank curve --rows 40 --cols 30 --rank 5
  distill rank curve --input matrix.csv --plot curve.png --log-scale`,
	Args: cobra.NoArgs,
	RunE: runRankCurve,
}

func runRankCurve(cmd *cobra.Command, args []string) error {
	if curveMaxK < 0 {
		return fmt.Errorf("max-k must be positive, got %d", curveMaxK)
	}

	m, err := rankMatrix()
	if err != nil {
		return err
	}

	an, err := lowrank.Analyze(m)
	if err != nil {
		return err
	}

	points := an.ErrorCurve(curveMaxK)
	if err := lowrank.WriteTable(os.Stdout, points); err != nil {
		return err
	}

	if curveCSV != "" {
		f, err := os.Create(curveCSV)
		if err != nil {
			return fmt.Errorf("creating %s: %w", curveCSV, err)
		}
		defer f.Close()
		if err := lowrank.WriteCurveCSV(f, points); err != nil {
			return err
		}
		color.Green("✓ Curve written to %s", curveCSV)
	}

	if curvePlot != "" {
		rows, cols := an.Dims()
		opts := lowrank.PlotOptions{
			Title:    fmt.Sprintf("Frobenius error vs rank (%d x %d, rank %d)", rows, cols, an.Rank()),
			LogScale: curveLogScale,
		}
		if err := lowrank.RenderPlot(points, curvePlot, opts); err != nil {
			return err
		}
		color.Green("✓ Plot written to %s", curvePlot)
	}
	return nil
}
