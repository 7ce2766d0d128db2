package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/lowrk/distill/pkg/lowrank"
)

var (
	rankRows    int
	rankCols    int
	rankPlanted int
	rankDist    string
	rankSeed    uint64
	rankInput   string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Inspect matrix rank and low-rank SVD approximations",
	Long: `rank works on a matrix that is either generated from a seeded random
spec or loaded from a CSV file with --input.

Examples:
  distill rank analyze --rows 40 --cols 30 --rank 5
  distill rank curve --rows 40 --cols 30 --rank 5 --plot curve.png
  distill rank curve --input matrix.csv --csv curve.csv`,
}

func init() {
	flags := rankCmd.PersistentFlags()
	flags.IntVar(&rankRows, "rows", 40, "Rows of the generated matrix")
	flags.IntVar(&rankCols, "cols", 30, "Columns of the generated matrix")
	flags.IntVar(&rankPlanted, "rank", 0, "Planted rank of the generated matrix (0 = full rank)")
	flags.StringVar(&rankDist, "dist", "uniform", "Entry distribution: uniform or normal")
	flags.Uint64Var(&rankSeed, "seed", 42, "Random seed")
	flags.StringVar(&rankInput, "input", "", "Load the matrix from a CSV file instead of generating")
	rootCmd.AddCommand(rankCmd)
}

// rankMatrix produces the matrix the subcommand works on.
func rankMatrix() (*mat.Dense, error) {
	if rankInput != "" {
		f, err := os.Open(rankInput)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", rankInput, err)
		}
		defer f.Close()
		return lowrank.ReadMatrix(f)
	}

	return lowrank.Generate(lowrank.Spec{
		Rows: rankRows,
		Cols: rankCols,
		Rank: rankPlanted,
		Dist: lowrank.Dist(rankDist),
		Seed: rankSeed,
	})
}
