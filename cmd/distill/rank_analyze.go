package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lowrk/distill/pkg/lowrank"
)

var analyzeSave string

func init() {
	rankAnalyzeCmd.Flags().StringVar(&analyzeSave, "save", "", "Write the matrix to a CSV file")
	rankCmd.AddCommand(rankAnalyzeCmd)
}

var rankAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print dimensions, singular values and the numerical rank",
	Long: `Analyze factorizes the matrix with a thin SVD and reports its
dimensions, Frobenius norm, numerical rank and singular values.

Examples:
  distill rank analyze --rows 40 --cols 30 --rank 5
  distill rank analyze --input matrix.csv`,
	Args: cobra.NoArgs,
	RunE: runRankAnalyze,
}

func runRankAnalyze(cmd *cobra.Command, args []string) error {
	m, err := rankMatrix()
	if err != nil {
		return err
	}

	an, err := lowrank.Analyze(m)
	if err != nil {
		return err
	}

	rows, cols := an.Dims()
	fmt.Printf("matrix:         %d x %d\n", rows, cols)
	fmt.Printf("frobenius norm: %.6g\n", an.NormF())
	fmt.Printf("numerical rank: %d\n", an.Rank())

	values := an.Values()
	const maxShown = 12
	shown := values
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	fmt.Println("singular values:")
	for i, v := range shown {
		fmt.Printf("  sigma_%-3d %.6e\n", i+1, v)
	}
	if len(values) > len(shown) {
		fmt.Printf("  ... %d more\n", len(values)-len(shown))
	}

	if analyzeSave != "" {
		f, err := os.Create(analyzeSave)
		if err != nil {
			return fmt.Errorf("creating %s: %w", analyzeSave, err)
		}
		defer f.Close()
		if err := lowrank.WriteMatrix(f, m); err != nil {
			return err
		}
		color.Green("✓ Matrix written to %s", analyzeSave)
	}
	return nil
}
