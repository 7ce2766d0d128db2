// Package main provides the distill CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "distill",
	Short: "Low-rank matrix experiments and grounded question answering",
	Long: `distill bundles two teaching tools into one binary.

rank generates or loads matrices and measures how truncated SVD
approximations degrade as the rank shrinks.

rag ingests documents into a vector store and answers questions
grounded in them through a local or hosted language model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
}
