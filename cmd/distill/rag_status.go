package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	ragCmd.AddCommand(ragStatusCmd)
}

var ragStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report store reachability and collection statistics",
	Args:  cobra.NoArgs,
	RunE:  runRagStatus,
}

func runRagStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, cleanup, err := buildPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := pipeline.Status(ctx)
	if err != nil {
		return err
	}

	color.Green("✓ %s store reachable", cfg.Store.Backend)
	fmt.Printf("  collection: %s\n", cfg.Store.Collection)
	fmt.Printf("  vectors:    %d\n", st.Vectors)
	fmt.Printf("  sources:    %d\n", st.Sources)
	if st.Dimension > 0 {
		fmt.Printf("  dimension:  %d\n", st.Dimension)
		if st.Dimension != cfg.Store.VectorDim {
			color.Yellow("  stored dimension %d differs from configured %d", st.Dimension, cfg.Store.VectorDim)
		}
	}
	return nil
}
