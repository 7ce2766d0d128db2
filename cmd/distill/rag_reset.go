package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetYes bool

func init() {
	ragResetCmd.Flags().BoolVar(&resetYes, "yes", false, "Skip the confirmation prompt")
	ragCmd.AddCommand(ragResetCmd)
}

var ragResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the vector collection and the source catalog",
	Args:  cobra.NoArgs,
	RunE:  runRagReset,
}

func runRagReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !resetYes {
		fmt.Printf("This drops collection %q and the source catalog. Continue? [y/N] ", cfg.Store.Collection)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	pipeline, cleanup, err := buildPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := pipeline.Reset(ctx); err != nil {
		return err
	}
	color.Green("✓ Collection %q and catalog wiped", cfg.Store.Collection)
	return nil
}
