package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	ragCmd.AddCommand(ragSourcesCmd)
}

var ragSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the ingested sources",
	Args:  cobra.NoArgs,
	RunE:  runRagSources,
}

func runRagSources(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, cleanup, err := buildPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	sources, err := pipeline.Sources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No sources ingested yet")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tLOCATION\tTITLE\tCHUNKS\tINGESTED")
	for _, src := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			src.Kind,
			truncateString(src.Location, 60),
			truncateString(src.Title, 40),
			src.ChunkCount,
			src.IngestedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}
