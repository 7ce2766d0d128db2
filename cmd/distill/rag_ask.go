package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lowrk/distill/pkg/rag"
)

func init() {
	ragCmd.AddCommand(ragAskCmd)
}

var ragAskCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question against the collection",
	Long: `Ask retrieves the most relevant chunks, feeds them to the model and
prints the answer with the sources it was grounded in. Each invocation
is independent; use chat for a conversation.

Examples:
  distill rag ask "what does the error curve converge to?"
  distill rag ask --stream "summarize the ingest pipeline"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRagAsk,
}

func runRagAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	pipeline, cleanup, err := buildPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := pipeline.Verify(ctx); err != nil {
		return err
	}

	spinner := getSpinner(" Thinking...")
	var answer *rag.Answer
	if cfg.UI.Streaming {
		first := true
		answer, err = pipeline.AskStream(ctx, question, func(chunk string) {
			if first {
				spinner.Finish()
				first = false
				fmt.Println()
			}
			fmt.Print(chunk)
		})
		if first {
			spinner.Finish()
		}
		fmt.Println()
	} else {
		answer, err = pipeline.Ask(ctx, question)
		spinner.Finish()
		if err == nil {
			fmt.Printf("\n%s\n", answer.Text)
		}
	}
	if err != nil {
		return err
	}

	if answer.NoContext {
		color.Yellow("\nNothing ingested matched; this answer is not grounded in the collection.")
	}
	printSources(answer.Sources)
	return nil
}
