package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lowrk/distill/pkg/rag"
)

func init() {
	ragCmd.AddCommand(ragChatCmd)
}

var ragChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the collection",
	Long: `Chat starts an interactive loop. Every turn retrieves fresh context
for the question while the conversation history carries across turns,
so follow-ups can refer back to earlier answers.

Type 'exit' to quit and 'reset' to forget the conversation.`,
	Args: cobra.NoArgs,
	RunE: runRagChat,
}

func runRagChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, cleanup, err := buildPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := pipeline.Verify(ctx); err != nil {
		return err
	}

	// Chat streams unless --stream=false was given explicitly.
	streaming := true
	if ragCmd.PersistentFlags().Changed("stream") {
		streaming = flagStream
	}

	color.Cyan("\nChat with your documents (type 'exit' to quit, 'reset' to forget the conversation)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		switch strings.ToLower(query) {
		case "exit", "quit":
			return nil
		case "reset":
			if err := pipeline.ResetChat(ctx); err != nil {
				color.Red("Could not reset the conversation: %v", err)
			} else {
				color.Yellow("Conversation forgotten.")
			}
			continue
		}

		var answer *rag.Answer
		spinner := getSpinner(" Thinking...")
		if streaming {
			first := true
			answer, err = pipeline.ChatTurn(ctx, query, func(chunk string) {
				if first {
					spinner.Finish()
					first = false
					fmt.Println()
					assistantPrompt("Assistant: ")
				}
				fmt.Print(chunk)
			})
			if first {
				spinner.Finish()
			}
			fmt.Println()
		} else {
			answer, err = pipeline.ChatTurn(ctx, query, nil)
			spinner.Finish()
			if err == nil {
				assistantPrompt("\nAssistant: %s\n", answer.Text)
			}
		}
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}
		if answer.NoContext {
			color.Yellow("(nothing ingested yet; that answer is not grounded)")
		}
	}
	return scanner.Err()
}
