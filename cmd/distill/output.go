package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/lowrk/distill/pkg/config"
	"github.com/lowrk/distill/pkg/llm"
	"github.com/lowrk/distill/pkg/loader"
	"github.com/lowrk/distill/pkg/lowrank"
	"github.com/lowrk/distill/pkg/rag"
	"github.com/lowrk/distill/pkg/store"
)

// exitCodeFor sorts errors into the exit code contract so scripts can
// tell configuration problems from bad input without parsing messages.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validation config.ValidationError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, llm.ErrDimensionMismatch):
		return ExitConfigError
	case errors.Is(err, loader.ErrUnsupportedSource),
		errors.Is(err, loader.ErrNoContent),
		errors.Is(err, loader.ErrInvalidTranscript),
		errors.Is(err, store.ErrSourceNotFound),
		errors.Is(err, rag.ErrNoChunks),
		errors.Is(err, lowrank.ErrEmptyMatrix):
		return ExitDataError
	}
	return ExitError
}

func printSources(refs []rag.SourceRef) {
	if len(refs) == 0 {
		return
	}
	color.Cyan("\nSources:")
	for _, ref := range refs {
		source := ref.Source
		if source == "" {
			source = "unknown"
		}
		if ref.Title != "" {
			fmt.Printf("  - %s (%s)\n", source, ref.Title)
		} else {
			fmt.Printf("  - %s\n", source)
		}
	}
}

func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
