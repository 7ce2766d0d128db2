package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lowrk/distill/server"
)

var serveAddr string

func init() {
	ragServeCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	ragCmd.AddCommand(ragServeCmd)
}

var ragServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over a websocket",
	Long: `Serve exposes /ws for websocket clients and /health for probes.
Clients send JSON frames like {"type":"ask","content":"..."} or
{"type":"ingest","content":"url ..."} and receive streamed replies.`,
	Args: cobra.NoArgs,
	RunE: runRagServe,
}

func runRagServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, cleanup, err := buildPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := pipeline.Verify(ctx); err != nil {
		return err
	}

	addr := serveAddr
	if !cmd.Flags().Changed("addr") {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		}
	}

	srv := server.New(pipeline, log)
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
