// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-metadata/internal/pdftext"
	"github.com/pdiddy/paper-metadata/internal/structure"
	"github.com/pdiddy/paper-metadata/internal/webapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the batch pipeline over HTTP",
	Long: `Serve exposes the pipeline behind an HTTP boundary: POST a multipart
batch of PDFs to /api/batches, poll /api/batches/{id} for progress, and
fetch the finished table from /api/batches/{id}/table or download it from
/api/batches/{id}/csv.`,
	RunE: runServe,
}

func init() {
	addPipelineFlags(serveCmd)
	serveCmd.Flags().String("port", "", "listen port (default 8080)")
	serveCmd.Flags().Int64("max-upload-bytes", 0, "total multipart upload size cap (default 256 MiB)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg := extractConfig(cmd)
	srvCfg := serveConfig(cmd)

	apiKey, _ := flags.GetString("api-key")
	cfg.APIKey = resolveAPIKey(apiKey)

	backend, err := structure.NewGeminiBackend(cmd.Context(), cfg.APIKey, cfg.Model)
	if err != nil {
		return err
	}
	defer backend.Close()

	textExtractor, err := pdftext.New(cfg.Backend)
	if err != nil {
		return err
	}

	server := webapi.NewServer(textExtractor, structure.NewExtractor(backend, cfg.Timeout), webapi.Config{
		Workers:        cfg.Workers,
		Retries:        cfg.MaxRetries,
		MaxFiles:       cfg.MaxFiles,
		MaxUploadBytes: srvCfg.MaxUploadBytes,
	})

	httpSrv := &http.Server{
		Addr:    ":" + srvCfg.Port,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "listening on %s\n", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
