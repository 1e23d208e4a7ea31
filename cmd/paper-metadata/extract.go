// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-metadata/internal/batch"
	"github.com/pdiddy/paper-metadata/internal/pdftext"
	"github.com/pdiddy/paper-metadata/internal/structure"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdfs...]",
	Short: "Extract publication metadata from a batch of PDF files",
	Long: `Extract runs the batch pipeline over the given PDF files (or the files
listed in a YAML manifest) and writes one CSV table with a row per input
document. Documents that cannot be parsed or structured become error rows;
they never abort the rest of the batch.`,
	RunE: runExtract,
}

func init() {
	addPipelineFlags(extractCmd)
	extractCmd.Flags().StringP("output", "o", "", "CSV output path (default "+types.DefaultOutputName+")")
	extractCmd.Flags().String("manifest", "", "YAML manifest listing the batch files")
	extractCmd.Flags().String("write-manifest", "", "write the resolved batch to a YAML manifest and exit")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg := extractConfig(cmd)
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = types.DefaultMaxFiles
	}

	output := cfg.Output
	paths := append([]string(nil), args...)

	if manifestPath, _ := flags.GetString("manifest"); manifestPath != "" {
		m, err := batch.ReadManifest(manifestPath)
		if err != nil {
			return err
		}
		paths = append(paths, m.Files...)
		if output == "" && m.Output != "" {
			output = m.Output
		}
	}
	if output == "" {
		output = types.DefaultOutputName
	}

	if len(paths) == 0 {
		return fmt.Errorf("no input files: pass PDF paths or --manifest")
	}
	if len(paths) > cfg.MaxFiles {
		return fmt.Errorf("%d files submitted; at most %d per batch", len(paths), cfg.MaxFiles)
	}

	if manifestOut, _ := flags.GetString("write-manifest"); manifestOut != "" {
		m := &batch.Manifest{Files: paths, Output: output}
		if err := batch.WriteManifest(manifestOut, m); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote manifest %s (%d files)\n", manifestOut, len(paths))
		return nil
	}

	docs := make([]types.Document, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		docs[i] = types.Document{Filename: filepath.Base(p), Data: data}
	}

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

	total := len(docs)
	completed := 0
	coord := &batch.Coordinator{
		Text:     textExtractor,
		Metadata: structure.NewExtractor(backend, cfg.Timeout),
		Workers:  cfg.Workers,
		Retries:  cfg.MaxRetries,
		Progress: func(fraction float64) {
			// Serialized by the coordinator; safe to count here.
			completed++
			fmt.Fprintf(os.Stderr, "processed %d/%d (%.0f%%)\n", completed, total, fraction*100)
		},
	}

	start := time.Now()
	rows := coord.Run(cmd.Context(), docs)
	table := batch.BuildTable(rows)

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Fprintf(os.Stderr, "wrote %d rows (%d failed) to %s in %s\n",
		table.NumRows(), table.NumFailed(), output, time.Since(start).Round(time.Millisecond))
	return nil
}
