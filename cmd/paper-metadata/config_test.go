// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/structure"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addPipelineFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "")
	return cmd
}

func TestExtractConfigDefaults(t *testing.T) {
	viper.Reset()
	cfg := extractConfig(newPipelineCmd())

	if cfg.Model != structure.DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, structure.DefaultModel)
	}
	if cfg.Timeout != structure.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, structure.DefaultTimeout)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.Backend != types.BackendPDF {
		t.Errorf("Backend = %q, want %q", cfg.Backend, types.BackendPDF)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.MaxFiles != types.DefaultMaxFiles {
		t.Errorf("MaxFiles = %d, want %d", cfg.MaxFiles, types.DefaultMaxFiles)
	}
	if cfg.Output != "" {
		t.Errorf("Output = %q, want empty", cfg.Output)
	}
}

func TestExtractConfigFromConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("model", "gemini-2.5-pro")
	viper.Set("timeout", "90s")
	viper.Set("max_retries", 2)
	viper.Set("backend", "pdftotext")
	viper.Set("workers", 7)
	viper.Set("max_files", 10)
	viper.Set("output", "from-config.csv")

	cfg := extractConfig(newPipelineCmd())

	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.Backend != types.BackendPdftotext {
		t.Errorf("Backend = %q, want %q", cfg.Backend, types.BackendPdftotext)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Workers)
	}
	if cfg.MaxFiles != 10 {
		t.Errorf("MaxFiles = %d, want 10", cfg.MaxFiles)
	}
	if cfg.Output != "from-config.csv" {
		t.Errorf("Output = %q", cfg.Output)
	}
}

func TestExtractConfigFlagBeatsConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("workers", 7)
	viper.Set("model", "gemini-2.5-pro")

	cmd := newPipelineCmd()
	if err := cmd.Flags().Set("workers", "3"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("model", "gemini-experimental"); err != nil {
		t.Fatal(err)
	}

	cfg := extractConfig(cmd)
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want flag value 3", cfg.Workers)
	}
	if cfg.Model != "gemini-experimental" {
		t.Errorf("Model = %q, want flag value", cfg.Model)
	}
}

func TestServeConfigPrecedence(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("port", "", "")
	cmd.Flags().Int64("max-upload-bytes", 0, "")

	cfg := serveConfig(cmd)
	if cfg.Port != "8080" {
		t.Errorf("default Port = %q, want 8080", cfg.Port)
	}
	if cfg.MaxUploadBytes != 0 {
		t.Errorf("default MaxUploadBytes = %d, want 0", cfg.MaxUploadBytes)
	}

	viper.Set("port", "9090")
	viper.Set("max_upload_bytes", 1024)
	cfg = serveConfig(cmd)
	if cfg.Port != "9090" {
		t.Errorf("config-file Port = %q, want 9090", cfg.Port)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("config-file MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}

	if err := cmd.Flags().Set("port", "7070"); err != nil {
		t.Fatal(err)
	}
	if cfg = serveConfig(cmd); cfg.Port != "7070" {
		t.Errorf("flag Port = %q, want 7070", cfg.Port)
	}
}
