// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/structure"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// addPipelineFlags registers the flags shared by every command that runs the
// batch pipeline. Flag names mirror the yaml keys of the config structs.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "Gemini model identifier (default "+structure.DefaultModel+")")
	cmd.Flags().String("api-key", "", "Gemini API key (overrides env and .secrets/)")
	cmd.Flags().Duration("timeout", 0, "per-call timeout for the structuring call (default 45s)")
	cmd.Flags().Int("workers", 0, "worker pool width (0: 2x available parallelism)")
	cmd.Flags().Int("retries", 0, "retry attempts for failed structuring calls")
	cmd.Flags().String("backend", "", "text extraction backend: pdf or pdftotext")
	cmd.Flags().Int("max-files", 0, "maximum number of files per batch (default 50)")
}

// extractConfig resolves the pipeline settings for a command. Precedence per
// setting: explicit flag, then the viper config file / environment, then the
// built-in default.
func extractConfig(cmd *cobra.Command) types.ExtractConfig {
	return types.ExtractConfig{
		AIConfig: types.AIConfig{
			Model:      stringSetting(cmd, "model", "model", structure.DefaultModel),
			Timeout:    durationSetting(cmd, "timeout", "timeout", structure.DefaultTimeout),
			MaxRetries: intSetting(cmd, "retries", "max_retries", 0),
		},
		Backend:  types.TextBackend(stringSetting(cmd, "backend", "backend", string(types.BackendPDF))),
		Workers:  intSetting(cmd, "workers", "workers", 0),
		MaxFiles: intSetting(cmd, "max-files", "max_files", types.DefaultMaxFiles),
		Output:   stringSetting(cmd, "output", "output", ""),
	}
}

// serveConfig resolves the HTTP boundary settings.
func serveConfig(cmd *cobra.Command) types.ServeConfig {
	return types.ServeConfig{
		Port:           stringSetting(cmd, "port", "port", "8080"),
		MaxUploadBytes: int64Setting(cmd, "max-upload-bytes", "max_upload_bytes", 0),
	}
}

func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

func int64Setting(cmd *cobra.Command, flag, key string, fallback int64) int64 {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt64(flag)
		return v
	}
	if v := viper.GetInt64(key); v != 0 {
		return v
	}
	return fallback
}

func durationSetting(cmd *cobra.Command, flag, key string, fallback time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	if v := viper.GetDuration(key); v != 0 {
		return v
	}
	return fallback
}
