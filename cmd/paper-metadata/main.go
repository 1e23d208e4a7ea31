// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-metadata CLI. The extract
// subcommand runs a batch over local PDF files; serve exposes the same
// pipeline behind an HTTP upload boundary.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// resolveAPIKey picks the Gemini credential: explicit flag value first, then
// environment/config, then the .secrets/ key file.
func resolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := viper.GetString("api_key"); v != "" {
		return v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		return v
	}
	return loadedSecrets[secrets.GeminiAPIKey]
}

// rootCmd is the base command for the paper-metadata CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-metadata",
	Short: "Batch metadata extraction for research-paper PDFs",
	Long: `paper-metadata extracts bibliographic and summary metadata (title, authors,
year, venue, objective, methodology, findings, limitations) from batches of
research-paper PDFs. Text is recovered per page, structured through a
schema-constrained Gemini call, and aggregated into one CSV table with one
row per document. Failures show up as error rows and are never dropped.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-metadata.yaml or ~/.config/paper-metadata/config.yaml)")
}

func initConfig() {
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-metadata")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-metadata"))
		}
	}

	viper.SetEnvPrefix("PAPER_METADATA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
