// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AIConfig holds shared settings for the Gemini structuring call.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout bounds a single structuring call (default 45s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of coordinator-level retry attempts for a
	// failed structuring call (default 0: a failure becomes an error row).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// TextBackend identifies the PDF text extraction backend.
type TextBackend string

const (
	// BackendPDF parses pages in-process.
	BackendPDF TextBackend = "pdf"

	// BackendPdftotext shells out to the poppler pdftotext tool through a
	// scoped temporary file.
	BackendPdftotext TextBackend = "pdftotext"
)

// ExtractConfig holds settings for a batch extraction run.
type ExtractConfig struct {
	AIConfig `yaml:",inline"`

	// Backend selects the text extraction backend: pdf or pdftotext.
	Backend TextBackend `json:"backend" yaml:"backend"`

	// Workers is the worker pool width. Zero means 2x the available
	// parallelism.
	Workers int `json:"workers" yaml:"workers"`

	// MaxFiles caps the number of documents accepted per batch (default 50).
	// The cap is enforced by the callers before a batch is submitted.
	MaxFiles int `json:"max_files" yaml:"max_files"`

	// Output is the CSV artifact path (default "publication_metadata.csv").
	Output string `json:"output" yaml:"output"`
}

// ServeConfig holds settings for the HTTP upload boundary.
type ServeConfig struct {
	// Port is the listen port (default "8080").
	Port string `json:"port" yaml:"port"`

	// MaxUploadBytes caps the total multipart request size (default 256 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// DefaultMaxFiles is the batch size cap applied when none is configured.
const DefaultMaxFiles = 50

// DefaultOutputName is the CSV artifact filename offered for download.
const DefaultOutputName = "publication_metadata.csv"
