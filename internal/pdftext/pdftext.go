// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext recovers plain text from raw PDF bytes with pluggable
// backends. Extraction never fails with an error value: every failure mode
// is reported as a human-readable reason string so one bad document cannot
// abort a batch.
package pdftext

import (
	"fmt"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Failure reasons shared by the backends.
const (
	// ReasonNoPages is returned for a structurally valid PDF with zero pages.
	ReasonNoPages = "PDF has no pages"

	// ReasonNoText is returned when every page yields empty or whitespace
	// text, typically a scanned document without an embedded text layer.
	ReasonNoText = "no text extracted (possibly a scanned/image-only PDF)"
)

// Extractor converts one document's raw bytes into plain text. On failure
// the text is empty and the reason describes what went wrong; exactly one
// of the two results is non-empty.
type Extractor interface {
	Extract(data []byte) (text, reason string)
}

// New returns the extractor for the configured backend.
func New(backend types.TextBackend) (Extractor, error) {
	switch backend {
	case types.BackendPDF, "":
		return &PDFExtractor{}, nil
	case types.BackendPdftotext:
		return &PdftotextExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown text backend %q", backend)
	}
}
