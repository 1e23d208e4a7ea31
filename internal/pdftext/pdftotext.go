// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PdftotextExtractor converts documents with the poppler pdftotext tool.
// The tool wants a file path, so the payload round-trips through a
// temporary file that is removed on every exit path.
type PdftotextExtractor struct {
	// Command overrides the pdftotext binary name. Empty means "pdftotext".
	Command string

	// Dir overrides the directory for temporary files. Empty means the
	// system default.
	Dir string
}

// Extract writes the payload to a scoped temp file, runs pdftotext over it,
// and returns the recovered text.
func (e *PdftotextExtractor) Extract(data []byte) (text, reason string) {
	tmp, err := os.CreateTemp(e.Dir, "paper-*.pdf")
	if err != nil {
		return "", fmt.Sprintf("creating temp file: %v", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Sprintf("writing temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Sprintf("writing temp file: %v", err)
	}

	command := e.Command
	if command == "" {
		command = "pdftotext"
	}

	var out, stderr bytes.Buffer
	cmd := exec.Command(command, "-enc", "UTF-8", path, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Sprintf("failed to read PDF: %s", msg)
	}

	full := strings.TrimSpace(out.String())
	if full == "" {
		return "", ReasonNoText
	}
	return full, ""
}
