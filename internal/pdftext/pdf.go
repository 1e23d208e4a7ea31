// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor parses the document in-process, page by page. A page whose
// content stream cannot be decoded is skipped; the rest of the document
// still contributes text.
type PDFExtractor struct{}

// Extract recovers the text of every readable page, joined by blank lines.
func (e *PDFExtractor) Extract(data []byte) (text, reason string) {
	reader, err := openReader(data)
	if err != nil {
		return "", fmt.Sprintf("failed to read PDF: %v", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return "", ReasonNoPages
	}

	var chunks []string
	for i := 1; i <= total; i++ {
		pageText := extractPage(reader, i)
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		chunks = append(chunks, pageText)
	}

	full := strings.TrimSpace(strings.Join(chunks, "\n\n"))
	if full == "" {
		return "", ReasonNoText
	}
	return full, ""
}

// openReader builds a pdf.Reader over the in-memory payload. The underlying
// parser panics on some malformed inputs, so the recover here folds those
// into ordinary decode errors.
func openReader(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// extractPage returns the plain text of page n, or "" if that single page
// cannot be decoded.
func extractPage(reader *pdf.Reader, n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
