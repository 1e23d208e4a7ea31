// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch fans a set of documents across a bounded worker pool,
// pairing each document with its extraction outcome, and shapes the
// completed rows into a rectangular result table.
package batch

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-metadata/internal/pdftext"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// MetadataExtractor abstracts the structuring component so tests can run
// the coordinator without a live model.
type MetadataExtractor interface {
	Extract(ctx context.Context, text string) types.MetadataRecord
}

// backoffBase controls the base duration for retry backoff. Tests override
// this to avoid real sleeps.
var backoffBase = time.Second

// Coordinator runs one unit of work per document on a bounded pool. Units
// are fully isolated: a document's failure in either stage never cancels or
// affects another's processing, and every input yields exactly one row.
type Coordinator struct {
	// Text recovers plain text from raw document bytes.
	Text pdftext.Extractor

	// Metadata runs the structuring call.
	Metadata MetadataExtractor

	// Workers bounds the pool. Zero means 2x the available parallelism.
	Workers int

	// Retries is the number of additional structuring attempts for a
	// failed call. Zero means a failure immediately becomes an error row.
	Retries int

	// Progress, when non-nil, receives the fraction completed after each
	// unit finishes. The observed sequence is monotone and ends at 1.0.
	Progress func(fraction float64)
}

// Run processes every document and returns one row per input, in
// completion order. It returns only once all units have finished; an
// individual document's failure surfaces as an error row, never as an
// early return.
func (c *Coordinator) Run(ctx context.Context, docs []types.Document) []types.ResultRow {
	total := len(docs)
	if total == 0 {
		return nil
	}

	workers := c.Workers
	if workers <= 0 {
		workers = 2 * runtime.GOMAXPROCS(0)
	}
	if workers > total {
		workers = total
	}

	rows := make([]types.ResultRow, 0, total)
	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(workers)

	for _, doc := range docs {
		g.Go(func() error {
			row := c.processOne(ctx, doc)

			mu.Lock()
			rows = append(rows, row)
			done++
			fraction := float64(done) / float64(total)
			if c.Progress != nil {
				// Reported under the lock so observers see a monotone
				// sequence even when many units finish at once.
				c.Progress(fraction)
			}
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return rows
}

// processOne runs text extraction then structuring for a single document.
// Neither stage returns errors under normal operation; the recover guards
// against a programming defect in either so the rest of the batch survives
// with a best-effort error row for this document.
func (c *Coordinator) processOne(ctx context.Context, doc types.Document) (row types.ResultRow) {
	row.Filename = doc.Filename
	defer func() {
		if r := recover(); r != nil {
			row.MetadataRecord = types.ErrorRecord(fmt.Sprintf("internal error processing %s: %v", doc.Filename, r))
		}
	}()

	text, reason := c.Text.Extract(doc.Data)
	if reason != "" {
		// The failure reason rides in the text field; the model sees it
		// and typically emits null fields.
		text = reason
	}

	row.MetadataRecord = c.extractWithRetry(ctx, text)
	return row
}

// extractWithRetry runs the structuring call, retrying failed records with
// exponential backoff when the coordinator is configured to. The
// structuring component itself never retries.
func (c *Coordinator) extractWithRetry(ctx context.Context, text string) types.MetadataRecord {
	record := c.Metadata.Extract(ctx, text)

	for attempt := 1; attempt <= c.Retries && record.Failed(); attempt++ {
		backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
		select {
		case <-ctx.Done():
			return record
		case <-time.After(backoff):
		}
		record = c.Metadata.Extract(ctx, text)
	}
	return record
}
