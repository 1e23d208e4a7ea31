// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webapi exposes the batch pipeline over HTTP: multipart upload in,
// progress polling, and the finished table as JSON or a CSV download.
// Batches live in an in-memory registry for the life of the process; nothing
// is persisted.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/pdiddy/paper-metadata/internal/batch"
	"github.com/pdiddy/paper-metadata/internal/pdftext"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Config holds the server's processing settings.
type Config struct {
	// Workers bounds the per-batch worker pool. Zero means the
	// coordinator default.
	Workers int

	// Retries is the coordinator-level retry count for failed
	// structuring calls.
	Retries int

	// MaxFiles caps the number of documents per upload. Zero means
	// types.DefaultMaxFiles.
	MaxFiles int

	// MaxUploadBytes caps the total multipart request size. Zero means
	// 256 MiB.
	MaxUploadBytes int64
}

// Server routes batch requests onto the pipeline.
type Server struct {
	text pdftext.Extractor
	meta batch.MetadataExtractor
	cfg  Config

	mu   sync.Mutex
	jobs map[string]*job
}

// job tracks one submitted batch.
type job struct {
	id        string
	documents int
	created   time.Time

	mu       sync.Mutex
	fraction float64
	done     bool
	table    *batch.Table
}

func (j *job) setFraction(f float64) {
	j.mu.Lock()
	j.fraction = f
	j.mu.Unlock()
}

func (j *job) finish(t *batch.Table) {
	j.mu.Lock()
	j.table = t
	j.done = true
	j.mu.Unlock()
}

func (j *job) snapshot() (fraction float64, done bool, table *batch.Table) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fraction, j.done, j.table
}

// NewServer builds a server over the given extractors.
func NewServer(text pdftext.Extractor, meta batch.MetadataExtractor, cfg Config) *Server {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = types.DefaultMaxFiles
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 256 << 20
	}
	return &Server{
		text: text,
		meta: meta,
		cfg:  cfg,
		jobs: make(map[string]*job),
	}
}

// Router builds the chi handler for the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api/batches", func(api chi.Router) {
		api.Post("/", s.createBatch)
		api.Get("/{id}", s.getBatch)
		api.Get("/{id}/table", s.getTable)
		api.Get("/{id}/csv", s.getCSV)
	})

	return r
}

// createBatch accepts a multipart upload (field "files"), registers a job,
// and starts processing in the background. Oversized batches are rejected
// before any processing begins.
func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("parsing upload: %v", err), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}
	if len(headers) > s.cfg.MaxFiles {
		http.Error(w, fmt.Sprintf("at most %d files per batch", s.cfg.MaxFiles), http.StatusRequestEntityTooLarge)
		return
	}

	docs := make([]types.Document, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("reading %s: %v", h.Filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("reading %s: %v", h.Filename, err), http.StatusBadRequest)
			return
		}
		docs = append(docs, types.Document{Filename: h.Filename, Data: data})
	}

	j := &job{
		id:        uuid.NewString(),
		documents: len(docs),
		created:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	go s.run(j, docs)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":        j.id,
		"documents": j.documents,
	})
}

// run processes one batch in the background. The request context is not
// used: an upload's processing outlives its HTTP exchange.
func (s *Server) run(j *job, docs []types.Document) {
	coord := &batch.Coordinator{
		Text:     s.text,
		Metadata: s.meta,
		Workers:  s.cfg.Workers,
		Retries:  s.cfg.Retries,
		Progress: j.setFraction,
	}
	rows := coord.Run(context.Background(), docs)
	j.finish(batch.BuildTable(rows))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *job {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	j := s.jobs[id]
	s.mu.Unlock()
	if j == nil {
		http.Error(w, "batch not found", http.StatusNotFound)
		return nil
	}
	return j
}

// getBatch reports progress and completion state.
func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	j := s.lookup(w, r)
	if j == nil {
		return
	}

	fraction, done, _ := j.snapshot()
	state := "running"
	if done {
		state = "done"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        j.id,
		"state":     state,
		"progress":  fraction,
		"documents": j.documents,
		"created":   j.created,
	})
}

// getTable returns the finished table as JSON.
func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	j := s.lookup(w, r)
	if j == nil {
		return
	}

	_, done, table := j.snapshot()
	if !done {
		http.Error(w, "batch still running", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// getCSV streams the finished table as the downloadable CSV artifact.
func (s *Server) getCSV(w http.ResponseWriter, r *http.Request) {
	j := s.lookup(w, r)
	if j == nil {
		return
	}

	_, done, table := j.snapshot()
	if !done {
		http.Error(w, "batch still running", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", types.DefaultOutputName))
	if err := table.WriteCSV(w); err != nil {
		// Headers are already out; the client sees a truncated body.
		fmt.Fprintf(os.Stderr, "warning: streaming CSV for batch %s: %v\n", j.id, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
