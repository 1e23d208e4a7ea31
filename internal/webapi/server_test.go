// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paper-metadata/internal/batch"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// passthroughText returns the payload bytes as text.
type passthroughText struct{}

func (passthroughText) Extract(data []byte) (string, string) {
	return string(data), ""
}

// titleMeta fills the title from the extracted text.
type titleMeta struct{}

func (titleMeta) Extract(_ context.Context, text string) types.MetadataRecord {
	record := types.MetadataRecord{}
	record.SetField("title", &text)
	return record
}

// gatedMeta blocks every extraction until the gate channel is closed, so
// tests can observe a batch mid-flight.
type gatedMeta struct {
	gate chan struct{}
}

func (g *gatedMeta) Extract(_ context.Context, text string) types.MetadataRecord {
	<-g.gate
	record := types.MetadataRecord{}
	record.SetField("title", &text)
	return record
}

// uploadBody builds a multipart body with one part per file under the
// "files" field.
func uploadBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postBatch(t *testing.T, ts *httptest.Server, files map[string]string) *http.Response {
	t.Helper()
	body, contentType := uploadBody(t, files)
	resp, err := http.Post(ts.URL+"/api/batches", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// waitDone polls the status endpoint until the batch reports done.
func waitDone(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/batches/" + id)
		if err != nil {
			t.Fatal(err)
		}
		var status struct {
			State string `json:"state"`
		}
		decodeJSON(t, resp, &status)
		if status.State == "done" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("batch %s never finished", id)
}

func TestCreateBatchAndFetchTable(t *testing.T) {
	srv := NewServer(passthroughText{}, titleMeta{}, Config{Workers: 2})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postBatch(t, ts, map[string]string{
		"alpha.pdf": "first paper",
		"beta.pdf":  "second paper",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	var created struct {
		ID        string `json:"id"`
		Documents int    `json:"documents"`
	}
	decodeJSON(t, resp, &created)
	if created.ID == "" {
		t.Fatal("response carries no batch id")
	}
	if created.Documents != 2 {
		t.Errorf("documents = %d, want 2", created.Documents)
	}

	waitDone(t, ts, created.ID)

	tableResp, err := http.Get(ts.URL + "/api/batches/" + created.ID + "/table")
	if err != nil {
		t.Fatal(err)
	}
	if tableResp.StatusCode != http.StatusOK {
		t.Fatalf("GET table status = %d, want 200", tableResp.StatusCode)
	}
	var table batch.Table
	decodeJSON(t, tableResp, &table)

	if len(table.Cells) != 2 {
		t.Fatalf("got %d table rows, want 2", len(table.Cells))
	}
	if table.Columns[0] != "filename" {
		t.Errorf("first column = %q, want filename", table.Columns[0])
	}
}

func TestCreateBatchRejectsEmptyUpload(t *testing.T) {
	srv := NewServer(passthroughText{}, titleMeta{}, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postBatch(t, ts, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCreateBatchRejectsOversizedBatch(t *testing.T) {
	srv := NewServer(passthroughText{}, titleMeta{}, Config{MaxFiles: 2})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	files := map[string]string{}
	for i := 0; i < 3; i++ {
		files[fmt.Sprintf("paper-%d.pdf", i)] = "content"
	}
	resp := postBatch(t, ts, files)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "at most 2 files") {
		t.Errorf("body = %q, want file cap message", body)
	}
}

func TestUnknownBatchIs404(t *testing.T) {
	srv := NewServer(passthroughText{}, titleMeta{}, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"", "/table", "/csv"} {
		resp, err := http.Get(ts.URL + "/api/batches/no-such-id" + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestResultsUnavailableWhileRunning(t *testing.T) {
	meta := &gatedMeta{gate: make(chan struct{})}
	srv := NewServer(passthroughText{}, meta, Config{Workers: 1})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postBatch(t, ts, map[string]string{"slow.pdf": "takes a while"})
	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)

	for _, path := range []string{"/table", "/csv"} {
		r, err := http.Get(ts.URL + "/api/batches/" + created.ID + path)
		if err != nil {
			t.Fatal(err)
		}
		r.Body.Close()
		if r.StatusCode != http.StatusConflict {
			t.Errorf("GET %s status = %d, want 409 while running", path, r.StatusCode)
		}
	}

	close(meta.gate)
	waitDone(t, ts, created.ID)

	r, err := http.Get(ts.URL + "/api/batches/" + created.ID + "/table")
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Errorf("GET table after completion status = %d, want 200", r.StatusCode)
	}
}

func TestGetCSVMatchesTable(t *testing.T) {
	srv := NewServer(passthroughText{}, titleMeta{}, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postBatch(t, ts, map[string]string{"one.pdf": "lone paper"})
	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	waitDone(t, ts, created.ID)

	csvResp, err := http.Get(ts.URL + "/api/batches/" + created.ID + "/csv")
	if err != nil {
		t.Fatal(err)
	}
	defer csvResp.Body.Close()

	if got := csvResp.Header.Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := csvResp.Header.Get("Content-Disposition"); !strings.Contains(got, types.DefaultOutputName) {
		t.Errorf("Content-Disposition = %q, want attachment named %s", got, types.DefaultOutputName)
	}

	body, err := io.ReadAll(csvResp.Body)
	if err != nil {
		t.Fatal(err)
	}

	tableResp, err := http.Get(ts.URL + "/api/batches/" + created.ID + "/table")
	if err != nil {
		t.Fatal(err)
	}
	var table batch.Table
	decodeJSON(t, tableResp, &table)

	var want bytes.Buffer
	if err := table.WriteCSV(&want); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(body, want.Bytes()) {
		t.Errorf("CSV download diverges from the table serialization:\ngot  %q\nwant %q", body, want.Bytes())
	}
}
