// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structure turns recovered paper text into a fixed-schema
// MetadataRecord via a remote structuring call. The component never returns
// an error to its caller: network, auth, timeout, and schema failures all
// fold into a record whose only populated field is the error message.
package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Backend abstracts the Generative AI API so tests can supply a mock.
// Implementations send one prompt and return the raw model text.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// extractionPromptTmpl is the prompt sent to the model for each document.
// It embeds the paper text and a machine-checkable description of the
// output schema.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are a metadata extractor. Given the text of a research publication, extract the following fields:

- title: the paper title
- authors: comma-separated author names
- publication_year: the year of publication
- journal_or_conference: the venue name
- research_objective: what the work sets out to do
- methodology: a short summary of the methods used
- key_findings: the main results
- limitations: stated limitations of the work

Respond with a single JSON object whose keys are exactly the field names above. Every value must be a string, or null when the text does not support it. Do not include any text outside the JSON object.

Text:
{{.Text}}
`))

// DefaultTimeout bounds a single structuring call when none is configured.
const DefaultTimeout = 45 * time.Second

// Extractor runs the structuring call for one document's text.
type Extractor struct {
	backend Backend
	timeout time.Duration
}

// NewExtractor builds an extractor over the given backend. A zero timeout
// falls back to DefaultTimeout.
func NewExtractor(backend Backend, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{backend: backend, timeout: timeout}
}

// Extract sends the text to the model and parses the response against the
// fixed schema. The text may be empty or a failure reason passed through
// from text extraction; it is fed to the model as-is. All failures return
// an error record, never an error value.
func (e *Extractor) Extract(ctx context.Context, text string) types.MetadataRecord {
	prompt, err := renderPrompt(text)
	if err != nil {
		return types.ErrorRecord(fmt.Sprintf("metadata extraction failed: rendering prompt: %v", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.backend.Generate(callCtx, prompt)
	if err != nil {
		return types.ErrorRecord(fmt.Sprintf("metadata extraction failed: %v", err))
	}

	record, err := parseRecord(raw)
	if err != nil {
		return types.ErrorRecord(fmt.Sprintf("metadata extraction failed: %v", err))
	}
	return record
}

// renderPrompt executes the extraction prompt template with the given text.
func renderPrompt(text string) (string, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseRecord validates the raw model response against the schema. Known
// fields must be a JSON string or null; anything else is a schema
// violation. Unknown keys are moved to the Extra sidecar rather than being
// merged into the named fields.
func parseRecord(raw string) (types.MetadataRecord, error) {
	var record types.MetadataRecord

	cleaned := stripCodeFence(raw)
	if strings.TrimSpace(cleaned) == "" {
		return record, fmt.Errorf("model returned an empty response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return record, fmt.Errorf("response is not a JSON object: %v", err)
	}

	// Deterministic handling of unknown keys.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := decodeStringOrNull(fields[name])
		if err != nil {
			return types.MetadataRecord{}, fmt.Errorf("field %q: %v", name, err)
		}

		if record.SetField(name, value) {
			continue
		}

		// Unknown key: keep it in the sidecar.
		if record.Extra == nil {
			record.Extra = make(map[string]string)
		}
		if value != nil {
			record.Extra[name] = *value
		} else {
			record.Extra[name] = ""
		}
	}

	return record, nil
}

// decodeStringOrNull enforces the string-or-null value constraint.
func decodeStringOrNull(raw json.RawMessage) (*string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("value %s is neither a string nor null", trimmed)
	}
	return &s, nil
}

// stripCodeFence removes a surrounding Markdown code fence, which some
// models emit even in JSON response mode.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
