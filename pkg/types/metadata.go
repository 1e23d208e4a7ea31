// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records exchanged between the pipeline stages
// and the configuration structs that drive them.
package types

// Document is one uploaded research paper: a display filename and the raw
// PDF bytes. Filenames are labels, not keys; two documents may share one.
type Document struct {
	// Filename is the name the document was uploaded under.
	Filename string `json:"filename" yaml:"filename"`

	// Data is the raw PDF payload. It is read once and never mutated.
	Data []byte `json:"-" yaml:"-"`
}

// MetadataFields lists the metadata column names in their canonical order.
// The result table lays columns out as filename, these fields, error, and
// then any residual keys the model returned.
var MetadataFields = []string{
	"title",
	"authors",
	"publication_year",
	"journal_or_conference",
	"research_objective",
	"methodology",
	"key_findings",
	"limitations",
}

// MetadataRecord is the fixed-schema structured summary of one paper. Every
// field is optional; a nil pointer means the model returned null or the
// field never arrived. When Error is set the record is a failure row and
// all domain fields are expected to be nil.
type MetadataRecord struct {
	Title               *string `json:"title" yaml:"title"`
	Authors             *string `json:"authors" yaml:"authors"`
	PublicationYear     *string `json:"publication_year" yaml:"publication_year"`
	JournalOrConference *string `json:"journal_or_conference" yaml:"journal_or_conference"`
	ResearchObjective   *string `json:"research_objective" yaml:"research_objective"`
	Methodology         *string `json:"methodology" yaml:"methodology"`
	KeyFindings         *string `json:"key_findings" yaml:"key_findings"`
	Limitations         *string `json:"limitations" yaml:"limitations"`

	// Error carries the failure message for rows whose structuring call
	// (or an unexpected defect upstream) failed.
	Error *string `json:"error,omitempty" yaml:"error,omitempty"`

	// Extra holds unexpected keys the model emitted alongside the schema.
	// They are kept out of the named fields and appended as trailing table
	// columns.
	Extra map[string]string `json:"-" yaml:"-"`
}

// ErrorRecord builds a failure record with only the error field populated.
func ErrorRecord(msg string) MetadataRecord {
	return MetadataRecord{Error: &msg}
}

// Failed reports whether the record is a failure row.
func (r MetadataRecord) Failed() bool {
	return r.Error != nil
}

// Field returns the value of a named metadata column and whether that name
// is part of the record (fixed field, error, or extra key). A known field
// holding null yields ("", true).
func (r MetadataRecord) Field(name string) (string, bool) {
	var p *string
	switch name {
	case "title":
		p = r.Title
	case "authors":
		p = r.Authors
	case "publication_year":
		p = r.PublicationYear
	case "journal_or_conference":
		p = r.JournalOrConference
	case "research_objective":
		p = r.ResearchObjective
	case "methodology":
		p = r.Methodology
	case "key_findings":
		p = r.KeyFindings
	case "limitations":
		p = r.Limitations
	case "error":
		p = r.Error
	default:
		v, ok := r.Extra[name]
		return v, ok
	}
	if p == nil {
		return "", true
	}
	return *p, true
}

// SetField assigns a named fixed field. It reports false for names outside
// the schema so callers can route unknown keys to Extra instead.
func (r *MetadataRecord) SetField(name string, value *string) bool {
	switch name {
	case "title":
		r.Title = value
	case "authors":
		r.Authors = value
	case "publication_year":
		r.PublicationYear = value
	case "journal_or_conference":
		r.JournalOrConference = value
	case "research_objective":
		r.ResearchObjective = value
	case "methodology":
		r.Methodology = value
	case "key_findings":
		r.KeyFindings = value
	case "limitations":
		r.Limitations = value
	default:
		return false
	}
	return true
}

// ResultRow pairs a document's filename with its extraction outcome.
// Exactly one ResultRow exists per input document.
type ResultRow struct {
	Filename string `json:"filename" yaml:"filename"`
	MetadataRecord
}
