package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/openfdd/dossier/internal/segment"
)

// ErrNotFound reports a record that does not exist.
var ErrNotFound = errors.New("section not found")

// Status is the extraction state of one section:
// pending -> processing -> (success | failed | skipped).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Terminal reports whether a status ends the section's state machine.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// Artifact is one segmented section: the page range it covers, the split
// PDF, and the validation report. PDF bytes are handed to the store on
// upsert; file-backed stores persist them beside the record and expose the
// location through PDFPath.
type Artifact struct {
	FDDID       string         `json:"fdd_id"`
	ItemNo      int            `json:"item_no"`
	ItemName    string         `json:"item_name"`
	StartPage   int            `json:"start_page"`
	EndPage     int            `json:"end_page"`
	Confidence  float64        `json:"confidence"`
	Method      string         `json:"method"`
	PDF         []byte         `json:"-"`
	PDFPath     string         `json:"pdf_path,omitempty"`
	Validation  segment.Report `json:"validation"`
	NeedsReview bool           `json:"needs_review"`
}

// Result is one successful extraction payload with its call accounting.
type Result struct {
	Model            string          `json:"model"`
	Backend          string          `json:"backend"`
	Data             json.RawMessage `json:"data"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	CostUSD          float64         `json:"cost_usd"`
	TotalSeconds     float64         `json:"total_seconds"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Record is the stored state of one section.
type Record struct {
	Artifact
	ExtractionStatus   Status     `json:"extraction_status"`
	ExtractionAttempts int        `json:"extraction_attempts"`
	ExtractionModel    string     `json:"extraction_model,omitempty"`
	LastError          string     `json:"last_error,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ExtractedAt        *time.Time `json:"extracted_at,omitempty"`
	Results            []Result   `json:"results,omitempty"`
}

// StatusUpdate carries the optional fields of a status transition.
type StatusUpdate struct {
	Model       string
	Error       string
	ExtractedAt *time.Time
}

// Store persists section records keyed by (fdd_id, item_no).
// Implementations must be safe for concurrent use and idempotent on
// repeated upserts: re-running a pipeline refreshes artifacts without
// erasing extraction bookkeeping.
type Store interface {
	// UpsertArtifact creates or refreshes the record for the artifact's
	// (fdd_id, item_no). Extraction bookkeeping on an existing record is
	// preserved.
	UpsertArtifact(ctx context.Context, a Artifact) error

	// UpdateStatus moves the section's state machine. A transition to
	// StatusProcessing increments the attempt counter.
	UpdateStatus(ctx context.Context, fddID string, itemNo int, status Status, upd StatusUpdate) error

	// AppendResult adds an extraction payload to the record.
	AppendResult(ctx context.Context, fddID string, itemNo int, res Result) error

	// Get returns the record for (fdd_id, item_no) or ErrNotFound.
	Get(ctx context.Context, fddID string, itemNo int) (*Record, error)

	// GetByFDD returns all records for a filing ordered by item number.
	GetByFDD(ctx context.Context, fddID string) ([]*Record, error)
}

func cloneRecord(r *Record) *Record {
	out := *r
	if r.Results != nil {
		out.Results = make([]Result, len(r.Results))
		copy(out.Results, r.Results)
	}
	if r.ExtractedAt != nil {
		ts := *r.ExtractedAt
		out.ExtractedAt = &ts
	}
	return &out
}

// applyUpdate is the shared status-transition logic.
func applyUpdate(rec *Record, status Status, upd StatusUpdate, now time.Time) {
	rec.ExtractionStatus = status
	if status == StatusProcessing {
		rec.ExtractionAttempts++
	}
	if upd.Model != "" {
		rec.ExtractionModel = upd.Model
	}
	if upd.Error != "" {
		rec.LastError = upd.Error
	} else if status == StatusSuccess {
		rec.LastError = ""
	}
	if upd.ExtractedAt != nil {
		ts := upd.ExtractedAt.UTC()
		rec.ExtractedAt = &ts
	}
	rec.UpdatedAt = now
}
