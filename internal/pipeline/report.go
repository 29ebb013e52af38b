package pipeline

import (
	"time"

	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/store"
)

// RunStatus is the aggregate outcome of one document run.
type RunStatus string

const (
	// StatusCompleted means every targeted section succeeded.
	StatusCompleted RunStatus = "completed"

	// StatusPartial means at least one targeted section succeeded and at
	// least one did not.
	StatusPartial RunStatus = "partial"

	// StatusFailed means no targeted section succeeded, or a stage error
	// aborted the run before extraction.
	StatusFailed RunStatus = "failed"
)

// SectionResult is the per-section row of a run report.
type SectionResult struct {
	ItemNo     int          `json:"item_no" yaml:"item_no"`
	ItemName   string       `json:"item_name" yaml:"item_name"`
	StartPage  int          `json:"start_page" yaml:"start_page"`
	EndPage    int          `json:"end_page" yaml:"end_page"`
	Status     store.Status `json:"status" yaml:"status"`
	Backend    string       `json:"backend,omitempty" yaml:"backend,omitempty"`
	Model      string       `json:"model,omitempty" yaml:"model,omitempty"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	Calls      int          `json:"calls,omitempty" yaml:"calls,omitempty"`
	TokensUsed int          `json:"tokens_used,omitempty" yaml:"tokens_used,omitempty"`
	CostUSD    float64      `json:"cost_usd,omitempty" yaml:"cost_usd,omitempty"`
	Seconds    float64      `json:"seconds,omitempty" yaml:"seconds,omitempty"`

	// Reused marks a section whose stored result satisfied the run without
	// a new extraction.
	Reused bool `json:"reused,omitempty" yaml:"reused,omitempty"`

	// Cancelled marks a section that ended because the run was aborted,
	// not because its extraction failed.
	Cancelled bool `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// Report is the aggregate result of one document run.
type Report struct {
	RunID         string    `json:"run_id" yaml:"run_id"`
	FDDID         string    `json:"fdd_id" yaml:"fdd_id"`
	FranchiseName string    `json:"franchise_name,omitempty" yaml:"franchise_name,omitempty"`
	Status        RunStatus `json:"status" yaml:"status"`
	TotalPages    int       `json:"total_pages" yaml:"total_pages"`

	// Sections holds one row per targeted item, ordered by item number.
	Sections []SectionResult `json:"sections" yaml:"sections"`

	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Cancelled int `json:"cancelled" yaml:"cancelled"`

	Metrics monitor.Summary `json:"metrics" yaml:"metrics"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// fold computes the aggregate status from the per-section counts.
func (r *Report) fold(targeted int) {
	switch {
	case targeted > 0 && r.Succeeded == targeted:
		r.Status = StatusCompleted
	case r.Succeeded > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
}
