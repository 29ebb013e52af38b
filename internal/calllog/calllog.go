// Package calllog records every model API call to a per-filing JSONL file
// for traceability. Recording is fire-and-forget: a bookkeeping failure is
// logged and never fails the extraction that triggered it.
package calllog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfdd/dossier/internal/home"
)

// Call is one recorded model API call.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	FDDID  string `json:"fdd_id"`
	ItemNo int    `json:"item_no"`

	// Template is the prompt template name the call rendered.
	Template string `json:"template,omitempty"`

	Backend     string   `json:"backend"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	LatencyMs        int     `json:"latency_ms"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`

	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Recorder appends calls to per-filing JSONL logs.
type Recorder struct {
	home   *home.Dir
	logger *slog.Logger

	// One writer at a time; section workers share filing logs.
	mu sync.Mutex
}

// NewRecorder creates a recorder over the home directory.
func NewRecorder(h *home.Dir, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{home: h, logger: logger}
}

// Append records one call. Missing ID and Timestamp are filled in. Errors
// are logged, not returned.
func (r *Recorder) Append(call *Call) {
	if r == nil || r.home == nil || call == nil {
		return
	}
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(call)
	if err != nil {
		r.logger.Warn("failed to serialize call record", "fdd_id", call.FDDID, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.home.EnsureFilingDir(call.FDDID); err != nil {
		r.logger.Warn("failed to create filing directory for call log", "fdd_id", call.FDDID, "error", err)
		return
	}

	f, err := os.OpenFile(r.home.CallLogPath(call.FDDID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Warn("failed to open call log", "fdd_id", call.FDDID, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		r.logger.Warn("failed to append call record", "fdd_id", call.FDDID, "error", err)
	}
}

// Read returns all recorded calls for a filing in append order. A missing
// log means no calls yet, not an error. Corrupt lines are skipped with a
// warning so one bad write cannot hide the rest of the log.
func (r *Recorder) Read(fddID string) ([]Call, error) {
	f, err := os.Open(r.home.CallLogPath(fddID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open call log: %w", err)
	}
	defer f.Close()

	var calls []Call
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var c Call
		if err := json.Unmarshal(raw, &c); err != nil {
			r.logger.Warn("skipping corrupt call record", "fdd_id", fddID, "line", line, "error", err)
			continue
		}
		calls = append(calls, c)
	}
	if err := scanner.Err(); err != nil {
		return calls, fmt.Errorf("failed to read call log: %w", err)
	}
	return calls, nil
}
