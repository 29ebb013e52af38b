// Package monitor tracks extraction outcomes, token usage, cost, and
// latency for one process. Section-level spans drive the session summary;
// per-call records drive the per-backend breakdowns and latency
// percentiles.
package monitor

import (
	"log/slog"
	"sync"
	"time"
)

// Outcome is the terminal state of one section extraction.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeCancelled Outcome = "cancelled"
)

// Usage carries the token and cost accounting for a call or a whole
// section attempt chain.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// Add accumulates another usage record.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.CostUSD += other.CostUSD
}

// maxLatencySamples bounds the per-process latency sample buffers. Beyond
// the cap new samples overwrite the oldest.
const maxLatencySamples = 4096

// Monitor aggregates extraction metrics behind a mutex so section workers
// can report concurrently.
type Monitor struct {
	mu      sync.Mutex
	logger  *slog.Logger
	started time.Time

	sections int
	outcomes map[Outcome]int

	usage   Usage
	elapsed time.Duration

	calls     int
	byBackend map[string]*backendStats
}

type backendStats struct {
	model     string
	calls     int
	successes int
	failures  int
	usage     Usage
	latencies *sampleRing
}

// New creates an empty monitor.
func New(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger:    logger,
		started:   time.Now(),
		outcomes:  make(map[Outcome]int),
		byBackend: make(map[string]*backendStats),
	}
}

// Span measures one section extraction from Begin to End.
type Span struct {
	m      *Monitor
	FDDID  string
	ItemNo int
	start  time.Time

	once sync.Once
}

// Begin opens a measurement scope for one section.
func (m *Monitor) Begin(fddID string, itemNo int) *Span {
	return &Span{m: m, FDDID: fddID, ItemNo: itemNo, start: time.Now()}
}

// End closes the span with its outcome, the model that produced the final
// result (or was last tried), and the usage summed over every attempt.
// Calling End more than once is a no-op after the first.
func (s *Span) End(outcome Outcome, model string, usage Usage) {
	s.once.Do(func() {
		elapsed := time.Since(s.start)

		s.m.mu.Lock()
		s.m.sections++
		s.m.outcomes[outcome]++
		s.m.usage.Add(usage)
		s.m.elapsed += elapsed
		s.m.mu.Unlock()

		s.m.logger.Debug("section measured",
			"fdd_id", s.FDDID,
			"item", s.ItemNo,
			"outcome", string(outcome),
			"model", model,
			"tokens", usage.TotalTokens,
			"cost_usd", usage.CostUSD,
			"elapsed", elapsed,
		)
	})
}

// Elapsed returns how long the span has been open.
func (s *Span) Elapsed() time.Duration {
	return time.Since(s.start)
}

// RecordCall logs one backend call for the per-backend breakdown. The
// engine reports every attempt here, including ones a later fallback
// superseded, so backend stats reflect real spend.
func (m *Monitor) RecordCall(backend, model string, usage Usage, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	st, ok := m.byBackend[backend]
	if !ok {
		st = &backendStats{latencies: newSampleRing(maxLatencySamples)}
		m.byBackend[backend] = st
	}
	st.model = model
	st.calls++
	if success {
		st.successes++
	} else {
		st.failures++
	}
	st.usage.Add(usage)
	st.latencies.add(latency.Seconds())
}

// EstimateTokens approximates a token count from a character count when
// the backend reports no usage: one token per four characters, rounded up.
func EstimateTokens(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return (charCount + 3) / 4
}

// sampleRing keeps the most recent n float64 samples.
type sampleRing struct {
	buf  []float64
	next int
	full bool
}

func newSampleRing(n int) *sampleRing {
	return &sampleRing{buf: make([]float64, 0, n)}
}

func (r *sampleRing) add(v float64) {
	if len(r.buf) < cap(r.buf) {
		r.buf = append(r.buf, v)
		return
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % cap(r.buf)
	r.full = true
}

// values returns the samples in insertion-agnostic order.
func (r *sampleRing) values() []float64 {
	out := make([]float64, len(r.buf))
	copy(out, r.buf)
	return out
}
