package monitor

import (
	"sort"
	"time"
)

// Summary is the session-level rollup the pipeline report embeds.
type Summary struct {
	Sections  int `json:"sections" yaml:"sections"`
	Successes int `json:"successes" yaml:"successes"`
	Failures  int `json:"failures" yaml:"failures"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Cancelled int `json:"cancelled" yaml:"cancelled"`

	Calls int `json:"calls" yaml:"calls"`

	PromptTokens     int     `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens" yaml:"total_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd" yaml:"total_cost_usd"`

	TotalTime      time.Duration `json:"total_time" yaml:"total_time"`
	AvgTimeSeconds float64       `json:"avg_time_seconds" yaml:"avg_time_seconds"`
	SuccessRate    float64       `json:"success_rate" yaml:"success_rate"`
}

// BackendStats is the per-backend slice of the detailed view.
type BackendStats struct {
	Model     string `json:"model" yaml:"model"`
	Calls     int    `json:"calls" yaml:"calls"`
	Successes int    `json:"successes" yaml:"successes"`
	Failures  int    `json:"failures" yaml:"failures"`

	PromptTokens     int     `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens" yaml:"total_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd" yaml:"total_cost_usd"`

	// Latency stats in seconds.
	LatencyP50 float64 `json:"latency_p50" yaml:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95" yaml:"latency_p95"`
	LatencyP99 float64 `json:"latency_p99" yaml:"latency_p99"`
	LatencyAvg float64 `json:"latency_avg" yaml:"latency_avg"`
	LatencyMin float64 `json:"latency_min" yaml:"latency_min"`
	LatencyMax float64 `json:"latency_max" yaml:"latency_max"`
}

// Detailed is the full metrics view: the summary plus per-backend
// breakdowns.
type Detailed struct {
	Summary  `yaml:",inline"`
	Backends map[string]BackendStats `json:"backends" yaml:"backends"`
}

// Summary returns the session rollup so far.
func (m *Monitor) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *Monitor) summaryLocked() Summary {
	s := Summary{
		Sections:         m.sections,
		Successes:        m.outcomes[OutcomeSuccess],
		Failures:         m.outcomes[OutcomeFailed],
		Skipped:          m.outcomes[OutcomeSkipped],
		Cancelled:        m.outcomes[OutcomeCancelled],
		Calls:            m.calls,
		PromptTokens:     m.usage.PromptTokens,
		CompletionTokens: m.usage.CompletionTokens,
		TotalTokens:      m.usage.TotalTokens,
		TotalCostUSD:     m.usage.CostUSD,
		TotalTime:        m.elapsed,
	}
	if m.sections > 0 {
		s.AvgTimeSeconds = m.elapsed.Seconds() / float64(m.sections)
	}
	// Skipped sections carry no signal about model quality, so the rate is
	// over attempted sections only.
	attempted := s.Successes + s.Failures + s.Cancelled
	if attempted > 0 {
		s.SuccessRate = float64(s.Successes) / float64(attempted)
	}
	return s
}

// Detailed returns the summary plus per-backend breakdowns with latency
// percentiles.
func (m *Monitor) Detailed() Detailed {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Detailed{
		Summary:  m.summaryLocked(),
		Backends: make(map[string]BackendStats, len(m.byBackend)),
	}
	for name, st := range m.byBackend {
		b := BackendStats{
			Model:            st.model,
			Calls:            st.calls,
			Successes:        st.successes,
			Failures:         st.failures,
			PromptTokens:     st.usage.PromptTokens,
			CompletionTokens: st.usage.CompletionTokens,
			TotalTokens:      st.usage.TotalTokens,
			TotalCostUSD:     st.usage.CostUSD,
		}
		if samples := st.latencies.values(); len(samples) > 0 {
			sort.Float64s(samples)
			b.LatencyMin = samples[0]
			b.LatencyMax = samples[len(samples)-1]
			var sum float64
			for _, v := range samples {
				sum += v
			}
			b.LatencyAvg = sum / float64(len(samples))
			b.LatencyP50 = percentile(samples, 50)
			b.LatencyP95 = percentile(samples, 95)
			b.LatencyP99 = percentile(samples, 99)
		}
		d.Backends[name] = b
	}
	return d
}

// percentile calculates the p-th percentile from a sorted slice with
// linear interpolation between neighbors.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
