package monitor

import (
	"log/slog"
	"sync"
	"testing"
	"time"
)

func newTestMonitor() *Monitor {
	return New(slog.New(slog.DiscardHandler))
}

func TestSpanLifecycle(t *testing.T) {
	m := newTestMonitor()

	span := m.Begin("fdd-1", 5)
	time.Sleep(2 * time.Millisecond)
	span.End(OutcomeSuccess, "gemma3:12b", Usage{
		PromptTokens:     800,
		CompletionTokens: 50,
		TotalTokens:      850,
		CostUSD:          0.002,
	})

	s := m.Summary()
	if s.Sections != 1 || s.Successes != 1 {
		t.Fatalf("Summary() = %+v, want 1 section, 1 success", s)
	}
	if s.TotalTokens != 850 || s.PromptTokens != 800 || s.CompletionTokens != 50 {
		t.Errorf("token totals = %d/%d/%d, want 800/50/850", s.PromptTokens, s.CompletionTokens, s.TotalTokens)
	}
	if s.TotalCostUSD != 0.002 {
		t.Errorf("TotalCostUSD = %v, want 0.002", s.TotalCostUSD)
	}
	if s.TotalTime <= 0 {
		t.Errorf("TotalTime = %v, want > 0", s.TotalTime)
	}
	if s.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", s.SuccessRate)
	}
}

func TestSummaryOutcomeCounts(t *testing.T) {
	m := newTestMonitor()

	m.Begin("fdd-1", 5).End(OutcomeSuccess, "m", Usage{})
	m.Begin("fdd-1", 6).End(OutcomeSuccess, "m", Usage{})
	m.Begin("fdd-1", 7).End(OutcomeFailed, "m", Usage{})
	m.Begin("fdd-1", 19).End(OutcomeCancelled, "m", Usage{})
	m.Begin("fdd-1", 20).End(OutcomeSkipped, "", Usage{})

	s := m.Summary()
	if s.Sections != 5 {
		t.Fatalf("Sections = %d, want 5", s.Sections)
	}
	if s.Successes != 2 || s.Failures != 1 || s.Cancelled != 1 || s.Skipped != 1 {
		t.Fatalf("outcome counts = %d/%d/%d/%d, want 2/1/1/1",
			s.Successes, s.Failures, s.Cancelled, s.Skipped)
	}

	// Skipped sections are excluded from the rate: 2 of 4 attempted.
	if s.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", s.SuccessRate)
	}
}

func TestSpanEndIdempotent(t *testing.T) {
	m := newTestMonitor()

	span := m.Begin("fdd-1", 5)
	span.End(OutcomeSuccess, "m", Usage{TotalTokens: 100})
	span.End(OutcomeFailed, "m", Usage{TotalTokens: 100})

	s := m.Summary()
	if s.Sections != 1 || s.Successes != 1 || s.Failures != 0 {
		t.Fatalf("double End counted twice: %+v", s)
	}
	if s.TotalTokens != 100 {
		t.Fatalf("TotalTokens = %d, want 100", s.TotalTokens)
	}
}

func TestEmptySummary(t *testing.T) {
	s := newTestMonitor().Summary()
	if s.Sections != 0 || s.SuccessRate != 0 || s.AvgTimeSeconds != 0 {
		t.Fatalf("empty Summary() = %+v, want zeroes", s)
	}
}

func TestRecordCallBreakdown(t *testing.T) {
	m := newTestMonitor()

	m.RecordCall("local", "gemma3:12b", Usage{TotalTokens: 500, CostUSD: 0}, 200*time.Millisecond, true)
	m.RecordCall("local", "gemma3:12b", Usage{TotalTokens: 400, CostUSD: 0}, 400*time.Millisecond, false)
	m.RecordCall("openrouter", "openai/gpt-oss-120b", Usage{TotalTokens: 900, CostUSD: 0.01}, time.Second, true)

	d := m.Detailed()
	if d.Calls != 3 {
		t.Fatalf("Calls = %d, want 3", d.Calls)
	}

	local, ok := d.Backends["local"]
	if !ok {
		t.Fatal("missing local backend stats")
	}
	if local.Calls != 2 || local.Successes != 1 || local.Failures != 1 {
		t.Errorf("local stats = %+v, want 2 calls, 1/1", local)
	}
	if local.TotalTokens != 900 {
		t.Errorf("local TotalTokens = %d, want 900", local.TotalTokens)
	}
	if local.Model != "gemma3:12b" {
		t.Errorf("local Model = %q", local.Model)
	}
	if local.LatencyMin != 0.2 || local.LatencyMax != 0.4 {
		t.Errorf("local latency min/max = %v/%v, want 0.2/0.4", local.LatencyMin, local.LatencyMax)
	}

	or, ok := d.Backends["openrouter"]
	if !ok {
		t.Fatal("missing openrouter backend stats")
	}
	if or.TotalCostUSD != 0.01 {
		t.Errorf("openrouter TotalCostUSD = %v, want 0.01", or.TotalCostUSD)
	}
	if or.LatencyP50 != 1.0 {
		t.Errorf("openrouter LatencyP50 = %v, want 1.0", or.LatencyP50)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		chars int
		want  int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{4, 1},
		{5, 2},
		{8, 2},
		{9, 3},
		{4000, 1000},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.chars); got != tc.want {
			t.Errorf("EstimateTokens(%d) = %d, want %d", tc.chars, got, tc.want)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	if got := percentile(sorted, 50); got != 5.5 {
		t.Errorf("percentile(50) = %v, want 5.5", got)
	}
	if got := percentile(sorted, 100); got != 10 {
		t.Errorf("percentile(100) = %v, want 10", got)
	}
	if got := percentile(sorted, 0); got != 1 {
		t.Errorf("percentile(0) = %v, want 1", got)
	}
	if got := percentile([]float64{7}, 95); got != 7 {
		t.Errorf("percentile single = %v, want 7", got)
	}
	if got := percentile(nil, 95); got != 0 {
		t.Errorf("percentile empty = %v, want 0", got)
	}
}

func TestSampleRingOverwrites(t *testing.T) {
	r := newSampleRing(3)
	for i := 1; i <= 5; i++ {
		r.add(float64(i))
	}
	vals := r.values()
	if len(vals) != 3 {
		t.Fatalf("len(values) = %d, want 3", len(vals))
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	// 4 and 5 overwrote 1 and 2: remaining are 3, 4, 5.
	if sum != 12 {
		t.Fatalf("values = %v, want {3 4 5} in some order", vals)
	}
}

func TestConcurrentRecording(t *testing.T) {
	m := newTestMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			span := m.Begin("fdd-1", n%25)
			m.RecordCall("local", "gemma3:12b", Usage{TotalTokens: 10}, time.Millisecond, true)
			span.End(OutcomeSuccess, "gemma3:12b", Usage{TotalTokens: 10})
		}(i)
	}
	wg.Wait()

	s := m.Summary()
	if s.Sections != 50 || s.Successes != 50 || s.Calls != 50 {
		t.Fatalf("Summary() = %+v, want 50/50/50", s)
	}
	if s.TotalTokens != 500 {
		t.Fatalf("TotalTokens = %d, want 500", s.TotalTokens)
	}
}
