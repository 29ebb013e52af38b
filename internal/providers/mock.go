package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// Mock is a Backend for tests. Zero value works; fields tune behavior.
type Mock struct {
	// BackendName lets a test register mocks under real backend names.
	BackendName string
	ModelName   string
	RPS         float64

	// Latency is simulated before each response.
	Latency time.Duration

	// ResponseText is returned on success.
	ResponseText string

	// Respond, when set, picks the success payload per request and takes
	// precedence over ResponseText.
	Respond func(req *Request) string

	// FailFirst makes the first N calls fail with FailKind.
	FailFirst int
	// ShouldFail makes every call fail with FailKind.
	ShouldFail bool
	// FailKind defaults to KindTransient.
	FailKind Kind

	// Unavailable reports the backend as unconfigured.
	Unavailable bool
	// PingErr is returned by Ping.
	PingErr error

	// OnRequest runs at the start of every Extract with the 1-based call
	// number, before latency or failure handling.
	OnRequest func(n int64)

	requestCount atomic.Int64
	inFlight     atomic.Int64

	mu          sync.Mutex
	maxInFlight int64
}

// NewMock creates a mock backend with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		BackendName:  MockName,
		ModelName:    "mock-model",
		RPS:          1000,
		ResponseText: `{"ok":true}`,
	}
}

// Name returns the configured backend name.
func (m *Mock) Name() string {
	if m.BackendName == "" {
		return MockName
	}
	return m.BackendName
}

// Model returns the configured model name.
func (m *Mock) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Available reports the configured availability.
func (m *Mock) Available() bool { return !m.Unavailable }

// Ping returns the configured probe result.
func (m *Mock) Ping(ctx context.Context) error { return m.PingErr }

// RequestsPerSecond returns the configured rate.
func (m *Mock) RequestsPerSecond() float64 {
	if m.RPS == 0 {
		return 1000
	}
	return m.RPS
}

// Calls returns how many Extract calls the mock has served.
func (m *Mock) Calls() int64 { return m.requestCount.Load() }

// MaxInFlight returns the highest number of concurrent Extract calls
// observed, for asserting concurrency limits.
func (m *Mock) MaxInFlight() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Extract serves one scripted extraction call.
func (m *Mock) Extract(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	count := m.requestCount.Add(1)

	cur := m.inFlight.Add(1)
	m.mu.Lock()
	if cur > m.maxInFlight {
		m.maxInFlight = cur
	}
	m.mu.Unlock()
	defer m.inFlight.Add(-1)

	if m.OnRequest != nil {
		m.OnRequest(count)
	}

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.ShouldFail || (m.FailFirst > 0 && count <= int64(m.FailFirst)) {
		kind := m.FailKind
		if kind == "" {
			kind = KindTransient
		}
		status := 0
		switch kind {
		case KindTransient:
			status = 503
		case KindFatal:
			status = 401
		}
		return nil, &Error{
			Kind:    kind,
			Backend: m.Name(),
			Status:  status,
			Err:     fmt.Errorf("mock failure on call %d", count),
		}
	}

	content := m.ResponseText
	if m.Respond != nil {
		content = m.Respond(req)
	}
	promptChars := len(req.SystemPrompt) + len(req.UserPrompt)
	return &Response{
		Content:          content,
		PromptTokens:     promptChars / 4,
		CompletionTokens: len(content) / 4,
		TotalTokens:      (promptChars + len(content)) / 4,
		CostUSD:          0.0001,
		Latency:          time.Since(start),
		Backend:          m.Name(),
		Model:            m.Model(),
		RequestID:        fmt.Sprintf("mock-%d", count),
	}, nil
}

// Verify interface
var _ Backend = (*Mock)(nil)
