package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/openfdd/dossier/internal/detect"
	"github.com/openfdd/dossier/internal/extract"
	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/layout"
	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/prompts"
	"github.com/openfdd/dossier/internal/prompts/item5"
	"github.com/openfdd/dossier/internal/prompts/item6"
	"github.com/openfdd/dossier/internal/providers"
	"github.com/openfdd/dossier/internal/router"
	"github.com/openfdd/dossier/internal/segment"
	"github.com/openfdd/dossier/internal/store"
	"github.com/openfdd/dossier/internal/testutil"
)

type harness struct {
	coord    *Coordinator
	store    store.Store
	monitor  *monitor.Monitor
	registry *providers.Registry
	mocks    map[string]*providers.Mock
}

// newHarness builds a coordinator over mock backends that answer each
// template with a schema-valid payload, with retry delays shrunk so tests
// run fast. Only items 5 and 6 get templates.
func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	catalog := prompts.NewCatalog(logger)
	for _, register := range []func(*prompts.Catalog) error{item5.Register, item6.Register} {
		if err := register(catalog); err != nil {
			t.Fatalf("register template: %v", err)
		}
	}

	registry := providers.NewRegistry(logger)
	mocks := make(map[string]*providers.Mock)
	for _, name := range []string{providers.LocalName, providers.OpenRouterName, providers.GeminiName} {
		m := providers.NewMock()
		m.BackendName = name
		m.Respond = respondByTemplate
		registry.Register(m)
		mocks[name] = m
	}

	st := store.NewMemory()
	mon := monitor.New(logger)

	engine, err := extract.New(extract.Deps{
		Catalog:  catalog,
		Registry: registry,
		Router:   router.New(registry, router.Config{}, logger),
		Store:    st,
		Monitor:  mon,
		Logger:   logger,
	}, extract.Config{
		CallTimeout:    2 * time.Second,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("extract.New() error = %v", err)
	}

	coord, err := New(Deps{
		Detector:  detect.New(detect.DefaultConfig(), logger),
		Segmenter: segment.New(logger),
		Store:     st,
		Engine:    engine,
		Monitor:   mon,
		Logger:    logger,
	}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &harness{coord: coord, store: st, monitor: mon, registry: registry, mocks: mocks}
}

func respondByTemplate(req *providers.Request) string {
	switch req.SchemaName {
	case item5.TemplateName:
		return `{"initial_franchise_fee_cents":4500000,"due_at":"signing","refundable":false}`
	case item6.TemplateName:
		return `{"fees":[{"name":"Royalty","amount_or_formula":"6% of Gross Sales","frequency":"monthly"}]}`
	default:
		return `{}`
	}
}

// totalCalls sums Extract calls across all mock backends.
func (h *harness) totalCalls() int64 {
	var n int64
	for _, m := range h.mocks {
		n += m.Calls()
	}
	return n
}

// fddPages lays out a small but fully titled filing: a cover page, one
// titled page per item with continuation pages where a minimum applies,
// and a closing exhibits page.
func fddPages() []testutil.LayoutPage {
	pages := []testutil.LayoutPage{{
		Title: "FRANCHISE DISCLOSURE DOCUMENT",
		Text:  "Acme Franchising LLC\nTABLE OF CONTENTS",
	}}
	for no := 1; no <= 23; no++ {
		pages = append(pages, testutil.LayoutPage{
			Title: fmt.Sprintf("ITEM %d. %s", no, strings.ToUpper(fdd.Name(no))),
			Text:  fmt.Sprintf("Disclosure text for item %d.", no),
		})
		for extra := 1; extra < fdd.MinPages(no); extra++ {
			pages = append(pages, testutil.LayoutPage{
				Text: fmt.Sprintf("Item %d continued.", no),
			})
		}
	}
	return append(pages, testutil.LayoutPage{
		Title: "EXHIBIT A",
		Text:  "State addenda and attachments.",
	})
}

func fixtureLayout(t *testing.T) []byte {
	t.Helper()
	return testutil.LayoutJSON(t, fddPages()...)
}

func fixturePDF(t *testing.T) []byte {
	t.Helper()
	pages := fddPages()
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = strings.TrimSpace(p.Title + " " + strings.ReplaceAll(p.Text, "\n", " "))
	}
	return testutil.PDF(t, texts...)
}

func TestRunCompleted(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:         "fdd-1",
		FranchiseName: "Acme Franchising LLC",
		LayoutJSON:    fixtureLayout(t),
		PDF:           fixturePDF(t),
		Items:         []int{5, 6},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Status != StatusCompleted {
		t.Fatalf("Status = %s, want completed (sections: %+v)", rep.Status, rep.Sections)
	}
	if rep.Succeeded != 2 || rep.Failed != 0 || rep.Skipped != 0 || rep.Cancelled != 0 {
		t.Errorf("counts = %d/%d/%d/%d, want 2/0/0/0",
			rep.Succeeded, rep.Failed, rep.Skipped, rep.Cancelled)
	}
	if want := len(fddPages()); rep.TotalPages != want {
		t.Errorf("TotalPages = %d, want %d", rep.TotalPages, want)
	}
	if rep.RunID == "" || rep.FDDID != "fdd-1" {
		t.Errorf("identifiers = %q/%q", rep.RunID, rep.FDDID)
	}
	if rep.FinishedAt.Before(rep.StartedAt) {
		t.Error("FinishedAt precedes StartedAt")
	}

	if len(rep.Sections) != 2 {
		t.Fatalf("len(Sections) = %d, want 2", len(rep.Sections))
	}
	for i, want := range []int{5, 6} {
		row := rep.Sections[i]
		if row.ItemNo != want {
			t.Errorf("Sections[%d].ItemNo = %d, want %d", i, row.ItemNo, want)
		}
		if row.Status != store.StatusSuccess {
			t.Errorf("item %d status = %s (%s), want success", want, row.Status, row.Error)
		}
		if row.Backend == "" || row.Model == "" {
			t.Errorf("item %d missing backend/model", want)
		}
		if row.Calls != 1 || row.TokensUsed == 0 {
			t.Errorf("item %d calls = %d tokens = %d, want 1 call with usage", want, row.Calls, row.TokensUsed)
		}
	}

	// Every boundary was segmented and persisted, targeted or not.
	recs, err := h.store.GetByFDD(context.Background(), "fdd-1")
	if err != nil {
		t.Fatalf("GetByFDD() error = %v", err)
	}
	if len(recs) != fdd.ItemCount {
		t.Fatalf("stored records = %d, want %d", len(recs), fdd.ItemCount)
	}
	for _, rec := range recs {
		if rec.Validation.PageCount == 0 {
			t.Errorf("item %d artifact has no validated pages", rec.ItemNo)
		}
		if !rec.Validation.IsValid {
			t.Errorf("item %d artifact invalid: %v", rec.ItemNo, rec.Validation.Errors)
		}
	}
	if recs[3].ExtractionStatus != store.StatusPending {
		t.Errorf("untargeted item 3 status = %s, want pending", recs[3].ExtractionStatus)
	}
	if recs[5].ExtractionStatus != store.StatusSuccess || len(recs[5].Results) != 1 {
		t.Errorf("item 5 record = %s with %d results, want success with 1",
			recs[5].ExtractionStatus, len(recs[5].Results))
	}

	if rep.Metrics.Sections != 2 || rep.Metrics.Successes != 2 {
		t.Errorf("metrics = %+v, want 2 sections, 2 successes", rep.Metrics)
	}
}

func TestRunPartialOnSectionFailure(t *testing.T) {
	h := newHarness(t, Config{})

	// Every backend answers item 6 with payload that fails its schema, so
	// the whole chain is exhausted for that section.
	for _, m := range h.mocks {
		m.Respond = func(req *providers.Request) string {
			if req.SchemaName == item6.TemplateName {
				return `{"bogus":true}`
			}
			return respondByTemplate(req)
		}
	}

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 6},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Status != StatusPartial {
		t.Fatalf("Status = %s, want partial", rep.Status)
	}
	if rep.Succeeded != 1 || rep.Failed != 1 {
		t.Errorf("Succeeded/Failed = %d/%d, want 1/1", rep.Succeeded, rep.Failed)
	}

	row := rep.Sections[1]
	if row.ItemNo != 6 || row.Status != store.StatusFailed {
		t.Fatalf("item 6 row = %+v, want failed", row)
	}
	if row.Error == "" {
		t.Error("failed row has no error")
	}
	if row.Cancelled {
		t.Error("schema failure marked cancelled")
	}
	// Schema violations are not retried: one call per backend.
	if row.Calls != 3 {
		t.Errorf("item 6 calls = %d, want 3", row.Calls)
	}

	rec, err := h.store.Get(context.Background(), "fdd-1", 6)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.ExtractionStatus != store.StatusFailed || len(rec.Results) != 0 {
		t.Errorf("item 6 record = %s with %d results, want failed with none",
			rec.ExtractionStatus, len(rec.Results))
	}
}

func TestRunFailedWhenNothingSucceeds(t *testing.T) {
	h := newHarness(t, Config{})
	for _, m := range h.mocks {
		m.ShouldFail = true
		m.FailKind = providers.KindFatal
	}

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 6},
	})
	if err != nil {
		t.Fatalf("Run() error = %v (section failures are not run errors)", err)
	}
	if rep.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", rep.Status)
	}
	if rep.Failed != 2 || rep.Succeeded != 0 {
		t.Errorf("Failed/Succeeded = %d/%d, want 2/0", rep.Failed, rep.Succeeded)
	}
}

func TestRunSkipsItemsWithoutTemplate(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 19},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Status != StatusPartial {
		t.Fatalf("Status = %s, want partial (skipped section is not a success)", rep.Status)
	}
	if rep.Succeeded != 1 || rep.Skipped != 1 {
		t.Errorf("Succeeded/Skipped = %d/%d, want 1/1", rep.Succeeded, rep.Skipped)
	}

	row := rep.Sections[1]
	if row.ItemNo != 19 || row.Status != store.StatusSkipped {
		t.Fatalf("item 19 row = %+v, want skipped", row)
	}

	rec, err := h.store.Get(context.Background(), "fdd-1", 19)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.ExtractionStatus != store.StatusSkipped {
		t.Errorf("item 19 stored status = %s, want skipped", rec.ExtractionStatus)
	}
}

func TestRunDefaultTargets(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(rep.Sections) != len(fdd.DefaultTargetItems) {
		t.Fatalf("len(Sections) = %d, want %d", len(rep.Sections), len(fdd.DefaultTargetItems))
	}
	for i, want := range fdd.DefaultTargetItems {
		if rep.Sections[i].ItemNo != want {
			t.Errorf("Sections[%d].ItemNo = %d, want %d", i, rep.Sections[i].ItemNo, want)
		}
	}

	// Only items 5 and 6 hold templates in this harness.
	if rep.Succeeded != 2 || rep.Skipped != 4 {
		t.Errorf("Succeeded/Skipped = %d/%d, want 2/4", rep.Succeeded, rep.Skipped)
	}
	if rep.Status != StatusPartial {
		t.Errorf("Status = %s, want partial", rep.Status)
	}
}

func TestRunInvalidLayoutAborts(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: []byte(`{"pages": "nope"}`),
		PDF:        fixturePDF(t),
	})
	if err == nil {
		t.Fatal("Run() accepted malformed layout input")
	}
	if !errors.Is(err, layout.ErrInvalidLayout) {
		t.Errorf("err = %v, want ErrInvalidLayout", err)
	}
	if rep == nil || rep.Status != StatusFailed {
		t.Fatalf("report = %+v, want failed", rep)
	}
	if len(rep.Sections) != 0 {
		t.Errorf("aborted run produced %d section rows", len(rep.Sections))
	}

	recs, err := h.store.GetByFDD(context.Background(), "fdd-1")
	if err != nil {
		t.Fatalf("GetByFDD() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("aborted run persisted %d records", len(recs))
	}
	if h.totalCalls() != 0 {
		t.Errorf("aborted run made %d model calls", h.totalCalls())
	}
}

func TestRunShortPDFAborts(t *testing.T) {
	h := newHarness(t, Config{})

	// The layout says 34 pages but the PDF holds 3: boundaries near the end
	// start past the document, which is an input mismatch, not a section
	// failure.
	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        testutil.PDF(t, "Page 1", "Page 2", "Page 3"),
		Items:      []int{5, 6},
	})
	if err == nil {
		t.Fatal("Run() accepted a PDF shorter than the layout")
	}
	if !errors.Is(err, segment.ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
	if rep.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", rep.Status)
	}
	if h.totalCalls() != 0 {
		t.Errorf("aborted run made %d model calls", h.totalCalls())
	}
}

func TestRunOutOfRangeTargetAborts(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 99},
	})
	if err == nil {
		t.Fatal("Run() accepted item 99")
	}
	if rep.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", rep.Status)
	}

	recs, err := h.store.GetByFDD(context.Background(), "fdd-1")
	if err != nil {
		t.Fatalf("GetByFDD() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("aborted run persisted %d records", len(recs))
	}
}

func TestRunReusesStoredSuccess(t *testing.T) {
	h := newHarness(t, Config{})
	in := Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 6},
	}

	if _, err := h.coord.Run(context.Background(), in); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	callsAfterFirst := h.totalCalls()

	rep, err := h.coord.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if rep.Status != StatusCompleted || rep.Succeeded != 2 {
		t.Fatalf("second run = %s with %d successes, want completed with 2", rep.Status, rep.Succeeded)
	}
	for _, row := range rep.Sections {
		if !row.Reused {
			t.Errorf("item %d not reused on re-run", row.ItemNo)
		}
		if row.Backend == "" || row.Model == "" {
			t.Errorf("reused item %d missing stored backend/model", row.ItemNo)
		}
	}
	if got := h.totalCalls(); got != callsAfterFirst {
		t.Errorf("re-run made %d new model calls", got-callsAfterFirst)
	}

	// Prior results are untouched.
	rec, err := h.store.Get(context.Background(), "fdd-1", 5)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rec.Results) != 1 {
		t.Errorf("item 5 has %d results after re-run, want 1", len(rec.Results))
	}
}

func TestRunForceReextracts(t *testing.T) {
	h := newHarness(t, Config{})
	in := Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5},
	}

	if _, err := h.coord.Run(context.Background(), in); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	callsAfterFirst := h.totalCalls()

	in.Force = true
	rep, err := h.coord.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("forced Run() error = %v", err)
	}

	if rep.Status != StatusCompleted {
		t.Fatalf("Status = %s, want completed", rep.Status)
	}
	if rep.Sections[0].Reused {
		t.Error("forced run reused the stored result")
	}
	if got := h.totalCalls(); got != callsAfterFirst+1 {
		t.Errorf("forced run made %d new calls, want 1", got-callsAfterFirst)
	}

	rec, err := h.store.Get(context.Background(), "fdd-1", 5)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// The new attempt is appended; the old one stays.
	if len(rec.Results) != 2 {
		t.Errorf("item 5 has %d results after force, want 2", len(rec.Results))
	}
	if rec.ExtractionAttempts != 2 {
		t.Errorf("ExtractionAttempts = %d, want 2", rec.ExtractionAttempts)
	}
}

func TestRunCancellationPartial(t *testing.T) {
	h := newHarness(t, Config{ExtractWorkers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One worker keeps section order deterministic: item 5's call finishes,
	// item 6's call triggers the cancel and dies at the latency sleep.
	local := h.mocks[providers.LocalName]
	local.Latency = 20 * time.Millisecond
	local.OnRequest = func(n int64) {
		if n == 2 {
			cancel()
		}
	}

	rep, err := h.coord.Run(ctx, Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 6},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Status != StatusPartial {
		t.Fatalf("Status = %s, want partial (sections: %+v)", rep.Status, rep.Sections)
	}
	if rep.Succeeded != 1 || rep.Cancelled != 1 || rep.Failed != 0 {
		t.Errorf("Succeeded/Cancelled/Failed = %d/%d/%d, want 1/1/0",
			rep.Succeeded, rep.Cancelled, rep.Failed)
	}

	if rep.Sections[0].Status != store.StatusSuccess {
		t.Errorf("item 5 = %s, want success retained", rep.Sections[0].Status)
	}
	if !rep.Sections[1].Cancelled {
		t.Errorf("item 6 row = %+v, want cancelled", rep.Sections[1])
	}

	// The first success is persisted; nothing is left in processing.
	recs, err := h.store.GetByFDD(context.Background(), "fdd-1")
	if err != nil {
		t.Fatalf("GetByFDD() error = %v", err)
	}
	for _, rec := range recs {
		if rec.ExtractionStatus == store.StatusProcessing {
			t.Errorf("item %d left in processing", rec.ItemNo)
		}
	}
	rec, err := h.store.Get(context.Background(), "fdd-1", 5)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.ExtractionStatus != store.StatusSuccess {
		t.Errorf("item 5 stored status = %s, want success", rec.ExtractionStatus)
	}
}

func TestRunCancelledBeforeStartLeavesPending(t *testing.T) {
	h := newHarness(t, Config{ExtractWorkers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The very first call cancels the run: item 5 dies in flight, item 6
	// never reaches the engine and its record stays pending for a later run.
	local := h.mocks[providers.LocalName]
	local.Latency = 20 * time.Millisecond
	local.OnRequest = func(n int64) {
		if n == 1 {
			cancel()
		}
	}

	rep, err := h.coord.Run(ctx, Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5, 6},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed (no section succeeded)", rep.Status)
	}
	if rep.Cancelled != 2 {
		t.Errorf("Cancelled = %d, want 2", rep.Cancelled)
	}

	rec, err := h.store.Get(context.Background(), "fdd-1", 6)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.ExtractionStatus != store.StatusPending {
		t.Errorf("item 6 stored status = %s, want pending", rec.ExtractionStatus)
	}
	if rec.ExtractionAttempts != 0 {
		t.Errorf("item 6 attempts = %d, want 0", rec.ExtractionAttempts)
	}
}

func TestRunPreferredBackend(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		FDDID:      "fdd-1",
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5},
		Preferred:  providers.GeminiName,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Sections[0].Backend != providers.GeminiName {
		t.Errorf("Backend = %q, want %q", rep.Sections[0].Backend, providers.GeminiName)
	}
	if h.mocks[providers.LocalName].Calls() != 0 {
		t.Error("local was called despite an explicit preference")
	}
}

func TestNormalizeTargets(t *testing.T) {
	cases := []struct {
		name     string
		run, cfg []int
		want     []int
		wantErr  bool
	}{
		{name: "run list wins", run: []int{6, 5}, cfg: []int{19}, want: []int{5, 6}},
		{name: "dedupes and sorts", run: []int{21, 5, 5, 0}, want: []int{0, 5, 21}},
		{name: "config fallback", cfg: []int{7, 19}, want: []int{7, 19}},
		{name: "default fallback", want: fdd.DefaultTargetItems},
		{name: "negative item", run: []int{-1}, wantErr: true},
		{name: "past last item", run: []int{25}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeTargets(tc.run, tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeTargets() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestNewRequiresDeps(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	if _, err := New(Deps{
		Segmenter: segment.New(logger),
		Store:     store.NewMemory(),
		Monitor:   monitor.New(logger),
	}, Config{}); err == nil {
		t.Fatal("New() accepted missing detector and engine")
	}
}

func TestRunAssignsFDDID(t *testing.T) {
	h := newHarness(t, Config{})

	rep, err := h.coord.Run(context.Background(), Input{
		LayoutJSON: fixtureLayout(t),
		PDF:        fixturePDF(t),
		Items:      []int{5},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.FDDID == "" {
		t.Fatal("run did not assign an FDD ID")
	}
	if _, err := h.store.Get(context.Background(), rep.FDDID, 5); err != nil {
		t.Errorf("records not stored under the assigned ID: %v", err)
	}
}
