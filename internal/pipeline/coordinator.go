// Package pipeline orchestrates one document run: parse the layout
// analysis, detect the 25 section boundaries, split and validate section
// PDFs, persist every artifact, then fan extraction out over a worker pool
// for the targeted items and fold the outcomes into a run report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openfdd/dossier/internal/detect"
	"github.com/openfdd/dossier/internal/extract"
	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/layout"
	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/segment"
	"github.com/openfdd/dossier/internal/store"
)

const (
	// DefaultSegmentWorkers bounds concurrent per-section PDF splits.
	DefaultSegmentWorkers = 4

	// DefaultExtractWorkers is one worker per default target item; the
	// router's gate, not the pool, bounds concurrent model calls.
	DefaultExtractWorkers = 6
)

// Config tunes a Coordinator. Zero values take the defaults.
type Config struct {
	// TargetItems are the sections extracted when a run names none.
	// Empty means the standard set (items 5, 6, 7, 19, 20, 21).
	TargetItems []int

	SegmentWorkers int
	ExtractWorkers int
}

func (c Config) withDefaults() Config {
	if c.SegmentWorkers <= 0 {
		c.SegmentWorkers = DefaultSegmentWorkers
	}
	if c.ExtractWorkers <= 0 {
		c.ExtractWorkers = DefaultExtractWorkers
	}
	return c
}

// Deps are the collaborators a Coordinator needs. Logger may be nil.
type Deps struct {
	Detector  *detect.Detector
	Segmenter *segment.Segmenter
	Store     store.Store
	Engine    *extract.Engine
	Monitor   *monitor.Monitor
	Logger    *slog.Logger
}

// Coordinator runs one document through the full pipeline.
type Coordinator struct {
	detector  *detect.Detector
	segmenter *segment.Segmenter
	store     store.Store
	engine    *extract.Engine
	monitor   *monitor.Monitor
	logger    *slog.Logger

	cfg Config
}

// New creates a Coordinator.
func New(deps Deps, cfg Config) (*Coordinator, error) {
	switch {
	case deps.Detector == nil:
		return nil, errors.New("pipeline: detector is required")
	case deps.Segmenter == nil:
		return nil, errors.New("pipeline: segmenter is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case deps.Engine == nil:
		return nil, errors.New("pipeline: engine is required")
	case deps.Monitor == nil:
		return nil, errors.New("pipeline: monitor is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		detector:  deps.Detector,
		segmenter: deps.Segmenter,
		store:     deps.Store,
		engine:    deps.Engine,
		monitor:   deps.Monitor,
		logger:    logger,
		cfg:       cfg.withDefaults(),
	}, nil
}

// Input is one document run.
type Input struct {
	// FDDID identifies the filing; a fresh UUID is assigned when empty.
	FDDID         string
	FranchiseName string

	// LayoutJSON is the layout-analyzer output for the source PDF.
	LayoutJSON []byte

	// PDF is the source document.
	PDF []byte

	// Items overrides the configured target set for this run.
	Items []int

	// Force re-extracts sections that already hold a stored success.
	Force bool

	// Preferred names the backend tried first for every section.
	Preferred string
}

// task is one section queued for extraction.
type task struct {
	row  int
	item int
	text string
}

// Run executes the pipeline for one document. Section-level failures are
// folded into the report, not returned; the error is non-nil only when a
// stage before extraction aborts the run, and the report always comes back
// with whatever was established before the abort.
func (c *Coordinator) Run(ctx context.Context, in Input) (*Report, error) {
	started := time.Now().UTC()
	fddID := in.FDDID
	if fddID == "" {
		fddID = uuid.New().String()
	}
	rep := &Report{
		RunID:         uuid.New().String(),
		FDDID:         fddID,
		FranchiseName: in.FranchiseName,
		StartedAt:     started,
	}
	fail := func(err error) (*Report, error) {
		rep.Status = StatusFailed
		rep.Metrics = c.monitor.Summary()
		rep.FinishedAt = time.Now().UTC()
		return rep, err
	}

	doc, err := layout.ParseBytes(in.LayoutJSON)
	if err != nil {
		return fail(fmt.Errorf("parse layout: %w", err))
	}
	rep.TotalPages = doc.TotalPages

	targets, err := normalizeTargets(in.Items, c.cfg.TargetItems)
	if err != nil {
		return fail(err)
	}

	boundaries := c.detector.Detect(doc)
	c.logger.Info("sections detected",
		"run_id", rep.RunID,
		"fdd_id", fddID,
		"total_pages", doc.TotalPages,
		"targets", targets,
	)

	if err := c.Segment(ctx, fddID, in.PDF, boundaries); err != nil {
		return fail(fmt.Errorf("segment document: %w", err))
	}

	rows, tasks := c.planSections(ctx, fddID, doc, boundaries, targets, in.Force)
	c.runTasks(ctx, in, fddID, rows, tasks)

	for i := range rows {
		switch {
		case rows[i].Cancelled:
			rep.Cancelled++
		case rows[i].Status == store.StatusSuccess:
			rep.Succeeded++
		case rows[i].Status == store.StatusSkipped:
			rep.Skipped++
		default:
			rep.Failed++
		}
	}
	rep.Sections = rows
	rep.fold(len(targets))
	rep.Metrics = c.monitor.Summary()
	rep.FinishedAt = time.Now().UTC()

	c.logger.Info("document run finished",
		"run_id", rep.RunID,
		"fdd_id", fddID,
		"status", string(rep.Status),
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"skipped", rep.Skipped,
		"cancelled", rep.Cancelled,
		"elapsed", rep.FinishedAt.Sub(rep.StartedAt).String(),
	)
	return rep, nil
}

// Segment splits and validates every boundary in parallel and persists the
// artifacts. Any split error aborts: the boundaries are sound by
// construction, so a failure here means the source PDF disagrees with the
// layout analysis. Run uses it as a stage; the segment command calls it
// directly.
func (c *Coordinator) Segment(ctx context.Context, fddID string, pdf []byte, boundaries []detect.Boundary) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.SegmentWorkers)

	for _, b := range boundaries {
		g.Go(func() error {
			section, err := c.segmenter.Split(pdf, b.StartPage, b.EndPage)
			if err != nil {
				return fmt.Errorf("item %d (pages %d-%d): %w", b.ItemNo, b.StartPage, b.EndPage, err)
			}
			report := c.segmenter.Validate(section)

			a := store.Artifact{
				FDDID:       fddID,
				ItemNo:      b.ItemNo,
				ItemName:    b.ItemName,
				StartPage:   b.StartPage,
				EndPage:     b.EndPage,
				Confidence:  b.Confidence,
				Method:      string(b.Method),
				PDF:         section,
				Validation:  report,
				NeedsReview: report.NeedsReview(),
			}
			if a.NeedsReview {
				c.logger.Warn("section flagged for review",
					"fdd_id", fddID,
					"item", b.ItemNo,
					"quality_score", report.QualityScore,
					"errors", len(report.Errors),
				)
			}
			if err := c.store.UpsertArtifact(gctx, a); err != nil {
				return fmt.Errorf("persist item %d: %w", b.ItemNo, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// planSections builds the report rows for the targeted items and the task
// list for those that still need extraction. Sections with a stored success
// are reused as-is unless force is set.
func (c *Coordinator) planSections(ctx context.Context, fddID string, doc *layout.Document, boundaries []detect.Boundary, targets []int, force bool) ([]SectionResult, []task) {
	rows := make([]SectionResult, len(targets))
	tasks := make([]task, 0, len(targets))

	for i, itemNo := range targets {
		b := boundaries[itemNo]
		rows[i] = SectionResult{
			ItemNo:    itemNo,
			ItemName:  b.ItemName,
			StartPage: b.StartPage,
			EndPage:   b.EndPage,
			Status:    store.StatusPending,
		}

		if !force {
			if rec, err := c.store.Get(ctx, fddID, itemNo); err == nil && rec.ExtractionStatus == store.StatusSuccess {
				rows[i].Status = store.StatusSuccess
				rows[i].Reused = true
				rows[i].Model = rec.ExtractionModel
				if n := len(rec.Results); n > 0 {
					rows[i].Backend = rec.Results[n-1].Backend
					if rows[i].Model == "" {
						rows[i].Model = rec.Results[n-1].Model
					}
				}
				c.logger.Debug("reusing stored extraction",
					"fdd_id", fddID,
					"item", itemNo,
					"model", rows[i].Model,
				)
				continue
			}
		}

		tasks = append(tasks, task{
			row:  i,
			item: itemNo,
			text: doc.Text(b.StartPage, b.EndPage),
		})
	}
	return rows, tasks
}

// runTasks drains the task list with a fixed worker pool. Tasks picked up
// after cancellation are marked without touching the store, so a later run
// finds them still pending.
func (c *Coordinator) runTasks(ctx context.Context, in Input, fddID string, rows []SectionResult, tasks []task) {
	if len(tasks) == 0 {
		return
	}

	queue := make(chan task, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	workers := min(c.cfg.ExtractWorkers, len(tasks))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				if ctx.Err() != nil {
					rows[t.row].Cancelled = true
					rows[t.row].Error = "run cancelled before extraction started"
					continue
				}
				out := c.engine.ExtractSection(ctx, extract.Input{
					FDDID:         fddID,
					ItemNo:        t.item,
					FranchiseName: in.FranchiseName,
					Text:          t.text,
					Preferred:     in.Preferred,
				})
				applyOutcome(&rows[t.row], out)
			}
		}()
	}
	wg.Wait()
}

// applyOutcome copies one extraction outcome onto its report row.
func applyOutcome(row *SectionResult, out *extract.Outcome) {
	row.Status = out.Status
	row.Backend = out.Backend
	row.Model = out.Model
	row.Error = out.Reason
	row.Calls = out.Calls
	row.TokensUsed = out.Usage.TotalTokens
	row.CostUSD = out.Usage.CostUSD
	row.Seconds = out.Elapsed.Seconds()
	row.Cancelled = out.Cancelled()
}

// normalizeTargets resolves the run's target items: the run list wins,
// then the configured list, then the standard set. The result is deduped,
// sorted, and range-checked.
func normalizeTargets(runItems, cfgItems []int) ([]int, error) {
	src := runItems
	if len(src) == 0 {
		src = cfgItems
	}
	if len(src) == 0 {
		src = fdd.DefaultTargetItems
	}

	seen := make(map[int]bool, len(src))
	out := make([]int, 0, len(src))
	for _, n := range src {
		if n < 0 || n > fdd.MaxItemNo {
			return nil, fmt.Errorf("target item %d out of range 0-%d", n, fdd.MaxItemNo)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
