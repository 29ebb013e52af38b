// Package detect assigns the 25 FDD sections to page ranges. Four evidence
// methods (title blocks, numbered patterns, fuzzy name matching, TF-IDF
// cosine similarity) produce candidates; a sequential pass assigns items
// 0..24 in order, interpolating where evidence is missing, then enforces
// per-item minimum lengths. The detector always yields exactly 25
// boundaries and never fails on bad evidence.
package detect

import (
	"log/slog"

	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/layout"
)

// Method identifies which evidence produced a candidate or boundary.
type Method string

const (
	MethodTitle        Method = "title"
	MethodPattern      Method = "pattern"
	MethodFuzzy        Method = "fuzzy"
	MethodCosine       Method = "cosine"
	MethodInterpolated Method = "interpolated"
	MethodFallback     Method = "fallback"
)

// Evidence confidences are fixed per method; fuzzy and cosine scale theirs
// from the match score.
const (
	titleConfidence        = 0.95
	patternConfidence      = 0.80
	interpolatedConfidence = 0.3
	fallbackConfidence     = 0.1
)

// Candidate is one piece of evidence that an item starts on a page.
type Candidate struct {
	ItemNo     int
	ItemName   string
	Page       int // 1-based
	Confidence float64
	Text       string
	BBox       [4]float64
	Method     Method
	Kind       layout.BlockKind
}

// Boundary is the final page range assigned to one item. Adjacent
// boundaries overlap by one page except where a minimum-length extension
// pushed the next section forward.
type Boundary struct {
	ItemNo     int     `json:"item_no" yaml:"item_no"`
	ItemName   string  `json:"item_name" yaml:"item_name"`
	StartPage  int     `json:"start_page" yaml:"start_page"`
	EndPage    int     `json:"end_page" yaml:"end_page"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Method     Method  `json:"method" yaml:"method"`
}

// Config tunes the evidence thresholds.
type Config struct {
	// MinFuzzyScore is the lowest accepted partial-ratio score (0-100).
	MinFuzzyScore int

	// MinCosineSimilarity is the lowest accepted TF-IDF cosine similarity.
	MinCosineSimilarity float64

	// ScanRatio bounds fuzzy/cosine evidence to the first fraction of the
	// document, avoiding appendix false positives.
	ScanRatio float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinFuzzyScore:       75,
		MinCosineSimilarity: 0.5,
		ScanRatio:           0.8,
	}
}

// Detector finds section boundaries in a layout document.
type Detector struct {
	cfg    Config
	logger *slog.Logger
	vec    *vectorizer
}

// New creates a Detector. The TF-IDF vocabulary over item names is built
// once here.
func New(cfg Config, logger *slog.Logger) *Detector {
	if cfg.MinFuzzyScore <= 0 {
		cfg.MinFuzzyScore = DefaultConfig().MinFuzzyScore
	}
	if cfg.MinCosineSimilarity <= 0 {
		cfg.MinCosineSimilarity = DefaultConfig().MinCosineSimilarity
	}
	if cfg.ScanRatio <= 0 || cfg.ScanRatio > 1 {
		cfg.ScanRatio = DefaultConfig().ScanRatio
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:    cfg,
		logger: logger,
		vec:    newVectorizer(1, 3),
	}
}

// Detect maps all 25 items to page ranges. It never fails: missing evidence
// degrades to interpolation, and an empty candidate pool degrades to even
// distribution.
func (d *Detector) Detect(doc *layout.Document) []Boundary {
	pool := d.collect(doc)
	d.logger.Debug("candidate pool collected",
		"candidates", len(pool),
		"total_pages", doc.TotalPages)
	return d.assign(doc.TotalPages, pool)
}

// collect runs the four evidence methods over every block and pools the
// results.
func (d *Detector) collect(doc *layout.Document) []Candidate {
	scanLimit := int(float64(doc.TotalPages) * d.cfg.ScanRatio)
	if scanLimit < 1 {
		scanLimit = 1
	}

	var pool []Candidate
	for pi := range doc.Pages {
		page := &doc.Pages[pi]
		for bi := range page.Blocks {
			block := &page.Blocks[bi]
			pool = append(pool, titleCandidates(block, page.Number)...)
			pool = append(pool, patternCandidates(block, page.Number, doc.TotalPages)...)
			if page.Number <= scanLimit {
				pool = append(pool, d.fuzzyCandidates(block, page.Number)...)
				pool = append(pool, d.cosineCandidates(block, page.Number)...)
			}
		}
	}
	return pool
}

func newCandidate(no, page int, conf float64, method Method, block *layout.Block) Candidate {
	return Candidate{
		ItemNo:     no,
		ItemName:   fdd.Name(no),
		Page:       page,
		Confidence: conf,
		Text:       block.Text,
		BBox:       block.BBox,
		Method:     method,
		Kind:       block.Kind,
	}
}
