package segment

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrInvalidPDF means the source bytes could not be parsed as a PDF.
	ErrInvalidPDF = errors.New("invalid pdf")

	// ErrInvalidRange means the requested page range cannot be satisfied:
	// start below 1, end before start, or start past the document.
	ErrInvalidRange = errors.New("invalid page range")
)

const (
	textSampleLen  = 200
	smallPDFBytes  = 1000
	modestPDFBytes = 5000

	// reviewScore is the quality floor below which a section is flagged
	// for manual review.
	reviewScore = 0.7
)

// Report is the validation outcome for one section PDF.
type Report struct {
	IsValid      bool     `json:"is_valid"`
	PageCount    int      `json:"page_count"`
	ByteSize     int      `json:"byte_size"`
	HasText      bool     `json:"has_text"`
	TextSample   string   `json:"text_sample,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	QualityScore float64  `json:"quality_score"`
}

// NeedsReview reports whether the section should be routed to a human:
// structurally broken, or scored below the review floor.
func (r Report) NeedsReview() bool {
	return !r.IsValid || r.QualityScore < reviewScore
}

// Segmenter splits a source PDF into per-section PDFs and validates the
// results. Parsing runs in relaxed mode: FDD filings come out of scanners
// and print drivers that bend the PDF spec in ways strict validation
// rejects.
type Segmenter struct {
	conf   *model.Configuration
	logger *slog.Logger
}

// New returns a Segmenter with relaxed validation.
func New(logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Segmenter{conf: conf, logger: logger}
}

// PageCount returns the number of pages in the PDF.
func (s *Segmenter) PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), s.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return n, nil
}

// Split extracts the inclusive 1-based page range as a standalone PDF. An
// end page past the document is clamped with a warning; a start page past
// the document fails.
func (s *Segmenter) Split(pdf []byte, startPage, endPage int) ([]byte, error) {
	if startPage < 1 || endPage < startPage {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidRange, startPage, endPage)
	}
	total, err := s.PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if startPage > total {
		return nil, fmt.Errorf("%w: start page %d past document end %d", ErrInvalidRange, startPage, total)
	}
	if endPage > total {
		s.logger.Warn("clamping section end to document length",
			"start_page", startPage,
			"end_page", endPage,
			"total_pages", total)
		endPage = total
	}

	var buf bytes.Buffer
	pages := []string{fmt.Sprintf("%d-%d", startPage, endPage)}
	if err := api.Trim(bytes.NewReader(pdf), &buf, pages, s.conf); err != nil {
		return nil, fmt.Errorf("trim pages %d-%d: %w", startPage, endPage, err)
	}
	return buf.Bytes(), nil
}

// Validate parses the PDF and scores its quality. The score starts at 1.0
// and loses 0.3 per structural error, 0.4 below 1000 bytes (0.2 below
// 5000), 0.5 for zero pages, and 0.3 when no text can be found.
func (s *Segmenter) Validate(pdf []byte) Report {
	r := Report{ByteSize: len(pdf), QualityScore: 1.0}

	if err := api.Validate(bytes.NewReader(pdf), s.conf); err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
	if n, err := api.PageCount(bytes.NewReader(pdf), s.conf); err == nil {
		r.PageCount = n
	} else if len(r.Errors) == 0 {
		r.Errors = append(r.Errors, err.Error())
	}

	r.QualityScore -= 0.3 * float64(len(r.Errors))
	if r.ByteSize < smallPDFBytes {
		r.QualityScore -= 0.4
	} else if r.ByteSize < modestPDFBytes {
		r.QualityScore -= 0.2
	}
	if r.PageCount == 0 {
		r.QualityScore -= 0.5
	} else {
		r.TextSample = sniffText(pdf, textSampleLen)
		r.HasText = r.TextSample != ""
	}
	if !r.HasText {
		r.QualityScore -= 0.3
	}

	if r.QualityScore < 0 {
		r.QualityScore = 0
	} else if r.QualityScore > 1 {
		r.QualityScore = 1
	}
	r.IsValid = len(r.Errors) == 0 && r.PageCount > 0
	return r
}
