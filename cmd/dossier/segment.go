package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openfdd/dossier/internal/layout"
	"github.com/openfdd/dossier/internal/output"
)

var (
	segmentPDF   string
	segmentFDDID string
)

// segmentView summarizes one stored section artifact.
type segmentView struct {
	ItemNo      int     `json:"item_no" yaml:"item_no"`
	ItemName    string  `json:"item_name" yaml:"item_name"`
	StartPage   int     `json:"start_page" yaml:"start_page"`
	EndPage     int     `json:"end_page" yaml:"end_page"`
	PageCount   int     `json:"page_count" yaml:"page_count"`
	Quality     float64 `json:"quality" yaml:"quality"`
	NeedsReview bool    `json:"needs_review" yaml:"needs_review"`
	PDFPath     string  `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
}

var segmentCmd = &cobra.Command{
	Use:   "segment <layout.json>",
	Short: "Split a document into per-section PDFs without extracting",
	Long: `Segment detects boundaries, splits the source PDF into one file per
section, validates each split, and stores the artifacts under the filing's
home directory. Extraction does not run.

Examples:
  dossier segment layout.json --pdf fdd.pdf
  dossier segment layout.json --pdf fdd.pdf --fdd-id 7d8e1f22-1111-4222-8333-444455556666`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := services(cmd, true)
		if err != nil {
			return err
		}

		doc, err := layout.ParseFile(args[0])
		if err != nil {
			return err
		}
		pdf, err := os.ReadFile(segmentPDF)
		if err != nil {
			return fmt.Errorf("read pdf: %w", err)
		}

		fddID := segmentFDDID
		if fddID == "" {
			fddID = uuid.New().String()
		}

		ctx := cmd.Context()
		boundaries := s.Detector.Detect(doc)
		if err := s.Coordinator.Segment(ctx, fddID, pdf, boundaries); err != nil {
			return err
		}

		recs, err := s.Store.GetByFDD(ctx, fddID)
		if err != nil {
			return err
		}
		views := make([]segmentView, len(recs))
		for i, rec := range recs {
			views[i] = segmentView{
				ItemNo:      rec.ItemNo,
				ItemName:    rec.ItemName,
				StartPage:   rec.StartPage,
				EndPage:     rec.EndPage,
				PageCount:   rec.Validation.PageCount,
				Quality:     rec.Validation.QualityScore,
				NeedsReview: rec.NeedsReview,
				PDFPath:     rec.PDFPath,
			}
		}

		return output.Print(struct {
			FDDID    string        `json:"fdd_id" yaml:"fdd_id"`
			Sections []segmentView `json:"sections" yaml:"sections"`
		}{fddID, views})
	},
}

func init() {
	segmentCmd.Flags().StringVar(&segmentPDF, "pdf", "", "source PDF file (required)")
	segmentCmd.Flags().StringVar(&segmentFDDID, "fdd-id", "", "filing identifier (default: new UUID)")
	cobra.CheckErr(segmentCmd.MarkFlagRequired("pdf"))

	rootCmd.AddCommand(segmentCmd)
}
