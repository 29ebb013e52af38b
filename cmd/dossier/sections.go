package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfdd/dossier/internal/output"
	"github.com/openfdd/dossier/internal/store"
)

// sectionView is one stored record in list form.
type sectionView struct {
	ItemNo      int     `json:"item_no" yaml:"item_no"`
	ItemName    string  `json:"item_name" yaml:"item_name"`
	StartPage   int     `json:"start_page" yaml:"start_page"`
	EndPage     int     `json:"end_page" yaml:"end_page"`
	Quality     float64 `json:"quality" yaml:"quality"`
	NeedsReview bool    `json:"needs_review" yaml:"needs_review"`
	Status      string  `json:"status" yaml:"status"`
	Attempts    int     `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	Results     int     `json:"results,omitempty" yaml:"results,omitempty"`
	LastError   string  `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// callSummary rolls up the filing's model call log.
type callSummary struct {
	Calls        int     `json:"calls" yaml:"calls"`
	Succeeded    int     `json:"succeeded" yaml:"succeeded"`
	Failed       int     `json:"failed" yaml:"failed"`
	TotalTokens  int     `json:"total_tokens" yaml:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd" yaml:"total_cost_usd"`
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <fdd-id>",
	Short: "List stored section records for a filing",
	Long: `Sections lists every stored record for a filing: page range,
segmentation quality, extraction status, and result counts, with a rollup
of the filing's model call log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := services(cmd, true)
		if err != nil {
			return err
		}

		fddID := args[0]
		recs, err := s.Store.GetByFDD(cmd.Context(), fddID)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fmt.Errorf("no sections stored for %s", fddID)
		}

		views := make([]sectionView, len(recs))
		for i, rec := range recs {
			views[i] = sectionView{
				ItemNo:      rec.ItemNo,
				ItemName:    rec.ItemName,
				StartPage:   rec.StartPage,
				EndPage:     rec.EndPage,
				Quality:     rec.Validation.QualityScore,
				NeedsReview: rec.NeedsReview,
				Status:      string(rec.ExtractionStatus),
				Attempts:    rec.ExtractionAttempts,
				Model:       rec.ExtractionModel,
				Results:     len(rec.Results),
				LastError:   rec.LastError,
			}
		}

		calls, err := s.Calls.Read(fddID)
		if err != nil {
			return err
		}
		var sum callSummary
		for _, c := range calls {
			sum.Calls++
			if c.Success {
				sum.Succeeded++
			} else {
				sum.Failed++
			}
			sum.TotalTokens += c.TotalTokens
			sum.TotalCostUSD += c.CostUSD
		}

		return output.Print(struct {
			FDDID     string        `json:"fdd_id" yaml:"fdd_id"`
			Sections  []sectionView `json:"sections" yaml:"sections"`
			Extracted int           `json:"extracted" yaml:"extracted"`
			Calls     callSummary   `json:"calls" yaml:"calls"`
		}{fddID, views, countExtracted(recs), sum})
	},
}

func countExtracted(recs []*store.Record) int {
	n := 0
	for _, rec := range recs {
		if rec.ExtractionStatus == store.StatusSuccess {
			n++
		}
	}
	return n
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}
