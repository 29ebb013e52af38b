package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/output"
	"github.com/openfdd/dossier/internal/pipeline"
)

var (
	processPDF        string
	processFDDID      string
	processFranchise  string
	processItems      []int
	processForce      bool
	processBackend    string
	processDetailed   bool
	processSkipHealth bool
)

var processCmd = &cobra.Command{
	Use:   "process <layout.json>",
	Short: "Run the full pipeline for one document",
	Long: `Process runs boundary detection, segmentation, and extraction for one
FDD, then prints the run report.

Sections that already hold a successful extraction are reused; pass --force
to re-extract them. Section failures are reported, not fatal: the command
errors only when a stage before extraction aborts the run.

Examples:
  dossier process layout.json --pdf fdd.pdf
  dossier process layout.json --pdf fdd.pdf --items 5,6 --franchise "Acme Co"
  dossier process layout.json --pdf fdd.pdf --force --backend gemini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := services(cmd, processSkipHealth)
		if err != nil {
			return err
		}

		layoutJSON, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read layout: %w", err)
		}
		pdf, err := os.ReadFile(processPDF)
		if err != nil {
			return fmt.Errorf("read pdf: %w", err)
		}

		rep, runErr := s.Coordinator.Run(cmd.Context(), pipeline.Input{
			FDDID:         processFDDID,
			FranchiseName: processFranchise,
			LayoutJSON:    layoutJSON,
			PDF:           pdf,
			Items:         processItems,
			Force:         processForce,
			Preferred:     processBackend,
		})
		if rep != nil {
			if err := printReport(rep, s.Monitor); err != nil {
				return err
			}
		}
		return runErr
	},
}

// processView is the report plus the per-backend breakdown --detailed adds.
type processView struct {
	Report   *pipeline.Report                 `json:"report" yaml:"report"`
	Backends map[string]monitor.BackendStats `json:"backends" yaml:"backends"`
}

func printReport(rep *pipeline.Report, mon *monitor.Monitor) error {
	if processDetailed {
		return output.Print(processView{
			Report:   rep,
			Backends: mon.Detailed().Backends,
		})
	}
	return output.Print(rep)
}

func init() {
	processCmd.Flags().StringVar(&processPDF, "pdf", "", "source PDF file (required)")
	processCmd.Flags().StringVar(&processFDDID, "fdd-id", "", "filing identifier (default: new UUID)")
	processCmd.Flags().StringVar(&processFranchise, "franchise", "", "franchise name recorded on the run")
	processCmd.Flags().IntSliceVar(&processItems, "items", nil, "item numbers to extract (default: 5,6,7,19,20,21)")
	processCmd.Flags().BoolVar(&processForce, "force", false, "re-extract sections with stored results")
	processCmd.Flags().StringVar(&processBackend, "backend", "", "backend to try first (local, openrouter, gemini)")
	processCmd.Flags().BoolVar(&processDetailed, "detailed", false, "include per-backend token and latency breakdowns")
	processCmd.Flags().BoolVar(&processSkipHealth, "skip-health", false, "skip the startup backend health probe")
	cobra.CheckErr(processCmd.MarkFlagRequired("pdf"))

	rootCmd.AddCommand(processCmd)
}
