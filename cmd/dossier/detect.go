package main

import (
	"github.com/spf13/cobra"

	"github.com/openfdd/dossier/internal/layout"
	"github.com/openfdd/dossier/internal/output"
)

var detectCmd = &cobra.Command{
	Use:   "detect <layout.json>",
	Short: "Detect section boundaries from a layout analysis",
	Long: `Detect prints the 25 section boundaries (cover, items 1-23, appendix)
assigned for a layout analysis, with each section's confidence and the
evidence method that placed it. No PDF is touched and nothing is stored.`,
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
		return output.Print(s.Detector.Detect(doc))
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
