package main

import (
	"github.com/spf13/cobra"

	"github.com/openfdd/dossier/internal/output"
	"github.com/openfdd/dossier/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Print(struct {
			Release    string `json:"release" yaml:"release"`
			Commit     string `json:"commit" yaml:"commit"`
			CommitDate string `json:"commit_date" yaml:"commit_date"`
			Go         string `json:"go" yaml:"go"`
		}{version.GitRelease, version.GitCommit, version.GitCommitDate, version.GoInfo})
	},
}
