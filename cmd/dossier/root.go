package main

import (
	"github.com/spf13/cobra"

	"github.com/openfdd/dossier/internal/output"
	"github.com/openfdd/dossier/internal/svcctx"
	"github.com/openfdd/dossier/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "FDD section extraction pipeline with multi-backend LLM extraction",
	Long: `Dossier turns franchise disclosure documents into structured data.

Given a source PDF and its layout analysis, the pipeline:
  - Locates the 25 sections (cover, items 1-23, appendix)
  - Splits and validates one PDF per section
  - Extracts typed records from the target items with LLM backends
  - Persists artifacts, records, and a model call log under ~/.dossier

Hosted backends read credentials from the environment (or a .env file):
OPENROUTER_API_KEY and GEMINI_API_KEY. The local backend needs a running
Ollama daemon.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./dossier.yaml or ~/.dossier/dossier.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "dossier home directory (default: ~/.dossier)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Resolve the output format before any RunE writes to stdout.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// services returns the service graph for this invocation, building it on
// first use and caching it on the command context so nested calls reuse it.
func services(cmd *cobra.Command, skipHealthCheck bool) (*svcctx.Services, error) {
	if s := svcctx.ServicesFrom(cmd.Context()); s != nil {
		return s, nil
	}
	s, err := svcctx.Build(cmd.Context(), svcctx.BuildOptions{
		ConfigFile:      cfgFile,
		HomeDir:         homeDir,
		SkipHealthCheck: skipHealthCheck,
	})
	if err != nil {
		return nil, err
	}
	cmd.SetContext(svcctx.WithServices(cmd.Context(), s))
	return s, nil
}
