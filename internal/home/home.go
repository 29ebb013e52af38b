package home

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDirName is the default name for the dossier home directory.
	DefaultDirName = ".dossier"

	// FilingsDirName is the subdirectory holding per-filing data.
	FilingsDirName = "filings"

	// PromptsDirName is the subdirectory for prompt template overrides.
	PromptsDirName = "prompts"

	// ConfigFileName is the default config file name.
	ConfigFileName = "dossier.yaml"

	// CallLogName is the per-filing model call log.
	CallLogName = "calls.jsonl"
)

// Dir represents the dossier home directory structure:
//
//	~/.dossier/
//	  dossier.yaml
//	  prompts/                      template overrides
//	  filings/<fdd_id>/
//	    calls.jsonl
//	    sections/item_NN.pdf        section artifacts
//	    sections/item_NN.json       section records
//	    results/item_NN_<ts>.json   extraction results
type Dir struct {
	path string
}

// New creates a new Dir with the given path. If path is empty, uses the
// default (~/.dossier).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// EnsureExists creates the home directory and its fixed subdirectories.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.FilingsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create filings directory: %w", err)
	}
	if err := os.MkdirAll(d.PromptOverridesDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}
	return nil
}

// FilingsDir returns the directory holding all filings.
func (d *Dir) FilingsDir() string {
	return filepath.Join(d.path, FilingsDirName)
}

// PromptOverridesDir returns the directory for prompt template overrides.
func (d *Dir) PromptOverridesDir() string {
	return filepath.Join(d.path, PromptsDirName)
}

// FilingDir returns the directory for one filing.
func (d *Dir) FilingDir(fddID string) string {
	return filepath.Join(d.FilingsDir(), fddID)
}

// SectionsDir returns the directory holding a filing's section artifacts.
func (d *Dir) SectionsDir(fddID string) string {
	return filepath.Join(d.FilingDir(fddID), "sections")
}

// SectionPDFPath returns the path to a section's PDF artifact.
func (d *Dir) SectionPDFPath(fddID string, itemNo int) string {
	return filepath.Join(d.SectionsDir(fddID), fmt.Sprintf("item_%02d.pdf", itemNo))
}

// SectionRecordPath returns the path to a section's record.
func (d *Dir) SectionRecordPath(fddID string, itemNo int) string {
	return filepath.Join(d.SectionsDir(fddID), fmt.Sprintf("item_%02d.json", itemNo))
}

// ResultsDir returns the directory holding a filing's extraction results.
func (d *Dir) ResultsDir(fddID string) string {
	return filepath.Join(d.FilingDir(fddID), "results")
}

// ResultPath returns the path for an extraction result written at ts.
func (d *Dir) ResultPath(fddID string, itemNo int, ts time.Time) string {
	return filepath.Join(d.ResultsDir(fddID), fmt.Sprintf("item_%02d_%d.json", itemNo, ts.UnixMilli()))
}

// CallLogPath returns the path to a filing's model call log.
func (d *Dir) CallLogPath(fddID string) string {
	return filepath.Join(d.FilingDir(fddID), CallLogName)
}

// EnsureFilingDir creates the directories for one filing.
func (d *Dir) EnsureFilingDir(fddID string) error {
	if err := os.MkdirAll(d.SectionsDir(fddID), 0o755); err != nil {
		return fmt.Errorf("failed to create sections directory: %w", err)
	}
	if err := os.MkdirAll(d.ResultsDir(fddID), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	return nil
}
