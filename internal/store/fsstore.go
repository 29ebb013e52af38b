package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openfdd/dossier/internal/home"
)

// FS persists section records as JSON files in the dossier home tree, one
// per section, with the split PDF written alongside. Records survive
// process restarts, which is what makes re-runs idempotent.
type FS struct {
	home *home.Dir
	mu   sync.Mutex
}

var _ Store = (*FS)(nil)

// NewFS returns a Store rooted at the given home directory.
func NewFS(h *home.Dir) *FS {
	return &FS{home: h}
}

func (s *FS) UpsertArtifact(ctx context.Context, a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.home.EnsureFilingDir(a.FDDID); err != nil {
		return err
	}

	now := time.Now().UTC()
	rec, err := s.read(a.FDDID, a.ItemNo)
	if errors.Is(err, ErrNotFound) {
		rec = &Record{ExtractionStatus: StatusPending, CreatedAt: now}
	} else if err != nil {
		return err
	}

	pdf := a.PDF
	a.PDF = nil
	a.PDFPath = s.home.SectionPDFPath(a.FDDID, a.ItemNo)
	rec.Artifact = a
	rec.UpdatedAt = now

	if len(pdf) > 0 {
		if err := os.WriteFile(a.PDFPath, pdf, 0o644); err != nil {
			return fmt.Errorf("writing section pdf: %w", err)
		}
	}
	return s.write(rec)
}

func (s *FS) UpdateStatus(ctx context.Context, fddID string, itemNo int, status Status, upd StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(fddID, itemNo)
	if err != nil {
		return err
	}
	applyUpdate(rec, status, upd, time.Now().UTC())
	return s.write(rec)
}

func (s *FS) AppendResult(ctx context.Context, fddID string, itemNo int, res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(fddID, itemNo)
	if err != nil {
		return err
	}
	rec.Results = append(rec.Results, res)
	rec.UpdatedAt = time.Now().UTC()

	// Results also land as standalone files so they can be consumed
	// without parsing the full record.
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	path := s.home.ResultPath(fddID, itemNo, res.CreatedAt)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}
	return s.write(rec)
}

func (s *FS) Get(ctx context.Context, fddID string, itemNo int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(fddID, itemNo)
}

func (s *FS) GetByFDD(ctx context.Context, fddID string) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.home.SectionsDir(fddID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sections directory: %w", err)
	}

	var out []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := s.readFile(filepath.Join(s.home.SectionsDir(fddID), entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemNo < out[j].ItemNo })
	return out, nil
}

func (s *FS) read(fddID string, itemNo int) (*Record, error) {
	return s.readFile(s.home.SectionRecordPath(fddID, itemNo))
}

func (s *FS) readFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading section record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding section record %s: %w", path, err)
	}
	return &rec, nil
}

func (s *FS) write(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling section record: %w", err)
	}
	path := s.home.SectionRecordPath(rec.FDDID, rec.ItemNo)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing section record: %w", err)
	}
	return nil
}
