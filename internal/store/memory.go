package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]map[int]*Record
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]map[int]*Record)}
}

func (m *Memory) UpsertArtifact(ctx context.Context, a Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	filing := m.recs[a.FDDID]
	if filing == nil {
		filing = make(map[int]*Record)
		m.recs[a.FDDID] = filing
	}
	rec, ok := filing[a.ItemNo]
	if !ok {
		rec = &Record{ExtractionStatus: StatusPending, CreatedAt: now}
		filing[a.ItemNo] = rec
	}
	rec.Artifact = a
	rec.UpdatedAt = now
	return nil
}

func (m *Memory) UpdateStatus(ctx context.Context, fddID string, itemNo int, status Status, upd StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[fddID][itemNo]
	if !ok {
		return ErrNotFound
	}
	applyUpdate(rec, status, upd, time.Now().UTC())
	return nil
}

func (m *Memory) AppendResult(ctx context.Context, fddID string, itemNo int, res Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[fddID][itemNo]
	if !ok {
		return ErrNotFound
	}
	rec.Results = append(rec.Results, res)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) Get(ctx context.Context, fddID string, itemNo int) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.recs[fddID][itemNo]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (m *Memory) GetByFDD(ctx context.Context, fddID string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filing := m.recs[fddID]
	out := make([]*Record, 0, len(filing))
	for _, rec := range filing {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemNo < out[j].ItemNo })
	return out, nil
}
