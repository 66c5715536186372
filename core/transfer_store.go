package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemoryTransferStore struct {
	mu      sync.RWMutex
	records map[string]TransferRecord
	nowFn   func() time.Time
}

func NewMemoryTransferStore() *MemoryTransferStore {
	return &MemoryTransferStore{
		records: make(map[string]TransferRecord),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryTransferStore) Get(_ context.Context, id string) (TransferRecord, error) {
	if s == nil {
		return TransferRecord{}, fmt.Errorf("core: transfer store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return TransferRecord{}, NewNotFoundError("core: transfer record not found", map[string]any{"request_id": id})
	}
	return record.Clone(), nil
}

func (s *MemoryTransferStore) Save(_ context.Context, record TransferRecord) (TransferRecord, error) {
	if s == nil {
		return TransferRecord{}, fmt.Errorf("core: transfer store is nil")
	}
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return TransferRecord{}, fmt.Errorf("core: transfer record id is required")
	}
	now := s.nowFn()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.ID]; ok {
		record.CreatedAt = existing.CreatedAt
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
	s.records[record.ID] = record.Clone()
	return record.Clone(), nil
}

func (s *MemoryTransferStore) List(_ context.Context, filter TransferFilter) ([]TransferRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("core: transfer store is nil")
	}
	s.mu.RLock()
	out := make([]TransferRecord, 0, len(s.records))
	for _, record := range s.records {
		if filter.State != nil && record.State != *filter.State {
			continue
		}
		out = append(out, record.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
