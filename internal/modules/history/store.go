// Package history owns the persisted collection of analysis results: a
// capped, deduplicating, newest-first list stored as a single JSON blob in
// the key-value backend.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zovida/core/internal/models"
	"github.com/zovida/core/internal/pkg/keyvalue"
)

const (
	// StorageKey is the backend key holding the serialized history list.
	StorageKey = "zovida:history"
	// maxEntries caps the history to the most recent records by timestamp.
	maxEntries = 20
)

// ErrPersistence wraps backend read/write failures. In-memory state stays
// valid when it occurs; callers surface it as a warning, not a hard stop.
var ErrPersistence = errors.New("history persistence failed")

// Store is the single owner of the persisted history collection. A mutex
// keeps the load→merge→sort→truncate→save sequence atomic with respect to
// concurrent reads.
type Store struct {
	mu      sync.Mutex
	backend keyvalue.Backend
	key     string
	log     *zap.Logger
}

func NewStore(backend keyvalue.Backend, log *zap.Logger) *Store {
	return &Store{backend: backend, key: StorageKey, log: log}
}

// Upsert inserts result, replacing any prior record with the same id, then
// re-sorts descending by record time and truncates to the cap. Calling it
// twice with the same record is idempotent.
func (s *Store) Upsert(ctx context.Context, result *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	merged := make([]models.AnalysisResult, 0, len(list)+1)
	merged = append(merged, *result)
	for _, item := range list {
		if item.ID == result.ID {
			continue
		}
		merged = append(merged, item)
	}

	// Recency wins the cap: sort the merged list by record time, then keep
	// the newest entries. Stable sort keeps the fresh insert ahead of ties.
	sort.SliceStable(merged, func(i, j int) bool {
		return recordTime(&merged[i]).After(recordTime(&merged[j]))
	})
	if len(merged) > maxEntries {
		merged = merged[:maxEntries]
	}

	return s.save(ctx, merged)
}

// Remove deletes the record with the given id, if present.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, item := range list {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return s.save(ctx, kept)
}

// Clear empties the collection and removes the persisted entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// List returns the current snapshot, newest first. Entries carrying neither
// a timestamp nor a legacy date field are filtered out so readers never
// observe records that would break date handling.
func (s *Store) List(ctx context.Context) ([]models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	valid := make([]models.AnalysisResult, 0, len(list))
	for _, item := range list {
		if item.Timestamp == "" && legacyDate(&item) == "" {
			s.log.Warn("dropping malformed history entry", zap.String("id", item.ID))
			continue
		}
		valid = append(valid, item)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return recordTime(&valid[i]).After(recordTime(&valid[j]))
	})
	return valid, nil
}

func (s *Store) load(ctx context.Context) ([]models.AnalysisResult, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if raw == "" {
		return nil, nil
	}
	var list []models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: stored history is corrupt: %v", ErrPersistence, err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []models.AnalysisResult) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// recordTime resolves a record's creation time from its timestamp, falling
// back to the legacy date field older clients wrote. Unparseable records get
// the zero time and sort last.
func recordTime(r *models.AnalysisResult) time.Time {
	if t, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
		return t
	}
	if legacy := legacyDate(r); legacy != "" {
		if t, err := time.Parse(time.RFC3339, legacy); err == nil {
			return t
		}
	}
	return time.Time{}
}

func legacyDate(r *models.AnalysisResult) string {
	raw, ok := r.Extra["date"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
