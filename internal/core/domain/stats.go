package domain

import (
	"sort"
	"sync"
	"time"
)

// ItemError records why a single item failed to index.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// KindStats holds per-kind counters.
type KindStats struct {
	Added  int `json:"added"`
	Errors int `json:"errors"`
}

// StatsDetails carries per-item failure detail and per-kind counts.
type StatsDetails struct {
	Errors []ItemError                `json:"errors"`
	Kinds  map[ContentKind]*KindStats `json:"kinds"`
}

// IndexRebuildStats is returned to the caller of a reindex; it is not persisted.
// Added + Errors always equals Total.
type IndexRebuildStats struct {
	mu sync.Mutex

	Total     int           `json:"total"`
	Added     int           `json:"added"`
	Errors    int           `json:"errors"`
	Details   StatsDetails  `json:"details"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// NewIndexRebuildStats creates empty stats.
func NewIndexRebuildStats() *IndexRebuildStats {
	return &IndexRebuildStats{
		StartedAt: time.Now().UTC(),
		Details: StatsDetails{
			Errors: []ItemError{},
			Kinds:  make(map[ContentKind]*KindStats),
		},
	}
}

// RecordSuccess counts one indexed item. Safe for concurrent use.
func (s *IndexRebuildStats) RecordSuccess(kind ContentKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Total++
	s.Added++
	s.kind(kind).Added++
}

// RecordFailure counts one failed item with its vector id. Safe for concurrent use.
func (s *IndexRebuildStats) RecordFailure(kind ContentKind, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	s.Total++
	s.Errors++
	s.kind(kind).Errors++
	s.Details.Errors = append(s.Details.Errors, ItemError{ID: id, Error: msg})
}

// Finish stamps the run duration and sorts error details by id so the
// report does not depend on worker scheduling.
func (s *IndexRebuildStats) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Duration = time.Since(s.StartedAt)
	sort.Slice(s.Details.Errors, func(i, j int) bool {
		return s.Details.Errors[i].ID < s.Details.Errors[j].ID
	})
}

// ErrorFor returns the recorded error for a vector id.
func (s *IndexRebuildStats) ErrorFor(id string) (ItemError, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.Details.Errors {
		if e.ID == id {
			return e, true
		}
	}
	return ItemError{}, false
}

// Consistent reports whether Added + Errors == Total.
func (s *IndexRebuildStats) Consistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Added+s.Errors == s.Total
}

func (s *IndexRebuildStats) kind(kind ContentKind) *KindStats {
	ks, ok := s.Details.Kinds[kind]
	if !ok {
		ks = &KindStats{}
		s.Details.Kinds[kind] = ks
	}
	return ks
}
