// Package records holds the ordered, identity-stable collection of news
// records for one dashboard session.
package records

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ecopulse/ecopulse/models"
)

// Store keeps records in display order while handing out stable UUID handles.
// Insertions at the front shift positions but never invalidate an ID, so task
// markers and in-flight callbacks keyed by ID survive front insertions.
type Store struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]models.NewsRecord
}

func NewStore() *Store {
	return &Store{byID: make(map[string]models.NewsRecord)}
}

// Append adds rec to the store and returns its ID, assigning one when the
// record does not carry it yet. atFront places the record before all existing
// ones (new discoveries and manual URL ingestions surface first).
func (s *Store) Append(rec models.NewsRecord, atFront bool) string {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[rec.ID] = rec
	if atFront {
		s.order = append([]string{rec.ID}, s.order...)
	} else {
		s.order = append(s.order, rec.ID)
	}
	return rec.ID
}

// Seed replaces the whole collection with recs in order, assigning IDs. Used
// when a discovery response arrives.
func (s *Store) Seed(recs []models.NewsRecord) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.byID = make(map[string]models.NewsRecord, len(recs))
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		s.byID[rec.ID] = rec
		s.order = append(s.order, rec.ID)
		ids = append(ids, rec.ID)
	}
	return ids
}

// Get returns a copy of the record with the given ID.
func (s *Store) Get(id string) (models.NewsRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec, ok
}

// Update replaces the stored element wholesale. The replacement keeps the
// stable ID regardless of what the caller put in rec.ID. Replacing rather
// than deep-merging avoids stale nested references; callers that want to keep
// unrelated fields use Apply.
func (s *Store) Update(id string, rec models.NewsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return models.ErrRecordNotFound
	}
	rec.ID = id
	s.byID[id] = rec
	return nil
}

// Apply copies the current element, lets mutate adjust the copy, then
// replaces the element with it. Unrelated fields are preserved by
// construction.
func (s *Store) Apply(id string, mutate func(*models.NewsRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	mutate(&rec)
	rec.ID = id
	s.byID[id] = rec
	return nil
}

// Snapshot returns the records in display order. The slice and its elements
// are copies; callers may hold them across suspension points safely.
func (s *Store) Snapshot() []models.NewsRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NewsRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Reset drops every record. A session reset is the only destroy path; there
// is no per-record delete.
func (s *Store) Reset() {
	s.mu.Lock()
	s.order = s.order[:0]
	s.byID = make(map[string]models.NewsRecord)
	s.mu.Unlock()
}
