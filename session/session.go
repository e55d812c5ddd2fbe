// Package session ties the per-dashboard-session state together: the record
// store, the task registry, the cost ledger and the discovery side channel
// (grounding citations, raw fallback text).
package session

import (
	"sync"

	"github.com/ecopulse/ecopulse/internal/ledger"
	"github.com/ecopulse/ecopulse/internal/records"
	"github.com/ecopulse/ecopulse/internal/tasks"
	"github.com/ecopulse/ecopulse/models"
)

// Session is the single source of truth the UI renders. A new discovery
// resets the record set and the task registry and bumps the generation
// counter; enrichment results that captured an older generation must be
// discarded rather than applied to the new record set.
type Session struct {
	mu         sync.RWMutex
	generation uint64
	grounding  []models.GroundingChunk
	rawText    string

	records *records.Store
	tasks   *tasks.Registry
	ledger  *ledger.Ledger
}

func New(l *ledger.Ledger) *Session {
	return &Session{
		generation: 1,
		records:    records.NewStore(),
		tasks:      tasks.NewRegistry(),
		ledger:     l,
	}
}

func (s *Session) Records() *records.Store { return s.records }
func (s *Session) Tasks() *tasks.Registry  { return s.tasks }
func (s *Session) Ledger() *ledger.Ledger  { return s.ledger }

// Generation returns the current session generation. Callers capture it
// before an external call and check Current before applying the result.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Current reports whether gen still identifies the live record set.
func (s *Session) Current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen == s.generation
}

// BeginDiscovery invalidates all previous in-flight enrichment results:
// records and task markers are dropped and the generation moves forward. The
// cost ledger is deliberately untouched, it spans the whole session.
func (s *Session) BeginDiscovery() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.grounding = nil
	s.rawText = ""
	s.records.Reset()
	s.tasks.Reset()
	return s.generation
}

// SetDiscovery installs a discovery result, but only when gen is still the
// live generation; a stale result is discarded and false is returned.
func (s *Session) SetDiscovery(gen uint64, recs []models.NewsRecord, grounding []models.GroundingChunk, rawText string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.records.Seed(recs)
	s.grounding = grounding
	s.rawText = rawText
	return true
}

// Grounding returns the citations from the latest discovery.
func (s *Session) Grounding() []models.GroundingChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GroundingChunk, len(s.grounding))
	copy(out, s.grounding)
	return out
}

// RawText returns the unstructured fallback text from the latest discovery,
// empty when the response parsed into records.
func (s *Session) RawText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rawText
}
