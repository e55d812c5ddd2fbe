// Package tasks tracks which enrichment operations are in flight per record.
package tasks

import "sync"

// Kind is one enrichment operation family.
type Kind string

const (
	KindImage    Kind = "image"
	KindReport   Kind = "report"
	KindContacts Kind = "contacts"
	KindExtract  Kind = "extract"
)

type key struct {
	id   string
	kind Kind
}

// Registry guards against duplicate in-flight enrichment calls for the same
// (record id, kind) pair. Distinct pairs run concurrently; that is the normal
// case.
type Registry struct {
	mu       sync.Mutex
	inflight map[key]struct{}
}

func NewRegistry() *Registry {
	return &Registry{inflight: make(map[key]struct{})}
}

// Begin marks the pair as in flight. It returns false when the pair is
// already busy, in which case the caller must not start a duplicate call.
func (r *Registry) Begin(id string, kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{id: id, kind: kind}
	if _, busy := r.inflight[k]; busy {
		return false
	}
	r.inflight[k] = struct{}{}
	return true
}

// End clears the in-flight marker unconditionally. It is idempotent: ending a
// pair twice, or one that was never begun, is a no-op.
func (r *Registry) End(id string, kind Kind) {
	r.mu.Lock()
	delete(r.inflight, key{id: id, kind: kind})
	r.mu.Unlock()
}

// IsBusy reports whether the pair currently has a task in flight.
func (r *Registry) IsBusy(id string, kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.inflight[key{id: id, kind: kind}]
	return busy
}

// Reset drops every in-flight marker. Called when a new discovery invalidates
// the record set the markers point at.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.inflight = make(map[key]struct{})
	r.mu.Unlock()
}
