package session

import (
	"testing"

	"github.com/ecopulse/ecopulse/internal/ledger"
	"github.com/ecopulse/ecopulse/internal/tasks"
	"github.com/ecopulse/ecopulse/models"
)

func newTestSession() *Session {
	return New(ledger.New(ledger.Pricing{ExchangeRate: 1}))
}

func TestBeginDiscoveryResetsRecordsAndTasks(t *testing.T) {
	s := newTestSession()
	id := s.Records().Append(models.NewsRecord{Company: "Old"}, false)
	s.Tasks().Begin(id, tasks.KindImage)
	s.Ledger().Add(0.5)

	gen := s.BeginDiscovery()
	if s.Records().Len() != 0 {
		t.Fatal("records must be dropped on discovery reset")
	}
	if s.Tasks().IsBusy(id, tasks.KindImage) {
		t.Fatal("task markers must be dropped on discovery reset")
	}
	if s.Ledger().Total() == 0 {
		t.Fatal("ledger must survive a discovery reset")
	}
	if !s.Current(gen) {
		t.Fatal("fresh generation must be current")
	}
}

func TestStaleDiscoveryResultIsDiscarded(t *testing.T) {
	s := newTestSession()
	oldGen := s.BeginDiscovery()
	// A second discovery starts before the first resolves.
	newGen := s.BeginDiscovery()

	applied := s.SetDiscovery(oldGen, []models.NewsRecord{{Company: "Stale"}}, nil, "")
	if applied {
		t.Fatal("stale discovery result must be discarded")
	}
	if s.Records().Len() != 0 {
		t.Fatal("stale result must not touch the record set")
	}

	if !s.SetDiscovery(newGen, []models.NewsRecord{{Company: "Fresh"}}, nil, "raw") {
		t.Fatal("live result must apply")
	}
	if s.Records().Len() != 1 || s.RawText() != "raw" {
		t.Fatal("live result not installed")
	}
}

func TestStaleEnrichmentGenerationCheck(t *testing.T) {
	s := newTestSession()
	gen := s.Generation()
	s.BeginDiscovery()
	if s.Current(gen) {
		t.Fatal("generation captured before a reset must read as stale")
	}
}
