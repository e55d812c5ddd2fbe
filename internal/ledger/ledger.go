// Package ledger accumulates the session-scoped cost of billable model calls.
package ledger

import (
	"sync"

	"github.com/ecopulse/ecopulse/models"
)

// Pricing converts token usage into a display-currency amount. Prices are USD
// per million tokens; ExchangeRate converts the USD total into the display
// currency.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	SearchSurcharge  float64
	ExchangeRate     float64
	Currency         string
}

// Ledger is a monotonically increasing cost accumulator. Add is the only
// mutator; it is safe under interleaved enrichment completions. Reset is an
// explicit session-boundary operation, never invoked implicitly.
type Ledger struct {
	mu      sync.Mutex
	pricing Pricing
	total   float64
}

func New(pricing Pricing) *Ledger {
	return &Ledger{pricing: pricing}
}

// Estimate computes the cost of a single call from its token counters. A zero
// usage yields zero cost even for search-grounded calls: absent usage data
// means the response carried no billing metadata to price, surcharge
// included. searchUsed adds the flat grounded-search surcharge otherwise.
func (l *Ledger) Estimate(usage models.Usage, searchUsed bool) float64 {
	if usage.PromptTokens == 0 && usage.CandidatesTokens == 0 {
		return 0
	}
	inputCost := float64(usage.PromptTokens) / 1_000_000 * l.pricing.InputPerMillion
	outputCost := float64(usage.CandidatesTokens) / 1_000_000 * l.pricing.OutputPerMillion
	searchCost := 0.0
	if searchUsed {
		searchCost = l.pricing.SearchSurcharge
	}
	return (inputCost + outputCost + searchCost) * l.pricing.ExchangeRate
}

// Add accumulates amount into the running total. Non-positive amounts are
// ignored so the total stays monotonic.
func (l *Ledger) Add(amount float64) {
	if amount <= 0 {
		return
	}
	l.mu.Lock()
	l.total += amount
	l.mu.Unlock()
}

// Total returns the running session total.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Currency returns the configured display currency label.
func (l *Ledger) Currency() string {
	return l.pricing.Currency
}

// Reset zeroes the accumulator. Only session boundaries call this.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.total = 0
	l.mu.Unlock()
}
