// Package enrich implements the enrichment operations: each one drives an
// external model call, normalizes the free-text output, charges the cost
// ledger and hands the payload back. Nothing here mutates the record store;
// applying results is the caller's job.
package enrich

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/ecopulse/ecopulse/internal/helpers"
	"github.com/ecopulse/ecopulse/internal/ledger"
	"github.com/ecopulse/ecopulse/models"
	"github.com/ecopulse/ecopulse/provider"
)

// Enricher bundles the provider, the cost ledger and the article fetcher.
type Enricher struct {
	provider   provider.Provider
	ledger     *ledger.Ledger
	httpClient *http.Client
	logger     *log.Logger
}

func New(p provider.Provider, l *ledger.Ledger, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Enricher{
		provider:   p,
		ledger:     l,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.New(log.Writer(), "[ENRICH] ", log.LstdFlags),
	}
}

// recordPayload is the JSON item shape the model is prompted to return.
type recordPayload struct {
	Date        string `json:"date"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	URL         string `json:"url"`
}

func (p recordPayload) toRecord() models.NewsRecord {
	return models.NewsRecord{
		Date:         helpers.SanitizeText(p.Date),
		Company:      helpers.SanitizeText(p.Company),
		Title:        helpers.SanitizeText(p.Title),
		Description:  helpers.SanitizeText(p.Description),
		Source:       helpers.SanitizeText(p.Source),
		CanonicalURL: p.URL,
	}
}

// DiscoverResult is the outcome of one discovery call. When the response did
// not parse into records, RawText carries the original model text for display
// and Records is empty; that is not an error.
type DiscoverResult struct {
	Records   []models.NewsRecord
	Grounding []models.GroundingChunk
	RawText   string
	Cost      float64
}

// Discover runs a grounded news search. A service failure returns an error
// and a zero result; a parse failure degrades to RawText.
func (e *Enricher) Discover(ctx context.Context, req models.DiscoverRequest) (DiscoverResult, error) {
	resp, err := e.provider.Discover(ctx, req)
	if err != nil {
		return DiscoverResult{}, err
	}
	cost := e.charge(resp.Usage, true)

	result := DiscoverResult{Grounding: resp.Grounding, Cost: cost}
	var payloads []recordPayload
	if helpers.DecodeJSON(resp.Text, helpers.ArrayMode, &payloads) {
		for _, p := range payloads {
			if p.Title == "" && p.Company == "" {
				continue
			}
			result.Records = append(result.Records, p.toRecord())
		}
	} else {
		// Single object where an array was expected: coerce to one item.
		var single recordPayload
		if helpers.DecodeJSON(resp.Text, helpers.ObjectMode, &single) && single.Title != "" {
			result.Records = append(result.Records, single.toRecord())
		}
	}
	if len(result.Records) == 0 {
		result.RawText = resp.Text
	}
	return result, nil
}

// ExtractFromURL fetches the page, extracts the readable article locally and
// asks the model for a single structured story. The returned record is tagged
// with the submitted URL as its canonical source.
func (e *Enricher) ExtractFromURL(ctx context.Context, url string) (models.NewsRecord, float64, error) {
	pageTitle, pageText, err := e.fetchArticle(ctx, url)
	if err != nil {
		// The model can still work from the URL alone.
		e.logger.Printf("article fetch failed for %s: %v", url, err)
	}

	resp, err := e.provider.ExtractFromURL(ctx, url, pageTitle, pageText)
	if err != nil {
		return models.NewsRecord{}, 0, err
	}
	cost := e.charge(resp.Usage, false)

	var payload recordPayload
	if !helpers.DecodeJSON(resp.Text, helpers.ObjectMode, &payload) || payload.Title == "" {
		return models.NewsRecord{}, cost, models.ErrExtractFailed
	}
	rec := payload.toRecord()
	rec.CanonicalURL = url
	if rec.Date == "" {
		rec.Date = time.Now().Format("2006-01-02")
	}
	return rec, cost, nil
}

// Report generates the deep-dive document for rec: fixed front matter, the
// model-written body, and a source-link footer.
func (e *Enricher) Report(ctx context.Context, rec models.NewsRecord) (string, float64, error) {
	resp, err := e.provider.GenerateReport(ctx, rec)
	if err != nil {
		return "", 0, err
	}
	cost := e.charge(resp.Usage, false)
	return renderReport(rec, helpers.StripCodeFences(resp.Text)), cost, nil
}

// Illustrate generates an embeddable image for rec. The model producing no
// visual asset is success with an empty payload, not a failure.
func (e *Enricher) Illustrate(ctx context.Context, rec models.NewsRecord) (string, float64, error) {
	resp, err := e.provider.GenerateImage(ctx, rec)
	if err != nil {
		return "", 0, err
	}
	cost := e.charge(resp.Usage, false)
	if resp.ImageData == "" {
		e.logger.Printf("image call for %q produced no asset", rec.Title)
	}
	return resp.ImageData, cost, nil
}

// Contacts researches people attached to the story. Candidates without a
// conforming personal profile link are dropped, not surfaced.
func (e *Enricher) Contacts(ctx context.Context, rec models.NewsRecord) ([]models.Contact, float64, error) {
	resp, err := e.provider.ResearchContacts(ctx, rec)
	if err != nil {
		return nil, 0, err
	}
	cost := e.charge(resp.Usage, true)

	var raw []models.Contact
	if !helpers.DecodeJSON(resp.Text, helpers.ArrayMode, &raw) {
		return nil, cost, nil
	}
	return helpers.FilterContacts(raw), cost, nil
}

func (e *Enricher) charge(usage models.Usage, searchUsed bool) float64 {
	cost := e.ledger.Estimate(usage, searchUsed)
	e.ledger.Add(cost)
	return cost
}
