package models

import "errors"

// ErrRecordNotFound is returned when a record id is not present in the store.
var ErrRecordNotFound = errors.New("record not found")

// ErrReportNotFound is returned when a staged report index is out of range.
var ErrReportNotFound = errors.New("report not found")

// ErrReportNotPending is returned when editing a report that already started uploading.
var ErrReportNotPending = errors.New("report is no longer pending")

// ErrMissingCredential is returned when approve is attempted without a publish token.
var ErrMissingCredential = errors.New("publish credential required")

// ErrPublishInProgress is returned when an upload batch is already being driven.
var ErrPublishInProgress = errors.New("publish already in progress")

// ErrExtractFailed is returned when no story could be extracted from a URL.
var ErrExtractFailed = errors.New("could not extract news details from url")

// ErrStaleSession is returned when an enrichment result arrives after the
// session it belongs to has been reset by a new discovery.
var ErrStaleSession = errors.New("session was reset while the operation was in flight")

// Contact is a researched person attached to a record. Only contacts with a
// validated personal profile link are kept.
type Contact struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	ProfileLink string `json:"profile_link,omitempty"`
}

// NewsRecord is one discovered or extracted story. Its ID is assigned by the
// record store at creation and is the only stable handle onto the record;
// positions shift when new stories are inserted at the front.
type NewsRecord struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"`
	Company         string    `json:"company"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Source          string    `json:"source"`
	CanonicalURL    string    `json:"canonical_url,omitempty"`
	VerificationURL string    `json:"verification_url,omitempty"`
	UserURL         string    `json:"user_url,omitempty"`
	GeneratedImage  string    `json:"generated_image,omitempty"` // base64 PNG data
	Contacts        []Contact `json:"contacts,omitempty"`
}

// BestURL returns the link downstream consumers should use: a user-supplied
// override wins over anything discovered by search.
func (r NewsRecord) BestURL() string {
	if r.UserURL != "" {
		return r.UserURL
	}
	if r.CanonicalURL != "" {
		return r.CanonicalURL
	}
	return r.VerificationURL
}

// GroundingChunk is a source link returned alongside a discovery response as
// evidence for the generated content.
type GroundingChunk struct {
	Web struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"web"`
}

// Usage carries the token counters of a single billable model call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CandidatesTokens int64 `json:"candidates_tokens"`
}

// DiscoverRequest carries the user-facing discovery filters.
type DiscoverRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Days     int    `json:"days"`
}

// ModelResponse is the raw outcome of one model call: the concatenated text
// parts, token usage for the cost ledger, grounding citations when search was
// used, and inline image data when the call produced a visual asset.
type ModelResponse struct {
	Text      string
	Usage     Usage
	Grounding []GroundingChunk
	ImageData string // base64 PNG, empty when no asset was produced
}

// ReportStatus is the linear per-report publish progression.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusUploading ReportStatus = "uploading"
	ReportStatusSuccess   ReportStatus = "success"
	ReportStatusError     ReportStatus = "error"
)

// GeneratedReport is one staged deep-dive report awaiting approval.
type GeneratedReport struct {
	Title        string       `json:"title"`
	FileName     string       `json:"file_name"`
	Content      string       `json:"content"`
	Status       ReportStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// PublishConfig addresses the remote content repository for an upload batch.
// The token is the only piece of it that is cached across sessions.
type PublishConfig struct {
	Token    string `json:"token"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	BasePath string `json:"base_path"`
}
