package gemini_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecopulse/ecopulse/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Models routes each operation family to a model name.
type Models struct {
	Search  string
	Report  string
	Image   string
	Contact string
}

// client implements the provider interface using the Gemini REST API
type client struct {
	apiKey     string
	baseURL    string
	models     Models
	httpClient *http.Client
}

// NewClient creates a new Gemini client. baseURL may be empty; tests point it
// at a local server.
func NewClient(apiKey, baseURL string, m Models, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		models:     m,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// request represents a generateContent request to the Gemini API
type request struct {
	Contents []content `json:"contents"`
	Tools    []tool    `json:"tools,omitempty"`
}

// response represents a generateContent response from the Gemini API
type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []models.GroundingChunk `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Discover asks for recent corporate news in the fixed JSON item shape, with
// search grounding enabled.
func (c *client) Discover(ctx context.Context, req models.DiscoverRequest) (models.ModelResponse, error) {
	days := req.Days
	if days <= 0 {
		days = 30
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Find the latest corporate news for the bioplastics industry from the last %d days.\n", days)
	if req.Category != "" {
		fmt.Fprintf(&b, "Focus on the category: %s.\n", req.Category)
	}
	if req.Query != "" {
		fmt.Fprintf(&b, "Focus specifically on: %s.\n", req.Query)
	}
	b.WriteString(`Return 6-10 items.

STRICT EXCLUSION: No market research reports or CAGR forecasts. Only company actions like M&A, plant openings, or R&D breakthroughs.

Format as JSON: [{ "date": "YYYY-MM-DD", "company": "Name", "title": "Headline", "description": "Short summary", "source": "Site", "url": "Link" }]`)

	return c.generate(ctx, c.models.Search, request{
		Contents: []content{{Parts: []part{{Text: b.String()}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	})
}

// ExtractFromURL turns one article into a single structured story object.
// pageTitle/pageText carry locally extracted article content when available;
// the model falls back to what it knows about the URL otherwise.
func (c *client) ExtractFromURL(ctx context.Context, url, pageTitle, pageText string) (models.ModelResponse, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract the corporate news story from this article URL: %s\n", url)
	if pageText != "" {
		fmt.Fprintf(&b, "\nArticle title: %s\nArticle text:\n%s\n", pageTitle, pageText)
	}
	b.WriteString(`
Respond ONLY with a single JSON object: { "date": "YYYY-MM-DD", "company": "Name", "title": "Headline", "description": "Short summary", "source": "Site", "url": "Link" }
If no corporate news story can be identified, respond with {}.`)

	return c.generate(ctx, c.models.Search, request{
		Contents: []content{{Parts: []part{{Text: b.String()}}}},
	})
}

// GenerateReport produces the long-form deep-dive body for one story.
func (c *client) GenerateReport(ctx context.Context, rec models.NewsRecord) (models.ModelResponse, error) {
	prompt := fmt.Sprintf(
		"Write a 200-word deep dive report on this bioplastic news: %s by %s. Source: %s\nRespond with the report prose only, no front matter and no headline.",
		rec.Title, rec.Company, rec.BestURL(),
	)
	return c.generate(ctx, c.models.Report, request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

// GenerateImage requests an illustration. The model may legitimately return
// prose without any inline asset; callers treat an empty ImageData as success.
func (c *client) GenerateImage(ctx context.Context, rec models.NewsRecord) (models.ModelResponse, error) {
	prompt := fmt.Sprintf("A professional industrial illustration for: %s", rec.Title)
	return c.generate(ctx, c.models.Image, request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

// ResearchContacts asks for press/sustainability contacts at the story's
// company as a structured array. Validation happens in the enrichment layer.
func (c *client) ResearchContacts(ctx context.Context, rec models.NewsRecord) (models.ModelResponse, error) {
	prompt := fmt.Sprintf(`Research public professional contacts at %s relevant to this news story: %s.
Prefer communications, sustainability and business development roles.

Format as JSON: [{ "name": "Full Name", "title": "Role", "profile_link": "LinkedIn personal profile URL" }]
Only include people with a public LinkedIn personal profile (linkedin.com/in/...). Return [] when none are found.`,
		rec.Company, rec.Title)
	return c.generate(ctx, c.models.Contact, request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	})
}

// generate sends a generateContent request and flattens the first candidate.
func (c *client) generate(ctx context.Context, model string, reqBody request) (models.ModelResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return models.ModelResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return models.ModelResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ModelResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var geminiResp response
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return models.ModelResponse{}, fmt.Errorf("API returned status: %d", resp.StatusCode)
		}
		return models.ModelResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if geminiResp.Error != nil && geminiResp.Error.Message != "" {
			return models.ModelResponse{}, fmt.Errorf("API error: %s", geminiResp.Error.Message)
		}
		return models.ModelResponse{}, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	out := models.ModelResponse{
		Usage: models.Usage{
			PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
			CandidatesTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
		},
	}
	if len(geminiResp.Candidates) == 0 {
		return out, nil
	}
	cand := geminiResp.Candidates[0]
	out.Grounding = cand.GroundingMetadata.GroundingChunks
	var texts []string
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
		if p.InlineData != nil && out.ImageData == "" {
			out.ImageData = p.InlineData.Data
		}
	}
	out.Text = strings.Join(texts, "")
	return out, nil
}
