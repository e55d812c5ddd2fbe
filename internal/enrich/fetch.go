package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// maxArticleBytes caps how much of a page is read before extraction.
const maxArticleBytes = 2 << 20

// fetchArticle downloads rawurl and extracts the readable article title and
// text. Used to ground URL extraction in the actual page content instead of
// relying on the model's memory of the URL.
func (e *Enricher) fetchArticle(ctx context.Context, rawurl string) (string, string, error) {
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return "", "", fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ecopulse/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("page returned status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxArticleBytes), parsed)
	if err != nil {
		return "", "", fmt.Errorf("readability extraction failed: %w", err)
	}
	return article.Title, article.TextContent, nil
}
