// Package publish drives the review -> approve -> upload workflow for
// generated reports and the idempotent writes against the remote content
// repository.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecopulse/ecopulse/models"
)

const defaultAPIBaseURL = "https://api.github.com"

// ContentWriter performs an idempotent create-or-update of one file in the
// remote content repository.
type ContentWriter interface {
	Upsert(ctx context.Context, cfg models.PublishConfig, fileName, content string) error
}

// GitHubWriter implements ContentWriter against the GitHub contents API.
type GitHubWriter struct {
	baseURL    string
	httpClient *http.Client
}

// NewGitHubWriter creates a writer. baseURL may be empty; tests point it at a
// local server.
func NewGitHubWriter(baseURL string, timeout time.Duration) *GitHubWriter {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GitHubWriter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upsert reads the current revision marker for the path, then writes the
// content. A missing file is "does not exist yet", not an error, and the
// write becomes an unconditional create (no sha in the body). Multi-byte text
// is handled correctly: the content is encoded as UTF-8 bytes before base64.
func (w *GitHubWriter) Upsert(ctx context.Context, cfg models.PublishConfig, fileName, content string) error {
	fullPath := joinContentPath(cfg.BasePath, fileName)
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", w.baseURL, cfg.Owner, cfg.Repo, fullPath)

	sha, err := w.currentSHA(ctx, cfg.Token, url)
	if err != nil {
		return err
	}

	body := map[string]string{
		"message": "Add news: " + fileName,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	w.setHeaders(req, cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&remote)
		if remote.Message != "" {
			return fmt.Errorf("github: %s", remote.Message)
		}
		return fmt.Errorf("github: upload failed with status %d", resp.StatusCode)
	}
	return nil
}

// currentSHA fetches the revision marker of an existing object. Any
// non-success read is treated as "absent": the subsequent write then acts as
// a create and the remote reports real permission problems there.
func (w *GitHubWriter) currentSHA(ctx context.Context, token, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	w.setHeaders(req, token)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var existing struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
		return "", nil
	}
	return existing.SHA, nil
}

func (w *GitHubWriter) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// joinContentPath joins the configured base path and file name without double
// slashes; an empty base path puts the file at the repository root.
func joinContentPath(basePath, fileName string) string {
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return fileName
	}
	return basePath + "/" + fileName
}
