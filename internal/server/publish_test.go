package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	appconfig "github.com/ecopulse/ecopulse/config"
	"github.com/ecopulse/ecopulse/internal/publish"
	"github.com/ecopulse/ecopulse/models"
	"github.com/ecopulse/ecopulse/repository"
)

func newPublishApp(defaults appconfig.PublishConfig) (*echo.Echo, *publish.Workflow) {
	w := publish.NewWorkflow(&fakeContentWriter{}, repository.NewInMemoryCredentialRepository())
	e := echo.New()
	h := &PublishHandler{
		Workflow: w,
		Defaults: defaults,
		Logger:   log.New(bytes.NewBuffer(nil), "", 0),
	}
	h.Register(e.Group("/api/reports"))
	return e, w
}

func doJSON(e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestReportQueueLifecycle(t *testing.T) {
	e, w := newPublishApp(appconfig.PublishConfig{Owner: "ecopulse", Repo: "site", BasePath: "content/news"})
	w.Stage([]models.GeneratedReport{
		{Title: "One", FileName: "one.md", Content: "# One"},
		{Title: "Two", FileName: "two.md", Content: "# Two"},
	})

	// Rename the first report while it is pending.
	rec := doJSON(e, http.MethodPatch, "/api/reports/0", map[string]string{"file_name": "2026-08-20-one.md"})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit returned %d: %s", rec.Code, rec.Body.String())
	}
	if got, _ := w.Get(0); got.FileName != "2026-08-20-one.md" {
		t.Fatalf("edit not applied: %+v", got)
	}

	// Download serves the markdown as an attachment.
	rec = doJSON(e, http.MethodGet, "/api/reports/0/download", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "# One" {
		t.Fatalf("download returned %d %q", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "2026-08-20-one.md") {
		t.Fatalf("missing attachment file name: %q", cd)
	}

	// Approve with only a token; owner/repo come from defaults.
	rec = doJSON(e, http.MethodPost, "/api/reports/approve", map[string]string{"token": "tok"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve returned %d: %s", rec.Code, rec.Body.String())
	}
	for i, r := range w.Reports() {
		if r.Status != models.ReportStatusSuccess {
			t.Fatalf("report %d not uploaded: %s", i, r.Status)
		}
	}

	// Uploaded reports are no longer editable.
	rec = doJSON(e, http.MethodPatch, "/api/reports/0", map[string]string{"content": "changed"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing uploaded report, got %d", rec.Code)
	}

	// Discarding both closes the queue.
	if rec := doJSON(e, http.MethodDelete, "/api/reports/0", nil); rec.Code != http.StatusOK {
		t.Fatalf("discard returned %d", rec.Code)
	}
	rec = doJSON(e, http.MethodDelete, "/api/reports/0", nil)
	var out struct {
		Closed bool `json:"closed"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if !out.Closed {
		t.Fatalf("queue should report closed: %s", rec.Body.String())
	}
}

func TestApproveRequiresRepositoryCoordinates(t *testing.T) {
	e, w := newPublishApp(appconfig.PublishConfig{})
	w.Stage([]models.GeneratedReport{{Title: "One", FileName: "one.md", Content: "1"}})

	rec := doJSON(e, http.MethodPost, "/api/reports/approve", map[string]string{"token": "tok"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without owner/repo, got %d", rec.Code)
	}
}

func TestApproveWithoutTokenOrCache(t *testing.T) {
	e, w := newPublishApp(appconfig.PublishConfig{Owner: "ecopulse", Repo: "site"})
	w.Stage([]models.GeneratedReport{{Title: "One", FileName: "one.md", Content: "1"}})

	rec := doJSON(e, http.MethodPost, "/api/reports/approve", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing credential, got %d: %s", rec.Code, rec.Body.String())
	}
	if got, _ := w.Get(0); got.Status != models.ReportStatusPending {
		t.Fatalf("blocked approval must not touch statuses: %s", got.Status)
	}
}

func TestReportIndexValidation(t *testing.T) {
	e, _ := newPublishApp(appconfig.PublishConfig{})
	if rec := doJSON(e, http.MethodPatch, "/api/reports/abc", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric index: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, "/api/reports/5", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("out-of-range index: expected 404, got %d", rec.Code)
	}
}
