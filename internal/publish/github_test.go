package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecopulse/ecopulse/models"
)

func testConfig(token string) models.PublishConfig {
	return models.PublishConfig{Token: token, Owner: "ecopulse", Repo: "news", BasePath: "reports/"}
}

func TestUpsert_CreateWhenAbsent(t *testing.T) {
	var putBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/ecopulse/news/contents/reports/2026-08-01-story.md" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
		case http.MethodPut:
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("missing bearer header, got %q", got)
			}
			_ = json.NewDecoder(r.Body).Decode(&putBody)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	w := NewGitHubWriter(srv.URL, 5*time.Second)
	if err := w.Upsert(context.Background(), testConfig("tok"), "2026-08-01-story.md", "hello"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if _, hasSHA := putBody["sha"]; hasSHA {
		t.Fatal("create must not carry a sha")
	}
	if putBody["message"] != "Add news: 2026-08-01-story.md" {
		t.Fatalf("unexpected commit message %q", putBody["message"])
	}
	if putBody["content"] != base64.StdEncoding.EncodeToString([]byte("hello")) {
		t.Fatalf("content not base64 encoded: %q", putBody["content"])
	}
}

func TestUpsert_ConditionalUpdateWhenPresent(t *testing.T) {
	var putBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"sha": "abc123", "content": ""}`))
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&putBody)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	w := NewGitHubWriter(srv.URL, 5*time.Second)
	if err := w.Upsert(context.Background(), testConfig("tok"), "story.md", "updated"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if putBody["sha"] != "abc123" {
		t.Fatalf("update must carry the previously read sha, got %q", putBody["sha"])
	}
}

func TestUpsert_MultiByteContentEncodedAsUTF8(t *testing.T) {
	var putBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&putBody)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	content := "Zürich — 生分解性プラスチック ♻️"
	w := NewGitHubWriter(srv.URL, 5*time.Second)
	if err := w.Upsert(context.Background(), testConfig("tok"), "story.md", content); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(putBody["content"])
	if err != nil {
		t.Fatalf("content not valid base64: %v", err)
	}
	if string(decoded) != content {
		t.Fatalf("round trip mismatch: %q", string(decoded))
	}
}

func TestUpsert_SurfacesRemoteMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message": "Invalid request. Path contains malformed characters."}`))
		}
	}))
	defer srv.Close()

	w := NewGitHubWriter(srv.URL, 5*time.Second)
	err := w.Upsert(context.Background(), testConfig("tok"), "bad.md", "x")
	if err == nil || !strings.Contains(err.Error(), "malformed characters") {
		t.Fatalf("expected remote message in error, got %v", err)
	}
}

func TestJoinContentPath(t *testing.T) {
	cases := []struct{ base, file, want string }{
		{"reports/", "a.md", "reports/a.md"},
		{"reports", "a.md", "reports/a.md"},
		{"/nested/dir/", "a.md", "nested/dir/a.md"},
		{"", "a.md", "a.md"},
	}
	for _, tc := range cases {
		if got := joinContentPath(tc.base, tc.file); got != tc.want {
			t.Fatalf("joinContentPath(%q, %q) = %q, want %q", tc.base, tc.file, got, tc.want)
		}
	}
}
