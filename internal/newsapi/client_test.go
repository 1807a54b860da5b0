package newsapi

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/factman/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func testQuery() model.HeadlineQuery {
	return model.HeadlineQuery{
		Country:  "us",
		Category: model.Category("technology"),
		PageSize: 20,
		Language: "en",
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient(http.DefaultClient, slog.Default(), "test-key", nil)
	if c == nil {
		t.Fatal("NewClient は nil を返してはならない")
	}
	if c.Name() != "newsapi" {
		t.Errorf("Name() = %q, want %q", c.Name(), "newsapi")
	}
}

func TestFetchHeadlines_Success(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"country":  r.URL.Query().Get("country"),
			"category": r.URL.Query().Get("category"),
			"pageSize": r.URL.Query().Get("pageSize"),
			"language": r.URL.Query().Get("language"),
			"apiKey":   r.URL.Query().Get("apiKey"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"source": {"name": "TechCrunch"},
					"title": "New Chip Announced",
					"description": "A new chip was announced today.",
					"url": "https://example.com/chip",
					"urlToImage": "https://example.com/chip.jpg",
					"publishedAt": "2026-08-29T10:30:00Z"
				}
			]
		}`))
	}))
	defer server.Close()

	buf := &bytes.Buffer{}
	c := NewClient(server.Client(), newTestLogger(buf), "test-key", nil)
	c.endpoint = server.URL

	articles, err := c.FetchHeadlines(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("FetchHeadlines がエラーを返した: %v", err)
	}

	if gotQuery["country"] != "us" {
		t.Errorf("country = %q, want %q", gotQuery["country"], "us")
	}
	if gotQuery["category"] != "technology" {
		t.Errorf("category = %q, want %q", gotQuery["category"], "technology")
	}
	if gotQuery["pageSize"] != "20" {
		t.Errorf("pageSize = %q, want %q", gotQuery["pageSize"], "20")
	}
	if gotQuery["apiKey"] != "test-key" {
		t.Errorf("apiKey = %q, want %q", gotQuery["apiKey"], "test-key")
	}

	if len(articles) != 1 {
		t.Fatalf("記事数 = %d, want 1", len(articles))
	}

	a := articles[0]
	if a.Title != "New Chip Announced" {
		t.Errorf("Title = %q, want %q", a.Title, "New Chip Announced")
	}
	if a.SourceName != "TechCrunch" {
		t.Errorf("SourceName = %q, want %q", a.SourceName, "TechCrunch")
	}
	if a.Content != "A new chip was announced today." {
		t.Errorf("Content = %q, want %q", a.Content, "A new chip was announced today.")
	}
	if a.Category != model.Category("technology") {
		t.Errorf("Category = %q, want %q", a.Category, "technology")
	}
	if a.ID == "" {
		t.Error("ID が付与されていない")
	}
	want := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	if !a.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", a.PublishedAt, want)
	}
	if a.Verification.Phase != model.VerificationNotStarted {
		t.Errorf("Verification.Phase = %q, want %q", a.Verification.Phase, model.VerificationNotStarted)
	}
}

func TestFetchHeadlines_SearchQueryParam(t *testing.T) {
	var gotQ string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"status": "ok", "articles": []}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	q := testQuery()
	q.Search = "climate summit"
	if _, err := c.FetchHeadlines(context.Background(), q); err != nil {
		t.Fatalf("FetchHeadlines がエラーを返した: %v", err)
	}
	if gotQ != "climate summit" {
		t.Errorf("q = %q, want %q", gotQ, "climate summit")
	}
}

func TestFetchHeadlines_MissingFields_AppliesDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"source": {}, "title": "", "description": "", "url": "https://example.com/a"}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	articles, err := c.FetchHeadlines(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("FetchHeadlines がエラーを返した: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("記事数 = %d, want 1", len(articles))
	}

	a := articles[0]
	if a.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want %q", a.Title, model.DefaultTitle)
	}
	if a.SourceName != model.DefaultSourceName {
		t.Errorf("SourceName = %q, want %q", a.SourceName, model.DefaultSourceName)
	}
	if a.Content != model.DefaultContent {
		t.Errorf("Content = %q, want %q", a.Content, model.DefaultContent)
	}
	if !a.PublishedAt.IsZero() {
		t.Errorf("PublishedAt = %v, want ゼロ値", a.PublishedAt)
	}
}

func TestFetchHeadlines_InvalidTimestamp_KeepsRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": "T", "publishedAt": "yesterday afternoon"}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	articles, err := c.FetchHeadlines(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("FetchHeadlines がエラーを返した: %v", err)
	}

	a := articles[0]
	if !a.PublishedAt.IsZero() {
		t.Errorf("PublishedAt = %v, want ゼロ値", a.PublishedAt)
	}
	if a.PublishedAtRaw != "yesterday afternoon" {
		t.Errorf("PublishedAtRaw = %q, want %q", a.PublishedAtRaw, "yesterday afternoon")
	}
}

func TestFetchHeadlines_NonOKStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	buf := &bytes.Buffer{}
	c := NewClient(server.Client(), newTestLogger(buf), "bad-key", nil)
	c.endpoint = server.URL

	if _, err := c.FetchHeadlines(context.Background(), testQuery()); err == nil {
		t.Error("非200ステータスでエラーが返らない")
	}
}

func TestFetchHeadlines_InvalidJSON_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{invalid`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	if _, err := c.FetchHeadlines(context.Background(), testQuery()); err == nil {
		t.Error("不正なJSONでエラーが返らない")
	}
}

func TestFetchHeadlines_EmptyArticles_ReturnsEmptySlice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "articles": []}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	articles, err := c.FetchHeadlines(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("FetchHeadlines がエラーを返した: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("記事数 = %d, want 0", len(articles))
	}
}
