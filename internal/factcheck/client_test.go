package factcheck

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hitoshi/factman/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestNewClient(t *testing.T) {
	c := NewClient(http.DefaultClient, slog.Default(), "test-key", nil)
	if c == nil {
		t.Fatal("NewClient は nil を返してはならない")
	}
}

func TestSearch_Success(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"query":        r.URL.Query().Get("query"),
			"languageCode": r.URL.Query().Get("languageCode"),
			"key":          r.URL.Query().Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"claims": [
				{
					"claimReview": [
						{
							"publisher": {"name": "Snopes"},
							"url": "https://snopes.example.com/check/1",
							"reviewDate": "2026-03-01T00:00:00Z",
							"textualRating": "False"
						},
						{
							"publisher": {"name": "Second Checker"},
							"textualRating": "True"
						}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	buf := &bytes.Buffer{}
	c := NewClient(server.Client(), newTestLogger(buf), "test-key", nil)
	c.endpoint = server.URL

	reviews, err := c.Search(context.Background(), "vaccine microchip", "en")
	if err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}

	if gotQuery["query"] != "vaccine microchip" {
		t.Errorf("query = %q, want %q", gotQuery["query"], "vaccine microchip")
	}
	if gotQuery["languageCode"] != "en" {
		t.Errorf("languageCode = %q, want %q", gotQuery["languageCode"], "en")
	}
	if gotQuery["key"] != "test-key" {
		t.Errorf("key = %q, want %q", gotQuery["key"], "test-key")
	}

	// クレームごとに先頭レビューのみ採用される
	want := []model.ClaimReview{
		{
			TextualRating: "False",
			Publisher:     "Snopes",
			ReviewDate:    "2026-03-01T00:00:00Z",
			URL:           "https://snopes.example.com/check/1",
		},
	}
	if diff := cmp.Diff(want, reviews); diff != "" {
		t.Errorf("レビューが一致しない (-want +got):\n%s", diff)
	}
}

func TestSearch_SkipsClaimsWithoutReviews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"claims": [
				{"claimReview": []},
				{"claimReview": [{"publisher": {"name": "PolitiFact"}, "textualRating": "True"}]}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	reviews, err := c.Search(context.Background(), "some claim", "en")
	if err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("レビュー数 = %d, want 1", len(reviews))
	}
	if reviews[0].Publisher != "PolitiFact" {
		t.Errorf("Publisher = %q, want %q", reviews[0].Publisher, "PolitiFact")
	}
}

func TestSearch_NoClaims_ReturnsEmptySlice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	reviews, err := c.Search(context.Background(), "unmatched claim", "en")
	if err != nil {
		t.Fatalf("一致なしはエラーではない: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("レビュー数 = %d, want 0", len(reviews))
	}
}

func TestSearch_NonOKStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	buf := &bytes.Buffer{}
	c := NewClient(server.Client(), newTestLogger(buf), "bad-key", nil)
	c.endpoint = server.URL

	if _, err := c.Search(context.Background(), "some claim", "en"); err == nil {
		t.Error("非200ステータスでエラーが返らない")
	}
}

func TestSearch_InvalidJSON_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), slog.Default(), "test-key", nil)
	c.endpoint = server.URL

	if _, err := c.Search(context.Background(), "some claim", "en"); err == nil {
		t.Error("不正なJSONでエラーが返らない")
	}
}
