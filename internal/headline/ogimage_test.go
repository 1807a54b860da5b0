package headline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// mockSSRFValidator はテスト用のSSRFValidatorモック。
// httptestサーバーはループバックで動くため、検証は差し替える。
type mockSSRFValidator struct {
	blocked map[string]bool
}

func (m *mockSSRFValidator) ValidateURL(rawURL string) error {
	if m.blocked[rawURL] {
		return errors.New("ブロック対象のURLです")
	}
	return nil
}

func (m *mockSSRFValidator) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func TestExtractImageMeta(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "og:image",
			html: `<html><head><meta property="og:image" content="https://example.com/og.jpg"></head></html>`,
			want: "https://example.com/og.jpg",
		},
		{
			name: "twitter:image",
			html: `<html><head><meta name="twitter:image" content="https://example.com/tw.jpg"></head></html>`,
			want: "https://example.com/tw.jpg",
		},
		{
			name: "og:imageをtwitter:imageより優先",
			html: `<html><head>
				<meta name="twitter:image" content="https://example.com/tw.jpg">
				<meta property="og:image" content="https://example.com/og.jpg">
			</head></html>`,
			want: "https://example.com/og.jpg",
		},
		{
			name: "最初のog:imageを採用",
			html: `<html><head>
				<meta property="og:image" content="https://example.com/first.jpg">
				<meta property="og:image" content="https://example.com/second.jpg">
			</head></html>`,
			want: "https://example.com/first.jpg",
		},
		{
			name: "大文字のproperty属性キー",
			html: `<html><head><meta PROPERTY="og:image" content="https://example.com/og.jpg"></head></html>`,
			want: "https://example.com/og.jpg",
		},
		{
			name: "メタタグなし",
			html: `<html><head><title>No Images</title></head><body><p>text</p></body></html>`,
			want: "",
		},
		{
			name: "壊れたHTMLでも抽出する",
			html: `<head><meta property="og:image" content="https://example.com/og.jpg"><p>unclosed`,
			want: "https://example.com/og.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractImageMeta(strings.NewReader(tt.html))
			if got != tt.want {
				t.Errorf("extractImageMeta = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveImage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><meta property="og:image" content="https://example.com/og.jpg"></head></html>`))
	}))
	defer server.Close()

	r := NewImageResolver(&mockSSRFValidator{})

	got := r.ResolveImage(context.Background(), server.URL)
	if got != "https://example.com/og.jpg" {
		t.Errorf("ResolveImage = %q, want %q", got, "https://example.com/og.jpg")
	}
}

func TestResolveImage_EmptyURL(t *testing.T) {
	r := NewImageResolver(&mockSSRFValidator{})
	if got := r.ResolveImage(context.Background(), ""); got != "" {
		t.Errorf("ResolveImage(\"\") = %q, want 空文字", got)
	}
}

func TestResolveImage_BlockedPageURL(t *testing.T) {
	guard := &mockSSRFValidator{blocked: map[string]bool{"http://169.254.169.254/latest": true}}
	r := NewImageResolver(guard)

	if got := r.ResolveImage(context.Background(), "http://169.254.169.254/latest"); got != "" {
		t.Errorf("ブロック対象URLで %q が返った, want 空文字", got)
	}
}

func TestResolveImage_BlockedExtractedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:image" content="http://10.0.0.1/internal.jpg"></head></html>`))
	}))
	defer server.Close()

	guard := &mockSSRFValidator{blocked: map[string]bool{"http://10.0.0.1/internal.jpg": true}}
	r := NewImageResolver(guard)

	if got := r.ResolveImage(context.Background(), server.URL); got != "" {
		t.Errorf("抽出URLがブロック対象でも %q が返った, want 空文字", got)
	}
}

func TestResolveImage_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := NewImageResolver(&mockSSRFValidator{})
	if got := r.ResolveImage(context.Background(), server.URL); got != "" {
		t.Errorf("非2xxステータスで %q が返った, want 空文字", got)
	}
}

func TestResolveImage_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := NewImageResolver(&mockSSRFValidator{})
	if got := r.ResolveImage(context.Background(), server.URL); got != "" {
		t.Errorf("接続不能なサーバーで %q が返った, want 空文字", got)
	}
}
