package security

import (
	"testing"
	"time"
)

func TestNewSafeClient(t *testing.T) {
	g := NewSSRFGuard()
	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
}

func TestValidateURL_AllowedURLs(t *testing.T) {
	g := NewSSRFGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"HTTPSのパブリックホスト", "https://news.example.com/article/1"},
		{"HTTPのパブリックホスト", "http://news.example.com/feed.xml"},
		{"パブリックIP", "https://93.184.216.34/page"},
		{"大文字スキーム", "HTTPS://news.example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.ValidateURL(tt.url); err != nil {
				t.Errorf("ValidateURL(%q) がエラーを返した: %v", tt.url, err)
			}
		})
	}
}

func TestValidateURL_BlockedURLs(t *testing.T) {
	g := NewSSRFGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"空のURL", ""},
		{"スキームなし", "news.example.com/article"},
		{"ftpスキーム", "ftp://news.example.com/file"},
		{"fileスキーム", "file:///etc/passwd"},
		{"ループバックIP", "http://127.0.0.1/admin"},
		{"localhost", "http://localhost:8080/admin"},
		{"プライベートIP 10系", "http://10.0.0.5/internal"},
		{"プライベートIP 172系", "http://172.16.0.1/internal"},
		{"プライベートIP 192系", "http://192.168.1.1/router"},
		{"クラウドメタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"カレントネットワーク", "http://0.0.0.0/"},
		{"IPv6ループバック", "http://[::1]/admin"},
		{"IPv6リンクローカル", "http://[fe80::1]/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) がエラーを返さない", tt.url)
			}
		})
	}
}
