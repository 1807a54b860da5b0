package headline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxPageSize はog:image抽出のために読み込む記事ページの最大サイズ（512KB）。
const maxPageSize = 512 * 1024

// pageTimeout は記事ページ取得のタイムアウト。
const pageTimeout = 5 * time.Second

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// ImageResolverService は記事画像URLの補完のインターフェース。
type ImageResolverService interface {
	// ResolveImage は記事ページからog:image等のメタタグを抽出して画像URLを返す。
	// 取得失敗時は空文字列を返す（エラーは返さない）。
	ResolveImage(ctx context.Context, pageURL string) string
}

// ImageResolver は画像URL欠損記事のベストエフォート補完を行う。
// 記事ページのHTMLを取得し、og:imageまたはtwitter:imageメタタグを探す。
type ImageResolver struct {
	ssrfGuard  SSRFValidator
	httpClient *http.Client
}

// NewImageResolver はImageResolverの新しいインスタンスを生成する。
func NewImageResolver(ssrfGuard SSRFValidator) *ImageResolver {
	return &ImageResolver{
		ssrfGuard:  ssrfGuard,
		httpClient: ssrfGuard.NewSafeClient(pageTimeout),
	}
}

// ResolveImage は記事ページから画像URLを抽出する。
// URLは上流レスポンス由来であるため、フェッチ前にSSRF検証を行う。
func (r *ImageResolver) ResolveImage(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	if err := r.ssrfGuard.ValidateURL(pageURL); err != nil {
		slog.Warn("画像補完: SSRFブロック", "url", pageURL, "error", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		slog.Debug("画像補完: リクエスト作成失敗", "url", pageURL, "error", err)
		return ""
	}
	req.Header.Set("User-Agent", "Factman/1.0 News Verifier")
	req.Header.Set("Accept", "text/html")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Debug("画像補完: HTTPリクエスト失敗", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("画像補完: HTTPステータス異常", "url", pageURL, "status", resp.StatusCode)
		return ""
	}

	imageURL := extractImageMeta(io.LimitReader(resp.Body, maxPageSize))
	if imageURL == "" {
		return ""
	}

	// 抽出した画像URL自体も上流制御の値であるため検証する
	if err := r.ssrfGuard.ValidateURL(imageURL); err != nil {
		slog.Warn("画像補完: 抽出URLのSSRFブロック", "url", imageURL, "error", err)
		return ""
	}

	return imageURL
}

// extractImageMeta はHTMLからog:image/twitter:imageメタタグのcontentを抽出する。
// og:imageを優先し、なければtwitter:imageを採用する。
func extractImageMeta(body io.Reader) string {
	doc, err := html.Parse(body)
	if err != nil {
		return ""
	}

	var ogImage, twitterImage string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var key, content string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "property", "name":
					key = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			switch key {
			case "og:image":
				if ogImage == "" {
					ogImage = content
				}
			case "twitter:image":
				if twitterImage == "" {
					twitterImage = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if ogImage != "" {
		return ogImage
	}
	return twitterImage
}
