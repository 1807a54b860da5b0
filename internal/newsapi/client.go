// Package newsapi はニュース集約APIから見出しを取得するクライアントを提供する。
// 上流のJSONレスポンスを正規化し、欠損フィールドにデフォルト値を補完した
// Articleのリストを返す。
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/factman/internal/model"
)

const (
	// defaultEndpoint はトップ見出し取得APIのエンドポイント。
	defaultEndpoint = "https://newsapi.org/v2/top-headlines"
	// ProviderName はメトリクスラベル等で使用するプロバイダ名。
	ProviderName = "newsapi"
)

// StatusRecorder は上流APIの呼び出し結果を記録するインターフェース。
type StatusRecorder interface {
	RecordUpstreamStatus(api string, statusCode int)
	RecordUpstreamLatency(api string, duration time.Duration)
}

// Client はニュース集約APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	metrics    StatusRecorder // nilの場合は記録しない
	endpoint   string         // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string, metrics StatusRecorder) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		metrics:    metrics,
		endpoint:   defaultEndpoint,
	}
}

// Name はプロバイダ名を返す。
func (c *Client) Name() string {
	return ProviderName
}

// newsResponse は上流レスポンスのトップレベル構造。
type newsResponse struct {
	Status   string        `json:"status"`
	Articles []newsArticle `json:"articles"`
}

// newsArticle は上流レスポンスの記事1件。すべてのフィールドが欠損しうる。
type newsArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// FetchHeadlines は指定条件のトップ見出しを取得し、正規化済みのArticleリストを返す。
// 欠損フィールドはプレースホルダーで補完される。
// トランスポートエラーおよび非200ステータスはエラーとして返す（呼び出し元が
// ユーザー向けメッセージに変換する）。
func (c *Client) FetchHeadlines(ctx context.Context, q model.HeadlineQuery) ([]model.Article, error) {
	// リクエストURL構築
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	params := reqURL.Query()
	params.Set("country", q.Country)
	params.Set("category", string(q.Category))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("language", q.Language)
	params.Set("apiKey", c.apiKey)
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	reqURL.RawQuery = params.Encode()

	// HTTPリクエスト作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Factman/1.0 News Verifier")

	// HTTPリクエスト実行
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordUpstreamLatency(ProviderName, time.Since(start))
	}
	if err != nil {
		c.logger.Error("ニュースAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("category", string(q.Category)),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(ProviderName, resp.StatusCode)
	}

	// HTTPステータスチェック
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("ニュースAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("category", string(q.Category)),
		)
		return nil, fmt.Errorf("ニュースAPIがステータス %d を返しました", resp.StatusCode)
	}

	// レスポンスボディ読み取り
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	// JSONデコード
	var result newsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("ニュースAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	// 正規化: 欠損フィールドの補完とタイムスタンプのパース
	articles := make([]model.Article, 0, len(result.Articles))
	for _, raw := range result.Articles {
		articles = append(articles, normalize(raw, q.Category))
	}

	return articles, nil
}

// normalize は上流の記事1件を正規化済みのArticleに変換する。
func normalize(raw newsArticle, category model.Category) model.Article {
	a := model.Article{
		Title:          raw.Title,
		SourceName:     raw.Source.Name,
		Content:        raw.Description,
		ImageURL:       raw.URLToImage,
		URL:            raw.URL,
		PublishedAtRaw: raw.PublishedAt,
		Category:       category,
		Verification:   model.NewVerificationState(),
	}

	// publishedAtはISO-8601。パース失敗時はゼロ値のままRawを保持する
	if raw.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			a.PublishedAt = t
		}
	}

	a.ApplyDefaults()
	return a
}
