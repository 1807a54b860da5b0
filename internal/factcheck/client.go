// Package factcheck はファクトチェックAPIのクレーム検索クライアントを提供する。
// 記事タイトルをクエリとして既存のクレームレビューを検索する。
package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/factman/internal/model"
)

const (
	// defaultEndpoint はクレーム検索APIのエンドポイント。
	defaultEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"
	// APIName はメトリクスラベル等で使用するAPI名。
	APIName = "factcheck"
)

// StatusRecorder は上流APIの呼び出し結果を記録するインターフェース。
type StatusRecorder interface {
	RecordUpstreamStatus(api string, statusCode int)
	RecordUpstreamLatency(api string, duration time.Duration)
}

// Client はクレーム検索APIのクライアント。
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

// claimsResponse は上流レスポンスのトップレベル構造。claimsは欠損しうる。
type claimsResponse struct {
	Claims []claim `json:"claims"`
}

// claim はクレーム1件。claimReviewが空のクレームは判定に使用できない。
type claim struct {
	ClaimReview []claimReview `json:"claimReview"`
}

// claimReview はファクトチェッカーによるレビュー1件。
type claimReview struct {
	Publisher struct {
		Name string `json:"name"`
	} `json:"publisher"`
	URL           string `json:"url"`
	ReviewDate    string `json:"reviewDate"`
	TextualRating string `json:"textualRating"`
}

// Search はクエリに一致するクレームレビューを検索する。
// 各クレームの先頭レビューのみを採用し、レビューを持たないクレームは読み飛ばす。
// 一致がない場合は空スライスを返す（エラーではない）。
// トランスポートエラーおよび非200ステータスはエラーとして返す
// （検証エンジン側で回復され、ヒューリスティックにフォールバックする）。
func (c *Client) Search(ctx context.Context, query, languageCode string) ([]model.ClaimReview, error) {
	// リクエストURL構築
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	params := reqURL.Query()
	params.Set("query", query)
	params.Set("languageCode", languageCode)
	params.Set("key", c.apiKey)
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
		c.metrics.RecordUpstreamLatency(APIName, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("ファクトチェックAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(APIName, resp.StatusCode)
	}

	// HTTPステータスチェック
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ファクトチェックAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("ファクトチェックAPIがステータス %d を返しました", resp.StatusCode)
	}

	// レスポンスボディ読み取り
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	// JSONデコード
	var result claimsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Warn("ファクトチェックAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	// 各クレームの先頭レビューを採用
	reviews := make([]model.ClaimReview, 0, len(result.Claims))
	for _, cl := range result.Claims {
		if len(cl.ClaimReview) == 0 {
			continue
		}
		first := cl.ClaimReview[0]
		reviews = append(reviews, model.ClaimReview{
			TextualRating: first.TextualRating,
			Publisher:     first.Publisher.Name,
			ReviewDate:    first.ReviewDate,
			URL:           first.URL,
		})
	}

	return reviews, nil
}
