// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/factman/internal/middleware"
	"github.com/hitoshi/factman/internal/model"
)

// HeadlineServiceInterface は見出しハンドラーが必要とするサービスインターフェース。
type HeadlineServiceInterface interface {
	// List は見出し一覧を取得してストアに格納し、検証状態つきで返す。
	List(ctx context.Context, q model.HeadlineQuery) ([]model.Article, error)
	// Get はIDで記事を取得する。
	Get(ctx context.Context, id string) (model.Article, error)
	// VerifyArticle は記事の検証を実行し、判定適用後の記事を返す。
	VerifyArticle(ctx context.Context, id string) (model.Article, error)
}

// HeadlineHandlerConfig は見出しハンドラーのデフォルト検索条件を保持する。
type HeadlineHandlerConfig struct {
	DefaultCountry  string
	DefaultLanguage string
	PageSize        int
}

// HeadlineHandler は見出し取得のHTTPハンドラー。
type HeadlineHandler struct {
	service HeadlineServiceInterface
	config  HeadlineHandlerConfig
}

// NewHeadlineHandler はHeadlineHandlerを生成する。
func NewHeadlineHandler(service HeadlineServiceInterface, config HeadlineHandlerConfig) *HeadlineHandler {
	return &HeadlineHandler{
		service: service,
		config:  config,
	}
}

// --- レスポンス型 ---

// reviewDetailsResponse は外部レビューの出典情報のレスポンス。
type reviewDetailsResponse struct {
	Publisher  string `json:"publisher"`
	ReviewDate string `json:"review_date"`
	ReviewURL  string `json:"review_url"`
}

// verdictResponse は検証判定のレスポンス。
// detailsはmethodがexternal_claim_checkの場合にのみ含まれる。
type verdictResponse struct {
	Status     string                 `json:"status"`
	Confidence float64                `json:"confidence"`
	Method     string                 `json:"method"`
	Details    *reviewDetailsResponse `json:"details,omitempty"`
}

// verificationResponse は記事の検証状態のレスポンス。
type verificationResponse struct {
	Phase   string           `json:"phase"`
	Verdict *verdictResponse `json:"verdict,omitempty"`
}

// articleResponse は記事1件のレスポンス。
type articleResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	SourceName   string               `json:"source_name"`
	PublishedAt  *time.Time           `json:"published_at,omitempty"`
	Content      string               `json:"content"`
	ImageURL     string               `json:"image_url,omitempty"`
	URL          string               `json:"url"`
	Category     string               `json:"category"`
	Verification verificationResponse `json:"verification"`
}

// headlineListResponse は見出し一覧のレスポンス。
type headlineListResponse struct {
	Articles []articleResponse `json:"articles"`
}

// toArticleResponse はドメインモデルをレスポンス型に変換する。
func toArticleResponse(a model.Article) articleResponse {
	resp := articleResponse{
		ID:         a.ID,
		Title:      a.Title,
		SourceName: a.SourceName,
		Content:    a.Content,
		ImageURL:   a.ImageURL,
		URL:        a.URL,
		Category:   string(a.Category),
		Verification: verificationResponse{
			Phase: string(a.Verification.Phase),
		},
	}
	if !a.PublishedAt.IsZero() {
		t := a.PublishedAt
		resp.PublishedAt = &t
	}
	if v := a.Verification.Verdict; v != nil {
		vr := &verdictResponse{
			Status:     string(v.Status),
			Confidence: v.Confidence,
			Method:     string(v.Method),
		}
		if v.Details != nil {
			vr.Details = &reviewDetailsResponse{
				Publisher:  v.Details.Publisher,
				ReviewDate: v.Details.ReviewDate,
				ReviewURL:  v.Details.ReviewURL,
			}
		}
		resp.Verification.Verdict = vr
	}
	return resp
}

// ListHeadlines は見出し一覧を取得する。
// GET /api/headlines?category=general&q=keyword
func (h *HeadlineHandler) ListHeadlines(w http.ResponseWriter, r *http.Request) {
	categoryStr := r.URL.Query().Get("category")

	// デフォルトカテゴリは "general"
	category := model.CategoryGeneral
	if categoryStr != "" {
		category = model.Category(categoryStr)
	}
	if !model.ValidCategory(category) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidCategoryError(categoryStr))
		return
	}

	q := model.HeadlineQuery{
		Country:  h.config.DefaultCountry,
		Category: category,
		Search:   r.URL.Query().Get("q"),
		PageSize: h.config.PageSize,
		Language: h.config.DefaultLanguage,
	}

	articles, err := h.service.List(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := headlineListResponse{
		Articles: make([]articleResponse, 0, len(articles)),
	}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, toArticleResponse(a))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetArticle は記事詳細を取得する。
// GET /api/headlines/:id
func (h *HeadlineHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toArticleResponse(article))
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unexpected service error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	status := http.StatusInternalServerError
	switch apiErr.Code {
	case model.ErrCodeArticleNotFound, model.ErrCodeHeadlinesEmpty:
		status = http.StatusNotFound
	case model.ErrCodeInvalidCategory:
		status = http.StatusBadRequest
	case model.ErrCodeHeadlineFetchFailed:
		status = http.StatusBadGateway
	case model.ErrCodeVerifyFailed:
		status = http.StatusInternalServerError
	}

	middleware.WriteErrorResponse(w, status, apiErr)
}
