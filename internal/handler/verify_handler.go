package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// VerifyHandler は記事検証のHTTPハンドラー。
type VerifyHandler struct {
	service HeadlineServiceInterface
}

// NewVerifyHandler はVerifyHandlerを生成する。
func NewVerifyHandler(service HeadlineServiceInterface) *VerifyHandler {
	return &VerifyHandler{
		service: service,
	}
}

// VerifyArticle は記事の検証を実行する。
// ユーザーのタップに対して同期的に実行され、判定確定後の記事を返す。
// POST /api/headlines/:id/verify
func (h *VerifyHandler) VerifyArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := h.service.VerifyArticle(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toArticleResponse(article))
}
