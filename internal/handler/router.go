package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/factman/internal/metrics"
	"github.com/hitoshi/factman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 見出し・検証
	HeadlineService HeadlineServiceInterface
	HeadlineConfig  HeadlineHandlerConfig

	// メトリクス
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	headlineHandler := NewHeadlineHandler(deps.HeadlineService, deps.HeadlineConfig)
	verifyHandler := NewVerifyHandler(deps.HeadlineService)

	// --- 運用エンドポイント ---

	r.Get("/health", handleHealth)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- APIエンドポイント ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/headlines", func(r chi.Router) {
			r.Get("/", headlineHandler.ListHeadlines)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", headlineHandler.GetArticle)

				// POST /api/headlines/{id}/verify - 検証専用レート制限を追加
				r.With(deps.RateLimiter.VerifyMiddleware()).Post("/verify", verifyHandler.VerifyArticle)
			})
		})
	})

	return r
}

// handleHealth はヘルスチェックに応答する。
// 外部依存を持たないため、プロセスが応答可能であれば常に200を返す。
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
