package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/factman/internal/config"
	"github.com/hitoshi/factman/internal/factcheck"
	"github.com/hitoshi/factman/internal/handler"
	"github.com/hitoshi/factman/internal/headline"
	"github.com/hitoshi/factman/internal/logger"
	"github.com/hitoshi/factman/internal/metrics"
	"github.com/hitoshi/factman/internal/middleware"
	"github.com/hitoshi/factman/internal/model"
	"github.com/hitoshi/factman/internal/newsapi"
	"github.com/hitoshi/factman/internal/rss"
	"github.com/hitoshi/factman/internal/security"
	"github.com/hitoshi/factman/internal/verify"
	"github.com/hitoshi/factman/internal/worker/refresh"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップする
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// リフレッシュカテゴリが設定されている場合は見出しリフレッシャも起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 3. 上流APIクライアントの初期化
	upstreamClient := &http.Client{Timeout: cfg.FetchTimeout}
	newsClient := newsapi.NewClient(upstreamClient, slog.Default(), cfg.NewsAPIKey, collector)
	claimClient := factcheck.NewClient(upstreamClient, slog.Default(), cfg.FactCheckAPIKey, collector)

	// 4. 検証エンジンの初期化
	rules, err := verify.LoadRuleset(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load verification ruleset: %w", err)
	}
	engine := verify.NewEngine(rules, claimClient, verify.HeuristicConfig{
		SourceWeight:   cfg.SourceWeight,
		ContentWeight:  cfg.ContentWeight,
		UpperThreshold: cfg.UpperThreshold,
		LowerThreshold: cfg.LowerThreshold,
	}, cfg.Language, slog.Default(), collector)

	slog.Info("verification ruleset loaded",
		slog.Int("known_claims", len(rules.KnownClaims)),
		slog.Int("trusted_sources", len(rules.TrustedSources)),
		slog.Int("red_flag_phrases", len(rules.RedFlagPhrases)),
	)

	// 5. 見出しサービスの初期化
	store := headline.NewStore()
	imageResolver := headline.NewImageResolver(ssrfGuard)

	// RSSフォールバックはフィード設定がある場合のみ有効化する
	var fallback headline.Provider
	if len(cfg.RSSFeeds) > 0 {
		fallback = rss.NewProvider(cfg.RSSFeeds, ssrfGuard, slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize)
	}

	headlineService := headline.NewService(
		newsClient, fallback, engine, store,
		sanitizer, imageResolver, slog.Default(), collector,
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitVerify),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		HeadlineService: headlineService,
		HeadlineConfig: handler.HeadlineHandlerConfig{
			DefaultCountry:  cfg.Country,
			DefaultLanguage: cfg.Language,
			PageSize:        cfg.PageSize,
		},

		Gatherer: registry,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// 8. 見出しリフレッシャの起動（カテゴリ設定時のみ）
	if len(cfg.RefreshCategories) > 0 && cfg.RefreshInterval > 0 {
		categories := make([]model.Category, 0, len(cfg.RefreshCategories))
		for _, c := range cfg.RefreshCategories {
			if model.ValidCategory(model.Category(c)) {
				categories = append(categories, model.Category(c))
			} else {
				slog.Warn("unknown refresh category ignored", slog.String("category", c))
			}
		}
		refresher := refresh.NewRefresher(headlineService, refresh.Config{
			Interval:      cfg.RefreshInterval,
			Categories:    categories,
			Country:       cfg.Country,
			Language:      cfg.Language,
			PageSize:      cfg.PageSize,
			MaxConcurrent: 2,
		}, slog.Default())
		go refresher.Start(ctx)
	}

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
