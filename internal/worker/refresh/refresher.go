// Package refresh は見出しキャッシュの定期リフレッシュジョブを提供する。
// 設定されたカテゴリの見出しを一定間隔で取得し直し、
// クライアントの初回表示を温かいキャッシュで応答できるようにする。
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/factman/internal/model"
)

const (
	// initialBackoff は取得失敗時の初回バックオフ遅延。
	initialBackoff = time.Minute
	// maxBackoff はバックオフ遅延の上限。
	maxBackoff = 30 * time.Minute
)

// HeadlineLister は見出し取得サービスのインターフェース。
type HeadlineLister interface {
	List(ctx context.Context, q model.HeadlineQuery) ([]model.Article, error)
}

// Config はリフレッシュジョブの設定を保持する。
type Config struct {
	Interval      time.Duration
	Categories    []model.Category
	Country       string
	Language      string
	PageSize      int
	MaxConcurrent int
}

// categoryState はカテゴリごとの連続失敗回数と次回試行時刻を保持する。
type categoryState struct {
	consecutiveErrors int
	nextAttempt       time.Time
}

// Refresher は見出しキャッシュの定期リフレッシュを実行する。
// 失敗したカテゴリは指数バックオフでスキップし、上流APIへの連打を避ける。
type Refresher struct {
	svc    HeadlineLister
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	states map[model.Category]*categoryState
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
func NewRefresher(svc HeadlineLister, cfg Config, logger *slog.Logger) *Refresher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	return &Refresher{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		states: make(map[model.Category]*categoryState),
	}
}

// Start はリフレッシュループを実行する（ブロッキング）。
// 起動直後に1回実行し、以降は設定間隔で繰り返す。
// コンテキストのキャンセルで停止する。
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("headline refresher starting",
		slog.Duration("interval", r.cfg.Interval),
		slog.Int("categories", len(r.cfg.Categories)),
	)

	r.refreshOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("headline refresher stopped")
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

// refreshOnce は全カテゴリを上限つき並列でリフレッシュする。
// バックオフ中のカテゴリはスキップする。
func (r *Refresher) refreshOnce(ctx context.Context) {
	g := new(errgroup.Group)
	g.SetLimit(r.cfg.MaxConcurrent)

	now := time.Now()
	for _, category := range r.cfg.Categories {
		if !r.shouldAttempt(category, now) {
			continue
		}
		category := category
		g.Go(func() error {
			r.refreshCategory(ctx, category)
			return nil
		})
	}
	g.Wait()
}

// refreshCategory は1カテゴリの見出しを取得し直し、結果でバックオフ状態を更新する。
func (r *Refresher) refreshCategory(ctx context.Context, category model.Category) {
	q := model.HeadlineQuery{
		Country:  r.cfg.Country,
		Category: category,
		PageSize: r.cfg.PageSize,
		Language: r.cfg.Language,
	}

	articles, err := r.svc.List(ctx, q)
	if err != nil {
		delay := r.recordFailure(category)
		r.logger.Warn("見出しリフレッシュに失敗しました",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
			slog.Duration("backoff", delay),
		)
		return
	}

	r.recordSuccess(category)
	r.logger.Info("見出しリフレッシュが完了しました",
		slog.String("category", string(category)),
		slog.Int("count", len(articles)),
	)
}

// shouldAttempt はカテゴリがバックオフ中でないかを返す。
func (r *Refresher) shouldAttempt(category model.Category, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[category]
	if !ok {
		return true
	}
	return !now.Before(state.nextAttempt)
}

// recordFailure は連続失敗回数を増やし、次回試行までのバックオフ遅延を返す。
func (r *Refresher) recordFailure(category model.Category) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[category]
	if !ok {
		state = &categoryState{}
		r.states[category] = state
	}
	state.consecutiveErrors++
	delay := CalculateBackoff(state.consecutiveErrors)
	state.nextAttempt = time.Now().Add(delay)
	return delay
}

// recordSuccess はカテゴリのバックオフ状態をリセットする。
func (r *Refresher) recordSuccess(category model.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, category)
}

// CalculateBackoff は連続エラー回数に基づいて指数バックオフ遅延を計算する。
// 初回1分、2倍ずつ増加、最大30分。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 1; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
