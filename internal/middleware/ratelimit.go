package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/factman/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	VerifyRate      rate.Limit    // 検証要求のレート（req/sec）。検証は外部APIを呼ぶため厳しめ
	VerifyBurst     int           // 検証要求のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig はreq/min単位の上限からレート制限設定を生成する。
func NewRateLimiterConfig(generalPerMin, verifyPerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMin) / 60.0),
		GeneralBurst:    generalPerMin,
		VerifyRate:      rate.Limit(float64(verifyPerMin) / 60.0),
		VerifyBurst:     verifyPerMin,
		CleanupInterval: 5 * time.Minute,
	}
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/IP、検証要求 30 req/min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(120, 30)
}

// clientLimiter はクライアントIPごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// 認証を持たないAPIのため、レート制限のキーにはクライアントIPを使用する。
// API全般のレート制限と検証要求のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.Mutex
	generalLimiters map[string]*clientLimiter

	verifyMu       sync.Mutex
	verifyLimiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*clientLimiter),
		verifyLimiters:  make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			limiter := rl.getOrCreate(&rl.generalMu, rl.generalLimiters, ip, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// VerifyMiddleware は検証要求専用のレート制限ミドルウェアを返す。
// 検証1回が外部ファクトチェックAPI呼び出しを伴うため、
// API全般のレート制限とは独立に、より厳しい上限を適用する。
func (rl *RateLimiter) VerifyMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			limiter := rl.getOrCreate(&rl.verifyMu, rl.verifyLimiters, ip, rl.config.VerifyRate, rl.config.VerifyBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.VerifyRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "verify"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getOrCreate はクライアントIPに対応するリミッターを取得または生成する。
func (rl *RateLimiter) getOrCreate(mu *sync.Mutex, limiters map[string]*clientLimiter, ip string, r rate.Limit, burst int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	if cl, ok := limiters[ip]; ok {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	cl := &clientLimiter{
		limiter:    rate.NewLimiter(r, burst),
		lastAccess: time.Now(),
	}
	limiters[ip] = cl
	return cl.limiter
}

// cleanupLoop は一定間隔でアクセスのないリミッターエントリを削除する。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-3 * rl.config.CleanupInterval)
			rl.cleanup(&rl.generalMu, rl.generalLimiters, cutoff)
			rl.cleanup(&rl.verifyMu, rl.verifyLimiters, cutoff)
		}
	}
}

// cleanup はcutoffより前に最終アクセスされたエントリを削除する。
func (rl *RateLimiter) cleanup(mu *sync.Mutex, limiters map[string]*clientLimiter, cutoff time.Time) {
	mu.Lock()
	defer mu.Unlock()

	for ip, cl := range limiters {
		if cl.lastAccess.Before(cutoff) {
			delete(limiters, ip)
		}
	}
}

// writeRateLimitResponse はRetry-Afterヘッダー付きの429レスポンスを書き込む。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfter := 1
	if r > 0 {
		retryAfter = int(math.Ceil(1.0 / float64(r)))
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:     "RATE_LIMITED",
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// ClientIP はリクエストからクライアントIPを取り出す。
// リバースプロキシ経由を想定し、X-Forwarded-Forの先頭エントリを優先する。
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
