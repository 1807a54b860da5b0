package verify

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/factman/internal/model"
)

const (
	// databaseConfidence は既知クレームテーブル一致時の固定信頼度。
	databaseConfidence = 0.95
	// claimCheckConfidence は外部レビュー採用時の固定信頼度。
	// レビュー内容ではなく外部ソース自体の信頼性を表す。
	claimCheckConfidence = 0.9
)

// ClaimSearcher はクレームレビュー検索のインターフェース。
type ClaimSearcher interface {
	// Search はクエリに一致するクレームレビューを検索する。
	Search(ctx context.Context, query, languageCode string) ([]model.ClaimReview, error)
}

// VerdictRecorder は判定結果のメトリクス記録のインターフェース。
type VerdictRecorder interface {
	RecordVerdict(status string, method string)
	RecordClaimCheckFailure()
}

// Engine はニュース記事の検証エンジン。
// 優先順位つきのフォールバックチェーンで判定する:
//
//  1. 既知クレームテーブルとの完全一致
//  2. 外部ファクトチェックAPIのクレームレビュー
//  3. ソース信頼度と本文スコアのヒューリスティック
//
// 外部API呼び出しの失敗はエンジン内で回復され、呼び出し元には伝播しない。
// 固定テーブルを除けば副作用はステップ2のネットワーク呼び出しのみ。
type Engine struct {
	rules    *Ruleset
	claims   ClaimSearcher
	cfg      HeuristicConfig
	language string
	logger   *slog.Logger
	metrics  VerdictRecorder // nilの場合は記録しない
	group    singleflight.Group
}

// NewEngine はEngineの新しいインスタンスを生成する。
func NewEngine(rules *Ruleset, claims ClaimSearcher, cfg HeuristicConfig, language string, logger *slog.Logger, metrics VerdictRecorder) *Engine {
	return &Engine{
		rules:    rules,
		claims:   claims,
		cfg:      cfg,
		language: language,
		logger:   logger,
		metrics:  metrics,
	}
}

// Verify は記事を検証して判定を返す。エラーは返さない。
// 同一タイトルへの同時要求はsingleflightで1回の実行に合流させる
// （外部ファクトチェックAPIへの重複呼び出しを抑止する）。
func (e *Engine) Verify(ctx context.Context, article *model.Article) model.Verdict {
	key := NormalizeTitle(article.Title)
	v, _, _ := e.group.Do(key, func() (interface{}, error) {
		return e.verify(ctx, article), nil
	})

	verdict := v.(model.Verdict)
	if e.metrics != nil {
		e.metrics.RecordVerdict(string(verdict.Status), string(verdict.Method))
	}
	return verdict
}

// verify はフォールバックチェーンを順に評価し、最初に確定した判定を返す。
func (e *Engine) verify(ctx context.Context, article *model.Article) model.Verdict {
	// 1. 既知クレームテーブルとの完全一致
	if verdict, ok := e.lookupDatabase(article); ok {
		return verdict
	}

	// 2. 外部ファクトチェックAPI
	if verdict, ok := e.checkExternalClaims(ctx, article); ok {
		return verdict
	}

	// 3. ヒューリスティック（常に判定を返す）
	return e.scoreHeuristic(article)
}

// lookupDatabase は既知クレームテーブルを検索して判定を試みる。
func (e *Engine) lookupDatabase(article *model.Article) (model.Verdict, bool) {
	isFake, ok := e.rules.LookupClaim(article.Title)
	if !ok {
		return model.Verdict{}, false
	}

	status := model.StatusTrue
	if isFake {
		status = model.StatusFake
	}
	return model.Verdict{
		Status:     status,
		Confidence: databaseConfidence,
		Method:     model.MethodDatabaseMatch,
	}, true
}

// checkExternalClaims は外部ファクトチェックAPIで判定を試みる。
// 呼び出し失敗および0件の場合はフォールスルーする（失敗はログのみ）。
func (e *Engine) checkExternalClaims(ctx context.Context, article *model.Article) (model.Verdict, bool) {
	reviews, err := e.claims.Search(ctx, article.Title, e.language)
	if err != nil {
		e.logger.Warn("ファクトチェック検索に失敗したためヒューリスティックにフォールバックします",
			slog.String("title", article.Title),
			slog.String("error", err.Error()),
		)
		if e.metrics != nil {
			e.metrics.RecordClaimCheckFailure()
		}
		return model.Verdict{}, false
	}
	if len(reviews) == 0 {
		return model.Verdict{}, false
	}

	// 先頭レビューのみを採用する
	first := reviews[0]
	return model.Verdict{
		Status:     classifyRating(first.TextualRating),
		Confidence: claimCheckConfidence,
		Method:     model.MethodExternalClaimCheck,
		Details: &model.ReviewDetails{
			Publisher:  first.Publisher,
			ReviewDate: first.ReviewDate,
			ReviewURL:  first.URL,
		},
	}, true
}

// classifyRating はレビューの評価テキストを判定ステータスに分類する。
// "mostly false" 等を誤って本物扱いしないよう、falseの照合を先に行う。
func classifyRating(rating string) model.VerdictStatus {
	lower := strings.ToLower(rating)
	switch {
	case strings.Contains(lower, "false"):
		return model.StatusFake
	case strings.Contains(lower, "true"):
		return model.StatusTrue
	default:
		return model.StatusUnverified
	}
}

// scoreHeuristic はソース信頼度と本文スコアの加重和で判定する。
// 本文が欠損している記事はタイトルを分析対象とする。
func (e *Engine) scoreHeuristic(article *model.Article) model.Verdict {
	text := article.Content
	if !article.HasContent() {
		text = article.Title
	}

	trust := sourceTrustScore(e.rules, article.SourceName)
	content := contentScore(e.rules, text)
	combined := e.cfg.SourceWeight*trust + e.cfg.ContentWeight*content

	switch {
	case combined > e.cfg.UpperThreshold:
		return model.Verdict{
			Status:     model.StatusTrue,
			Confidence: combined,
			Method:     model.MethodHeuristic,
		}
	case combined < e.cfg.LowerThreshold:
		return model.Verdict{
			Status:     model.StatusFake,
			Confidence: 1.0 - combined,
			Method:     model.MethodHeuristic,
		}
	default:
		return model.Verdict{
			Status:     model.StatusUnverified,
			Confidence: unverifiedConfidence,
			Method:     model.MethodHeuristic,
		}
	}
}
