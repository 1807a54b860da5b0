// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, headline, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleNotFound     = "ARTICLE_NOT_FOUND"
	ErrCodeInvalidCategory     = "INVALID_CATEGORY"
	ErrCodeHeadlineFetchFailed = "HEADLINE_FETCH_FAILED"
	ErrCodeHeadlinesEmpty      = "HEADLINES_EMPTY"
	ErrCodeVerifyFailed        = "VERIFY_FAILED"
)

// NewArticleNotFoundError は記事未検出エラーを生成する。
// カテゴリ切替などで記事一覧が入れ替わった後の古いIDでも発生する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "headline",
		Action:   "見出し一覧を再取得してください。",
	}
}

// NewInvalidCategoryError は無効なカテゴリエラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("無効なカテゴリです: %s", category),
		Category: "validation",
		Action:   "general、business、entertainment、health、science、sports、technology のいずれかを指定してください。",
	}
}

// NewHeadlineFetchFailedError は見出し取得失敗エラーを生成する。
func NewHeadlineFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeHeadlineFetchFailed,
		Message:  fmt.Sprintf("見出しの取得に失敗しました: %s", reason),
		Category: "headline",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewHeadlinesEmptyError はフォールバック後も見出しが空であった場合のエラーを生成する。
func NewHeadlinesEmptyError() *APIError {
	return &APIError{
		Code:     ErrCodeHeadlinesEmpty,
		Message:  "表示できる見出しがありません。",
		Category: "headline",
		Action:   "カテゴリや検索条件を変更して再度お試しください。",
	}
}

// NewVerifyFailedError は検証処理の予期しない失敗エラーを生成する。
// 検証エンジン自体は常に判定を返すため、このエラーは防御的な経路でのみ使用される。
func NewVerifyFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeVerifyFailed,
		Message:  "記事の検証に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
