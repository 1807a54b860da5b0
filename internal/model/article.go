// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// 上流レスポンスの欠損フィールドに適用するデフォルト値。
const (
	// DefaultTitle はタイトル欠損時のプレースホルダー。
	DefaultTitle = "untitled"
	// DefaultSourceName はソース名欠損時のプレースホルダー。
	DefaultSourceName = "unknown source"
	// DefaultContent は本文欠損時のプレースホルダー。
	DefaultContent = "click for details"
)

// Category はニュースのカテゴリを表す。
type Category string

const (
	// CategoryGeneral は総合ニュースカテゴリ。フォールバック先としても使用される。
	CategoryGeneral Category = "general"
	// CategoryBusiness はビジネスカテゴリ。
	CategoryBusiness Category = "business"
	// CategoryEntertainment はエンタメカテゴリ。
	CategoryEntertainment Category = "entertainment"
	// CategoryHealth は健康カテゴリ。
	CategoryHealth Category = "health"
	// CategoryScience は科学カテゴリ。
	CategoryScience Category = "science"
	// CategorySports はスポーツカテゴリ。
	CategorySports Category = "sports"
	// CategoryTechnology はテクノロジーカテゴリ。
	CategoryTechnology Category = "technology"
)

// ValidCategory はカテゴリが定義済みのいずれかであるかを返す。
func ValidCategory(c Category) bool {
	switch c {
	case CategoryGeneral, CategoryBusiness, CategoryEntertainment,
		CategoryHealth, CategoryScience, CategorySports, CategoryTechnology:
		return true
	}
	return false
}

// Article はニュース記事1件を表す。
// フェッチレスポンスごとに1回構築され、検証要求時に検証状態のみが更新される。
// 永続化はされず、プロセス内メモリ上にのみ存在する。
type Article struct {
	ID             string
	Title          string
	SourceName     string
	PublishedAt    time.Time // パース失敗時はゼロ値のままPublishedAtRawを参照する
	PublishedAtRaw string
	Content        string // サニタイズ済みプレーンテキスト
	ImageURL       string // 空の場合はクライアント側プレースホルダーを使用
	URL            string
	Category       Category
	Verification   VerificationState
}

// ApplyDefaults は欠損フィールドにプレースホルダー値を補完する。
// IDが未設定の場合はUUIDを採番する。
func (a *Article) ApplyDefaults() {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Title == "" {
		a.Title = DefaultTitle
	}
	if a.SourceName == "" {
		a.SourceName = DefaultSourceName
	}
	if a.Content == "" {
		a.Content = DefaultContent
	}
}

// HasContent は本文が実データを持つかを返す。
// 空文字およびプレースホルダーは本文なしとして扱う。
func (a *Article) HasContent() bool {
	return a.Content != "" && a.Content != DefaultContent
}

// VerificationPhase は記事の検証フェーズを表す。
// 未着手・検証中・完了の3値を明示的に区別する。
type VerificationPhase string

const (
	// VerificationNotStarted は検証が一度も要求されていない状態。
	VerificationNotStarted VerificationPhase = "not_started"
	// VerificationPending は検証が進行中の状態。UIのローディング表示を駆動する。
	VerificationPending VerificationPhase = "pending"
	// VerificationDone は検証が完了し判定が確定した状態。
	VerificationDone VerificationPhase = "done"
)

// VerificationState は記事の検証状態を表す。
// VerdictはPhaseがVerificationDoneの場合にのみ非nil。
type VerificationState struct {
	Phase   VerificationPhase
	Verdict *Verdict
}

// NewVerificationState は未着手の検証状態を返す。
func NewVerificationState() VerificationState {
	return VerificationState{Phase: VerificationNotStarted}
}
