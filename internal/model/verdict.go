// Package model はドメインモデルを定義する。
package model

// VerdictStatus は検証判定の分類を表す。
type VerdictStatus string

const (
	// StatusTrue は本物と判定されたことを示す。
	StatusTrue VerdictStatus = "true"
	// StatusFake はフェイクと判定されたことを示す。
	StatusFake VerdictStatus = "fake"
	// StatusUnverified は判定不能であったことを示す。
	StatusUnverified VerdictStatus = "unverified"
)

// VerdictMethod は判定の根拠となった手段を表す。
type VerdictMethod string

const (
	// MethodDatabaseMatch は既知クレームテーブルとの完全一致による判定。
	MethodDatabaseMatch VerdictMethod = "database_match"
	// MethodExternalClaimCheck は外部ファクトチェックAPIのレビューによる判定。
	MethodExternalClaimCheck VerdictMethod = "external_claim_check"
	// MethodHeuristic はソース信頼度と本文スコアのヒューリスティックによる判定。
	MethodHeuristic VerdictMethod = "heuristic"
)

// ReviewDetails は外部レビューの出典情報を表す。
type ReviewDetails struct {
	Publisher  string
	ReviewDate string
	ReviewURL  string
}

// Verdict は検証エンジンの出力を表す。
// Confidenceは常に[0,1]の範囲で設定される。
// DetailsはMethodがMethodExternalClaimCheckの場合にのみ非nil。
type Verdict struct {
	Status     VerdictStatus
	Confidence float64
	Method     VerdictMethod
	Details    *ReviewDetails
}

// ClaimReview は外部ファクトチェッカーが公開したクレームレビューを表す。
// 上流データをそのまま保持する不透明な値として扱う。
type ClaimReview struct {
	TextualRating string
	Publisher     string
	ReviewDate    string
	URL           string
}
