// Package model はドメインモデルを定義する。
package model

// HeadlineQuery は見出し取得の検索条件を表す。
type HeadlineQuery struct {
	Country  string
	Category Category
	Search   string // フリーテキスト検索。空の場合は条件に含めない
	PageSize int
	Language string
}
