// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はニュースAPIやRSSフィードから取得した記事の
// 説明文・本文をサニタイズする。モバイルクライアントはプレーンテキストのみを
// 表示するため、bluemondayの厳格ポリシーで全タグを除去し、
// 残ったHTMLエンティティをデコードしたテキストを返す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は記事テキストのサニタイズ機能のインターフェースを定義する。
// 記事の保存前およびAPI応答の構築時に使用される。
type ContentSanitizerService interface {
	// SanitizeText は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
	// script等の危険なタグはタグごと中身も除去される。
	// 連続する空白は1つに正規化され、先頭末尾の空白は除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、すべてのタグが除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}

	stripped := s.policy.Sanitize(raw)
	// StrictPolicyはテキストをエンティティエスケープして返すため、
	// 表示用テキストとしてデコードし直す。
	decoded := html.UnescapeString(stripped)
	return strings.Join(strings.Fields(decoded), " ")
}
