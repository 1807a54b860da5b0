// Package verify はニュース記事の検証エンジンを提供する。
// 既知クレームテーブル→外部ファクトチェック→ヒューリスティックの
// 3段フォールバックで判定を行い、常に判定を返す。
package verify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Ruleset は検証エンジンが参照する固定テーブル群を表す。
// 起動時に1回読み込み、以降イミュータブルとして扱う。
type Ruleset struct {
	// KnownClaims は正規化済み見出しテキストから「フェイクか」へのマップ。
	KnownClaims map[string]bool `yaml:"known_claims"`
	// TrustedSources は信頼できる報道機関名・略称の部分一致リスト。
	TrustedSources []string `yaml:"trusted_sources"`
	// RedFlagPhrases はセンセーショナル・クリックベイト表現のリスト。
	RedFlagPhrases []string `yaml:"red_flag_phrases"`
}

// DefaultRuleset は組み込みのルールセットを返す。
func DefaultRuleset() (*Ruleset, error) {
	return parseRuleset(defaultRulesYAML)
}

// LoadRuleset はルールセットを読み込む。
// pathが空の場合は組み込みデフォルトをそのまま返す。
// pathが指定された場合はそのYAMLを読み込み、非空のセクションのみ
// デフォルトを上書きする。
func LoadRuleset(path string) (*Ruleset, error) {
	base, err := DefaultRuleset()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ルールファイルの読み込みに失敗しました: %w", err)
	}
	override, err := parseRuleset(data)
	if err != nil {
		return nil, err
	}

	if len(override.KnownClaims) > 0 {
		base.KnownClaims = override.KnownClaims
	}
	if len(override.TrustedSources) > 0 {
		base.TrustedSources = override.TrustedSources
	}
	if len(override.RedFlagPhrases) > 0 {
		base.RedFlagPhrases = override.RedFlagPhrases
	}
	return base, nil
}

// parseRuleset はYAMLをパースし、照合キーと語句を小文字に正規化する。
func parseRuleset(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("ルールYAMLのパースに失敗しました: %w", err)
	}

	claims := make(map[string]bool, len(rs.KnownClaims))
	for title, isFake := range rs.KnownClaims {
		claims[NormalizeTitle(title)] = isFake
	}
	rs.KnownClaims = claims

	for i, s := range rs.TrustedSources {
		rs.TrustedSources[i] = strings.ToLower(strings.TrimSpace(s))
	}
	for i, p := range rs.RedFlagPhrases {
		rs.RedFlagPhrases[i] = strings.ToLower(strings.TrimSpace(p))
	}

	return &rs, nil
}

// LookupClaim は正規化したタイトルで既知クレームテーブルを完全一致検索する。
// 見つかった場合はフェイクフラグとtrueを返す。
func (r *Ruleset) LookupClaim(title string) (isFake bool, ok bool) {
	isFake, ok = r.KnownClaims[NormalizeTitle(title)]
	return isFake, ok
}

// NormalizeTitle は見出しテキストを照合用に正規化する（前後空白の除去と小文字化）。
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
