package verify

import "strings"

const (
	// trustedSourceScore は信頼リストに一致したソースの信頼度スコア。
	trustedSourceScore = 0.9
	// unknownSourceScore は信頼リストに一致しないソースの信頼度スコア。
	unknownSourceScore = 0.5
	// redFlagPenalty は赤旗1件あたりの本文スコア減点幅。
	redFlagPenalty = 0.1
	// exclamationLimit は本文スコアの減点対象となる感嘆符数の閾値。
	exclamationLimit = 3
	// unverifiedConfidence は判定不能時の固定信頼度。
	unverifiedConfidence = 0.5
)

// HeuristicConfig はヒューリスティック判定の重みと閾値を保持する。
// 値に理論的な根拠はなく、キャリブレーション済み定数として設定から与えられる。
type HeuristicConfig struct {
	SourceWeight   float64 // 合成スコアにおけるソース信頼度の重み
	ContentWeight  float64 // 合成スコアにおける本文スコアの重み
	UpperThreshold float64 // これを超えたら本物と判定
	LowerThreshold float64 // これを下回ったらフェイクと判定
}

// DefaultHeuristicConfig はデフォルトの重みと閾値を返す。
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		SourceWeight:   0.7,
		ContentWeight:  0.3,
		UpperThreshold: 0.8,
		LowerThreshold: 0.4,
	}
}

// sourceTrustScore はソース名の信頼度スコアを返す。
// 小文字化したソース名が信頼リストのいずれかを部分文字列として含む場合に高スコア。
func sourceTrustScore(rules *Ruleset, sourceName string) float64 {
	lower := strings.ToLower(sourceName)
	for _, trusted := range rules.TrustedSources {
		if trusted != "" && strings.Contains(lower, trusted) {
			return trustedSourceScore
		}
	}
	return unknownSourceScore
}

// countRedFlags はテキスト中の赤旗シグナル数を数える。
// 各赤旗語句の出現回数を大文字小文字を無視して合算し、
// 感嘆符が閾値を超える場合はさらに1加算する。
func countRedFlags(rules *Ruleset, text string) int {
	lower := strings.ToLower(text)

	flags := 0
	for _, phrase := range rules.RedFlagPhrases {
		if phrase == "" {
			continue
		}
		flags += strings.Count(lower, phrase)
	}

	if strings.Count(text, "!") > exclamationLimit {
		flags++
	}

	return flags
}

// contentScore はテキストの本文スコアを返す。
// 赤旗1件につきredFlagPenaltyずつ減点し、下限は0.0。
func contentScore(rules *Ruleset, text string) float64 {
	penalty := float64(countRedFlags(rules, text)) * redFlagPenalty
	if penalty > 1.0 {
		penalty = 1.0
	}
	return 1.0 - penalty
}
