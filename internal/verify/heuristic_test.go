package verify

import (
	"math"
	"testing"
)

func testRuleset(t *testing.T) *Ruleset {
	t.Helper()
	rules, err := DefaultRuleset()
	if err != nil {
		t.Fatalf("DefaultRuleset がエラーを返した: %v", err)
	}
	return rules
}

func TestSourceTrustScore(t *testing.T) {
	rules := testRuleset(t)

	tests := []struct {
		name       string
		sourceName string
		want       float64
	}{
		{"信頼ソース完全一致", "reuters", 0.9},
		{"信頼ソース部分一致", "BBC News", 0.9},
		{"大文字小文字を無視", "REUTERS", 0.9},
		{"未知ソース", "Random Blog", 0.5},
		{"空のソース名", "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sourceTrustScore(rules, tt.sourceName)
			if got != tt.want {
				t.Errorf("sourceTrustScore(%q) = %v, want %v", tt.sourceName, got, tt.want)
			}
		})
	}
}

func TestCountRedFlags(t *testing.T) {
	rules := testRuleset(t)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"赤旗なし", "calm factual reporting about policy", 0},
		{"赤旗1件", "this shocking development", 1},
		{"同一語句の複数出現を合算", "shocking news and more shocking claims", 2},
		{"大文字小文字を無視", "SHOCKING miracle cure found", 2},
		{"感嘆符が閾値超過で加算", "read this now!!!!", 1},
		{"感嘆符が閾値以下なら加算なし", "read this now!!!", 0},
		{"語句と感嘆符の複合", "shocking news!!!! wow", 2},
		{"空テキスト", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := countRedFlags(rules, tt.text)
			if got != tt.want {
				t.Errorf("countRedFlags(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestContentScore(t *testing.T) {
	rules := testRuleset(t)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"赤旗なしは満点", "calm factual reporting", 1.0},
		{"赤旗2件で0.2減点", "shocking miracle cure", 0.8},
		{"減点は0.0で下限", "shocking shocking shocking shocking shocking shocking shocking shocking shocking shocking shocking", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentScore(rules, tt.text)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("contentScore(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDefaultHeuristicConfig(t *testing.T) {
	cfg := DefaultHeuristicConfig()

	if cfg.SourceWeight != 0.7 {
		t.Errorf("SourceWeight = %v, want 0.7", cfg.SourceWeight)
	}
	if cfg.ContentWeight != 0.3 {
		t.Errorf("ContentWeight = %v, want 0.3", cfg.ContentWeight)
	}
	if cfg.UpperThreshold != 0.8 {
		t.Errorf("UpperThreshold = %v, want 0.8", cfg.UpperThreshold)
	}
	if cfg.LowerThreshold != 0.4 {
		t.Errorf("LowerThreshold = %v, want 0.4", cfg.LowerThreshold)
	}
}
