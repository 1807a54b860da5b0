package security

import "testing"

func TestSanitizeText(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"プレーンテキストはそのまま", "A calm factual report.", "A calm factual report."},
		{"タグを除去", "<p>Hello <b>world</b></p>", "Hello world"},
		{"scriptはタグごと除去", `before <script>alert("xss")</script> after`, "before after"},
		{"HTMLエンティティをデコード", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"連続する空白を正規化", "  multiple   \n\t spaces  ", "multiple spaces"},
		{"imgタグを除去", `text <img src="https://example.com/x.jpg"> more`, "text more"},
		{"空文字列", "", ""},
		{"タグのみの入力は空になる", "<div><span></span></div>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeText(tt.raw)
			if got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	inputs := []string{
		"A calm factual report.",
		"<p>Hello <b>world</b></p>",
		"Tom &amp; Jerry",
	}
	for _, raw := range inputs {
		once := s.SanitizeText(raw)
		twice := s.SanitizeText(once)
		if once != twice {
			t.Errorf("SanitizeText が冪等でない: %q -> %q -> %q", raw, once, twice)
		}
	}
}
