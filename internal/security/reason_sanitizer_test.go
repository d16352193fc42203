package security

import (
	"strings"
	"testing"
)

func TestReasonSanitizer_RemovesHTML(t *testing.T) {
	s := NewReasonSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"プレーンテキストはそのまま", "読解テストに合格", "読解テストに合格"},
		{"scriptタグを除去", `合格<script>alert("x")</script>`, "合格"},
		{"aタグを除去しテキストは残す", `<a href="https://example.com">詳細</a>を参照`, "詳細を参照"},
		{"空文字列は空文字列", "", ""},
		{"前後の空白を除去", "  口頭試験に合格  ", "口頭試験に合格"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReasonSanitizer_TruncatesLongInput(t *testing.T) {
	s := NewReasonSanitizer()

	long := strings.Repeat("あ", maxReasonLength+100)
	got := s.Sanitize(long)

	if runeLen := len([]rune(got)); runeLen != maxReasonLength {
		t.Errorf("sanitized length = %d runes, want %d", runeLen, maxReasonLength)
	}
}

// TestReasonSanitizer_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestReasonSanitizer_Idempotent(t *testing.T) {
	s := NewReasonSanitizer()

	in := `<b>筆記試験</b>に合格`
	first := s.Sanitize(in)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first = %q, second = %q", first, second)
	}
}
