package editor

import (
	"strings"
	"testing"

	"github.com/rivo/uniseg"
)

func TestTruncateMiddle(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"fits", "bonjour", 7, "bonjour"},
		{"middle cut", "abcdefghij", 7, "ab...ij"},
		{"odd budget", "abcdefghij", 8, "abc...ij"},
		{"too narrow", "abcdefghij", 3, ""},
		{"wide runes", "日本語のテキスト", 9, "日...スト"},
		{"combining marks kept", strings.Repeat("e\u0301", 5), 4, "e\u0301..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateMiddle(tt.text, tt.max)
			if got != tt.want {
				t.Errorf("TruncateMiddle(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
			if uniseg.StringWidth(got) > tt.max {
				t.Errorf("result %q wider than %d", got, tt.max)
			}
		})
	}
}
