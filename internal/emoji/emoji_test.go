package emoji

import "testing"

func TestGetEmoji(t *testing.T) {
	defer SetEmojiDisabled(false)

	tests := []struct {
		key      string
		disabled bool
		want     string
	}{
		{"success", false, "✅"},
		{"success", true, "[OK]"},
		{"warning", false, "⚠️"},
		{"warning", true, "[WRN]"},
		{"missing", false, "[?]"},
		{"missing", true, "[?]"},
	}

	for _, tt := range tests {
		SetEmojiDisabled(tt.disabled)
		if got := GetEmoji(tt.key); got != tt.want {
			t.Errorf("GetEmoji(%q) disabled=%v = %q, want %q", tt.key, tt.disabled, got, tt.want)
		}
	}
}

func TestFallbackIgnoresGlobalState(t *testing.T) {
	SetEmojiDisabled(false)
	if got := Fallback("success"); got != "[OK]" {
		t.Errorf("Fallback() = %q", got)
	}
	if IsEmojiDisabled() {
		t.Error("Fallback must not change the global state")
	}
}
