package process

import "testing"

func TestNeedsQuoting(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want bool
	}{
		{"plain word", "hello", false},
		{"path", "/usr/bin/env", false},
		{"flag", "--verbose=2", false},
		{"safe punctuation", "a@b%c-d+e=f:g,h.i/j|k_l", false},
		{"empty", "", true},
		{"space", "hello world", true},
		{"double quote", `say "hi"`, true},
		{"backslash", `C:\temp`, true},
		{"shell metachar", "a&b", true},
		{"asterisk", "*.txt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsQuoting(tt.arg); got != tt.want {
				t.Errorf("NeedsQuoting(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"safe passes through", "hello", "hello"},
		{"empty becomes quotes", "", `""`},
		{"space wrapped", "hello world", `"hello world"`},
		{"quote escaped", `a"b`, `"a\"b"`},
		{"backslash escaped", `a\b`, `"a\\b"`},
		{"mixed", `path with "spaces"\end`, `"path with \"spaces\"\\end"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteArg(tt.arg); got != tt.want {
				t.Errorf("QuoteArg(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	got := JoinArgs([]string{"prog", "plain", "needs space", "", `q"q`})
	want := `prog plain "needs space" "" "q\"q"`
	if got != want {
		t.Errorf("JoinArgs = %q, want %q", got, want)
	}
}
