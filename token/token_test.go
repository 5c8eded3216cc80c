package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{INDENT, "INDENT"},
		{DEDENT, "DEDENT"},
		{NEWLINE, "NEWLINE"},
		{EOF, "EOF"},
		{IDENTIFIER, "IDENTIFIER"},
		{Kind(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestIsKeyword(t *testing.T) {
	for _, word := range []string{"def", "class", "None", "lambda"} {
		if !IsKeyword(word) {
			t.Errorf("IsKeyword(%q) = false, want true", word)
		}
	}
	for _, word := range []string{"foo", "x", "print2"} {
		if IsKeyword(word) {
			t.Errorf("IsKeyword(%q) = true, want false", word)
		}
	}
}

func TestTokenStringTruncatesLongValues(t *testing.T) {
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	tok := Token{Kind: STRING, Value: string(long), Line: 1, Column: 1}
	s := tok.String()
	if len(s) > 80 {
		t.Errorf("String() did not truncate: len=%d", len(s))
	}
}
