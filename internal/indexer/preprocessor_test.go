package indexer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Hello, World!", "hello world"},
		{"Naruto: Shippūden (2007)", "naruto shippden 2007"},
		{"tabs\tand  double  spaces", "tabs\tand  double  spaces"},
		{"line\nbreak", "line\nbreak"},
		{"Istanbul\x1cFoo", "istanbul\x1cfoo"},
		{"unit\x1fsep\x1d", "unit\x1fsep\x1d"},
		{"re-zero", "rezero"},
		{"ÀÉÎ", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"A Cat chases a MOUSE.",
		"Space battles & lasers!!",
		"  leading and trailing  ",
		"日本語のテキスト mixed with ASCII 123",
		"İstanbul ǅ ﬁ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeNullable(t *testing.T) {
	if got := NormalizeNullable(nil); got != "" {
		t.Errorf("NormalizeNullable(nil) = %q", got)
	}
	s := "Hi!"
	if got := NormalizeNullable(&s); got != "hi" {
		t.Errorf("NormalizeNullable(Hi!) = %q", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("a cat  chases\ta mouse", 1)
	want := []string{"a", "cat", "chases", "a", "mouse"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
	got = Tokenize("a cat chases a mouse", 2)
	want = []string{"cat", "chases", "mouse"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize minLen 2 = %v, want %v", got, want)
	}
	if got := Tokenize("   ", 1); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %v", got)
	}
	got = Tokenize(Normalize("Istanbul\x1cFoo"), 1)
	want = []string{"istanbul", "foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize across a record separator = %v, want %v", got, want)
	}
}
