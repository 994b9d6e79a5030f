package tokenizer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"case folding", "Cat CAT cat", []string{"cat", "cat", "cat"}},
		{"stemming", "running runs", []string{"run", "run"}},
		{"punctuation dropped", "hello, world!", []string{"hello", "world"}},
		{"stop words kept", "the cat", []string{"the", "cat"}},
		{"digits kept", "report 2024", []string{"report", "2024"}},
		{"empty", "", []string{}},
	}
	var n English
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	var n English
	text := "Stemming and case folding must match at index and query time."
	first := n.Normalize(text)
	for i := 0; i < 5; i++ {
		if got := n.Normalize(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := Tokenize("alpha, beta; gamma")
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3: %v", len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Position != i {
			t.Errorf("token %d has position %d", i, tok.Position)
		}
	}
}
