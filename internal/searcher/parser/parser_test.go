package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

type lower struct{}

func (lower) Normalize(text string) []string { return []string{strings.ToLower(text)} }

func TestParsePostfix(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"a", "a"},
		{"a AND b", "a b AND"},
		{"a AND b OR c", "a b AND c OR"},
		{"a OR b AND c", "a b c AND OR"},
		{"NOT a AND b", "a NOT b AND"},
		{"a AND NOT b", "a b NOT AND"},
		{"NOT NOT a", "a NOT NOT"},
		{"(a OR b) AND c", "a b OR c AND"},
		{"NOT (a OR b)", "a b OR NOT"},
		{"((a))", "a"},
		{"a OR b OR c", "a b OR c OR"},
		{"a AND b AND c", "a b AND c AND"},
		{"A and B", "a and b"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tokens, err := Parse(tt.query, lower{})
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.query, err)
			}
			if got := Format(tokens); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseUnbalancedParentheses(t *testing.T) {
	for _, q := range []string{"(a AND b", "a AND b)", ")(", "((a)", "a)"} {
		_, err := Parse(q, lower{})
		if !errors.Is(err, apperrors.ErrInvalidQuery) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestParseOperatorsOnlyIsNotAParseError(t *testing.T) {
	tokens, err := Parse("AND OR", lower{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := Format(tokens); got != "AND OR" {
		t.Errorf("postfix = %q", got)
	}
}

func TestParseNormalizesTerms(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Cats AND running", "cat run AND"},
		{"e-mail", "e mail AND"},
		{"NOT e-mail", "e mail AND NOT"},
		{"-- OR dogs", "-- dog OR"},
	}
	for _, tt := range tests {
		tokens, err := Parse(tt.query, tokenizer.English{})
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.query, err)
		}
		if got := Format(tokens); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestLex(t *testing.T) {
	got := lex("(a AND(b)) OR c)")
	want := []string{"(", "a", "AND", "(", "b", ")", ")", "OR", "c", ")"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lex = %q, want %q", got, want)
	}
}
