// Package parser turns an infix Boolean query into postfix tokens using the
// shunting-yard algorithm. Precedence is NOT > AND > OR; parentheses group.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

type Kind int

const (
	Term Kind = iota
	And
	Or
	Not
	lparen
	rparen
)

// Token is one postfix element. Term is set only for Kind == Term.
type Token struct {
	Kind Kind
	Term string
}

func (t Token) String() string {
	switch t.Kind {
	case Term:
		return t.Term
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	case lparen:
		return "("
	case rparen:
		return ")"
	}
	return "?"
}

func (k Kind) precedence() int {
	switch k {
	case Not:
		return 3
	case And:
		return 2
	case Or:
		return 1
	}
	return 0
}

// Parse converts query to postfix. Operators are the case-sensitive words
// AND, OR and NOT; every other word is normalized with n. A word that
// normalizes to several terms becomes their conjunction. A word that
// normalizes to nothing is kept lower-cased so that it matches no document.
//
// Only unbalanced parentheses are rejected here; operand/operator mismatches
// are reported by the evaluator.
func Parse(query string, n tokenizer.Normalizer) ([]Token, error) {
	var (
		output []Token
		ops    []Token
	)
	for _, lexeme := range lex(query) {
		switch lexeme {
		case "(":
			ops = append(ops, Token{Kind: lparen})
		case ")":
			for {
				if len(ops) == 0 {
					return nil, apperrors.InvalidQuery("unmatched ')' in %q", query)
				}
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.Kind == lparen {
					break
				}
				output = append(output, top)
			}
		case "NOT":
			// unary and right-associative
			ops = append(ops, Token{Kind: Not})
		case "AND", "OR":
			op := Token{Kind: And}
			if lexeme == "OR" {
				op.Kind = Or
			}
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Kind == lparen || top.Kind.precedence() < op.Kind.precedence() {
					break
				}
				output = append(output, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, op)
		default:
			output = appendTerms(output, lexeme, n)
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.Kind == lparen {
			return nil, apperrors.InvalidQuery("unmatched '(' in %q", query)
		}
		output = append(output, top)
	}
	return output, nil
}

func appendTerms(output []Token, word string, n tokenizer.Normalizer) []Token {
	terms := n.Normalize(word)
	if len(terms) == 0 {
		return append(output, Token{Kind: Term, Term: strings.ToLower(word)})
	}
	output = append(output, Token{Kind: Term, Term: terms[0]})
	for _, t := range terms[1:] {
		output = append(output, Token{Kind: Term, Term: t}, Token{Kind: And})
	}
	return output
}

// lex splits on whitespace and separates parentheses from adjacent words.
func lex(query string) []string {
	var out []string
	for _, field := range strings.Fields(query) {
		start := 0
		for i := 0; i < len(field); i++ {
			if field[i] != '(' && field[i] != ')' {
				continue
			}
			if i > start {
				out = append(out, field[start:i])
			}
			out = append(out, field[i:i+1])
			start = i + 1
		}
		if start < len(field) {
			out = append(out, field[start:])
		}
	}
	return out
}

// Format renders postfix tokens as a space-separated string.
func Format(tokens []Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}
