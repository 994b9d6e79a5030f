// Package executor evaluates postfix Boolean queries against an index store.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// Store is the read side of an index. *postings.Store satisfies it.
type Store interface {
	Lookup(term string) (postings index.PostingList, stride int, found bool, err error)
	All() (index.PostingList, int, error)
}

type Executor struct {
	store  Store
	logger *slog.Logger
}

func New(store Store) *Executor {
	return &Executor{
		store:  store,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute evaluates postfix tokens with an operand stack. A NOT directly
// followed by AND is evaluated as a single difference, and two consecutive
// NOTs cancel. Any stack underflow, or a final stack that does not hold
// exactly one result, is an ErrInvalidQuery.
//
// Each call owns its stack, so one Executor may serve concurrent queries.
func (e *Executor) Execute(ctx context.Context, postfix []parser.Token) (merger.Result, error) {
	stack := make([]merger.Result, 0, len(postfix)/2+1)
	pop := func() (merger.Result, bool) {
		if len(stack) == 0 {
			return merger.Result{}, false
		}
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return r, true
	}
	pop2 := func() (left, right merger.Result, ok bool) {
		if len(stack) < 2 {
			return left, right, false
		}
		right, _ = pop()
		left, _ = pop()
		return left, right, true
	}

	for i := 0; i < len(postfix); i++ {
		if err := ctx.Err(); err != nil {
			return merger.Result{}, err
		}
		tok := postfix[i]
		switch tok.Kind {
		case parser.Term:
			r, err := e.lookup(tok.Term)
			if err != nil {
				return merger.Result{}, err
			}
			stack = append(stack, r)

		case parser.And, parser.Or:
			left, right, ok := pop2()
			if !ok {
				return merger.Result{}, underflow(tok, i)
			}
			if tok.Kind == parser.And {
				stack = append(stack, merger.Intersect(left, right))
			} else {
				stack = append(stack, merger.Union(left, right))
			}

		case parser.Not:
			next := peek(postfix, i+1)
			switch next {
			case parser.And:
				left, right, ok := pop2()
				if !ok {
					return merger.Result{}, underflow(tok, i)
				}
				stack = append(stack, merger.Difference(left, right))
				i++
			case parser.Not:
				i++
			default:
				operand, ok := pop()
				if !ok {
					return merger.Result{}, underflow(tok, i)
				}
				all, err := e.all()
				if err != nil {
					return merger.Result{}, err
				}
				stack = append(stack, merger.Complement(all, operand))
			}

		default:
			return merger.Result{}, apperrors.InvalidQuery("unexpected token %q at position %d", tok, i)
		}
	}

	if len(stack) != 1 {
		return merger.Result{}, apperrors.InvalidQuery("query leaves %d operands, want 1", len(stack))
	}
	return stack[0], nil
}

func (e *Executor) lookup(term string) (merger.Result, error) {
	postings, stride, found, err := e.store.Lookup(term)
	if err != nil {
		return merger.Result{}, fmt.Errorf("looking up %q: %w", term, err)
	}
	if !found {
		e.logger.Debug("term not in dictionary", "term", term)
		return merger.Result{}, nil
	}
	return merger.Result{IDs: postings, Stride: stride}, nil
}

func (e *Executor) all() (merger.Result, error) {
	postings, stride, err := e.store.All()
	if err != nil {
		return merger.Result{}, fmt.Errorf("reading all-documents list: %w", err)
	}
	return merger.Result{IDs: postings, Stride: stride}, nil
}

// peek returns the kind of postfix[i], or -1 past the end.
func peek(postfix []parser.Token, i int) parser.Kind {
	if i >= len(postfix) {
		return -1
	}
	return postfix[i].Kind
}

func underflow(tok parser.Token, pos int) error {
	return apperrors.InvalidQuery("operator %s at position %d is missing an operand", tok, pos)
}
