package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid query helper", InvalidQuery("unbalanced %q", ")"), http.StatusBadRequest},
		{"wrapped invalid query", fmt.Errorf("line 3: %w", ErrInvalidQuery), http.StatusBadRequest},
		{"corrupt index", CorruptIndex("bad range"), http.StatusInternalServerError},
		{"index not found", fmt.Errorf("open: %w", ErrIndexNotFound), http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("reading postings: %w", CorruptIndex("term %q", "cat"))
	if !Is(err, ErrCorruptIndex) {
		t.Fatal("expected wrapped error to match ErrCorruptIndex")
	}
	if Is(err, ErrInvalidQuery) {
		t.Fatal("corrupt index must not match ErrInvalidQuery")
	}
	if got := err.Error(); got != `reading postings: corrupt index: term "cat"` {
		t.Errorf("Error() = %q", got)
	}
}
