package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSpanTreeLogging(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "trace-1")
	_, child := StartChildSpan(ctx, "evaluate")
	child.SetAttr("tokens", 3)
	child.End()
	root.End()

	if len(root.Children) != 1 || child.TraceID != "trace-1" {
		t.Fatalf("child not linked: %+v", root.Children)
	}
	if SpanFromContext(ctx) != root {
		t.Fatal("SpanFromContext did not return the root span")
	}

	var buf bytes.Buffer
	root.LogTo(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out := buf.String()
	if !strings.Contains(out, "span=evaluate") || !strings.Contains(out, "tokens=3") {
		t.Errorf("unexpected log output:\n%s", out)
	}

	buf.Reset()
	root.LogTo(slog.New(slog.NewTextHandler(&buf, nil)))
	if buf.Len() != 0 {
		t.Errorf("spans logged above debug level:\n%s", buf.String())
	}
}
