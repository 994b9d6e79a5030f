package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupWriterLevelsAndRequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")

	slog.Info("dropped")
	ctx := WithRequestID(context.Background(), "req-42")
	FromContext(ctx).Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("request id missing from record: %s", out)
	}
	if got := RequestID(ctx); got != "req-42" {
		t.Errorf("RequestID() = %q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() on empty ctx = %q", got)
	}
}
