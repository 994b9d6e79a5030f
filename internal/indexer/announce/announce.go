// Package announce tells the outside world that an index build finished: it
// publishes an index.complete event to Kafka and records the build in
// PostgreSQL. Both sinks are optional and neither can fail a build, since the
// index files are already in place when Announce runs.
package announce

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/resilience"
)

const EventIndexComplete = "index.complete"

// Event is the payload published on the index-complete topic.
type Event struct {
	Type        string            `json:"type"`
	BuildID     string            `json:"build_id"`
	Host        string            `json:"host"`
	Fingerprint string            `json:"fingerprint"`
	Manifest    *indexer.Manifest `json:"manifest"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Publisher sends one keyed message. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// Recorder persists a finished build.
type Recorder interface {
	Record(ctx context.Context, buildID string, m *indexer.Manifest) error
}

type Announcer struct {
	publisher Publisher
	recorder  Recorder
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

// New creates an Announcer. Either sink may be nil.
func New(p Publisher, r Recorder) *Announcer {
	return &Announcer{
		publisher: p,
		recorder:  r,
		retry:     resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond},
		logger:    slog.Default().With("component", "build-announcer"),
	}
}

// Announce reports m to every configured sink and returns the build ID it
// assigned. Each sink is retried a few times; failures are then logged.
func (a *Announcer) Announce(ctx context.Context, m *indexer.Manifest) string {
	buildID := uuid.NewString()
	if a.recorder != nil {
		err := resilience.Retry(ctx, "record-build", a.retry, func(ctx context.Context) error {
			return a.recorder.Record(ctx, buildID, m)
		})
		if err != nil {
			a.logger.Error("recording build failed", "build_id", buildID, "error", err)
		} else {
			a.logger.Info("build recorded", "build_id", buildID)
		}
	}
	if a.publisher != nil {
		host, _ := os.Hostname()
		ev := Event{
			Type:        EventIndexComplete,
			BuildID:     buildID,
			Host:        host,
			Fingerprint: indexer.FormatFingerprint(m.Fingerprint),
			Manifest:    m,
			Timestamp:   time.Now().UTC(),
		}
		err := resilience.Retry(ctx, "publish-build", a.retry, func(ctx context.Context) error {
			return a.publisher.Publish(ctx, buildID, ev)
		})
		if err != nil {
			a.logger.Error("publishing build event failed", "build_id", buildID, "error", err)
		} else {
			a.logger.Info("build event published", "build_id", buildID)
		}
	}
	return buildID
}
