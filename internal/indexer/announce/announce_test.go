package announce

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/resilience"
)

type recordingPublisher struct {
	key   string
	event Event
	calls int
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, value any) error {
	p.calls++
	p.key = key
	p.event = value.(Event)
	return p.err
}

type recordingRecorder struct {
	ids []string
	err error
}

func (r *recordingRecorder) Record(_ context.Context, buildID string, _ *indexer.Manifest) error {
	r.ids = append(r.ids, buildID)
	return r.err
}

func manifest() *indexer.Manifest {
	return &indexer.Manifest{
		Documents:   3,
		Terms:       12,
		Fingerprint: 0xdeadbeef,
		StartedAt:   time.Now(),
		Duration:    time.Second,
	}
}

func TestAnnounce(t *testing.T) {
	pub := &recordingPublisher{}
	rec := &recordingRecorder{}
	id := New(pub, rec).Announce(context.Background(), manifest())

	if len(rec.ids) != 1 || rec.ids[0] != id {
		t.Errorf("recorded ids = %v, want [%s]", rec.ids, id)
	}
	if pub.key != id || pub.event.BuildID != id {
		t.Errorf("published key %q event %+v", pub.key, pub.event)
	}
	if pub.event.Type != EventIndexComplete || pub.event.Fingerprint != "deadbeef" {
		t.Errorf("event = %+v", pub.event)
	}
}

func TestAnnounceToleratesSinkFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("no brokers")}
	rec := &recordingRecorder{err: errors.New("connection refused")}
	a := New(pub, rec)
	a.retry = resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}
	if id := a.Announce(context.Background(), manifest()); id == "" {
		t.Fatal("empty build id")
	}
	if pub.calls != 2 || len(rec.ids) != 2 {
		t.Errorf("publish calls = %d, record calls = %d; want 2 each", pub.calls, len(rec.ids))
	}
}

func TestAnnounceWithoutSinks(t *testing.T) {
	if id := New(nil, nil).Announce(context.Background(), manifest()); id == "" {
		t.Fatal("empty build id")
	}
}

// TestBuildLog needs a reachable PostgreSQL; set BQ_TEST_POSTGRES=1 and the
// usual BQ_POSTGRES_* variables to run it.
func TestBuildLog(t *testing.T) {
	if os.Getenv("BQ_TEST_POSTGRES") == "" {
		t.Skip("BQ_TEST_POSTGRES not set")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	client, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	log := NewBuildLog(client)
	if err := log.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	m := manifest()
	if err := log.Record(ctx, New(nil, nil).Announce(ctx, m), m); err != nil {
		t.Fatal(err)
	}
	fp, err := log.Latest(ctx)
	if err != nil || fp != "deadbeef" {
		t.Fatalf("Latest = %q, %v", fp, err)
	}
}
