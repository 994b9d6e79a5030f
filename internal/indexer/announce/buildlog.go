package announce

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/postgres"
)

const createBuildsTable = `
CREATE TABLE IF NOT EXISTS index_builds (
	build_id        UUID PRIMARY KEY,
	fingerprint     TEXT        NOT NULL,
	documents       INTEGER     NOT NULL,
	terms           INTEGER     NOT NULL,
	dictionary_path TEXT        NOT NULL,
	postings_path   TEXT        NOT NULL,
	postings_bytes  BIGINT      NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	duration_ms     BIGINT      NOT NULL
)`

const insertBuild = `
INSERT INTO index_builds (
	build_id, fingerprint, documents, terms, dictionary_path, postings_path,
	postings_bytes, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// BuildLog records builds in the index_builds table.
type BuildLog struct {
	client *postgres.Client
}

func NewBuildLog(client *postgres.Client) *BuildLog {
	return &BuildLog{client: client}
}

// EnsureSchema creates the index_builds table if it does not exist.
func (b *BuildLog) EnsureSchema(ctx context.Context) error {
	if _, err := b.client.DB.ExecContext(ctx, createBuildsTable); err != nil {
		return fmt.Errorf("creating index_builds: %w", err)
	}
	return nil
}

func (b *BuildLog) Record(ctx context.Context, buildID string, m *indexer.Manifest) error {
	return b.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertBuild,
			buildID,
			indexer.FormatFingerprint(m.Fingerprint),
			m.Documents,
			m.Terms,
			m.DictionaryPath,
			m.PostingsPath,
			m.PostingsBytes,
			m.StartedAt,
			m.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("inserting build %s: %w", buildID, err)
		}
		return nil
	})
}

// Latest returns the fingerprint of the most recently started build, or ""
// when none is recorded.
func (b *BuildLog) Latest(ctx context.Context) (string, error) {
	var fp string
	err := b.client.DB.QueryRowContext(ctx,
		`SELECT fingerprint FROM index_builds ORDER BY started_at DESC LIMIT 1`).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying latest build: %w", err)
	}
	return fp, nil
}
