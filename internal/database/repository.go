package database

import (
	"context"
	"fmt"
	"time"

	"go-boss-assistant/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS reply_decisions (
	id           BIGSERIAL PRIMARY KEY,
	conversation TEXT NOT NULL DEFAULT '',
	message_id   TEXT NOT NULL,
	can_answer   BOOLEAN NOT NULL,
	reply        TEXT NOT NULL DEFAULT '',
	applied      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reply_decisions_created_at_idx ON reply_decisions (created_at DESC);
`

// Repository is the reply decision audit log.
type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// poolers in transaction mode do not keep prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Migrate creates the audit table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create reply_decisions: %w", err)
	}
	return nil
}

// RecordReply stores one decision.
func (r *Repository) RecordReply(ctx context.Context, rec models.ReplyRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO reply_decisions (conversation, message_id, can_answer, reply, applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, rec.Conversation, rec.MessageID, rec.CanAnswer, rec.Reply, rec.Applied, rec.CreatedAt).
		Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to record reply: %w", err)
	}
	return nil
}

// RecentReplies returns the newest decisions first.
func (r *Repository) RecentReplies(ctx context.Context, limit int) ([]models.ReplyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, conversation, message_id, can_answer, reply, applied, created_at
		FROM reply_decisions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ReplyRecord, error) {
		var rec models.ReplyRecord
		err := row.Scan(&rec.ID, &rec.Conversation, &rec.MessageID, &rec.CanAnswer, &rec.Reply, &rec.Applied, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan replies: %w", err)
	}
	return records, nil
}
