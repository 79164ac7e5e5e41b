package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	db *pgxpool.Pool
}

// New - создание пула подключений
func New(ctx context.Context, dsn string, maxConns int32) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{db: pool}, nil
}

// Ping - проверка подключения к DB
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() {
	s.db.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chats (
		chat_id       BIGINT PRIMARY KEY,
		title         TEXT NOT NULL DEFAULT '',
		about_text    TEXT NOT NULL DEFAULT '',
		session_ttl   INTEGER NOT NULL DEFAULT 360,
		primary_squad JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id   BIGINT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		username  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS chat_members (
		chat_id     BIGINT NOT NULL REFERENCES chats(chat_id) ON DELETE CASCADE,
		user_id     BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		is_excluded BOOLEAN NOT NULL DEFAULT FALSE,
		last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (chat_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		chat_id      BIGINT NOT NULL,
		message_id   BIGINT NOT NULL,
		mode         TEXT NOT NULL,
		initiator_id BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL,
		state        JSONB NOT NULL,
		PRIMARY KEY (chat_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`,
	`CREATE TABLE IF NOT EXISTS match_stats (
		id          BIGSERIAL PRIMARY KEY,
		chat_id     BIGINT NOT NULL,
		player_a_id BIGINT NOT NULL,
		player_b_id BIGINT NOT NULL,
		score_a     INTEGER NOT NULL,
		score_b     INTEGER NOT NULL,
		is_draw     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS match_stats_chat_idx ON match_stats (chat_id)`,
	`CREATE TABLE IF NOT EXISTS vault_items (
		id         BIGSERIAL PRIMARY KEY,
		chat_id    BIGINT NOT NULL,
		keyword    TEXT NOT NULL,
		item_type  TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (chat_id, keyword)
	)`,
	`CREATE TABLE IF NOT EXISTS roasts (
		id         BIGSERIAL PRIMARY KEY,
		chat_id    BIGINT NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate создает таблицы, если их еще нет.
func (s *Storage) Migrate(ctx context.Context) error {
	for i, q := range migrations {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
