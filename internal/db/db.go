package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"therapy-chat/internal/config"
)

// ErrDatabaseURLMissing se devuelve cuando se pide el backend postgres sin DATABASE_URL.
var ErrDatabaseURLMissing = errors.New("database url not configured")

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, ErrDatabaseURLMissing
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Conversaciones cortas y poco tráfico: pool pequeño.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// Schema crea las tablas mínimas del archivo de conversaciones.
const Schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id                     TEXT PRIMARY KEY,
	disclaimer_accepted_at TIMESTAMPTZ NOT NULL,
	current_state          TEXT NOT NULL,
	show_emergency         BOOLEAN NOT NULL DEFAULT FALSE,
	reply_pending          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at             TIMESTAMPTZ NOT NULL,
	expires_at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES chat_sessions(id),
	seq             BIGINT NOT NULL,
	content         TEXT NOT NULL,
	sender          TEXT NOT NULL,
	emotional_state TEXT,
	therapy_mode    TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (session_id, seq)
);
`

// Migrate aplica Schema; es idempotente.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
