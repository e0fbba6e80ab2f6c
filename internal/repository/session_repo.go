package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"therapy-chat/internal/domain"
)

// ErrNotFound se devuelve cuando la sesión no existe o ya expiró.
var ErrNotFound = errors.New("not found")

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, session domain.Session) error
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO chat_sessions (id, disclaimer_accepted_at, current_state, show_emergency, reply_pending, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.DisclaimerAcceptedAt,
		string(session.CurrentState),
		session.ShowEmergency,
		session.ReplyPending,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, disclaimer_accepted_at, current_state, show_emergency, reply_pending, created_at, expires_at
		FROM chat_sessions
		WHERE id = $1
	`
	var (
		session domain.Session
		state   string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.DisclaimerAcceptedAt,
		&state,
		&session.ShowEmergency,
		&session.ReplyPending,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	session.CurrentState = domain.EmotionalState(state)
	return session, nil
}

func (r *PgSessionRepository) Update(ctx context.Context, session domain.Session) error {
	const query = `
		UPDATE chat_sessions
		SET current_state = $2, show_emergency = $3, reply_pending = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		session.ID,
		string(session.CurrentState),
		session.ShowEmergency,
		session.ReplyPending,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
