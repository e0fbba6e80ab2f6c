package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"therapy-chat/internal/domain"
)

// MessageRepository es append-only: no existe edición ni borrado.
// Append asigna Seq y devuelve el mensaje tal como quedó guardado.
type MessageRepository interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	const query = `
		INSERT INTO chat_messages (id, session_id, seq, content, sender, emotional_state, therapy_mode, created_at)
		VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE session_id = $2), $3, $4, $5, $6, $7)
		RETURNING seq
	`

	var state, mode interface{}
	if message.EmotionalState != nil {
		state = string(*message.EmotionalState)
	}
	if message.TherapyMode != nil {
		mode = string(*message.TherapyMode)
	}

	err := r.pool.QueryRow(ctx, query,
		message.ID,
		message.SessionID,
		message.Content,
		string(message.Sender),
		state,
		mode,
		message.Timestamp,
	).Scan(&message.Seq)
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (r *PgMessageRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error) {
	const query = `
		SELECT id, session_id, seq, content, sender, emotional_state, therapy_mode, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			msg    domain.Message
			sender string
			state  *string
			mode   *string
		)
		err = rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Seq,
			&msg.Content,
			&sender,
			&state,
			&mode,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		msg.Sender = domain.Sender(sender)
		if state != nil {
			msg.EmotionalState = domain.StatePtr(domain.EmotionalState(*state))
		}
		if mode != nil {
			msg.TherapyMode = domain.ModePtr(domain.TherapyMode(*mode))
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
