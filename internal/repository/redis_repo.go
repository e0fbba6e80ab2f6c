package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"therapy-chat/internal/domain"
)

const (
	redisSessionPrefix  = "chat:session:"
	redisMessagesPrefix = "chat:messages:"
)

type redisConversationClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisStore mantiene la conversación en Redis con expiración, de modo que
// sigue siendo efímera pero sobrevive a reinicios del proceso. El turno de
// respuesta y los eventos viven en el proceso: se asume una sola réplica.
type RedisStore struct {
	client redisConversationClient
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, redisSessionPrefix+session.ID, payload, s.ttl).Err()
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (s *RedisStore) Update(ctx context.Context, session domain.Session) error {
	if _, err := s.GetByID(ctx, session.ID); err != nil {
		return err
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, redisSessionPrefix+session.ID, payload, redis.KeepTTL).Err()
}

// Append usa la longitud devuelta por RPUSH como Seq; el orden de la lista es el de inserción.
func (s *RedisStore) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	message.Seq = 0
	payload, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}
	key := redisMessagesPrefix + message.SessionID
	n, err := s.client.RPush(ctx, key, payload).Result()
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return domain.Message{}, fmt.Errorf("expire messages: %w", err)
		}
	}
	message.Seq = n
	return message, nil
}

func (s *RedisStore) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error) {
	raw, err := s.client.LRange(ctx, redisMessagesPrefix+sessionID, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	messages := make([]domain.Message, 0, len(raw))
	for i, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		msg.Seq = int64(i) + 1
		messages = append(messages, msg)
	}
	return messages, nil
}
