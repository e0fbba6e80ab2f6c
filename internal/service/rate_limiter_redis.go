package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errRateLimitSessionMissing = errors.New("rate limit: session id required")

// MessageRateLimiter cuenta los envíos de una sesión dentro de una ventana fija.
// Un error significa que no se pudo decidir; la política ante el error es del llamador.
type MessageRateLimiter interface {
	Allow(ctx context.Context, sessionID string) (bool, error)
}

// La ventana arranca con el primer envío de la sesión (PEXPIRE en milisegundos).
const sendWindowScript = `
local sent = redis.call("INCR", KEYS[1])
if sent == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return sent
`

const sendLimitKeyPrefix = "chat:sends:"

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisSendLimiter struct {
	client    redisEvaler
	window    time.Duration
	maxPerWin int64
}

func NewRedisMessageRateLimiter(client *redis.Client, window time.Duration, maxPerWindow int) MessageRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxPerWindow <= 0 {
		maxPerWindow = 1
	}
	return &redisSendLimiter{client: client, window: window, maxPerWin: int64(maxPerWindow)}
}

func (l *redisSendLimiter) Allow(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, errRateLimitSessionMissing
	}
	sent, err := l.client.Eval(ctx, sendWindowScript, []string{sendLimitKeyPrefix + sessionID}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("count sends for %s: %w", sessionID, err)
	}
	return sent <= l.maxPerWin, nil
}
