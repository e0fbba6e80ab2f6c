package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	lastCtx    context.Context
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastCtx = ctx
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

type ctxKey struct{}

func TestRedisSendLimiterAllow(t *testing.T) {
	t.Run("nil client returns nil limiter", func(t *testing.T) {
		if NewRedisMessageRateLimiter(nil, time.Minute, 3) != nil {
			t.Fatalf("expected nil limiter without client")
		}
	})

	t.Run("missing session id is an error", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 1}
		l := &redisSendLimiter{client: mock, window: time.Minute, maxPerWin: 3}
		if _, err := l.Allow(context.Background(), ""); !errors.Is(err, errRateLimitSessionMissing) {
			t.Fatalf("expected errRateLimitSessionMissing, got %v", err)
		}
		if mock.lastKeys != nil {
			t.Fatalf("expected no redis call")
		}
	})

	t.Run("within window uses caller context and raw session key", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 3}
		l := &redisSendLimiter{client: mock, window: 90 * time.Second, maxPerWin: 3}
		ctx := context.WithValue(context.Background(), ctxKey{}, "req")

		ok, err := l.Allow(ctx, "7F3A-Session")
		if err != nil || !ok {
			t.Fatalf("expected allow, got ok=%v err=%v", ok, err)
		}
		if mock.lastCtx != ctx {
			t.Fatalf("expected caller context to reach redis")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "chat:sends:7F3A-Session" {
			t.Fatalf("unexpected key, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != int64(90000) {
			t.Fatalf("expected window in ms, got %+v", mock.lastArgs)
		}
		if mock.lastScript != sendWindowScript {
			t.Fatalf("expected send window script")
		}
	})

	t.Run("over the limit is denied", func(t *testing.T) {
		l := &redisSendLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, maxPerWin: 3}
		ok, err := l.Allow(context.Background(), "s1")
		if err != nil || ok {
			t.Fatalf("expected deny, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("redis error is returned", func(t *testing.T) {
		down := errors.New("redis down")
		l := &redisSendLimiter{client: &mockRedisEvaler{err: down}, window: time.Minute, maxPerWin: 3}
		ok, err := l.Allow(context.Background(), "s1")
		if !errors.Is(err, down) || ok {
			t.Fatalf("expected wrapped redis error, got ok=%v err=%v", ok, err)
		}
	})
}
