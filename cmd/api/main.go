package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"therapy-chat/internal/config"
	"therapy-chat/internal/db"
	apihttp "therapy-chat/internal/http"
	"therapy-chat/internal/repository"
	"therapy-chat/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
		defer redisClient.Close()
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()

	var (
		sessions repository.SessionRepository
		messages repository.MessageRepository
	)
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		sessions = repository.NewPgSessionRepository(pool)
		messages = repository.NewPgMessageRepository(pool)
	case config.StoreBackendRedis:
		if redisClient == nil {
			logger.Fatal("redis backend requires REDIS_ADDR")
		}
		store := repository.NewRedisStore(redisClient, cfg.SessionTTL)
		sessions, messages = store, store
	default:
		if cfg.StoreBackend != config.StoreBackendMemory {
			logger.Warn("unknown store backend, using memory", zap.String("backend", cfg.StoreBackend))
		}
		store := repository.NewMemoryStore()
		go store.RunJanitor(janitorCtx, time.Minute, logger)
		sessions, messages = store, store
	}

	var limiter service.MessageRateLimiter
	if redisClient != nil {
		limiter = service.NewRedisMessageRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitMax)
	}

	tokens := service.NewSessionTokenService(cfg.SessionSecret, cfg.SessionTTL)
	conversation := service.NewConversationService(
		logger,
		sessions,
		messages,
		service.DefaultClassifier,
		service.NewResponseGenerator(nil),
		limiter,
		cfg.ReplyDelay,
		cfg.SessionTTL,
	)
	moodSampler := service.NewMoodSampler(nil, nil)

	chatHandler := apihttp.NewChatHandler(logger, conversation, tokens, moodSampler, cfg.ReplyDelay+10*time.Second)
	streamHandler := apihttp.NewStreamHandler(logger, conversation)
	router := apihttp.NewRouter(logger, tokens, chatHandler, streamHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("store", cfg.StoreBackend),
			zap.Duration("reply_delay", cfg.ReplyDelay),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
