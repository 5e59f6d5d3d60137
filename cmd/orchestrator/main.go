package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"parley/agent"
	"parley/handlers"
	"parley/router"
	"parley/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log, err := newLogger(config.LogLevel)
	if err != nil {
		return err
	}

	// 2. Redis
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("connected to Redis")

	// 3. Session store, agents, orchestration core
	store := session.NewRedisStore(rdb, config.SessionTTL)
	identifier := agent.NewJWTIdentifier(config.JWTSecret, config.JWTIssuer)
	negotiator := agent.NewNegotiatorClient(log, config.NegotiatorURL, config.NegotiatorTimeout, store)
	r := router.New(log, rdb, store, identifier, negotiator)

	if err := r.EnsureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	go r.ConsumeLoop(ctx)

	// 4. HTTP entry points
	mux := http.NewServeMux()
	mux.Handle("/message", handlers.NewMessageHandler(log, r))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("orchestrator listening", "port", config.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func newLogger(levelStr string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", levelStr, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})), nil
}
