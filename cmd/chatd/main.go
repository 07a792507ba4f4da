package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/chatws"
	"github.com/dmitrymomot/chatroom/core/config"
	"github.com/dmitrymomot/chatroom/core/health"
	"github.com/dmitrymomot/chatroom/core/history"
	"github.com/dmitrymomot/chatroom/core/httpapi"
	"github.com/dmitrymomot/chatroom/core/hub"
	"github.com/dmitrymomot/chatroom/core/logger"
	"github.com/dmitrymomot/chatroom/core/room"
	"github.com/dmitrymomot/chatroom/core/server"
	"github.com/dmitrymomot/chatroom/core/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logCfg)

	if err := run(ctx, log); err != nil {
		log.Error("chatd exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var srvCfg server.Config
	config.MustLoad(&srvCfg)
	var histCfg history.Config
	config.MustLoad(&histCfg)
	var hubCfg hub.Config
	config.MustLoad(&hubCfg)
	var roomCfg room.Config
	config.MustLoad(&roomCfg)

	store, checks, err := newHistoryStore(ctx, histCfg)
	if err != nil {
		return fmt.Errorf("history store: %w", err)
	}

	events := hub.New[chat.ServerMessage](
		hub.WithSubscriberBuffer[chat.ServerMessage](hubCfg.SubscriberBuffer),
		hub.WithLogger[chat.ServerMessage](log.With(logger.Component("hub"))),
		hub.WithMissedNotice[chat.ServerMessage](func(missed int) chat.ServerMessage {
			return chat.ErrorEvent{ErrorMsg: fmt.Sprintf("connection too slow: %d messages dropped", missed)}
		}),
	)
	sessions := session.NewTable(
		session.WithLogger(log.With(logger.Component("sessions"))),
	)
	registry := room.NewRegistry(events, sessions, store,
		room.WithLogger(log.With(logger.Component("registry"))),
		room.WithBcryptCost(roomCfg.BcryptCost),
		room.WithHistoryLimit(histCfg.Limit),
	)

	ws := chatws.Handler(registry, sessions, events,
		chatws.WithAllowAnyOrigin(),
		chatws.WithLogger(log.With(logger.Component("ws"))),
	)
	api := httpapi.New(registry, ws,
		httpapi.WithLogger(log.With(logger.Component("api"))),
		httpapi.WithReadinessChecks(checks...),
	)

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	log.InfoContext(ctx, "chatd starting", "addr", srvCfg.Addr,
		"history_backend", histCfg.Backend)

	err = srv.Start(ctx, api.Routes())
	if errors.Is(err, context.Canceled) {
		return srv.Stop()
	}
	return err
}

func newHistoryStore(ctx context.Context, cfg history.Config) (history.Store, []health.Check, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return history.NewMemoryStore(cfg.Limit), nil, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		check := func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		return history.NewRedisStore(client, cfg.Limit), []health.Check{check}, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
