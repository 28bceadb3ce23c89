package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/aria-bots/internal/app/bootstrap"
	appconfig "github.com/wolfman30/aria-bots/internal/config"
	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/llm"
	"github.com/wolfman30/aria-bots/internal/observability/metrics"
	"github.com/wolfman30/aria-bots/internal/telegram"
	"github.com/wolfman30/aria-bots/internal/users"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting aria Telegram bot", "env", cfg.Env)

	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_TOKEN is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("failed to authenticate with telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("authorized on telegram", "username", api.Self.UserName)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	completer, err := bootstrap.BuildCompleter(cfg, llm.TelegramProfile, logger)
	if err != nil {
		logger.Error("failed to build completion client", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	bot := telegram.NewBot(
		api,
		bootstrap.BuildConversationManager(redisClient, "telegram", telegram.PersonalityPrompt, conversation.TelegramBufferLimit),
		completer,
		users.NewSessionTracker(),
		telegram.Config{
			AdminIDs: cfg.AdminIDs,
			Metrics:  metrics.NewBotMetrics(registry),
			Logger:   logger,
		},
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      opsRouter(registry),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	if err := bot.Run(ctx); err != nil {
		logger.Error("telegram polling failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("telegram bot stopped")
}

// opsRouter serves liveness and metrics for the polling bot.
func opsRouter(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return r
}
