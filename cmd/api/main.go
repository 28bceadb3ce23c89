package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/aria-bots/internal/analytics"
	"github.com/wolfman30/aria-bots/internal/api/router"
	"github.com/wolfman30/aria-bots/internal/app/bootstrap"
	"github.com/wolfman30/aria-bots/internal/assistant"
	appconfig "github.com/wolfman30/aria-bots/internal/config"
	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/http/handlers"
	"github.com/wolfman30/aria-bots/internal/i18n"
	"github.com/wolfman30/aria-bots/internal/intent"
	"github.com/wolfman30/aria-bots/internal/llm"
	"github.com/wolfman30/aria-bots/internal/messaging"
	"github.com/wolfman30/aria-bots/internal/observability/metrics"
	"github.com/wolfman30/aria-bots/internal/users"
	"github.com/wolfman30/aria-bots/internal/worker"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting aria WhatsApp bot server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	metricsHandler, botMetrics := setupMetrics()
	dispatcher := worker.NewDispatcher(logger, worker.WithWorkerCount(cfg.WorkerCount))

	handler, err := buildHandler(cfg, logger, redisClient, bootstrap.BuildRepositories(pool), dispatcher, botMetrics, metricsHandler)
	if err != nil {
		logger.Error("failed to build webhook pipeline", "error", err)
		os.Exit(1)
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	go drainTaskErrors(dispatcher, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Voice notes already accepted get their reply before exit.
	cancelWorkers()
	dispatcher.Wait()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.BotMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewBotMetrics(registry)
}

// buildHandler assembles the WhatsApp pipeline behind the HTTP router.
func buildHandler(
	cfg *appconfig.Config,
	logger *logging.Logger,
	redisClient *redis.Client,
	repos bootstrap.Repositories,
	dispatcher *worker.Dispatcher,
	botMetrics *metrics.BotMetrics,
	metricsHandler http.Handler,
) (http.Handler, error) {
	completer, err := bootstrap.BuildCompleter(cfg, llm.WhatsAppProfile, logger)
	if err != nil {
		return nil, err
	}

	routerOpts := []intent.Option{}
	if notifier := bootstrap.BuildNotifier(cfg, logger); notifier != nil {
		routerOpts = append(routerOpts, intent.WithHandoffNotifier(notifier))
	}
	intentRouter := intent.NewRouter(bootstrap.BuildHandoffSet(redisClient, "whatsapp"), logger, routerOpts...)

	deps := assistant.Deps{
		Router:       intentRouter,
		Buffers:      bootstrap.BuildConversationManager(redisClient, "whatsapp", assistant.SystemPrompt, conversation.WhatsAppBufferLimit),
		Completer:    completer,
		Users:        repos.Users,
		Translator:   i18n.NewTranslator(),
		Sessions:     users.NewSessionTracker(),
		Appointments: repos.Appointments,
		Agent:        bootstrap.BuildAgentForwarder(cfg),
		Dispatcher:   dispatcher,
		Metrics:      botMetrics,
		Logger:       logger,
	}

	summaries := analytics.NewService(repos.Events, repos.Users)
	deps.Analytics = summaries

	if transcriber := bootstrap.BuildTranscriber(cfg, logger); transcriber != nil {
		deps.Transcriber = transcriber
	}
	if sender := bootstrap.BuildTwilioSender(cfg, logger); sender != nil {
		deps.Media = sender
		deps.Sender = sender
	} else {
		logger.Warn("twilio credentials missing; voice notes will not be transcribed")
	}
	locations, err := bootstrap.BuildLocations(cfg, logger)
	if err != nil {
		return nil, err
	}
	if locations != nil {
		deps.Locations = locations
	}

	service := assistant.NewService(deps)

	return router.New(&router.Config{
		Logger:           logger,
		MessagingHandler: messaging.NewHandler(cfg.TwilioWebhookSecret, service, botMetrics, logger),
		AnalyticsHandler: handlers.NewAnalyticsHandler(summaries, logger),
		MetricsHandler:   metricsHandler,
		AdminJWTSecret:   cfg.AdminJWTSecret,
		AdminPassword:    cfg.AdminPassword,
	}), nil
}

func drainTaskErrors(dispatcher *worker.Dispatcher, logger *logging.Logger) {
	for taskErr := range dispatcher.Errors() {
		logger.Error("background task failed", "task", taskErr.Task, "key", taskErr.Key, "error", taskErr.Err)
	}
}
