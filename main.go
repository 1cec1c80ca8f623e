package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"udhaar-bot/internal/ai"
	"udhaar-bot/internal/bot"
	"udhaar-bot/internal/config"
	"udhaar-bot/internal/database"
	"udhaar-bot/internal/dateparse"
	"udhaar-bot/internal/events"
	"udhaar-bot/internal/extract"
	"udhaar-bot/internal/ledger"
	"udhaar-bot/internal/logger"
	"udhaar-bot/internal/notify"
	"udhaar-bot/internal/pending"
	"udhaar-bot/internal/repository"
	"udhaar-bot/internal/session"
	"udhaar-bot/internal/telegram"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	balanceRepo := repository.NewBalanceRepository(db.DB, log)
	historyRepo := repository.NewHistoryRepository(db.DB, log)
	userRepo := repository.NewUserRepository(db.DB, log)

	engine := ledger.New(balanceRepo, historyRepo, log)

	pendingStore := pending.NewStore(cfg.Pending.TTL)
	sessions := session.NewStore(session.LogSender{Log: log}, cfg.Session.OTPTTL, cfg.Session.SessionTTL)

	extractor := &extract.Extractor{
		Dates:    dateparse.New(),
		Fallback: defaultIntent(cfg.Ledger.DefaultIntent),
	}

	tg := telegram.NewClient(cfg.Telegram.Token, log)

	deps := bot.Deps{
		Ledger:    engine,
		Pending:   pendingStore,
		Sessions:  sessions,
		Users:     userRepo,
		Extractor: extractor,
		Notifier:  notify.NewDispatcher(userRepo, tg, log),
		Media:     tg,
		Log:       log,
	}

	if cfg.Gemini.APIKey != "" {
		aiClient, err := ai.New(ctx, cfg.Gemini, log)
		if err != nil {
			log.WithError(err).Fatal("failed to create model client")
		}
		deps.Translator = aiClient
		deps.Transcriber = aiClient
		deps.Vision = aiClient
		deps.Roaster = aiClient
	} else {
		log.Warn("GEMINI_API_KEY not set, media and language features disabled")
	}

	if cfg.Rabbit.Enabled() {
		publisher, err := events.New(cfg.Rabbit, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer publisher.Close()
		deps.Events = publisher
	}

	router := bot.NewRouter(deps)
	dispatcher := bot.NewDispatcher(router, tg, cfg.Worker.QueueSize, cfg.Worker.PerChatBuffer, log)

	go dispatcher.Run(ctx)

	if cfg.Ledger.ReconcileInterval > 0 {
		go ledger.RunSweep(ctx, engine, cfg.Ledger.ReconcileBatch, cfg.Ledger.ReconcileInterval, log)
	}

	mux := http.NewServeMux()
	mux.Handle("/webhook/telegram", telegram.NewWebhook(cfg.Telegram.VerifyToken, dispatcher.Enqueue, log))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	log.Info("stopped")
}

func defaultIntent(s string) extract.Intent {
	if strings.EqualFold(s, string(extract.IntentDebit)) {
		return extract.IntentDebit
	}
	return extract.IntentCredit
}
