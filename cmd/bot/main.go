package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/subosito/gotenv"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/bot"
	"github.com/antonkh/labstock-bot/internal/config"
	"github.com/antonkh/labstock-bot/internal/dialog"
	httpx "github.com/antonkh/labstock-bot/internal/infra/http"
	"github.com/antonkh/labstock-bot/internal/infra/logger"
	"github.com/antonkh/labstock-bot/internal/session"
)

var version = "dev"

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	log.Info("backend", "base_url", cfg.Backend.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := api.New(cfg.Backend.BaseURL)

	sessions, err := session.NewManager(cfg.Session.StorePath, backend)
	if err != nil {
		log.Error("session store failed", "err", err)
		return
	}

	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram connect failed", "err", err)
		return
	}
	log.Info("telegram connected", "bot", tg.Self.UserName)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, map[string]string{"version": version})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	b := bot.New(tg, log, backend, sessions, dialog.NewRepo(), cfg.Telegram.AdminChatID)

	// монитор остатков живёт столько же, сколько и бот
	go b.RunLowStockMonitor(ctx, cfg.Backend.PollInterval)

	if err := b.Run(ctx, 30); err != nil && ctx.Err() == nil {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
