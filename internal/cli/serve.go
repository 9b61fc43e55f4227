package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"duostudy/internal/api"
	"duostudy/internal/bot"
	"duostudy/internal/service"
)

const (
	summaryTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, sync loop and focus timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	botAPI, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	var alerter service.Alerter = service.LogAlerter{}
	if cfg.TelegramChatID != 0 {
		alerter = bot.NewAlerter(botAPI, cfg.TelegramChatID)
	}

	a, err := newApp(ctx, cfg, alerter)
	if err != nil {
		return err
	}
	defer a.Close()

	telegramBot := bot.New(botAPI, bot.Services{
		Tasks:    a.tasks,
		Timer:    a.timer,
		Progress: a.progress,
		Profile:  a.profile,
		Reset:    a.reset,
		Relay:    a.relay,
		Clock:    a.clock,
	}, cfg.TelegramChatID)

	scheduler := service.NewSchedulerService(cfg.Location)
	if _, err := scheduler.ScheduleInterval(cfg.SyncInterval, a.sync.Job(ctx, cfg.SyncInterval)); err != nil {
		return err
	}
	if _, err := scheduler.ScheduleInterval(time.Second, a.timer.Job(ctx)); err != nil {
		return err
	}
	if cfg.ReportTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, summaryTimeout)
			defer cancel()
			if err := telegramBot.SendDailySummary(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("daily summary")
			}
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.HTTPAddr != "" {
		e := api.NewServer(a.view, a.progress)
		go serveHTTP(e, cfg.HTTPAddr)
		defer shutdownHTTP(e)
	}

	log.WithFields(log.Fields{
		"user":     a.view.Settings().CurrentUserID,
		"interval": cfg.SyncInterval,
		"http":     cfg.HTTPAddr,
	}).Info("DuoStudy started")

	err = telegramBot.Start(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if _, ferr := a.timer.Stop(flushCtx); ferr != nil {
		log.WithError(ferr).Warn("flush study time")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func serveHTTP(e *echo.Echo, addr string) {
	log.WithField("addr", addr).Info("http view listening")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("http server stopped")
	}
}

func shutdownHTTP(e *echo.Echo) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
}
