package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"task-manager/internal/bot"
	"task-manager/internal/config"
	"task-manager/internal/httpapi"
	"task-manager/internal/logging"
	"task-manager/internal/metrics"
	"task-manager/internal/repository"
	"task-manager/internal/repository/mongostore"
	"task-manager/internal/service"
)

const maxRateBuckets = 10000

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskmanager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	m := metrics.New()
	authSvc := service.NewAuthService(store, service.AuthConfig{
		Secret:        []byte(cfg.JWTSecret),
		TokenTTL:      cfg.JWTTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		BcryptCost:    bcrypt.DefaultCost,
	}, log)
	categorySvc := service.NewCategoryService(store, log).WithRecorder(m)
	taskSvc := service.NewTaskService(store, log).WithRecorder(m)
	commentSvc := service.NewCommentService(store, log)
	reminderSvc := service.NewReminderService(store)

	api := httpapi.New(httpapi.Deps{
		Store:      store,
		Auth:       authSvc,
		Categories: categorySvc,
		Tasks:      taskSvc,
		Comments:   commentSvc,
		Metrics:    m,
		Log:        log,
	}, httpapi.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateBurst:  cfg.AuthRateBurst,
	})

	scheduler := service.NewSchedulerService(time.Local, log, 30*time.Second).WithObserver(m)
	if _, err := scheduler.ScheduleInterval("purge_reset_tokens", cfg.TokenPurgeInterval, func(ctx context.Context) error {
		n, err := authSvc.PurgeExpiredResetTokens(ctx)
		if err == nil && n > 0 {
			log.WithField("cleared", n).Info("expired reset tokens cleared")
		}
		return err
	}); err != nil {
		return fmt.Errorf("schedule token purge: %w", err)
	}
	if _, err := scheduler.ScheduleInterval("prune_rate_limits", time.Hour, func(context.Context) error {
		api.Limiter().Prune(maxRateBuckets)
		return nil
	}); err != nil {
		return fmt.Errorf("schedule rate limit prune: %w", err)
	}

	var telegramBot *bot.Bot
	if cfg.BotEnabled() {
		tg, err := bot.Connect(cfg.TelegramToken, log)
		if err != nil {
			return err
		}
		telegramBot = bot.New(tg, store.Users(), taskSvc, reminderSvc, log)
		if _, err := scheduler.ScheduleDaily("daily_reports", cfg.ReportTime, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("bot stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": server.Addr, "driver": cfg.DBDriver}).Info("task manager API started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		return mongostore.Connect(ctx, mongostore.Options{
			URI:          cfg.MongoURI,
			Database:     cfg.MongoDatabase,
			Transactions: cfg.MongoTransactions,
		})
	default:
		db, err := repository.NewDB(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLStore(db), nil
	}
}
