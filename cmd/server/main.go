package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "saepe/internal/adapters/email"
	web "saepe/internal/adapters/http"
	"saepe/internal/adapters/http/perf"
	"saepe/internal/adapters/storage"
	accountStore "saepe/internal/adapters/storage/account"
	indicatorStore "saepe/internal/adapters/storage/indicator"
	occurrenceStore "saepe/internal/adapters/storage/occurrence"
	reportStore "saepe/internal/adapters/storage/report"
	schoolStore "saepe/internal/adapters/storage/school"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	visitStore "saepe/internal/adapters/storage/visit"
	"saepe/internal/application/orchestrators"
	"saepe/internal/config"

	"github.com/google/uuid"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(config.NewLogger(cfg, os.Stderr))

	// WAL mode, foreign keys and busy timeout for a single-file database
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(timedDB),
		SchoolStore:     schoolStore.NewSQLiteStore(timedDB),
		OccurrenceStore: occurrenceStore.NewSQLiteStore(timedDB),
		ReportStore:     reportStore.NewSQLiteStore(timedDB),
		VisitStore:      visitStore.NewSQLiteStore(timedDB),
		IndicatorStore:  indicatorStore.NewSQLiteStore(timedDB),
		TechVisitStore:  techvisitStore.NewSQLiteStore(timedDB),
	}

	ctx := context.Background()
	if cfg.AdminPassword != "" {
		if _, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}, orchestrators.SeedAdminDeps{
			AccountStore: stores.AccountStore,
			GenerateID:   uuid.NewString,
			Now:          time.Now,
		}); err != nil {
			return err
		}
	} else {
		slog.Info("auth_event", "event", "admin_seed_skipped", "reason", "SAEPE_ADMIN_PASSWORD not set")
	}
	if _, err := orchestrators.ExecuteSeedOccurrences(ctx, orchestrators.SeedOccurrencesDeps{
		OccurrenceStore: stores.OccurrenceStore,
		GenerateID:      uuid.NewString,
	}); err != nil {
		return err
	}

	var mailer emailPkg.Sender = emailPkg.NewNoopSender()
	if cfg.ResendKey != "" {
		resendSender, err := emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		if err != nil {
			return err
		}
		mailer = resendSender
		slog.Info("email_event", "event", "sender_configured", "provider", "resend")
	} else if cfg.IsProduction() {
		slog.Warn("email_event", "event", "sender_configured", "provider", "noop", "reason", "SAEPE_RESEND_KEY is not set")
	}

	mux, err := web.NewMux(stores, collector, web.Options{
		Production:     cfg.IsProduction(),
		CSRFKey:        cfg.CSRFKey,
		SessionKey:     cfg.SessionKey,
		TrustedOrigins: cfg.TrustedOrigins,
		SlowRequestMs:  cfg.SlowRequestMs,
		Mailer:         mailer,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	slog.Info("server_stop", "reason", "signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
