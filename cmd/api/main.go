// cmd/api/main.go
//
// Heart Wall API – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config (yaml + env overlay, Vault-resolved secrets).
//
//  4. Open Postgres and run embedded migrations.
//
//  5. Wire the pipeline: Stripe gateway → heart repository → SendGrid
//     notifier → wall service → chi router.
//
//  6. Serve with hardened timeouts; SIGINT/SIGTERM drains in-flight
//     requests before exit.
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
	"golang.org/x/sync/errgroup"

	"github.com/theheartwall/heartwall/internal/api"
	"github.com/theheartwall/heartwall/internal/config"
	"github.com/theheartwall/heartwall/internal/database"
	"github.com/theheartwall/heartwall/internal/demo"
	"github.com/theheartwall/heartwall/internal/heart"
	"github.com/theheartwall/heartwall/internal/logger"
	"github.com/theheartwall/heartwall/internal/mail"
	"github.com/theheartwall/heartwall/internal/middleware"
	"github.com/theheartwall/heartwall/internal/payment"
	"github.com/theheartwall/heartwall/internal/server"
	"github.com/theheartwall/heartwall/internal/wall"
)

const serverEnvPath = "/usr/local/etc/heartwall/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config (Vault-resolved) ─────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Postgres connect + migrate ──────────────────────────────────
	//
	logOut.Infow("connecting to database")
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logOut.Fatalf("migrate database: %v", err)
	}
	logOut.Infow("database online")

	//
	// ── 3.  Pipeline wiring ─────────────────────────────────────────────
	//
	gateway := payment.NewStripeGateway(
		cfg.Stripe.SecretKey, cfg.Stripe.AmountCents, cfg.Stripe.Currency)

	var notifier mail.Notifier
	if cfg.Email.APIKey != "" {
		notifier = mail.NewSendGridNotifier(
			cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromAddr)
	} else {
		logOut.Warnw("no email api key configured, notifications disabled")
	}

	hearts := heart.NewRepository(db)
	counter := demo.NewCounter(db)
	svc := wall.New(gateway, hearts, notifier)

	handler := api.NewServer(svc, counter,
		cfg.Stripe.WebhookSecret, cfg.Admin.Secret, cfg.HTTP.CORSOrigins,
	).Routes()

	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	//
	// ── 4.  Serve until signalled ───────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logOut.Infow("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logOut.Fatalf("http server: %v", err)
	}
	logOut.Infow("bye")
}
