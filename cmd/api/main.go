package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campus-auth/internal/application/verification"
	"github.com/campus-auth/internal/config"
	"github.com/campus-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/campus-auth/internal/infrastructure/jwt"
	"github.com/campus-auth/internal/infrastructure/memory"
	s3infra "github.com/campus-auth/internal/infrastructure/s3"
	"github.com/campus-auth/internal/infrastructure/smtp"
	"github.com/campus-auth/internal/infrastructure/sns"
	transporthttp "github.com/campus-auth/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
	}

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.TestMode {
		slog.Warn("TEST_MODE is enabled: reserved account and bypass code are active")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	svcs := transporthttp.NewServices(cfg, deps)

	if err := svcs.Universities.Seed(ctx, cfg.SeedUniversities); err != nil {
		slog.Error("seed universities", "err", err)
		os.Exit(1)
	}

	go verification.NewSweeper(svcs.Codes, cfg.SweepInterval, nil).Run(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps, svcs),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreBackend, "notifier", cfg.Notifier)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") || cfg.AppEnv == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func buildDeps(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, error) {
	deps := &transporthttp.Deps{}

	switch cfg.StoreBackend {
	case "memory":
		slog.Warn("using in-memory store: data is lost on restart")
		deps.UniversityRepo = memory.NewUniversityRepo()
		deps.AccountRepo = memory.NewAccountRepo()
		deps.VerificationRepo = memory.NewVerificationRepo()
		deps.ProfileRepo = memory.NewProfileRepo()
		deps.Health = memory.Pinger{}
	default:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		t := cfg.DynamoTables
		// Creates tables that don't exist yet.
		dynamo.Bootstrap(ctx, client, t)
		deps.UniversityRepo = dynamo.NewUniversityRepo(client, t.Universities, cfg.StoreTimeout)
		deps.AccountRepo = dynamo.NewAccountRepo(client, t.Accounts, t.Usernames, cfg.StoreTimeout)
		deps.VerificationRepo = dynamo.NewVerificationRepo(client, t.VerificationCodes, cfg.StoreTimeout)
		deps.ProfileRepo = dynamo.NewProfileRepo(client, t.Profiles, cfg.StoreTimeout)
		deps.Health = dynamo.NewPinger(client, t.Universities, t.Accounts, t.Usernames, t.VerificationCodes, t.Profiles)
	}

	switch cfg.Notifier {
	case "smtp":
		deps.Notifier = smtp.NewMailer(cfg)
	case "sns":
		sender, err := sns.NewSender(cfg)
		if err != nil {
			return nil, fmt.Errorf("sns sender: %w", err)
		}
		deps.Notifier = sender
	default:
		deps.Notifier = smtp.LogMailer{}
	}

	if cfg.AvatarStorage == "s3" {
		deps.Avatars = s3infra.NewAvatarStore(s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName))
	}

	// JWT provider falls back to an in-memory key outside production.
	provider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("jwt provider: %w", err)
		}
		slog.Warn("JWT keys not available, using an ephemeral key", "err", err)
		provider, err = jwtinfra.NewEphemeralProvider(cfg.JWTExpiry)
		if err != nil {
			return nil, fmt.Errorf("jwt provider: %w", err)
		}
	}
	deps.JWTProvider = provider

	return deps, nil
}
