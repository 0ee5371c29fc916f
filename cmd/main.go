package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	logByDefault "log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plugfox/helpdesk-server/internal/auth"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	config "github.com/plugfox/helpdesk-server/internal/config"
	"github.com/plugfox/helpdesk-server/internal/httpclient"
	log "github.com/plugfox/helpdesk-server/internal/log"
	"github.com/plugfox/helpdesk-server/internal/metrics"
	"github.com/plugfox/helpdesk-server/internal/server"
	storage "github.com/plugfox/helpdesk-server/internal/storage"
	"github.com/plugfox/helpdesk-server/internal/support"
	"github.com/plugfox/helpdesk-server/internal/telegram"

	// This controls the maxprocs environment variable in container runtimes.
	// see https://martin.baillie.id/wrote/gotchas-in-the-go-network-packages-defaults/#bonus-gomaxprocs-containers-and-the-cfs
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	captchaSweepInterval = 10 * time.Minute
	shutdownTimeout      = 15 * time.Second
)

func main() {
	// Set the local timezone to UTC
	time.Local = time.UTC

	// Initialize the configuration
	config, err := config.MustLoadConfig()
	if err != nil {
		logByDefault.Fatalf("Config load error: %v", err)
	}

	// Logger configuration
	logger := log.New(
		log.WithLevel(config.Verbose),
		log.WithSource(),
	)

	if err := run(config, logger); err != nil {
		logger.ErrorContext(context.Background(), "an error occurred", slog.String("error", err.Error()))
		os.Exit(1)
	}

	os.Exit(0)
}

func run(config *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := maxprocs.Set(maxprocs.Logger(func(s string, i ...interface{}) {
		logger.DebugContext(ctx, fmt.Sprintf(s, i...))
	}))
	if err != nil {
		return fmt.Errorf("setting max procs: %w", err)
	}

	// Setup database connection
	db, err := storage.New(config, logger)
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer db.Close()

	// Create a http client
	httpClient, err := httpclient.NewHTTPClient(&config.Proxy)
	if err != nil {
		return fmt.Errorf("http client setup error: %w", err)
	}

	// Identity provider
	secret := config.Secret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return fmt.Errorf("generating secret: %w", err)
		}
		logger.WarnContext(ctx, "SECRET is not set, tokens will not survive a restart")
	}
	tokens, err := auth.NewProvider(secret, config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("identity provider setup error: %w", err)
	}

	// Captcha: local digits or Google reCAPTCHA
	var (
		verifier     captcha.Verifier
		localCaptcha *captcha.Local
	)
	switch config.Captcha.Provider {
	case "recaptcha":
		if config.Captcha.RecaptchaSecret == "" {
			return errors.New("captcha.recaptcha_secret is required for the recaptcha provider")
		}
		verifier = captcha.NewRecaptcha(config.Captcha.RecaptchaSecret, httpClient)
	case "", "local":
		localCaptcha = captcha.NewLocal(db, config.Captcha)
		verifier = localCaptcha
	default:
		return fmt.Errorf("unknown captcha provider: %s", config.Captcha.Provider)
	}

	// Setup metrics, InfluxDB is optional
	prom := metrics.NewPrometheus()
	metricsLogger := metrics.Combine(metrics.New(config, logger), prom)
	defer metricsLogger.Close()

	// Setup Telegram notifications about bans
	notifier, err := telegram.New(config, httpClient, logger)
	if err != nil {
		return fmt.Errorf("telegram bot setup error: %w", err)
	}

	svc, err := support.New(db, support.Dependencies{
		Config:   config,
		Tokens:   tokens,
		Captcha:  verifier,
		Metrics:  metricsLogger,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("service setup error: %w", err)
	}
	defer svc.Close()

	srv := server.New(config, server.Dependencies{
		Service:    svc,
		Tokens:     tokens,
		Captcha:    localCaptcha,
		Health:     db.Ping,
		Prometheus: prom,
		Logger:     logger,
	})

	if localCaptcha != nil {
		go sweepCaptcha(ctx, localCaptcha, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "API server started",
			slog.String("host", config.API.Host),
			slog.Int("port", config.API.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.InfoContext(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}

	return nil
}

// sweepCaptcha deletes expired captcha sessions until ctx is done.
func sweepCaptcha(ctx context.Context, local *captcha.Local, logger *slog.Logger) {
	ticker := time.NewTicker(captchaSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := local.Sweep(ctx)
			if err != nil {
				logger.WarnContext(ctx, "captcha sweep failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.DebugContext(ctx, "expired captcha sessions removed", slog.Int64("count", removed))
			}
		}
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
