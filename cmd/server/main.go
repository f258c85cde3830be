// Command server runs the warden API.
//
// Configuration is read from a YAML file (-config, WARDEN_CONFIG,
// ./config.yaml or /etc/warden/config.yaml) and environment variables:
//
//	AUTH_TYPE         - none, auth, basic_auth, session_auth, session_exp_auth, session_db_auth
//	SESSION_NAME      - session cookie name
//	SESSION_DURATION  - session lifetime in seconds (0: never expires)
//	API_HOST          - listen host (default: 0.0.0.0)
//	API_PORT          - listen port (default: 5000)
//	WARDEN_STORAGE    - file, memory, postgres or redis (default: file)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhuss/warden/pkg/auth"
	"github.com/rhuss/warden/pkg/auth/strategy"
	"github.com/rhuss/warden/pkg/config"
	"github.com/rhuss/warden/pkg/debug"
	"github.com/rhuss/warden/pkg/session/durable"
	"github.com/rhuss/warden/pkg/storage/backend"
	transporthttp "github.com/rhuss/warden/pkg/transport/http"
	"github.com/rhuss/warden/pkg/user"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	userRecords, err := store.Records(ctx, user.Kind)
	if err != nil {
		return err
	}
	users := user.NewRepository(userRecords)

	kind := cfg.AuthKind()
	duration, defaulted := cfg.SessionDuration()
	if defaulted && cfg.Auth.SessionDuration != "" {
		slog.Warn("invalid session duration, sessions never expire", "value", cfg.Auth.SessionDuration)
	}

	opts := strategy.Options{
		SessionName:     cfg.Auth.SessionName,
		SessionDuration: duration,
		Users:           users,
	}
	if kind == auth.KindSessionDB {
		opts.SessionRecords, err = store.Records(ctx, durable.Kind)
		if err != nil {
			return err
		}
	}

	s, err := strategy.New(kind, opts)
	if err != nil {
		return fmt.Errorf("creating auth strategy: %w", err)
	}
	if s == nil {
		slog.Warn("authentication disabled", "auth_type", kind)
	} else {
		slog.Info("authentication enabled", "auth_type", kind)
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	adapter := transporthttp.NewAdapter(transporthttp.Config{
		Strategy:      s,
		Users:         users,
		SessionName:   cfg.Auth.SessionName,
		ExcludedPaths: cfg.Auth.ExcludedPaths,
		LoginLimiter:  auth.NewInProcessLimiter(cfg.Auth.LoginRateLimit),
		MetricsPath:   metricsPath,
		Health:        store,
	})

	srv := transporthttp.NewServer(adapter.Handler(),
		transporthttp.WithAddr(cfg.Addr()),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)
	return srv.Run(ctx)
}
