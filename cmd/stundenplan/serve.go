package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/stundenplan/internal/account"
	"github.com/verte-zerg/stundenplan/internal/app"
	"github.com/verte-zerg/stundenplan/internal/config"
	"github.com/verte-zerg/stundenplan/internal/server"
	"github.com/verte-zerg/stundenplan/internal/store"
)

var (
	serveAddr      string
	serveEnvFile   string
	serveStaticDir string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the account and settings service",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "load environment variables from this file if it exists")
	cmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "serve static files from this directory")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	if _, err := config.LoadDotEnv(serveEnvFile); err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.ResolveServer(fileCfg.Server)
	if err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	applyStringConfig(cmd, "static-dir", &serveStaticDir, fileCfg.Server.StaticDir)
	cfg.StaticDir = serveStaticDir

	logger, err := app.NewLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort flush; stdout sync fails on some terminals.
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", zap.Error(cerr))
		}
	}()
	logger.Info("database ready", zap.String("driver", cfg.DBDriver))

	svc := account.NewService(st, account.NewTokens(cfg.JWTSecret, cfg.TokenTTL), account.WithLogger(logger))
	fiberApp := server.New(svc, logger, server.Config{
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
		StaticDir:  cfg.StaticDir,
		Ping:       st.Ping,
	})
	return server.Run(ctx, fiberApp, cfg.Addr, logger)
}

func openStore(ctx context.Context, driver, dsn string) (*store.Store, error) {
	switch strings.ToLower(driver) {
	case "", store.DriverSQLite, "sqlite3":
		if strings.Contains(dsn, "?") || strings.HasPrefix(dsn, "file:") {
			return store.OpenDSN(ctx, store.DriverSQLite, dsn)
		}
		return store.Open(dsn)
	case store.DriverPostgres, "postgres", "postgresql":
		return store.OpenDSN(ctx, store.DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
