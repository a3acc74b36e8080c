package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-rtm/pkg/broadcast"
	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/storage"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rtmd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("rtmd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", ":8080", "listen address")
	level := fs.String("log-level", "info", "debug, info, warn or error")
	dsn := fs.String("db", "file:rtmd.db?cache=shared", "sqlite DSN for the delivery log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lgr := logger.NewCharm(os.Stderr, *level)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := broadcast.ModuleOptions{Config: cfg, Logger: lgr}
	if cfg.DeliveryLog.Enabled {
		db, err := openDB(ctx, *dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Storage = storage.NewBunProviders(db)
	}

	module, err := broadcast.NewModule(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(module, lgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lgr.Info("rtmd listening", logger.F("addr", *addr), logger.F("namespace", cfg.Realtime.Namespace))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = module.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		lgr.Info("rtmd shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	module.Container().Gateway.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Warn("http shutdown", logger.F("error", err))
	}
	return module.Close(shutdownCtx)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load(nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("rtmd: read config: %w", err)
	}
	var input map[string]any
	if err := yaml.Unmarshal(raw, &input); err != nil {
		return config.Config{}, fmt.Errorf("rtmd: parse config: %w", err)
	}
	return config.Load(input)
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("rtmd: open db: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := storage.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rtmd: create schema: %w", err)
	}
	return db, nil
}
