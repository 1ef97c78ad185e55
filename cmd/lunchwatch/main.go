package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lunchwatch/lunchwatch/internal/api"
	"github.com/lunchwatch/lunchwatch/internal/config"
	"github.com/lunchwatch/lunchwatch/internal/database"
	"github.com/lunchwatch/lunchwatch/internal/domain"
	"github.com/lunchwatch/lunchwatch/internal/entity"
	"github.com/lunchwatch/lunchwatch/internal/export"
	"github.com/lunchwatch/lunchwatch/internal/lunchmoney"
	"github.com/lunchwatch/lunchwatch/internal/refresh"
	"github.com/lunchwatch/lunchwatch/internal/store"
	"github.com/lunchwatch/lunchwatch/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "lunchwatch",
		Usage: "mirror Lunch Money balances as sensor entities with net-worth aggregates",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the polling daemon and HTTP API",
				Action: runServe,
			},
			{
				Name:   "fetch",
				Usage:  "run one fetch cycle and print the projected entities as JSON",
				Action: runFetch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCoordinator(cfg config.Config) (*refresh.Coordinator, *lunchmoney.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil, errors.New("LUNCHMONEY_API_KEY is required")
	}

	client := lunchmoney.NewClient(cfg.LunchMoneyURL, cfg.APIKey, cfg.RetryMax, cfg.RetryBaseDelay)
	coordinator := refresh.New(client, refresh.Settings{
		PrimaryCurrency: cfg.PrimaryCurrency,
		InversionRules:  domain.NewInversionRuleSet(cfg.InvertedAssetTypes...),
	})
	return coordinator, client, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	coordinator, client, err := newCoordinator(cfg)
	if err != nil {
		return err
	}

	// Non-fatal: the worker keeps retrying on its interval.
	if err := client.ValidateKey(ctx); err != nil {
		slog.Error("API key validation failed", "kind", lunchmoney.KindOf(err), "error", err)
	}

	hooks := make([]worker.AfterRefreshHook, 0, 2)

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("creating migrations sub-fs: %w", err)
		}
		if err := database.Migrate(ctx, pool, migrationsSub); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		repo := store.NewPgRepository(pool)
		if snap, err := repo.Load(ctx); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Warn("failed to load cached snapshot", "error", err)
			}
		} else {
			coordinator.Prime(snap)
		}
		hooks = append(hooks, worker.HookFunc(repo.Save))
	}

	if exportHook := buildExportHook(ctx, cfg); exportHook != nil {
		hooks = append(hooks, exportHook)
	}

	refreshWorker := worker.NewRefreshWorker(coordinator, cfg.UpdateInterval, hooks...)
	go refreshWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, refresh and settings endpoints are unprotected")
	}

	handler := api.NewHandler(coordinator, cfg.UpdateInterval)
	srv := api.NewServer(cfg.HTTPPort, handler, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func buildExportHook(ctx context.Context, cfg config.Config) *export.Hook {
	var writers []export.SnapshotWriter

	if cfg.SheetsSpreadsheetID != "" && cfg.GoogleCredentialsJSON != "" {
		w, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			slog.Error("sheets export disabled", "error", err)
		} else {
			writers = append(writers, w)
		}
	}
	if cfg.XLSXExportPath != "" {
		writers = append(writers, export.NewXLSXWriter(cfg.XLSXExportPath))
	}

	if len(writers) == 0 {
		return nil
	}
	return export.NewHook(writers...)
}

func runFetch(c *cli.Context) error {
	cfg := config.Load()

	coordinator, _, err := newCoordinator(cfg)
	if err != nil {
		return err
	}

	if err := coordinator.Refresh(c.Context); err != nil {
		return fmt.Errorf("fetch cycle failed: %w", err)
	}

	snap := coordinator.Snapshot()
	out := map[string]any{
		"entities":   entity.Project(snap.Assets, snap.NetWorth),
		"net_worth":  snap.NetWorth,
		"fetched_at": snap.FetchedAt,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
