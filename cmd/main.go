package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lib/pq"

	"github.com/amirphl/spike-trader/internal/config"
	"github.com/amirphl/spike-trader/internal/db"
	"github.com/amirphl/spike-trader/internal/db/conf"
	"github.com/amirphl/spike-trader/internal/exchange"
	"github.com/amirphl/spike-trader/internal/executor"
	"github.com/amirphl/spike-trader/internal/metrics"
	"github.com/amirphl/spike-trader/internal/notifier"
	"github.com/amirphl/spike-trader/internal/scanner"
	"github.com/amirphl/spike-trader/internal/strategy"
)

func main() {
	cfg := config.MustLoad()
	log.Printf("Starting Spike Trader, interval=%s testnet=%v dry_run=%v", cfg.Interval, cfg.Testnet, cfg.DryRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if cfg.RunMigration {
		if err := runMigrations(ctx, cfg.DBConnStr); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	storage := newStorage(cfg)

	binance := exchange.NewBinanceFutures(cfg.APIKey, cfg.APISecret, cfg.Testnet)
	var ex exchange.Exchange = binance
	if cfg.DryRun {
		ex = exchange.NewMockBinanceFutures(binance, cfg.DryRunBalance)
		log.Printf("Dry run: real %s market data, simulated orders, balance %.2f", binance.Name(), cfg.DryRunBalance)
	}

	var n notifier.Notifier = notifier.Noop{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		n = notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotificationRetries, cfg.NotificationDelay)
		log.Println("Telegram notifications enabled")
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Printf("Metrics served on %s", cfg.MetricsAddr)
	}

	detector := strategy.NewVolumeSpikeDetector(cfg.VolumeMultiplier, cfg.C1DollarMin)

	exec := executor.New(executor.Config{
		Leverage:        cfg.Leverage,
		TPPct:           cfg.TPPct,
		MaxSlices:       cfg.MaxSlices,
		FallbackBalance: cfg.FallbackBalance,
		QuoteAsset:      "USDT",
		AllIn:           cfg.AllIn,
	}, ex)

	sc := scanner.New(scanner.Config{
		Interval:     cfg.Interval,
		GraceSeconds: cfg.GraceSeconds,
		MaxSlices:    cfg.MaxSlices,
	}, ex, detector, exec, storage, n)

	if err := sc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Scanner stopped: %v", err)
	}
	log.Println("Shutdown complete")
}

// newStorage picks the trade ledger backend: Postgres when a connection
// string is configured, in-memory otherwise (and always for dry runs
// without one).
func newStorage(cfg config.Config) db.Storage {
	if cfg.DBConnStr == "" {
		log.Println("No DB_CONN_STR set, using in-memory ledger (trades are lost on restart)")
		return db.NewMemory()
	}

	dbConfig, err := conf.NewConfig(cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		log.Fatalf("Failed to create DB config: %v", err)
	}
	storage, err := db.New(*dbConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Connected to Postgres")
	return storage
}

// runMigrations creates the database if it doesn't exist and runs the
// schema.sql script.
func runMigrations(ctx context.Context, connStr string) error {
	log.Println("Running database migrations...")

	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database name not found in connection string")
	}

	// Connect to the postgres database to create ours if needed.
	baseConnStr := fmt.Sprintf("postgres://%s:%s@%s/postgres%s",
		u.User.Username(),
		func() string {
			p, _ := u.User.Password()
			return p
		}(),
		u.Host,
		func() string {
			if u.RawQuery != "" {
				return "?" + u.RawQuery
			}
			return ""
		}())

	baseDB, err := sql.Open("postgres", baseConnStr)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer baseDB.Close()

	var exists bool
	err = baseDB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if !exists {
		log.Printf("Creating database %s...", dbName)
		_, err = baseDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	appDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer appDB.Close()

	schemaSQL, err := os.ReadFile("scripts/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := appDB.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema.sql: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}
