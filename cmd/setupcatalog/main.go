package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/setupcatalog/internal/api"
	"github.com/erazemk/setupcatalog/internal/app"
	"github.com/erazemk/setupcatalog/internal/auth"
	"github.com/erazemk/setupcatalog/internal/config"
	"github.com/erazemk/setupcatalog/internal/db"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
	"github.com/erazemk/setupcatalog/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("setupcatalog", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	var adminClient string
	fs.StringVar(&adminClient, "client", "admin", "")
	fs.StringVar(&adminClient, "u", "admin", "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: setupcatalog [flags]

Flags:
  -d, -db <path>          SQLite database path (default: setupcatalog.db)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -client <name>      admin API client created on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Every other setting is read from SETUPCATALOG_* environment variables.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// INFO/WARN → stdout, ERROR → stderr, optionally also a file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, adminClient); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, adminClient string) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, "setupcatalog", cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, secret, err := initDatabase(cfg.DBPath, adminClient)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, adminClient, secret)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	engine, err := app.New(cfg, database)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Config{
		DB:          database,
		JWTSecret:   jwtSecret,
		Catalog:     engine.Catalog,
		Features:    engine.Features,
		ImageClient: &http.Client{Timeout: cfg.FetchTimeout},
		UserAgent:   cfg.UserAgent,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	// Let detached enrichment finish before the database closes.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.EnrichTimeout)
	defer cancel()
	if err := engine.Shutdown(drainCtx); err != nil {
		slog.Warn("enrichment did not drain", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// initDatabase creates a new database, ensures the schema, and creates the
// admin API client.
func initDatabase(path, adminName string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return fail(err)
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return fail(err)
	}

	if _, err := store.CreateClient(context.Background(), database, adminName, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin client: %w", err))
	}

	return database, secret, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, name, secret string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin API client created:")
	fmt.Printf("  Client: %s\n", name)
	fmt.Printf("  Secret: %s\n", secret)
	fmt.Println()
	fmt.Println("Save this secret, it cannot be recovered.")
}
