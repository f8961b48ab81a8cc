// Command catalogctl administers a setupcatalog database directly, without
// going through the HTTP API.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/erazemk/setupcatalog/internal/app"
	"github.com/erazemk/setupcatalog/internal/auth"
	"github.com/erazemk/setupcatalog/internal/catalog"
	"github.com/erazemk/setupcatalog/internal/config"
	"github.com/erazemk/setupcatalog/internal/db"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

const usage = `Usage: catalogctl <command> [flags]

Commands:
  init                              create a new database with an admin client
  client add [-role role] <name>    create an API client and print its secret
  client list                       list API clients
  client remove <id>                delete an API client
  item get [-platform p] <id>       resolve an item through the cache
  item refresh [-platform p] <id>   force a refresh from the platform
  item outdated -platform p <id>    flag a cached item as outdated
  item history -platform p <id>     show recent revalidation attempts

Every command accepts -db <path> before its arguments. Other settings come
from SETUPCATALOG_* environment variables.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	var runErr error
	switch os.Args[1] {
	case "init":
		runErr = cmdInit(cfg, os.Args[2:])
	case "client":
		runErr = cmdClient(cfg, os.Args[2:])
	case "item":
		runErr = cmdItem(cfg, os.Args[2:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s", os.Args[1], usage)
		os.Exit(1)
	}
	if runErr != nil {
		fail(runErr)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInit(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	name := fs.String("client", "admin", "name of the admin client")
	fs.Parse(args)

	if _, err := os.Stat(*dbPath); err == nil {
		return fmt.Errorf("database file %s already exists", *dbPath)
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		database.Close()
		os.Remove(*dbPath)
		return fmt.Errorf("running migrations: %w", err)
	}

	secret, err := createClient(context.Background(), database, *name, model.RoleAdmin)
	if err != nil {
		database.Close()
		os.Remove(*dbPath)
		return err
	}

	fmt.Printf("Database created: %s\n", *dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin API client created:")
	fmt.Printf("  Client: %s\n", *name)
	fmt.Printf("  Secret: %s\n", secret)
	fmt.Println()
	fmt.Println("Save this secret, it cannot be recovered.")
	return nil
}

func cmdClient(cfg config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("client: expected add, list or remove")
	}

	fs := flag.NewFlagSet("client "+args[0], flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	role := fs.String("role", model.RoleAuthor, "client role (admin, author, reader)")
	fs.Parse(args[1:])

	database, err := openExisting(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()

	switch args[0] {
	case "add":
		if fs.NArg() != 1 {
			return errors.New("client add: expected a client name")
		}
		if !model.ValidRole(*role) {
			return fmt.Errorf("client add: unknown role %q", *role)
		}
		secret, err := createClient(ctx, database, fs.Arg(0), *role)
		if err != nil {
			return err
		}
		fmt.Printf("Client: %s\nRole:   %s\nSecret: %s\n", fs.Arg(0), *role, secret)
		return nil

	case "list":
		clients, err := store.ListClients(ctx, database)
		if err != nil {
			return err
		}
		printClients(os.Stdout, clients)
		return nil

	case "remove":
		if fs.NArg() != 1 {
			return errors.New("client remove: expected a client id")
		}
		id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("client remove: invalid id %q", fs.Arg(0))
		}
		client, err := store.GetClient(ctx, database, id)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("client %d not found", id)
		}
		if err := store.DeleteClient(ctx, database, id); err != nil {
			return err
		}
		fmt.Printf("Client %s removed.\n", client.Name)
		return nil

	default:
		return fmt.Errorf("client: unknown subcommand %q", args[0])
	}
}

func cmdItem(cfg config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("item: expected get, refresh, outdated or history")
	}

	fs := flag.NewFlagSet("item "+args[0], flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	platformName := fs.String("platform", "", "item platform (booth, github)")
	limit := fs.Int("limit", 20, "history entries to show")
	fs.Parse(args[1:])

	if fs.NArg() != 1 {
		return fmt.Errorf("item %s: expected an item id", args[0])
	}
	p := model.Platform(*platformName)
	id := model.NormalizeItemID(p, fs.Arg(0))
	if p != "" && !p.Valid() {
		return fmt.Errorf("item %s: unknown platform %q", args[0], p)
	}

	database, err := openExisting(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()

	switch args[0] {
	case "get", "refresh":
		engine, err := app.New(cfg, database)
		if err != nil {
			return err
		}
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), cfg.EnrichTimeout)
			defer cancel()
			engine.Shutdown(drainCtx)
		}()

		snap := engine.Features.Snapshot()
		if args[0] == "refresh" {
			snap = snap.WithForceRefresh()
		}
		item, err := engine.Catalog.GetItem(ctx, id, p, snap)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, item)

	case "outdated":
		if p == "" {
			return errors.New("item outdated: -platform is required")
		}
		if err := catalog.New(database, catalog.Options{}).MarkOutdated(ctx, p, id); err != nil {
			return err
		}
		fmt.Printf("Item %s:%s marked outdated.\n", p, id)
		return nil

	case "history":
		if p == "" {
			return errors.New("item history: -platform is required")
		}
		history, err := store.ListRevalidations(ctx, database, p, id, *limit)
		if err != nil {
			return err
		}
		printHistory(os.Stdout, history)
		return nil

	default:
		return fmt.Errorf("item: unknown subcommand %q", args[0])
	}
}

// openExisting opens and migrates a database that must already exist.
func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return database, nil
}

// createClient stores a new API client and returns its plaintext secret.
func createClient(ctx context.Context, database *sql.DB, name, role string) (string, error) {
	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return "", err
	}
	if _, err := store.CreateClient(ctx, database, name, hash, role); err != nil {
		return "", fmt.Errorf("creating client: %w", err)
	}
	return secret, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printClients(w io.Writer, clients []model.APIClient) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tCREATED")
	for _, c := range clients {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Role, c.CreatedAt.Format(time.DateTime))
	}
	tw.Flush()
}

func printHistory(w io.Writer, history []model.Revalidation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTEMPTED\tOUTCOME\tDURATION\tDETAIL")
	for _, r := range history {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.AttemptedAt.Format(time.DateTime), r.Outcome, r.Duration.Round(time.Millisecond), r.Detail)
	}
	tw.Flush()
}
