package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docsite"
	dshttp "github.com/fwojciec/docsite/http"
	"github.com/fwojciec/docsite/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	// Variables from .env never override the real environment.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default database path. The --db flag takes precedence.
	DBPath string

	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.DiscardHandler),
		Clock:  docsite.SystemClock{},
		Sleep:  sleep,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docsite"),
		kong.Description("Documentation site tooling: page metadata, code placeholders and usage analytics."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docsite --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if cli.Debug {
		deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	deps.Pages = dshttp.NewFetcher(dshttp.WithFetchLogger(deps.Logger))

	deps.Placeholders = docsite.DefaultPlaceholders()
	if cli.Placeholders != "" {
		placeholders, err := loadPlaceholders(cli.Placeholders)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", docsite.ErrorMessage(err))
			return err
		}
		deps.Placeholders = placeholders
	}

	// Only commands that touch session storage open the database.
	switch command := strings.Fields(kongCtx.Command())[0]; command {
	case "render", "values", "replay", "sessions":
		dbPath := m.DBPath
		if cli.DB != "" {
			dbPath = cli.DB
		}
		m.DB = sqlite.NewDB(dbPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set DOCSITE_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
		}
		defer m.Close()

		deps.DB = m.DB
		deps.Session = sqlite.NewStorage(m.DB, cli.Session)
		deps.Storage = deps.Session
	}

	return kongCtx.Run(deps)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func defaultDBPath() string {
	if path := os.Getenv("DOCSITE_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "docsite.db"
	}
	dir := filepath.Join(home, ".docsite")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "docsite.db")
}
