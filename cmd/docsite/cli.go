package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/sqlite"
	"gopkg.in/yaml.v3"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	DB *sqlite.DB

	// Session is the named storage scope. Storage is what components read
	// and write; it is Session unless a test substitutes another store.
	Session *sqlite.Storage
	Storage docsite.Storage

	Placeholders []docsite.Placeholder
	Pages        docsite.PageFetcher
	Clock        docsite.Clock
	Sleep        func(ctx context.Context, d time.Duration) error

	// NewIngester overrides construction of the ingest client.
	NewIngester func(endpoint, dataset, token string) (docsite.Ingester, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB           string `help:"Session database path" env:"DOCSITE_DB"`
	Session      string `default:"default" help:"Session storage scope" env:"DOCSITE_SESSION"`
	Placeholders string `help:"YAML file with placeholder definitions" type:"existingfile"`
	Debug        bool   `help:"Log debug output to stderr" env:"DOCSITE_DEBUG"`

	Extract  ExtractCmd  `cmd:"" help:"Extract page metadata for the ingest options picker"`
	Render   RenderCmd   `cmd:"" help:"Apply stored placeholder values to a rendered page"`
	Values   ValuesCmd   `cmd:"" help:"Manage stored placeholder values"`
	Replay   ReplayCmd   `cmd:"" help:"Replay recorded browser signals through the analytics collector"`
	Sessions SessionsCmd `cmd:"" help:"List session storage scopes"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Config      string `short:"c" help:"YAML extractor configuration" type:"existingfile"`
	Manifest    string `short:"m" help:"Navigation manifest, relative to --root"`
	Root        string `short:"r" default:"." help:"Documentation source directory" type:"existingdir"`
	Out         string `short:"o" help:"Artifact path"`
	Concurrency int    `default:"10" help:"Concurrent page reads"`
}

// RenderCmd is the "render" subcommand.
type RenderCmd struct {
	Page string `arg:"" help:"Rendered HTML page, a file path or http(s) URL"`
	Out  string `short:"o" help:"Write the page here instead of stdout"`
}

// ValuesCmd groups the placeholder value subcommands.
type ValuesCmd struct {
	Set   ValuesSetCmd   `cmd:"" help:"Store a placeholder value"`
	Unset ValuesUnsetCmd `cmd:"" help:"Clear a placeholder value"`
	List  ValuesListCmd  `cmd:"" help:"List stored placeholder values"`
	Clear ValuesClearCmd `cmd:"" help:"Remove all stored values"`
}

// ValuesSetCmd is the "values set" subcommand.
type ValuesSetCmd struct {
	Key   string `arg:"" help:"Placeholder key"`
	Value string `arg:"" help:"Value"`
}

// ValuesUnsetCmd is the "values unset" subcommand.
type ValuesUnsetCmd struct {
	Key string `arg:"" help:"Placeholder key"`
}

// ValuesListCmd is the "values list" subcommand.
type ValuesListCmd struct{}

// ValuesClearCmd is the "values clear" subcommand.
type ValuesClearCmd struct {
	All bool `help:"End the session, dropping every stored key"`
}

// ReplayCmd is the "replay" subcommand.
type ReplayCmd struct {
	Page    string `arg:"" help:"Rendered HTML page, a file path or http(s) URL"`
	Signals string `arg:"" help:"JSON lines file of browser signals" type:"existingfile"`

	Endpoint string `default:"https://api.axiom.co" help:"Ingest endpoint" env:"DOCSITE_ANALYTICS_ENDPOINT"`
	Dataset  string `help:"Ingest dataset" env:"DOCSITE_ANALYTICS_DATASET"`
	Token    string `help:"Ingest token" env:"DOCSITE_ANALYTICS_TOKEN"`

	URL           string `default:"https://axiom.co/docs" help:"Page URL the signals were recorded on"`
	UserAgent     string `help:"Browser user agent"`
	Language      string `default:"en-US" help:"Browser language"`
	ViewportWidth int    `default:"1280" help:"Viewport width in CSS pixels"`
	TZOffset      int    `name:"tz-offset" help:"Timezone offset in minutes"`
	DNT           bool   `name:"dnt" help:"Send the do-not-track signal"`
	Metrics       bool   `help:"Print collector metrics after the replay"`
}

// SessionsCmd is the "sessions" subcommand.
type SessionsCmd struct {
	Limit int `default:"20" help:"Maximum scopes to list"`
}

// placeholderFile is the YAML layout of --placeholders.
type placeholderFile struct {
	Placeholders []docsite.Placeholder `yaml:"placeholders"`
}

func loadPlaceholders(path string) ([]docsite.Placeholder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, docsite.Errorf(docsite.ENOTFOUND, "placeholders %q: %v", path, err)
	}
	var f placeholderFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "placeholders %q: %v", path, err)
	}
	if len(f.Placeholders) == 0 {
		return nil, docsite.Errorf(docsite.EINVALID, "placeholders %q: no placeholders defined", path)
	}
	for _, p := range f.Placeholders {
		if p.Key == "" {
			return nil, docsite.Errorf(docsite.EINVALID, "placeholders %q: placeholder without key", path)
		}
	}
	return f.Placeholders, nil
}
