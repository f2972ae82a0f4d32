package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/docsite"
	dsfs "github.com/fwojciec/docsite/fs"
	"github.com/fwojciec/docsite/metadata"
	dsslog "github.com/fwojciec/docsite/slog"
)

const rule = "------"

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	cfg := metadata.DefaultConfig()
	if c.Config != "" {
		var err error
		if cfg, err = metadata.LoadConfig(c.Config); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
			return err
		}
	}
	if c.Manifest != "" {
		cfg.Manifest = c.Manifest
	}
	if c.Out != "" {
		cfg.Output = c.Out
	}

	root := os.DirFS(c.Root)
	manifest, err := metadata.LoadManifest(root, cfg.Manifest)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	var extractor docsite.MetadataExtractor = &metadata.Extractor{
		FS:          root,
		BaseURL:     cfg.BaseURL,
		Section:     cfg.Section,
		Extension:   cfg.Extension,
		Extra:       cfg.ExtraGroups,
		Rename:      cfg.Rename,
		Overrides:   cfg.Overrides,
		Concurrency: c.Concurrency,
	}
	extractor = dsslog.NewLoggingExtractor(extractor, deps.Logger)

	records, err := extractor.Extract(deps.Ctx, manifest)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	printSummary(deps, metadata.Summarize(records))

	fmt.Fprintln(deps.Stdout, "writing result to file...")
	if err := writeArtifact(deps, dsfs.NewArtifactWriter(cfg.Output), records); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "done, result written to => %s\n", cfg.Output)

	return nil
}

func printSummary(deps *Dependencies, s metadata.Summary) {
	fmt.Fprintln(deps.Stdout, rule)
	fmt.Fprintf(deps.Stdout, "found %d ingest options categorized as follows:\n", s.Total)
	for _, g := range s.Groups {
		fmt.Fprintf(deps.Stdout, "\t%s: %d options\n", g.Group, g.Count)
	}
	fmt.Fprintln(deps.Stdout, rule)
	fmt.Fprintf(deps.Stdout, "popular items (%d):\n", len(s.Popular))
	for _, r := range s.Popular {
		fmt.Fprintf(deps.Stdout, "\t%g. %s\n", r.PopularityOrder(), r.Name())
	}
	fmt.Fprintln(deps.Stdout, rule)
}

func writeArtifact(deps *Dependencies, w docsite.ArtifactWriter, records []*docsite.PageRecord) error {
	if err := w.Save(deps.Ctx, records); err != nil {
		_ = w.Abort()
		return err
	}
	if err := w.Commit(); err != nil {
		_ = w.Abort()
		return err
	}
	return nil
}
