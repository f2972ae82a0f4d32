package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsite"
	dsgoquery "github.com/fwojciec/docsite/goquery"
	"github.com/fwojciec/docsite/memory"
)

// Run executes the render command.
func (c *RenderCmd) Run(deps *Dependencies) error {
	doc, err := loadPage(deps, c.Page)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	// Rendering only reads stored values; a broken store must not lose the page.
	storage := memory.NewFallbackStorage(deps.Storage, deps.Logger)
	cfg := dsgoquery.NewConfigurator(storage, deps.Placeholders,
		dsgoquery.WithClock(deps.Clock),
		dsgoquery.WithLogger(deps.Logger),
	)
	defer cfg.Dispose()

	res := cfg.Attach(doc)
	deps.Logger.Debug("page scanned", "blocks", res.Processed, "stored", res.HasStoredValues)

	out, err := cfg.Render()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	if c.Out == "" {
		fmt.Fprint(deps.Stdout, out)
		return nil
	}
	if err := os.WriteFile(c.Out, []byte(out), 0644); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	fmt.Fprintf(deps.Stdout, "rendered %d code blocks to %s\n", res.Processed, c.Out)
	return nil
}

// loadPage parses the page at src, fetching it when src is a URL.
func loadPage(deps *Dependencies, src string) (*goquery.Document, error) {
	var data string
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		if deps.Pages == nil {
			return nil, docsite.Errorf(docsite.EINVALID, "page %q: fetching pages is not configured", src)
		}
		html, err := deps.Pages.Fetch(deps.Ctx, src)
		if err != nil {
			return nil, err
		}
		data = html
	} else {
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, docsite.Errorf(docsite.ENOTFOUND, "page %q: %v", src, err)
		}
		data = string(b)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(data))
	if err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "page %q: %v", src, err)
	}
	return doc, nil
}
