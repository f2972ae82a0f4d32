package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/analytics"
	dsgoquery "github.com/fwojciec/docsite/goquery"
	dshttp "github.com/fwojciec/docsite/http"
	"github.com/fwojciec/docsite/memory"
	dsprom "github.com/fwojciec/docsite/prometheus"
	dsslog "github.com/fwojciec/docsite/slog"
	prom "github.com/prometheus/client_golang/prometheus"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// signal is one recorded browser signal.
type signal struct {
	Type string `json:"type"`

	// navigate
	Path     string `json:"path"`
	Title    string `json:"title"`
	Referrer string `json:"referrer"`
	Hash     string `json:"hash"`
	Search   string `json:"search"`

	// click, copy
	Selector string `json:"selector"`

	// scroll
	Top      float64 `json:"top"`
	Height   float64 `json:"height"`
	Viewport float64 `json:"viewport"`

	// visibility
	Hidden bool `json:"hidden"`

	// search
	Trigger string `json:"trigger"`

	// wait
	Ms int `json:"ms"`
}

// replay holds the components a replay drives.
type replay struct {
	deps      *Dependencies
	doc       *goquery.Document
	collector *analytics.Collector
	blocks    *dsgoquery.Configurator
	page      *pageClock
	hostname  string
}

// Run executes the replay command.
func (c *ReplayCmd) Run(deps *Dependencies) error {
	doc, err := loadPage(deps, c.Page)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	signals, err := readSignals(c.Signals)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	pageURL, err := url.Parse(c.URL)
	if err != nil || pageURL.Hostname() == "" {
		err = docsite.Errorf(docsite.EINVALID, "invalid page url %q", c.URL)
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
		return err
	}

	cfg := c.config()
	cfg.ApplyMeta(dsgoquery.ReadMeta(doc))

	ingester, err := c.ingester(deps, cfg)
	if err != nil {
		// Misconfiguration only disables collection; the page keeps working.
		fmt.Fprintf(deps.Stderr, "analytics disabled: %s\n", docsite.ErrorMessage(err))
	}

	storage := memory.NewFallbackStorage(dsslog.NewLoggingStorage(deps.Storage, deps.Logger), deps.Logger)
	reg := prom.NewRegistry()
	page := newPageClock(deps.Clock)

	r := &replay{
		page:     page,
		deps:     deps,
		doc:      doc,
		hostname: pageURL.Hostname(),
		collector: analytics.New(cfg, ingester, storage,
			analytics.WithClock(deps.Clock),
			analytics.WithLogger(deps.Logger),
			analytics.WithRecorder(dsprom.NewRecorder(reg)),
		),
		blocks: dsgoquery.NewConfigurator(storage, deps.Placeholders,
			dsgoquery.WithClock(page),
			dsgoquery.WithLogger(deps.Logger),
		),
	}
	defer r.blocks.Dispose()

	r.blocks.Attach(doc)
	r.collector.Init(c.browser(), docsite.Location{
		Path:     pageURL.Path,
		Hash:     fragment(pageURL),
		Search:   query(pageURL),
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Hostname: r.hostname,
	})

	for i, s := range signals {
		if err := r.apply(s); err != nil {
			r.collector.Dispose()
			err = fmt.Errorf("signal %d: %w", i+1, err)
			fmt.Fprintf(deps.Stderr, "error: %s\n", docsite.ErrorMessage(err))
			return err
		}
	}

	r.page.drain()
	r.collector.Flush(deps.Ctx)
	r.collector.Wait()
	r.collector.Dispose()

	fmt.Fprintf(deps.Stdout, "replayed %d signals\n", len(signals))
	if c.Metrics {
		return printMetrics(deps.Stdout, reg)
	}
	return nil
}

func (c *ReplayCmd) config() analytics.Config {
	cfg := analytics.DefaultConfig()
	if c.Endpoint != "" {
		cfg.Endpoint = c.Endpoint
	}
	if c.Dataset != "" {
		cfg.Dataset = c.Dataset
	}
	cfg.Token = c.Token
	return cfg
}

func (c *ReplayCmd) ingester(deps *Dependencies, cfg analytics.Config) (docsite.Ingester, error) {
	newIngester := deps.NewIngester
	if newIngester == nil {
		newIngester = func(endpoint, dataset, token string) (docsite.Ingester, error) {
			return dshttp.NewIngestClient(endpoint, dataset, token)
		}
	}
	ingester, err := newIngester(cfg.Endpoint, cfg.Dataset, cfg.Token)
	if err != nil {
		return nil, err
	}
	return dsslog.NewLoggingIngester(ingester, cfg.Dataset, deps.Logger), nil
}

func (c *ReplayCmd) browser() docsite.Browser {
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return docsite.Browser{
		UserAgent:             ua,
		Language:              c.Language,
		ViewportWidth:         c.ViewportWidth,
		TimezoneOffsetMinutes: c.TZOffset,
		DoNotTrack:            c.DNT,
	}
}

func (r *replay) apply(s signal) error {
	switch s.Type {
	case "navigate":
		if s.Path == "" {
			return docsite.Errorf(docsite.EINVALID, "navigate requires a path")
		}
		r.collector.Navigate(docsite.Location{
			Path:     s.Path,
			Hash:     s.Hash,
			Search:   s.Search,
			Title:    s.Title,
			Referrer: s.Referrer,
			Hostname: r.hostname,
		})
		r.blocks.Navigate(r.doc)
	case "click":
		sel, err := r.find(s.Selector)
		if err != nil {
			return err
		}
		r.click(sel)
	case "copy":
		sel, err := r.find(s.Selector)
		if err != nil {
			return err
		}
		r.copy(sel)
	case "scroll":
		r.collector.Scroll(s.Top, s.Height, s.Viewport)
	case "visibility":
		r.collector.Visibility(s.Hidden)
	case "search":
		r.collector.SearchOpened(s.Trigger)
	case "wait":
		if s.Ms < 0 {
			return docsite.Errorf(docsite.EINVALID, "wait cannot be negative")
		}
		d := time.Duration(s.Ms) * time.Millisecond
		if err := r.deps.Sleep(r.deps.Ctx, d); err != nil {
			return err
		}
		r.page.advance(d)
	case "unload":
		r.collector.Unload()
	default:
		return docsite.Errorf(docsite.EINVALID, "unknown signal type %q", s.Type)
	}
	return nil
}

// click dispatches a click the way the page's delegated listeners would:
// search entry first, then copy buttons, then anchors.
func (r *replay) click(sel *goquery.Selection) {
	if dsgoquery.IsSearchTrigger(sel) {
		r.collector.SearchOpened("")
		return
	}
	if _, ok := dsgoquery.CopyButton(sel); ok {
		r.copy(sel)
		return
	}
	if a := sel.Closest("a[href]"); a.Length() > 0 {
		link := dsgoquery.DescribeLink(a)
		r.collector.TrackLink(link)
		// In-site navigation re-renders content after the click.
		if linkType, _ := analytics.ClassifyLink(link.Href, r.hostname); linkType != analytics.LinkExternal {
			r.blocks.RequestRescan()
		}
	}
}

func (r *replay) copy(sel *goquery.Selection) {
	button, ok := dsgoquery.CopyButton(sel)
	if !ok {
		button = sel
	}
	r.collector.CodeCopied(dsgoquery.CodeLanguage(button))

	if id, ok := r.blocks.BlockFor(button); ok {
		if text, ok := r.blocks.CopyText(id); ok {
			fmt.Fprintf(r.deps.Stdout, "copied:\n%s\n", text)
		}
	}
}

func (r *replay) find(selector string) (*goquery.Selection, error) {
	if selector == "" {
		return nil, docsite.Errorf(docsite.EINVALID, "selector required")
	}
	sel := r.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, docsite.Errorf(docsite.ENOTFOUND, "no element matches %q", selector)
	}
	return sel, nil
}

func readSignals(path string) ([]signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, docsite.Errorf(docsite.ENOTFOUND, "signals %q: %v", path, err)
	}
	defer f.Close()

	var signals []signal
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var s signal
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, docsite.Errorf(docsite.EINVALID, "signals %q line %d: %v", path, line, err)
		}
		signals = append(signals, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "signals %q: %v", path, err)
	}
	return signals, nil
}

// printMetrics writes every counter in reg as name{labels} value.
func printMetrics(w io.Writer, reg *prom.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

func fragment(u *url.URL) string {
	if u.Fragment == "" {
		return ""
	}
	return "#" + u.Fragment
}

func query(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
