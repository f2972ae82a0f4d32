package goquery

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docsite"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Markup contract shared with the hosting page.
const (
	codeBlockSelector  = ".code-block"
	copyButtonSelector = "button[data-testid='copy-code-button']"
	barSelector        = "div.placeholder-bar"

	blockAttr       = "data-placeholder-block"
	barForAttr      = "data-placeholder-for"
	processedAttr   = "data-placeholder-processed"
	interceptedAttr = "data-copy-intercepted"
	keyAttr         = "data-key"
)

// BlockState is the lifecycle state of a code block.
type BlockState int

const (
	Unseen BlockState = iota
	TrackedNoBar
	TrackedWithBar
)

func (s BlockState) String() string {
	switch s {
	case TrackedNoBar:
		return "tracked-no-bar"
	case TrackedWithBar:
		return "tracked-with-bar"
	}
	return "unseen"
}

// ScanResult reports what a scan did.
type ScanResult struct {
	Processed       int  // control rows inserted
	HasStoredValues bool // bindings were applied
}

// block is the side-table entry for one tracked code element.
type block struct {
	tokens  []string
	text    string
	html    string
	markup  bool
	written uint64
}

// Configurator adds input rows below code blocks that contain placeholder
// tokens and rewrites the blocks with the reader's values.
//
// Blocks are tracked through a generated attribute on the code element. An
// element carrying an unknown id, or whose markup no longer matches what the
// Configurator last wrote, has been replaced by the host and is treated as
// new.
type Configurator struct {
	storage      docsite.Storage
	placeholders []docsite.Placeholder
	byKey        map[string]docsite.Placeholder
	clock        docsite.Clock
	logger       *slog.Logger
	delays       []time.Duration

	mu      sync.Mutex
	doc     *goquery.Document
	blocks  map[string]*block
	values  docsite.Bindings
	pending []docsite.Timer
}

// ConfiguratorOption configures a Configurator.
type ConfiguratorOption func(*Configurator)

// WithClock sets the clock used for delayed rescans.
func WithClock(clock docsite.Clock) ConfiguratorOption {
	return func(c *Configurator) {
		c.clock = clock
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) ConfiguratorOption {
	return func(c *Configurator) {
		c.logger = logger
	}
}

// WithRescanDelays sets the delays used by RequestRescan.
func WithRescanDelays(delays ...time.Duration) ConfiguratorOption {
	return func(c *Configurator) {
		c.delays = delays
	}
}

// NewConfigurator returns a Configurator for placeholders. A nil storage
// keeps values in memory only.
func NewConfigurator(storage docsite.Storage, placeholders []docsite.Placeholder, opts ...ConfiguratorOption) *Configurator {
	c := &Configurator{
		storage:      storage,
		placeholders: placeholders,
		byKey:        make(map[string]docsite.Placeholder, len(placeholders)),
		clock:        docsite.SystemClock{},
		logger:       slog.New(slog.DiscardHandler),
		delays:       []time.Duration{200 * time.Millisecond, 500 * time.Millisecond},
		blocks:       make(map[string]*block),
		values:       docsite.Bindings{},
	}
	for _, p := range placeholders {
		c.byKey[p.Key] = p
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach sets the document and scans it.
func (c *Configurator) Attach(doc *goquery.Document) ScanResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc
	return c.scan()
}

// Navigate replaces the document after a route change, drops state for
// blocks that are gone and scans the new content.
func (c *Configurator) Navigate(doc *goquery.Document) ScanResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = doc
	c.cleanup()
	return c.scan()
}

// Scan processes every code block in the current document.
func (c *Configurator) Scan() ScanResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scan()
}

// Cleanup removes orphaned control rows and forgets blocks that are no
// longer in the document.
func (c *Configurator) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup()
}

// RequestRescan schedules a cleanup and scan after each configured delay,
// giving the host time to finish rendering. A new request replaces any
// pending one.
func (c *Configurator) RequestRescan() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPending()
	for _, d := range c.delays {
		c.pending = append(c.pending, c.clock.AfterFunc(d, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.doc == nil {
				return
			}
			c.cleanup()
			result := c.scan()
			c.logger.Debug("placeholder rescan", "processed", result.Processed, "tracked", len(c.blocks))
		}))
	}
}

// Dispose cancels pending rescans.
func (c *Configurator) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPending()
}

// SetValue binds key to value, persists the bindings and rewrites every
// tracked block. A blank value clears the binding. Unknown keys are ignored
// and reported as false.
func (c *Configurator) SetValue(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byKey[key]; !ok {
		return false
	}
	values := c.load()
	values.Set(key, value)
	c.save(values)

	if c.doc != nil {
		c.renderAll(values)
		c.syncControls(values)
	}
	return true
}

// Values returns the current bindings.
func (c *Configurator) Values() docsite.Bindings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load().Clone()
}

// State returns the lifecycle state of the block with the given id.
func (c *Configurator) State(blockID string) BlockState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.blocks[blockID]; !ok {
		return Unseen
	}
	if c.doc != nil && c.doc.Find(barFor(blockID)).Length() > 0 {
		return TrackedWithBar
	}
	return TrackedNoBar
}

// BlockIDs returns the ids of tracked blocks in document order.
func (c *Configurator) BlockIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	if c.doc == nil {
		return ids
	}
	c.doc.Find("[" + blockAttr + "]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr(blockAttr)
		if _, ok := c.blocks[id]; ok {
			ids = append(ids, id)
		}
	})
	return ids
}

// BlockFor returns the id of the tracked block that contains sel, such as a
// copy button.
func (c *Configurator) BlockFor(sel *goquery.Selection) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	container := sel.Closest(codeBlockSelector)
	if container.Length() == 0 {
		return "", false
	}
	id, ok := container.Find("[" + blockAttr + "]").First().Attr(blockAttr)
	if !ok {
		return "", false
	}
	_, tracked := c.blocks[id]
	return id, tracked
}

// CopyText returns the plain text a copy of the block should yield: the
// snapshot with current bindings substituted.
func (c *Configurator) CopyText(blockID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.blocks[blockID]
	if !ok {
		return "", false
	}
	return c.load().Substitute(b.text, b.tokens), true
}

// Render returns the current document markup.
func (c *Configurator) Render() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil {
		return "", docsite.Errorf(docsite.EINVALID, "no document attached")
	}
	return c.doc.Html()
}

func (c *Configurator) scan() ScanResult {
	var result ScanResult
	if c.doc == nil {
		return result
	}
	values := c.load()
	result.HasStoredValues = len(values) > 0

	c.doc.Find(codeBlockSelector).Each(func(_ int, container *goquery.Selection) {
		pre := container.Find("pre").First()
		if pre.Length() == 0 {
			return
		}
		code := codeElement(pre)

		id, b := c.resolve(code)
		bar := container.Next()
		hasBar := bar.Is(barSelector)

		if hasBar && (b == nil || bar.AttrOr(barForAttr, "") != id) {
			bar.Remove()
			container.RemoveAttr(processedAttr)
			hasBar = false
		}
		if b != nil && hasBar {
			return
		}

		if b == nil {
			text := code.Text()
			tokens := docsite.TokensIn(text, c.placeholders)
			if len(tokens) == 0 {
				return
			}
			inner, err := code.Html()
			if err != nil {
				c.logger.Debug("snapshot failed", "err", err)
				return
			}
			id = uuid.NewString()
			b = &block{
				tokens:  tokens,
				text:    text,
				html:    inner,
				markup:  code.Children().Length() > 0,
				written: xxhash.Sum64String(inner),
			}
			code.SetAttr(blockAttr, id)
			c.blocks[id] = b
		}

		container.SetAttr(processedAttr, "true")
		container.Find(copyButtonSelector).Not("[" + interceptedAttr + "]").SetAttr(interceptedAttr, "true")

		if !hasBar {
			container.AfterHtml(c.barHTML(id, b.tokens, values))
			result.Processed++
		}
		if result.HasStoredValues {
			c.render(code, b, values)
		}
	})

	c.prune()
	c.syncControls(values)
	if result.Processed > 0 {
		c.logger.Debug("placeholder scan", "processed", result.Processed, "tracked", len(c.blocks))
	}
	return result
}

// resolve returns the side-table entry for code, or nil when the element is
// new or has been replaced. Stale entries are dropped.
func (c *Configurator) resolve(code *goquery.Selection) (string, *block) {
	id, ok := code.Attr(blockAttr)
	if !ok {
		return "", nil
	}
	b, ok := c.blocks[id]
	if !ok {
		code.RemoveAttr(blockAttr)
		return id, nil
	}
	inner, err := code.Html()
	if err != nil || xxhash.Sum64String(inner) != b.written {
		delete(c.blocks, id)
		code.RemoveAttr(blockAttr)
		return id, nil
	}
	return id, b
}

func (c *Configurator) cleanup() {
	if c.doc == nil {
		return
	}

	c.doc.Find(barSelector).Each(func(_ int, bar *goquery.Selection) {
		prev := bar.Prev()
		if !prev.Is(codeBlockSelector) {
			bar.Remove()
			return
		}
		pre := prev.Find("pre").First()
		if pre.Length() == 0 {
			bar.Remove()
			return
		}
		if _, b := c.resolve(codeElement(pre)); b == nil {
			bar.Remove()
			prev.RemoveAttr(processedAttr)
		}
	})

	c.prune()
}

// prune drops side-table entries whose element has left the document.
func (c *Configurator) prune() {
	live := make(map[string]bool)
	c.doc.Find("[" + blockAttr + "]").Each(func(_ int, sel *goquery.Selection) {
		live[sel.AttrOr(blockAttr, "")] = true
	})
	for id := range c.blocks {
		if !live[id] {
			delete(c.blocks, id)
		}
	}
}

func (c *Configurator) renderAll(values docsite.Bindings) {
	c.doc.Find("[" + blockAttr + "]").Each(func(_ int, code *goquery.Selection) {
		if _, b := c.resolve(code); b != nil {
			c.render(code, b, values)
		}
	})
}

// render rewrites code from its snapshot. Markup snapshots get HTML-escaped
// values so highlighting spans survive.
func (c *Configurator) render(code *goquery.Selection, b *block, values docsite.Bindings) {
	switch {
	case len(values) == 0 && b.markup:
		code.SetHtml(b.html)
	case len(values) == 0:
		code.SetText(b.text)
	case b.markup:
		escaped := make(docsite.Bindings, len(values))
		for k, v := range values {
			escaped[k] = html.EscapeString(v)
		}
		code.SetHtml(escaped.Substitute(b.html, b.tokens))
	default:
		code.SetText(values.Substitute(b.text, b.tokens))
	}
	inner, _ := code.Html()
	b.written = xxhash.Sum64String(inner)
}

// syncControls sets every control to the bound value of its key.
func (c *Configurator) syncControls(values docsite.Bindings) {
	c.doc.Find(barSelector + " input[" + keyAttr + "]").Each(func(_ int, input *goquery.Selection) {
		input.SetAttr("value", values[input.AttrOr(keyAttr, "")])
	})
	c.doc.Find(barSelector + " select[" + keyAttr + "]").Each(func(_ int, sel *goquery.Selection) {
		want := values[sel.AttrOr(keyAttr, "")]
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			if opt.AttrOr("value", "") == want {
				opt.SetAttr("selected", "selected")
			} else {
				opt.RemoveAttr("selected")
			}
		})
	})
}

func (c *Configurator) barHTML(id string, tokens []string, values docsite.Bindings) string {
	var sb strings.Builder
	sb.WriteString(`<div class="placeholder-bar" ` + barForAttr + `="` + html.EscapeString(id) + `">`)
	for _, key := range tokens {
		p := c.byKey[key]
		inputID := "placeholder-" + strings.ReplaceAll(strings.ToLower(key), "_", "-") + "-" + id

		sb.WriteString(`<div class="placeholder-field-container"><div class="placeholder-field">`)
		sb.WriteString(`<label class="placeholder-label" for="` + inputID + `">` + html.EscapeString(p.Label) + `</label>`)
		if p.IsSelect() {
			sb.WriteString(`<select class="placeholder-input" id="` + inputID + `" name="` + inputID + `" ` + keyAttr + `="` + html.EscapeString(key) + `">`)
			for _, opt := range p.Options {
				selected := ""
				if values[key] == opt.Value {
					selected = ` selected="selected"`
				}
				sb.WriteString(`<option value="` + html.EscapeString(opt.Value) + `"` + selected + `>` + html.EscapeString(opt.Label) + `</option>`)
			}
			sb.WriteString(`</select>`)
		} else {
			sb.WriteString(`<input type="text" class="placeholder-input" id="` + inputID + `" name="` + inputID + `"` +
				` placeholder="` + html.EscapeString(p.Hint) + `" value="` + html.EscapeString(values[key]) + `"` +
				` ` + keyAttr + `="` + html.EscapeString(key) + `" autocomplete="off" data-1p-ignore="true" data-lpignore="true"/>`)
		}
		sb.WriteString(`</div>`)
		if p.Help != "" {
			sb.WriteString(`<p class="placeholder-help">` + p.Help + `</p>`)
		}
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// load returns the stored bindings, falling back to the in-memory copy when
// storage fails.
func (c *Configurator) load() docsite.Bindings {
	if c.storage == nil {
		return c.values
	}
	b, err := docsite.LoadBindings(c.storage)
	if err != nil {
		c.logger.Debug("placeholder storage unavailable", "err", err)
		return c.values
	}
	c.values = b
	return b
}

func (c *Configurator) save(values docsite.Bindings) {
	c.values = values
	if c.storage == nil {
		return
	}
	if err := docsite.SaveBindings(c.storage, values); err != nil {
		c.logger.Debug("placeholder storage unavailable", "err", err)
	}
}

func (c *Configurator) stopPending() {
	for _, t := range c.pending {
		t.Stop()
	}
	c.pending = nil
}

func codeElement(pre *goquery.Selection) *goquery.Selection {
	if code := pre.Find("code").First(); code.Length() > 0 {
		return code
	}
	return pre
}

func barFor(id string) string {
	return barSelector + "[" + barForAttr + "='" + id + "']"
}
