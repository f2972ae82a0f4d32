package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/docsite"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type state int

const (
	stateNew state = iota
	stateActive
	stateDisabled
	stateDisposed
)

type pendingRetry struct {
	timer docsite.Timer
	batch []*docsite.Event
}

// Collector observes page lifecycle signals, batches events in memory and
// delivers them to an Ingester. One Collector serves one page session.
//
// No method returns an error: configuration problems disable the collector,
// delivery failures are retried and then dropped.
type Collector struct {
	cfg      Config
	ingester docsite.Ingester
	storage  docsite.Storage
	clock    docsite.Clock
	logger   *slog.Logger
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    state
	browser  docsite.BrowserContext
	location docsite.Location
	session  *docsite.Session

	queue      []*docsite.Event
	flushTimer docsite.Timer
	flushGen   int
	retries    map[int]*pendingRetry
	nextRetry  int
	limiters   map[string]*rate.Limiter
	inflight   sync.WaitGroup

	scrolled   map[int]bool
	pageStart  time.Time
	lastActive time.Time
	activeTime time.Duration
	visible    bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock sets the clock used for timestamps and timers.
func WithClock(clock docsite.Clock) Option {
	return func(c *Collector) {
		c.clock = clock
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Collector) {
		c.recorder = r
	}
}

// New returns a Collector. It does nothing until Init is called.
// A nil ingester or storage disables or degrades the collector respectively.
func New(cfg Config, ingester docsite.Ingester, storage docsite.Storage, opts ...Option) *Collector {
	c := &Collector{
		cfg:      cfg,
		ingester: ingester,
		storage:  storage,
		clock:    docsite.SystemClock{},
		logger:   slog.New(slog.DiscardHandler),
		recorder: NoopRecorder{},
		retries:  make(map[int]*pendingRetry),
		limiters: make(map[string]*rate.Limiter),
		scrolled: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Init starts collection for the page at loc and records its page view.
// Invalid configuration or a do-not-track signal disables the collector for
// the rest of the session.
func (c *Collector) Init(browser docsite.Browser, loc docsite.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateNew {
		return
	}

	if err := c.cfg.Validate(); err != nil {
		c.state = stateDisabled
		c.debug("analytics disabled", "reason", docsite.ErrorMessage(err))
		return
	}
	if c.ingester == nil {
		c.state = stateDisabled
		c.debug("analytics disabled", "reason", "no ingester")
		return
	}
	if browser.DoNotTrack {
		c.state = stateDisabled
		c.debug("analytics disabled", "reason", "do not track")
		return
	}

	c.state = stateActive
	c.browser = BrowserContext(browser)
	c.location = loc
	c.resetPage()
	c.debug("analytics initialized",
		"endpoint", c.cfg.Endpoint,
		"dataset", c.cfg.Dataset,
		"hasToken", c.cfg.Token != "",
	)

	c.trackPageView()
}

// Enabled reports whether events are being collected.
func (c *Collector) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateActive
}

// Queued returns the number of events waiting for the next flush.
func (c *Collector) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Session returns a copy of the current analytics session, or nil.
func (c *Collector) Session() *docsite.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	s.PageSequence = slices.Clone(c.session.PageSequence)
	return &s
}

// Navigate reports a route change. A new path starts a new page view with
// fresh scroll and engagement tracking.
func (c *Collector) Navigate(loc docsite.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive {
		return
	}
	if loc.Path == c.location.Path {
		c.location = loc
		return
	}
	c.location = loc
	c.resetPage()
	c.trackPageView()
}

// TrackLink records a link click. Clicks on external links are flushed
// immediately since the page is likely to unload.
func (c *Collector) TrackLink(link docsite.Link) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive || link.Href == "" {
		return
	}

	linkType, target := ClassifyLink(link.Href, c.location.Hostname)
	if linkType == LinkInternal && !c.cfg.TrackInternalLinks {
		return
	}
	if linkType == LinkExternal && !c.cfg.TrackOutboundLinks {
		return
	}

	var targetDomain any
	if target != "" {
		targetDomain = target
	}
	var section any
	if link.Section != "" {
		section = truncate(link.Section, 100)
	}
	index := link.Index
	if index <= 0 {
		index = 1
	}
	linkContext := link.Context
	if linkContext == "" {
		linkContext = "other"
	}

	c.enqueue(docsite.EventLinkClick, "link_click:"+link.Href, map[string]any{
		"linkType":     linkType,
		"targetUrl":    link.Href,
		"targetDomain": targetDomain,
		"linkText":     truncate(strings.TrimSpace(link.Text), 100),
		"linkContext":  linkContext,
		"linkSection":  section,
		"linkIndex":    index,
	})

	if linkType == LinkExternal {
		c.goDeliver(c.take())
	}
}

// Scroll reports the scroll position. Each configured threshold is recorded
// at most once per page view.
func (c *Collector) Scroll(scrollTop, scrollHeight, viewportHeight float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive || !c.cfg.TrackScrollDepth {
		return
	}

	docHeight := scrollHeight - viewportHeight
	if docHeight <= 0 {
		return
	}
	percent := int(math.Round(scrollTop / docHeight * 100))

	for _, threshold := range c.cfg.ScrollThresholds {
		if percent < threshold || c.scrolled[threshold] {
			continue
		}
		if c.enqueue(docsite.EventScrollDepth, "scroll_depth:"+strconv.Itoa(threshold), map[string]any{
			"threshold":     threshold,
			"scrollPercent": percent,
		}) {
			c.scrolled[threshold] = true
		}
	}
}

// Visibility reports the page becoming hidden or visible again.
// Only visible time counts as active time.
func (c *Collector) Visibility(hidden bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive {
		return
	}
	now := c.clock.Now()
	if hidden {
		if c.visible {
			c.activeTime += now.Sub(c.lastActive)
			c.visible = false
		}
		return
	}
	if !c.visible {
		c.lastActive = now
		c.visible = true
	}
}

// SearchOpened records the documentation search being opened.
// trigger is "keyboard" for the shortcut and empty for clicks.
func (c *Collector) SearchOpened(trigger string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive {
		return
	}
	props := map[string]any{}
	if trigger != "" {
		props["trigger"] = trigger
	}
	c.enqueue(docsite.EventSearchOpened, "search_opened", props)
}

// CodeCopied records a code block being copied.
func (c *Collector) CodeCopied(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive {
		return
	}
	if language == "" {
		language = "unknown"
	}
	c.enqueue(docsite.EventCodeCopied, "code_copied:"+language, map[string]any{
		"language": language,
	})
}

// Unload records page engagement and makes one best-effort, non-retried
// delivery of everything queued. Failure is silent.
func (c *Collector) Unload() {
	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}

	now := c.clock.Now()
	if c.visible {
		c.activeTime += now.Sub(c.lastActive)
		c.lastActive = now
	}
	total := now.Sub(c.pageStart)
	ratio := 0.0
	if total > 0 {
		ratio = math.Round(float64(c.activeTime)/float64(total)*100) / 100
	}
	maxDepth := 0
	for threshold := range c.scrolled {
		maxDepth = max(maxDepth, threshold)
	}

	c.enqueue(docsite.EventPageExit, "page_exit", map[string]any{
		"totalTimeSeconds":  int(math.Round(total.Seconds())),
		"activeTimeSeconds": int(math.Round(c.activeTime.Seconds())),
		"engagementRatio":   ratio,
		"maxScrollDepth":    maxDepth,
	})
	batch := c.take()
	c.mu.Unlock()

	c.deliverOnce(batch)
}

// Flush delivers everything queued now, retrying transient failures in the
// background.
func (c *Collector) Flush(ctx context.Context) {
	c.mu.Lock()
	batch := c.take()
	c.mu.Unlock()

	c.deliver(ctx, batch, 0)
}

// Wait blocks until asynchronous deliveries started so far have finished,
// including idle flushes and retries whose timer has fired. Retries still
// waiting on their delay are not waited for.
func (c *Collector) Wait() {
	c.inflight.Wait()
}

// Dispose stops collection, abandons queued events and pending retries, and
// waits for in-flight deliveries to return.
func (c *Collector) Dispose() {
	c.mu.Lock()
	if c.state == stateDisposed {
		c.mu.Unlock()
		return
	}
	c.state = stateDisposed
	if c.flushTimer != nil {
		c.flushTimer.Stop()
		c.flushTimer = nil
	}
	for id, r := range c.retries {
		r.timer.Stop()
		delete(c.retries, id)
	}
	c.queue = nil
	c.mu.Unlock()

	c.cancel()
	c.inflight.Wait()
}

// PendingRetries returns the number of batches waiting for a retry.
func (c *Collector) PendingRetries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.retries)
}

// resetPage starts engagement and scroll tracking for a new page view.
// The caller must hold mu.
func (c *Collector) resetPage() {
	now := c.clock.Now()
	c.scrolled = make(map[int]bool)
	c.pageStart = now
	c.lastActive = now
	c.activeTime = 0
	c.visible = true
}

// trackPageView records the current location in the session and queues a
// page_view. The caller must hold mu.
func (c *Collector) trackPageView() {
	s := c.loadSession()
	s.Visit(c.location.Path, c.clock.Now())
	c.saveSession(s)

	var previous any
	if p := s.PreviousPath(); p != "" {
		previous = p
	}
	c.enqueue(docsite.EventPageView, "page_view:"+c.location.Path, map[string]any{
		"referrerDomain": ReferrerDomain(c.location.Referrer, c.location.Hostname),
		"isFirstPage":    s.PageCount == 1,
		"previousPath":   previous,
	})
}

// loadSession returns the session from storage, falling back to the
// in-memory copy, creating one when neither exists. The caller must hold mu.
func (c *Collector) loadSession() *docsite.Session {
	if c.storage != nil {
		raw, ok, err := c.storage.Get(docsite.SessionStorageKey)
		if err != nil {
			c.debug("session storage unavailable", "err", err)
		} else if ok {
			var s docsite.Session
			if err := json.Unmarshal([]byte(raw), &s); err == nil && s.ID != "" {
				c.session = &s
				return c.session
			}
		}
	}
	if c.session == nil {
		c.session = &docsite.Session{
			ID:        uuid.NewString(),
			StartTime: c.clock.Now().UTC(),
		}
		c.saveSession(c.session)
	}
	return c.session
}

// saveSession writes s to storage. The caller must hold mu.
func (c *Collector) saveSession(s *docsite.Session) {
	c.session = s
	if c.storage == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.storage.Set(docsite.SessionStorageKey, string(data)); err != nil {
		c.debug("session storage unavailable", "err", err)
	}
}

// enqueue builds and queues an event, subject to rate limiting and the queue
// cap. A full batch is handed to a background delivery. It reports whether
// the event was accepted. The caller must hold mu.
func (c *Collector) enqueue(eventType docsite.EventType, key string, props map[string]any) bool {
	now := c.clock.Now()
	if !c.limiter(key).AllowN(now, 1) {
		c.recorder.RateLimited(string(eventType))
		c.debug("event rate limited", "eventType", eventType, "key", key)
		return false
	}

	s := c.loadSession()
	ev := &docsite.Event{
		Time:             now.UTC(),
		Type:             eventType,
		SessionID:        s.ID,
		SessionPageCount: s.PageCount,
		Page:             c.pageInfo(),
		Browser:          c.browser,
		Properties:       props,
	}
	c.queue = append(c.queue, ev)
	c.recorder.Queued(string(eventType))
	c.debug("event queued", "eventType", eventType, "queued", len(c.queue))

	c.evict()

	if eventType == docsite.EventPageExit {
		return true
	}
	if len(c.queue) >= c.cfg.MaxBatchSize {
		c.goDeliver(c.take())
		return true
	}
	c.scheduleFlush()
	return true
}

// evict enforces MaxQueueSize over queued events and batches awaiting a
// retry, discarding the oldest retry batches first. The caller must hold mu.
func (c *Collector) evict() {
	for c.buffered() > c.cfg.MaxQueueSize && len(c.retries) > 0 {
		oldest := -1
		for id := range c.retries {
			if oldest < 0 || id < oldest {
				oldest = id
			}
		}
		r := c.retries[oldest]
		r.timer.Stop()
		delete(c.retries, oldest)
		c.recorder.Evicted(len(r.batch))
		c.debug("retry batch evicted", "count", len(r.batch))
	}
	if over := len(c.queue) - c.cfg.MaxQueueSize; over > 0 {
		c.queue = append([]*docsite.Event(nil), c.queue[over:]...)
		c.recorder.Evicted(over)
	}
}

func (c *Collector) buffered() int {
	n := len(c.queue)
	for _, r := range c.retries {
		n += len(r.batch)
	}
	return n
}

func (c *Collector) limiter(key string) *rate.Limiter {
	l, ok := c.limiters[key]
	if !ok {
		limit := rate.Inf
		if c.cfg.RateLimit > 0 {
			limit = rate.Limit(c.cfg.RateLimit)
		}
		burst := c.cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		l = rate.NewLimiter(limit, burst)
		c.limiters[key] = l
	}
	return l
}

func (c *Collector) pageInfo() docsite.PageInfo {
	info := docsite.PageInfo{
		Path:  c.location.Path,
		Title: c.location.Title,
	}
	if c.location.Hash != "" {
		hash := c.location.Hash
		info.Hash = &hash
	}
	if c.location.Search != "" {
		// Query values may carry secrets; only their presence is recorded.
		search := "has_params"
		info.Search = &search
	}
	return info
}

// scheduleFlush arms the idle timer unless it is already running.
// The caller must hold mu.
func (c *Collector) scheduleFlush() {
	if c.flushTimer != nil {
		return
	}
	gen := c.flushGen
	c.flushTimer = c.clock.AfterFunc(c.cfg.FlushInterval, func() {
		c.mu.Lock()
		if gen != c.flushGen || c.state != stateActive {
			c.mu.Unlock()
			return
		}
		batch := c.take()
		if len(batch) == 0 {
			c.mu.Unlock()
			return
		}
		c.inflight.Add(1)
		c.mu.Unlock()

		defer c.inflight.Done()
		c.deliver(c.ctx, batch, 0)
	})
}

// take empties the queue and disarms the idle timer. The caller must hold mu.
func (c *Collector) take() []*docsite.Event {
	if c.flushTimer != nil {
		c.flushTimer.Stop()
		c.flushTimer = nil
	}
	c.flushGen++
	batch := c.queue
	c.queue = nil
	return batch
}

func (c *Collector) goDeliver(batch []*docsite.Event) {
	if len(batch) == 0 {
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.deliver(c.ctx, batch, 0)
	}()
}

// deliver sends batch, scheduling a retry on transient failure until the
// retry budget is spent.
func (c *Collector) deliver(ctx context.Context, batch []*docsite.Event, attempt int) {
	if len(batch) == 0 {
		return
	}

	err := c.ingester.Ingest(ctx, batch)
	if err == nil {
		c.recorder.Flushed(len(batch))
		c.debug("events flushed", "count", len(batch), "attempt", attempt)
		return
	}

	if docsite.IsTransient(err) && attempt < c.cfg.Retry.MaxRetries {
		c.scheduleRetry(batch, attempt+1, err)
		return
	}

	c.recorder.Dropped(len(batch))
	c.debug("events dropped", "count", len(batch), "attempt", attempt, "err", err)
}

func (c *Collector) scheduleRetry(batch []*docsite.Event, attempt int, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateDisposed {
		c.recorder.Dropped(len(batch))
		return
	}

	id := c.nextRetry
	c.nextRetry++
	delay := c.cfg.Retry.Delay(attempt)
	r := &pendingRetry{batch: batch}
	r.timer = c.clock.AfterFunc(delay, func() {
		c.mu.Lock()
		if _, ok := c.retries[id]; !ok {
			c.mu.Unlock()
			return
		}
		delete(c.retries, id)
		c.inflight.Add(1)
		c.mu.Unlock()

		defer c.inflight.Done()
		c.deliver(c.ctx, batch, attempt)
	})
	c.retries[id] = r
	c.recorder.Retried(len(batch))
	c.evict()
	c.debug("delivery failed, retrying", "count", len(batch), "retry", attempt, "delay", delay, "err", cause)
}

// deliverOnce makes a single bounded attempt without retry.
func (c *Collector) deliverOnce(batch []*docsite.Event) {
	if len(batch) == 0 {
		return
	}
	timeout := c.cfg.UnloadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	if err := c.ingester.Ingest(ctx, batch); err != nil {
		c.recorder.Dropped(len(batch))
		c.debug("unload delivery failed", "count", len(batch), "err", err)
		return
	}
	c.recorder.Flushed(len(batch))
}

func (c *Collector) debug(msg string, args ...any) {
	if c.cfg.Debug {
		c.logger.Info(msg, args...)
		return
	}
	c.logger.Debug(msg, args...)
}
