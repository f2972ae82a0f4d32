package main_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/docsite"
	main "github.com/fwojciec/docsite/cmd/docsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ingestServer records every event it receives.
type ingestServer struct {
	*httptest.Server

	mu     sync.Mutex
	paths  []string
	events []map[string]any
}

func newIngestServer(t *testing.T) *ingestServer {
	t.Helper()
	s := &ingestServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.paths = append(s.paths, r.URL.Path)
		s.events = append(s.events, batch...)
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ingestServer) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []string
	for _, e := range s.events {
		types = append(types, e["eventType"].(string))
	}
	sort.Strings(types)
	return types
}

func (s *ingestServer) find(eventType string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e["eventType"] == eventType {
			return e
		}
	}
	return nil
}

func writeSignals(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signals.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func replayCmd(page, signals, endpoint string) *main.ReplayCmd {
	return &main.ReplayCmd{
		Page:          page,
		Signals:       signals,
		Endpoint:      endpoint,
		Token:         "xaat-test",
		URL:           "https://axiom.co/docs/send-data/go?ref=nav",
		Language:      "en-US",
		ViewportWidth: 1280,
		Metrics:       true,
	}
}

func TestReplayCmd(t *testing.T) {
	t.Parallel()

	t.Run("delivers the recorded session", func(t *testing.T) {
		t.Parallel()

		srv := newIngestServer(t)
		deps, stdout, _ := testDeps(t)
		require.NoError(t, docsite.SaveBindings(deps.Storage, docsite.Bindings{"API_TOKEN": "xaat-123"}))

		signals := writeSignals(t,
			`# recorded in staging`,
			`{"type":"scroll","top":500,"height":1100,"viewport":100}`,
			`{"type":"click","selector":"button[data-testid='copy-code-button']"}`,
			`{"type":"wait","ms":250}`,
			`{"type":"click","selector":"#gh"}`,
			`{"type":"unload"}`,
		)

		require.NoError(t, replayCmd(writePage(t), signals, srv.URL).Run(deps))

		assert.Equal(t, []string{
			"code_copied", "link_click", "page_exit", "page_view", "scroll_depth", "scroll_depth",
		}, srv.eventTypes())

		// The page's meta tag selects the dataset.
		for _, p := range srv.paths {
			assert.Equal(t, "/v1/datasets/docs-staging/ingest", p)
		}

		view := srv.find("page_view")
		require.NotNil(t, view)
		assert.Equal(t, "/docs/send-data/go", view["path"])
		assert.Equal(t, "has_params", view["search"])
		assert.Equal(t, "Send data", view["title"])
		assert.Equal(t, "desktop", view["deviceType"])

		click := srv.find("link_click")
		require.NotNil(t, click)
		assert.Equal(t, "external", click["linkType"])
		assert.Equal(t, "github.com", click["targetDomain"])
		assert.Equal(t, "Ingest", click["linkSection"])

		copied := srv.find("code_copied")
		require.NotNil(t, copied)
		assert.Equal(t, "bash", copied["language"])

		out := stdout.String()
		assert.Contains(t, out, `Bearer xaat-123`)
		assert.Contains(t, out, "replayed 5 signals\n")
		assert.Contains(t, out, "docsite_analytics_events_flushed_total 6\n")
		assert.Contains(t, out, `docsite_analytics_events_queued_total{event_type="scroll_depth"} 2`)

		_, ok, err := deps.Storage.Get(docsite.SessionStorageKey)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("search trigger and navigation", func(t *testing.T) {
		t.Parallel()

		srv := newIngestServer(t)
		deps, _, _ := testDeps(t)

		signals := writeSignals(t,
			`{"type":"click","selector":"#search-bar-entry"}`,
			`{"type":"search","trigger":"keyboard"}`,
			`{"type":"navigate","path":"/docs/introduction","title":"Introduction"}`,
		)

		require.NoError(t, replayCmd(writePage(t), signals, srv.URL).Run(deps))

		assert.Equal(t, []string{
			"page_view", "page_view", "search_opened", "search_opened",
		}, srv.eventTypes())
	})

	t.Run("in-site link clicks rescan code blocks", func(t *testing.T) {
		t.Parallel()

		srv := newIngestServer(t)
		deps, _, _ := testDeps(t)
		logs := &bytes.Buffer{}
		deps.Logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		signals := writeSignals(t,
			`{"type":"click","selector":"#intro"}`,
			`{"type":"wait","ms":300}`,
			`{"type":"click","selector":"#gh"}`,
		)

		require.NoError(t, replayCmd(writePage(t), signals, srv.URL).Run(deps))

		assert.Equal(t, 2, strings.Count(logs.String(), "placeholder rescan"))
		click := srv.find("link_click")
		require.NotNil(t, click)
		assert.Equal(t, "internal", click["linkType"])
	})

	t.Run("do not track sends nothing", func(t *testing.T) {
		t.Parallel()

		srv := newIngestServer(t)
		deps, _, _ := testDeps(t)
		cmd := replayCmd(writePage(t), writeSignals(t, `{"type":"unload"}`), srv.URL)
		cmd.DNT = true

		require.NoError(t, cmd.Run(deps))

		assert.Empty(t, srv.eventTypes())
	})

	t.Run("missing token disables analytics", func(t *testing.T) {
		t.Parallel()

		srv := newIngestServer(t)
		deps, _, stderr := testDeps(t)
		cmd := replayCmd(writePage(t), writeSignals(t, `{"type":"unload"}`), srv.URL)
		cmd.Token = ""

		require.NoError(t, cmd.Run(deps))

		assert.Empty(t, srv.eventTypes())
		assert.Contains(t, stderr.String(), "analytics disabled: ingest token required")
	})

	t.Run("unknown selector fails the replay", func(t *testing.T) {
		t.Parallel()

		srv := newIngestServer(t)
		deps, _, stderr := testDeps(t)
		signals := writeSignals(t, `{"type":"click","selector":"#missing"}`)

		err := replayCmd(writePage(t), signals, srv.URL).Run(deps)

		require.Error(t, err)
		assert.Equal(t, docsite.ENOTFOUND, docsite.ErrorCode(err))
		assert.Contains(t, stderr.String(), `no element matches "#missing"`)
	})

	t.Run("malformed signal line", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		signals := writeSignals(t, `{"type":"scroll"}`, `not json`)

		err := replayCmd(writePage(t), signals, "http://127.0.0.1:1").Run(deps)

		require.Error(t, err)
		assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
		assert.Contains(t, docsite.ErrorMessage(err), "line 2")
	})
}
