package docsite_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/docsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes flat ingest form", func(t *testing.T) {
		t.Parallel()

		e := &docsite.Event{
			Time:             time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Type:             docsite.EventScrollDepth,
			SessionID:        "sess-1",
			SessionPageCount: 2,
			Page:             docsite.PageInfo{Path: "/docs/intro", Title: "Intro"},
			Browser:          docsite.BrowserContext{ViewportCategory: "desktop", BrowserFamily: "Firefox", DeviceType: "desktop", Language: "en", TimezoneOffset: -1},
			Properties:       map[string]any{"threshold": 50},
		}

		data, err := json.Marshal(e)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "2026-03-01T12:00:00Z", got["_time"])
		assert.Equal(t, "scroll_depth", got["eventType"])
		assert.Equal(t, "sess-1", got["sessionId"])
		assert.Equal(t, "/docs/intro", got["path"])
		assert.Nil(t, got["hash"])
		assert.Nil(t, got["search"])
		assert.Equal(t, "Firefox", got["browserFamily"])
		assert.InDelta(t, 50.0, got["threshold"], 0.001)
	})

	t.Run("properties cannot overwrite identity fields", func(t *testing.T) {
		t.Parallel()

		e := &docsite.Event{Type: docsite.EventPageView, SessionID: "real", Properties: map[string]any{"sessionId": "fake"}}

		data, err := json.Marshal(e)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "real", got["sessionId"])
	})
}
