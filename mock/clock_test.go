package mock_test

import (
	"testing"
	"time"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/mock"
	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("implements docsite.Clock", func(t *testing.T) {
		t.Parallel()
		var _ docsite.Clock = mock.NewClock(start)
	})

	t.Run("fires due timers in order", func(t *testing.T) {
		t.Parallel()

		c := mock.NewClock(start)
		var fired []string
		c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
		c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
		c.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

		c.Advance(3 * time.Second)

		assert.Equal(t, []string{"a", "b"}, fired)
		assert.Equal(t, start.Add(3*time.Second), c.Now())
		assert.Equal(t, 1, c.Pending())
	})

	t.Run("callbacks see the time they were due", func(t *testing.T) {
		t.Parallel()

		c := mock.NewClock(start)
		var at time.Time
		c.AfterFunc(time.Second, func() { at = c.Now() })

		c.Advance(10 * time.Second)

		assert.Equal(t, start.Add(time.Second), at)
	})

	t.Run("stopped timers do not fire", func(t *testing.T) {
		t.Parallel()

		c := mock.NewClock(start)
		fired := false
		tm := c.AfterFunc(time.Second, func() { fired = true })

		assert.True(t, tm.Stop())
		assert.False(t, tm.Stop())
		c.Advance(time.Minute)

		assert.False(t, fired)
	})

	t.Run("timers scheduled by callbacks fire within the same advance", func(t *testing.T) {
		t.Parallel()

		c := mock.NewClock(start)
		count := 0
		c.AfterFunc(time.Second, func() {
			count++
			c.AfterFunc(time.Second, func() { count++ })
		})

		c.Advance(2 * time.Second)

		assert.Equal(t, 2, count)
	})
}
