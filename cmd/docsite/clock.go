package main

import (
	"sort"
	"sync"
	"time"

	"github.com/fwojciec/docsite"
)

var _ docsite.Clock = (*pageClock)(nil)

// pageClock runs page timers on the replay goroutine. Time only moves when
// the replay advances it, so timer callbacks never race with signal
// handling that reads the same document.
type pageClock struct {
	base docsite.Clock

	mu      sync.Mutex
	elapsed time.Duration
	seq     int
	timers  []*pageTimer
}

type pageTimer struct {
	clock *pageClock
	at    time.Duration
	seq   int
	f     func()
	done  bool
}

func newPageClock(base docsite.Clock) *pageClock {
	return &pageClock{base: base}
}

func (c *pageClock) Now() time.Time {
	return c.base.Now()
}

func (c *pageClock) AfterFunc(d time.Duration, f func()) docsite.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &pageTimer{clock: c, at: c.elapsed + d, seq: c.seq, f: f}
	c.seq++
	c.timers = append(c.timers, t)
	return t
}

// advance moves page time forward by d and runs every timer that comes due,
// including timers scheduled by the callbacks themselves.
func (c *pageClock) advance(d time.Duration) {
	c.mu.Lock()
	target := c.elapsed + d
	c.mu.Unlock()
	c.runUntil(target, false)
}

// drain runs every pending timer regardless of its delay.
func (c *pageClock) drain() {
	c.runUntil(0, true)
}

func (c *pageClock) runUntil(target time.Duration, all bool) {
	for {
		c.mu.Lock()
		next := c.next()
		if next == nil || (!all && next.at > target) {
			if !all {
				c.elapsed = target
			}
			c.mu.Unlock()
			return
		}
		next.done = true
		c.elapsed = max(c.elapsed, next.at)
		c.mu.Unlock()

		next.f()
	}
}

// next returns the earliest live timer. The caller must hold mu.
func (c *pageClock) next() *pageTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	c.timers = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].at == live[j].at {
			return live[i].seq < live[j].seq
		}
		return live[i].at < live[j].at
	})
	return live[0]
}

func (t *pageTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
