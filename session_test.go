package docsite_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/docsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Visit(t *testing.T) {
	t.Parallel()

	t.Run("records visits with running index", func(t *testing.T) {
		t.Parallel()

		s := &docsite.Session{ID: "s1"}
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		s.Visit("/a", at)
		s.Visit("/b", at.Add(time.Second))

		assert.Equal(t, 2, s.PageCount)
		require.Len(t, s.PageSequence, 2)
		assert.Equal(t, 2, s.PageSequence[1].Index)
		assert.Equal(t, "/a", s.PreviousPath())
	})

	t.Run("keeps only the last fifty visits", func(t *testing.T) {
		t.Parallel()

		s := &docsite.Session{ID: "s1"}
		for i := range 60 {
			s.Visit(fmt.Sprintf("/p%d", i), time.Time{})
		}

		assert.Equal(t, 60, s.PageCount)
		require.Len(t, s.PageSequence, docsite.MaxPageSequence)
		assert.Equal(t, "/p10", s.PageSequence[0].Path)
		assert.Equal(t, 11, s.PageSequence[0].Index)
		assert.Equal(t, "/p59", s.PageSequence[49].Path)
	})

	t.Run("previous path is empty on first page", func(t *testing.T) {
		t.Parallel()

		s := &docsite.Session{}
		s.Visit("/only", time.Time{})

		assert.Empty(t, s.PreviousPath())
	})
}
