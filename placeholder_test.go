package docsite_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/memory"
	"github.com/fwojciec/docsite/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensIn(t *testing.T) {
	t.Parallel()

	placeholders := docsite.DefaultPlaceholders()

	t.Run("returns tokens in definition order", func(t *testing.T) {
		t.Parallel()

		text := `curl -H "Authorization: Bearer API_TOKEN" https://AXIOM_DOMAIN/v1/datasets/DATASET_NAME/ingest`

		assert.Equal(t, []string{"AXIOM_DOMAIN", "API_TOKEN", "DATASET_NAME"}, docsite.TokensIn(text, placeholders))
	})

	t.Run("returns nil when no token occurs", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, docsite.TokensIn("echo hello", placeholders))
	})
}

func TestBindings_Substitute(t *testing.T) {
	t.Parallel()

	t.Run("replaces every occurrence", func(t *testing.T) {
		t.Parallel()

		b := docsite.Bindings{"API_TOKEN": "abc123"}
		got := b.Substitute("API_TOKEN and API_TOKEN", []string{"API_TOKEN"})

		assert.Equal(t, "abc123 and abc123", got)
	})

	t.Run("leaves unbound tokens in place", func(t *testing.T) {
		t.Parallel()

		b := docsite.Bindings{"API_TOKEN": "abc123"}
		got := b.Substitute("API_TOKEN DATASET_NAME", []string{"API_TOKEN", "DATASET_NAME"})

		assert.Equal(t, "abc123 DATASET_NAME", got)
	})

	t.Run("treats regexp metacharacters literally", func(t *testing.T) {
		t.Parallel()

		b := docsite.Bindings{"DATASET_NAME": "$1.*"}
		got := b.Substitute("ds=DATASET_NAME", []string{"DATASET_NAME"})

		assert.Equal(t, "ds=$1.*", got)
	})
}

func TestBindings_Set(t *testing.T) {
	t.Parallel()

	b := docsite.Bindings{}
	b.Set("API_TOKEN", "abc")
	assert.Equal(t, "abc", b["API_TOKEN"])

	b.Set("API_TOKEN", "   ")
	assert.NotContains(t, b, "API_TOKEN")
}

func TestBindings_Storage(t *testing.T) {
	t.Parallel()

	t.Run("round trips through storage", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStorage()
		require.NoError(t, docsite.SaveBindings(s, docsite.Bindings{"API_TOKEN": "abc123"}))

		b, err := docsite.LoadBindings(s)

		require.NoError(t, err)
		assert.Equal(t, docsite.Bindings{"API_TOKEN": "abc123"}, b)
	})

	t.Run("saving empty bindings removes the key", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStorage()
		require.NoError(t, s.Set(docsite.PlaceholderStorageKey, `{"API_TOKEN":"x"}`))

		require.NoError(t, docsite.SaveBindings(s, docsite.Bindings{}))

		_, ok, err := s.Get(docsite.PlaceholderStorageKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt blob is invalid", func(t *testing.T) {
		t.Parallel()

		s := memory.NewStorage()
		require.NoError(t, s.Set(docsite.PlaceholderStorageKey, "{not json"))

		b, err := docsite.LoadBindings(s)

		assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
		assert.Empty(t, b)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		t.Parallel()

		s := &mock.Storage{
			GetFn: func(string) (string, bool, error) { return "", false, errors.New("denied") },
		}

		b, err := docsite.LoadBindings(s)

		assert.Error(t, err)
		assert.Empty(t, b)
	})
}
