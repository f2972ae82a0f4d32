package main_test

import (
	"testing"

	"github.com/fwojciec/docsite"
	main "github.com/fwojciec/docsite/cmd/docsite"
	"github.com/fwojciec/docsite/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesCmd(t *testing.T) {
	t.Parallel()

	t.Run("set, list and unset", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)

		require.NoError(t, (&main.ValuesSetCmd{Key: "DATASET_NAME", Value: "logs"}).Run(deps))
		require.NoError(t, (&main.ValuesSetCmd{Key: "API_TOKEN", Value: "xaat-1"}).Run(deps))
		stdout.Reset()

		require.NoError(t, (&main.ValuesListCmd{}).Run(deps))
		assert.Equal(t, "API_TOKEN=xaat-1\nDATASET_NAME=logs\n", stdout.String())

		require.NoError(t, (&main.ValuesUnsetCmd{Key: "API_TOKEN"}).Run(deps))
		b, err := docsite.LoadBindings(deps.Storage)
		require.NoError(t, err)
		assert.Equal(t, docsite.Bindings{"DATASET_NAME": "logs"}, b)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)

		err := (&main.ValuesSetCmd{Key: "NOPE", Value: "x"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, docsite.ENOTFOUND, docsite.ErrorCode(err))
		assert.Contains(t, stderr.String(), `error: unknown placeholder "NOPE"`)
	})

	t.Run("rejects blank values", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)

		err := (&main.ValuesSetCmd{Key: "API_TOKEN", Value: "  "}).Run(deps)

		assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
	})

	t.Run("set replaces corrupt stored values", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		require.NoError(t, deps.Storage.Set(docsite.PlaceholderStorageKey, "{broken"))

		require.NoError(t, (&main.ValuesSetCmd{Key: "API_TOKEN", Value: "xaat-1"}).Run(deps))

		b, err := docsite.LoadBindings(deps.Storage)
		require.NoError(t, err)
		assert.Equal(t, docsite.Bindings{"API_TOKEN": "xaat-1"}, b)
	})

	t.Run("storage failure is reported", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)
		deps.Storage = &mock.Storage{
			GetFn: func(string) (string, bool, error) {
				return "", false, docsite.Errorf(docsite.EUNAVAILABLE, "storage disabled")
			},
		}

		err := (&main.ValuesListCmd{}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: storage disabled")
	})

	t.Run("clear removes placeholder values only", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		require.NoError(t, deps.Storage.Set(docsite.SessionStorageKey, "{}"))
		require.NoError(t, (&main.ValuesSetCmd{Key: "API_TOKEN", Value: "xaat-1"}).Run(deps))

		require.NoError(t, (&main.ValuesClearCmd{}).Run(deps))

		_, ok, _ := deps.Storage.Get(docsite.PlaceholderStorageKey)
		assert.False(t, ok)
		_, ok, _ = deps.Storage.Get(docsite.SessionStorageKey)
		assert.True(t, ok)
	})

	t.Run("clear --all needs a session database", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)

		err := (&main.ValuesClearCmd{All: true}).Run(deps)

		assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
	})
}
