package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactWriter_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ docsite.ArtifactWriter = &mock.ArtifactWriter{}
}

func TestArtifactWriter_Save(t *testing.T) {
	t.Parallel()

	t.Run("delegates to SaveFn", func(t *testing.T) {
		t.Parallel()

		var calledWith []*docsite.PageRecord
		w := &mock.ArtifactWriter{
			SaveFn: func(_ context.Context, records []*docsite.PageRecord) error {
				calledWith = records
				return nil
			},
		}

		records := []*docsite.PageRecord{{Group: "Apps", URL: "https://example.com/docs/apps/netlify"}}

		err := w.Save(context.Background(), records)

		require.NoError(t, err)
		assert.Equal(t, records, calledWith)
	})
}
