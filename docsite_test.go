package docsite_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/docsite"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := docsite.Errorf(docsite.ENOTFOUND, "page %q not found", "intro")

	assert.Equal(t, docsite.ENOTFOUND, docsite.ErrorCode(err))
	assert.Equal(t, "page \"intro\" not found", docsite.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docsite.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docsite.ErrorMessage(nil))
}

func TestErrorCode_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("ingest: %w", docsite.Errorf(docsite.EUNAVAILABLE, "HTTP 503"))

	assert.Equal(t, docsite.EUNAVAILABLE, docsite.ErrorCode(err))
	assert.True(t, docsite.IsTransient(err))
}

func TestErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, docsite.EINTERNAL, docsite.ErrorCode(err))
	assert.Equal(t, "Internal error.", docsite.ErrorMessage(err))
	assert.False(t, docsite.IsTransient(err))
}
