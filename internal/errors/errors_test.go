package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCategoryTransaction, CodeModeError, "commit outside manual mode")
	assert.Equal(t, "[TRANSACTION:MODE_ERROR] commit outside manual mode", err.Error())

	wrapped := Wrap(ErrCategoryStorage, CodeUploadFailed, "blob spill", stderrors.New("disk full"))
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.Contains(t, wrapped.Error(), "UPLOAD_FAILED")
}

func TestErrorIsMatchesCategoryAndCode(t *testing.T) {
	a := NewTimeoutError("lock wait expired")
	b := NewTimeoutError("different message")
	c := NewModeError("wrong mode")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestUnwrapChain(t *testing.T) {
	cause := stderrors.New("root")
	err := Wrap(ErrCategoryInternal, CodeUnexpected, "outer", cause)
	assert.ErrorIs(t, err, cause)

	indirect := fmt.Errorf("context: %w", err)
	assert.Equal(t, ErrCategoryInternal, GetCategory(indirect))
	assert.Equal(t, CodeUnexpected, GetCode(indirect))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, IsRetryable(NewTimeoutError("deadline")))
	assert.True(t, IsRetryable(NewStorageError(CodeUploadFailed, "put", nil)))
	assert.False(t, IsRetryable(NewModeError("mode")))
	assert.False(t, IsRetryable(NewClosedError("closed")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestCodeExtractionOnPlainError(t *testing.T) {
	assert.Equal(t, ErrorCategory(""), GetCategory(stderrors.New("plain")))
	assert.Equal(t, "", GetCode(nil))
	assert.False(t, HasCode(stderrors.New("plain"), CodeTimeout))
	assert.True(t, HasCode(NewStaleStateError("schema changed"), CodeStaleState))
}
