package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(ErrKindNotFound, "table missing")
	assert.Equal(t, "[not_found] table missing", plain.Error())

	wrapped := Wrap(ErrKindQueryFailed, "select failed", errors.New("syntax error"))
	assert.Equal(t, "[query_failed] select failed: syntax error", wrapped.Error())
}

func TestKindOf(t *testing.T) {
	err := Wrap(ErrKindTimeout, "deadline exceeded", errors.New("context deadline exceeded"))

	assert.Equal(t, ErrKindTimeout, KindOf(err))
	assert.Equal(t, ErrKindTimeout, KindOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrKindNotFound, "x")))
	assert.True(t, IsInvalidInput(New(ErrKindInvalidInput, "x")))
	assert.True(t, IsAmbiguous(New(ErrKindAmbiguous, "x")))
	assert.True(t, IsPermissionDenied(New(ErrKindPermissionDenied, "x")))
	assert.True(t, IsQueryFailed(New(ErrKindQueryFailed, "x")))
	assert.False(t, IsNotFound(New(ErrKindQueryFailed, "x")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrKindConnectionFailed, "x")))
	assert.True(t, IsRetryable(New(ErrKindTimeout, "x")))
	assert.False(t, IsRetryable(New(ErrKindNotFound, "x")))
	assert.False(t, IsRetryable(New(ErrKindInvalidInput, "x")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrKindConnectionFailed, "dial failed", cause)
	assert.True(t, errors.Is(err, cause))
}
