package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTerminal_WrapsAndUnwraps(t *testing.T) {
	inner := errors.New("order not found")
	err := Terminal(inner)

	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, inner, "Unwrap should expose the inner error")
	assert.Contains(t, err.Error(), "terminal:")
}

func TestTerminal_DetectedThroughWrapping(t *testing.T) {
	inner := Terminal(errors.New("gone"))
	wrapped := errors.Join(errors.New("context"), inner)

	assert.True(t, IsTerminal(wrapped))
}

func TestIsTerminal_FalseForPlainErrors(t *testing.T) {
	assert.False(t, IsTerminal(errors.New("transient")))
	assert.False(t, IsTerminal(nil))
}

func TestRecoverable_WrapsAndUnwraps(t *testing.T) {
	inner := errors.New("smtp timeout")
	err := Recoverable(inner)

	var re *RecoverableError
	assert.True(t, errors.As(err, &re))
	assert.Zero(t, re.Delay)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "recoverable:")
}

func TestRetryAfter_CarriesDelay(t *testing.T) {
	inner := errors.New("rate limited")
	err := RetryAfter(30*time.Second, inner)

	var re *RecoverableError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, 30*time.Second, re.Delay)
	assert.Contains(t, err.Error(), "retry after 30s")
}
