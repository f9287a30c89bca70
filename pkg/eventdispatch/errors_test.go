package eventdispatch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenerAlreadyRegisteredError(t *testing.T) {
	err := &ListenerAlreadyRegisteredError{Key: "audit"}

	assert.Equal(t, "listener audit: listener already registered", err.Error())
	assert.ErrorIs(t, err, ErrListenerAlreadyRegistered)
	assert.False(t, errors.Is(err, ErrDispatcherClosed))

	wrapped := fmt.Errorf("register: %w", err)
	var target *ListenerAlreadyRegisteredError
	assert.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "audit", target.Key)
}

func TestPanicError(t *testing.T) {
	t.Run("non-error value", func(t *testing.T) {
		err := &PanicError{Value: 42, Stack: "stack"}
		assert.Equal(t, "listener panicked: 42", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("error value", func(t *testing.T) {
		inner := errors.New("inner")
		err := &PanicError{Value: inner}
		assert.Equal(t, "listener panicked: inner", err.Error())
		assert.ErrorIs(t, err, inner)
	})
}

func TestGuard(t *testing.T) {
	assert.NoError(t, guard(func() error { return nil }))

	errBoom := errors.New("boom")
	assert.Same(t, errBoom, guard(func() error { return errBoom }))

	err := guard(func() error { panic("bad") })
	var pe *PanicError
	if assert.ErrorAs(t, err, &pe) {
		assert.Equal(t, "bad", pe.Value)
		assert.NotEmpty(t, pe.Stack)
	}
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "abc", formatKey("abc"))
	assert.Equal(t, "42", formatKey(42))
	assert.Equal(t, "<nil>", formatKey(nil))
}
