package eventdispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrListenerAlreadyRegistered indicates AddListener was called with a
	// key that is already registered.
	ErrListenerAlreadyRegistered = errors.New("listener already registered")

	// ErrDispatcherClosed indicates AddListener was called after Close.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// ListenerAlreadyRegisteredError reports the key of a rejected registration.
type ListenerAlreadyRegisteredError struct {
	// Key is the listener key that was already taken.
	Key any
}

// Error implements the error interface.
func (e *ListenerAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("listener %v: %v", e.Key, ErrListenerAlreadyRegistered)
}

// Unwrap returns ErrListenerAlreadyRegistered for errors.Is support.
func (e *ListenerAlreadyRegisteredError) Unwrap() error {
	return ErrListenerAlreadyRegistered
}

// PanicError captures a panic raised by a listener or by the replay
// transform. It includes the stack trace for debugging.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
