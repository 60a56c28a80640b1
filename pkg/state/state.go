package state

import (
	"sync"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
)

// ChangeHandler is called with the previous and the new value after a change.
type ChangeHandler[T any] func(old, new T)

// Value is a replicated variable. The authoritative owner writes it with Set;
// replicas only receive values through Replicate. Subscribers are called
// synchronously on the writer's goroutine, and only when the value changes.
type Value[T comparable] struct {
	lock          sync.RWMutex
	value         T
	authoritative bool
	handlers      map[int]ChangeHandler[T]
	nextID        int
}

// NewValue creates a Value. authoritative selects whether this copy is the owner.
func NewValue[T comparable](initial T, authoritative bool) *Value[T] {
	return &Value[T]{
		value:         initial,
		authoritative: authoritative,
		handlers:      make(map[int]ChangeHandler[T]),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.value
}

// Authoritative reports whether this copy may be written with Set.
func (v *Value[T]) Authoritative() bool {
	return v.authoritative
}

// Set writes the value on the owning side.
func (v *Value[T]) Set(value T) error {
	if !v.authoritative {
		return apperrors.New(apperrors.CodeAuthorityViolation, "only the authority can write this value")
	}
	v.store(value)
	return nil
}

// Replicate applies a value received from the owner.
func (v *Value[T]) Replicate(value T) error {
	if v.authoritative {
		return apperrors.New(apperrors.CodeAuthorityViolation, "the authority does not accept replicated values")
	}
	v.store(value)
	return nil
}

// Subscribe registers h and returns a function that removes it.
func (v *Value[T]) Subscribe(h ChangeHandler[T]) func() {
	v.lock.Lock()
	defer v.lock.Unlock()
	id := v.nextID
	v.nextID++
	v.handlers[id] = h
	return func() {
		v.lock.Lock()
		defer v.lock.Unlock()
		delete(v.handlers, id)
	}
}

func (v *Value[T]) store(value T) {
	v.lock.Lock()
	old := v.value
	if old == value {
		v.lock.Unlock()
		return
	}
	v.value = value
	handlers := make([]ChangeHandler[T], 0, len(v.handlers))
	for _, h := range v.handlers {
		handlers = append(handlers, h)
	}
	v.lock.Unlock()

	for _, h := range handlers {
		h(old, value)
	}
}
