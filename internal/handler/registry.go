package handler

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var ErrDuplicate = errors.New("already registered")

// Registry provides a shared key -> value table. It is filled once during
// bootstrap and only read afterwards, so it carries no lock.
type Registry[K cmp.Ordered, T any] struct {
	entries map[K]T
}

func NewRegistry[K cmp.Ordered, T any]() *Registry[K, T] {
	return &Registry[K, T]{
		entries: make(map[K]T),
	}
}

func (r *Registry[K, T]) Register(key K, value T) error {
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%v %w", key, ErrDuplicate)
	}
	r.entries[key] = value
	return nil
}

func (r *Registry[K, T]) Get(key K) (T, bool) {
	v, ok := r.entries[key]
	return v, ok
}

func (r *Registry[K, T]) Len() int {
	return len(r.entries)
}

// Keys returns the registered keys in ascending order.
func (r *Registry[K, T]) Keys() []K {
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
