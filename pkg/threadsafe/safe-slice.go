package threadsafe

import "sync"

type SafeSlice[T any] struct {
	inner []T
	mux   *sync.RWMutex
}

func NewSafeSlice[T any](capacity int) *SafeSlice[T] {
	return &SafeSlice[T]{
		inner: make([]T, 0, capacity),
		mux:   &sync.RWMutex{},
	}
}

func (s *SafeSlice[T]) Size() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.inner)
}

func (s *SafeSlice[T]) Append(v ...T) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.inner = append(s.inner, v...)
}

// Snapshot returns a copy that is safe to use after further appends.
func (s *SafeSlice[T]) Snapshot() []T {
	s.mux.RLock()
	defer s.mux.RUnlock()
	res := make([]T, len(s.inner))
	copy(res, s.inner)
	return res
}
