package threadsafe

import (
	"sync"
	"time"
)

type Time struct {
	time time.Time
	mux  *sync.Mutex
}

func NewTime(t time.Time) *Time {
	return &Time{
		time: t,
		mux:  &sync.Mutex{},
	}
}

func (t *Time) Get() time.Time {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.time
}

// SetIfAfter only moves the stored time forward.
func (t *Time) SetIfAfter(value time.Time) bool {
	t.mux.Lock()
	defer t.mux.Unlock()
	if value.After(t.time) {
		t.time = value
		return true
	}
	return false
}
