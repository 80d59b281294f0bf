// Package notify delivers state snapshots to subscribers at a bounded rate.
package notify

import (
	"fmt"
	"sync/atomic"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// Dispatcher decides where a delivery runs. The engine queues deliveries
// until it has released its lock; nil runs them immediately.
type Dispatcher func(deliver func())

type subscriber[T any] struct {
	id     int
	fn     func(T)
	active atomic.Bool
}

// Hub fans a value out to its subscribers. A panicking subscriber is logged
// and skipped; the remaining subscribers still receive the value.
type Hub[T any] struct {
	name     string
	logger   contracts.Logger
	subs     []*subscriber[T]
	nextID   int
	dispatch Dispatcher
}

// NewHub creates a hub; name identifies it in diagnostics.
func NewHub[T any](name string, logger contracts.Logger) *Hub[T] {
	return &Hub[T]{name: name, logger: logger}
}

// SetDispatcher installs d for all later Publish calls.
func (h *Hub[T]) SetDispatcher(d Dispatcher) {
	h.dispatch = d
}

// Subscribe registers fn and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.nextID++
	s := &subscriber[T]{id: h.nextID, fn: fn}
	s.active.Store(true)
	h.subs = append(h.subs, s)
	return func() {
		if !s.active.Swap(false) {
			return
		}
		for i, other := range h.subs {
			if other == s {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				break
			}
		}
	}
}

// Len returns the number of active subscribers.
func (h *Hub[T]) Len() int {
	return len(h.subs)
}

// Publish delivers v to every subscriber registered at call time.
func (h *Hub[T]) Publish(v T) {
	if len(h.subs) == 0 {
		return
	}
	targets := append([]*subscriber[T](nil), h.subs...)
	deliver := func() {
		for _, s := range targets {
			if s.active.Load() {
				h.call(s, v)
			}
		}
	}
	if h.dispatch != nil {
		h.dispatch(deliver)
		return
	}
	deliver()
}

func (h *Hub[T]) call(s *subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("subscriber panicked",
				h.logger.Field().String("hub", h.name),
				h.logger.Field().Int("subscriber", s.id),
				h.logger.Field().String("panic", fmt.Sprint(r)))
		}
	}()
	s.fn(v)
}
