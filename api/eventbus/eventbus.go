// Package eventbus provides a typed publish/subscribe event stream for
// controller state updates.
package eventbus

import (
	"github.com/cskr/pubsub/v2"
)

// EventID represents a unique event stream ID.
type EventID uint

// Bus is a publish/subscribe event bus. The zero value is not usable;
// use NewBus.
type Bus struct {
	ps *pubsub.PubSub[uint, any]
}

// NewBus returns a new event bus.
func NewBus() *Bus {
	return &Bus{ps: pubsub.New[uint, any](10)}
}

// Publish publishes an event to the stream with the provided ID.
// Publishing never blocks; slow subscribers miss events.
func (b *Bus) Publish(id EventID, data any) {
	b.ps.TryPub(data, uint(id))
}

// Subscribe subscribes to the stream with the provided ID.
func (b *Bus) Subscribe(id EventID) Subscription {
	ch := b.ps.Sub(uint(id))

	return Subscription{
		C: ch,
		Unsubscribe: func() {
			go b.ps.Unsub(ch, uint(id))

			for range ch {
			}
		},
	}
}

// Shutdown closes the bus and all subscriptions.
func (b *Bus) Shutdown() {
	b.ps.Shutdown()
}

// Subscription holds a subscribed event channel and its unsubscribe
// function.
type Subscription struct {
	C           chan any
	Unsubscribe func()
}

// Stream is a typed event group bound to a bus and an event ID.
type Stream[T any] struct {
	bus *Bus
	id  EventID
}

// NewStream returns a typed event group for the provided bus and ID.
func NewStream[T any](bus *Bus, id EventID) Stream[T] {
	return Stream[T]{bus: bus, id: id}
}

// Publish publishes typed event data to the group.
func (s Stream[T]) Publish(data T) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(s.id, data)
}

// Subscribe subscribes to the group, filtering the stream down to the
// group's data type.
func (s Stream[T]) Subscribe() (<-chan T, func()) {
	if s.bus == nil {
		ch := make(chan T)
		close(ch)

		return ch, func() {}
	}

	sub := s.bus.Subscribe(s.id)
	out := make(chan T, 1)

	go func() {
		defer close(out)

		for data := range sub.C {
			event, ok := data.(T)
			if !ok {
				continue
			}

			select {
			case out <- event:
			default:
			}
		}
	}()

	return out, sub.Unsubscribe
}
