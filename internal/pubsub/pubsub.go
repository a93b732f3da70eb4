// Package pubsub provides the synchronous publish/subscribe capability shared
// by every notifier in the backtester.
package pubsub

// Subscriber receives notifications from a source of type T.
//
// Subscribers are compared by identity, so implementations must be comparable
// (pointer receivers are the usual choice).
type Subscriber[T any] interface {
	OnNotify(source T) error
}

// Topic is an ordered set of distinct subscribers. The zero value is ready to
// use. A Topic is not safe for concurrent use.
type Topic[T any] struct {
	subscribers []Subscriber[T]
}

// Subscribe appends s unless it is already subscribed.
func (t *Topic[T]) Subscribe(s Subscriber[T]) {
	if s == nil || t.index(s) >= 0 {
		return
	}
	t.subscribers = append(t.subscribers, s)
}

// Unsubscribe removes s. It is a no-op when s is not subscribed. The list is
// rebuilt rather than compacted in place, so a dispatch already in progress
// keeps its view.
func (t *Topic[T]) Unsubscribe(s Subscriber[T]) {
	i := t.index(s)
	if i < 0 {
		return
	}
	next := make([]Subscriber[T], 0, len(t.subscribers)-1)
	next = append(next, t.subscribers[:i]...)
	t.subscribers = append(next, t.subscribers[i+1:]...)
}

// Notify calls every subscriber in subscription order, passing source. The
// first error stops the dispatch and is returned. Subscribers added or removed
// during a dispatch take effect from the next one.
func (t *Topic[T]) Notify(source T) error {
	for _, s := range t.subscribers {
		if err := s.OnNotify(source); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	return len(t.subscribers)
}

func (t *Topic[T]) index(s Subscriber[T]) int {
	for i, existing := range t.subscribers {
		if existing == s {
			return i
		}
	}
	return -1
}
