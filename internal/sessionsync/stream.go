package sessionsync

import "sync"

const subscriberBuffer = 16

// Stream is an in-process pub/sub that remembers the latest value. New
// subscribers receive the latest value first. Publish never blocks: a
// subscriber whose buffer is full misses the value.
type Stream[T any] struct {
	mu     sync.RWMutex
	subs   map[<-chan T]chan T
	last   T
	has    bool
	closed bool
}

func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[<-chan T]chan T)}
}

func (s *Stream[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	if s.has {
		ch <- s.last
	}
	s.subs[ch] = ch
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (s *Stream[T]) Unsubscribe(ch <-chan T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(c)
	}
}

func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.last, s.has = v, true
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Drop if subscriber is slow.
		}
	}
}

func (s *Stream[T]) Latest() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.has
}

// Close closes every subscriber channel. Later publishes are ignored.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for k, ch := range s.subs {
		delete(s.subs, k)
		close(ch)
	}
}
