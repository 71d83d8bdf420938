package stream

import (
	"sync"
	"sync/atomic"
)

// Subscription receives values from a Subject on C. C is closed once the
// subject terminates and every queued value was delivered, or once the
// subscription is closed by its owner.
type Subscription[T any] struct {
	id      uint64
	subject *Subject[T]

	mu    sync.Mutex
	queue []T
	done  bool
	err   error

	notify  chan struct{}
	closing chan struct{}
	closed  atomic.Bool
	out     chan T
}

func newSubscription[T any](subject *Subject[T]) *Subscription[T] {
	return &Subscription[T]{
		subject: subject,
		notify:  make(chan struct{}, 1),
		closing: make(chan struct{}),
		out:     make(chan T),
	}
}

// C returns the delivery channel.
func (s *Subscription[T]) C() <-chan T { return s.out }

// Err returns the subject's terminal error once C is closed. It is nil
// after a successful completion or when the subscription was closed.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes. Safe to call multiple times.
func (s *Subscription[T]) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.closing)
		s.subject.remove(s.id)
	}
}

// Closing is closed when the owner calls Close.
func (s *Subscription[T]) Closing() <-chan struct{} { return s.closing }

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) finish(err error) {
	s.mu.Lock()
	s.done = true
	s.err = err
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pump moves queued values onto the unbuffered delivery channel.
func (s *Subscription[T]) pump() {
	defer close(s.out)

	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			done := s.done
			s.mu.Unlock()
			if done {
				return
			}
			select {
			case <-s.notify:
				continue
			case <-s.closing:
				return
			}
		}
		v := s.queue[0]
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.closing:
			return
		}
	}
}
