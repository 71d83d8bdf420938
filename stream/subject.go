// Package stream provides the in-process multicast primitive conductor is
// built on. A Subject fans values out to any number of Subscriptions. Each
// subscription owns an unbounded queue, so publishers never block on slow
// readers, and values are delivered to every subscriber in publish order.
package stream

import (
	"sync"
	"sync/atomic"
)

// Replay sizes.
const (
	// ReplayNone delivers only values published after Subscribe.
	ReplayNone = 0
	// ReplayAll delivers the whole history to late subscribers.
	ReplayAll = -1
)

// Option configures a Subject.
type Option func(*options)

type options struct {
	replay  int
	handoff bool
}

// WithReplay sets how many past values late subscribers receive.
// Use ReplayAll to retain everything.
func WithReplay(n int) Option {
	return func(o *options) { o.replay = n }
}

// WithBufferUntilSubscribed retains values only until the first Subscribe,
// which receives all of them. Later subscribers see live values only.
// It overrides WithReplay.
func WithBufferUntilSubscribed() Option {
	return func(o *options) { o.handoff = true }
}

// Subject is a multicast source. Terminal state (completion or error) is
// retained, so subscribing after termination yields the replay buffer
// followed by the same terminal outcome.
// It is safe for concurrent use.
type Subject[T any] struct {
	mu      sync.Mutex
	subs    map[uint64]*Subscription[T]
	nextID  uint64
	history []T
	replay  int
	handoff bool
	done    bool
	err     error

	published atomic.Int64
}

// NewSubject creates an open subject.
func NewSubject[T any](opts ...Option) *Subject[T] {
	o := options{replay: ReplayNone}
	for _, opt := range opts {
		opt(&o)
	}
	if o.handoff {
		o.replay = ReplayAll
	}
	return &Subject[T]{
		subs:    make(map[uint64]*Subscription[T]),
		replay:  o.replay,
		handoff: o.handoff,
	}
}

// Next publishes v to every current subscriber. It returns false if the
// subject has already terminated, in which case v is discarded.
func (s *Subject[T]) Next(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return false
	}
	s.remember(v)
	// Pushes never block, so holding the lock keeps every subscriber's
	// queue in the same order under concurrent publishers.
	for _, sub := range s.subs {
		sub.push(v)
	}
	s.published.Add(1)
	return true
}

// Complete terminates the subject successfully.
func (s *Subject[T]) Complete() { s.Finish(nil) }

// Error terminates the subject with err. A nil err completes it.
func (s *Subject[T]) Error(err error) { s.Finish(err) }

// Finish terminates the subject with err (nil means success). Only the
// first call has an effect; it reports whether it was that call.
func (s *Subject[T]) Finish(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return false
	}
	s.done = true
	s.err = err
	for key, sub := range s.subs {
		sub.finish(err)
		delete(s.subs, key)
	}
	return true
}

// Subscribe registers a new subscription. Replayed values are queued
// before any value published afterwards.
func (s *Subject[T]) Subscribe() *Subscription[T] {
	sub := newSubscription(s)

	s.mu.Lock()
	sub.queue = append(sub.queue, s.history...)
	if s.handoff {
		s.history = nil
		s.replay = ReplayNone
		s.handoff = false
	}
	if s.done {
		sub.done = true
		sub.err = s.err
	} else {
		s.nextID++
		sub.id = s.nextID
		s.subs[sub.id] = sub
	}
	s.mu.Unlock()

	go sub.pump()
	return sub
}

// Done reports whether the subject has terminated.
func (s *Subject[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the terminal error, or nil while open or after completion.
func (s *Subject[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SubscriberCount returns the number of live subscriptions.
func (s *Subject[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Published returns how many values have been accepted by Next.
func (s *Subject[T]) Published() int64 { return s.published.Load() }

func (s *Subject[T]) remember(v T) {
	switch {
	case s.replay == ReplayNone:
	case s.replay < 0:
		s.history = append(s.history, v)
	default:
		s.history = append(s.history, v)
		if over := len(s.history) - s.replay; over > 0 {
			kept := make([]T, s.replay)
			copy(kept, s.history[over:])
			s.history = kept
		}
	}
}

func (s *Subject[T]) remove(key uint64) {
	s.mu.Lock()
	delete(s.subs, key)
	s.mu.Unlock()
}
