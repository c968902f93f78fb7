// Package store is a unidirectional application-state container: actions go
// in through Dispatch, a pure reducer folds them into state on a single loop
// goroutine, and subscribers observe every (state, action) pair in order.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Action is an immutable message describing an intent or an event.
type Action interface {
	Type() string
}

// Reducer folds an action into state. It must be pure.
type Reducer[S any] func(state S, action Action) S

// Listener observes the state right after action was reduced.
type Listener[S any] func(state S, action Action)

// ErrClosed is returned by Sync after the store has been closed.
var ErrClosed = errors.New("store: closed")

type task[S any] struct {
	action Action
	fn     func(S)
}

type subscription[S any] struct {
	mu     sync.Mutex
	active bool
	fn     Listener[S]
}

func (sub *subscription[S]) deliver(state S, action Action) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.active {
		sub.fn(state, action)
	}
}

func (sub *subscription[S]) cancel() {
	sub.mu.Lock()
	sub.active = false
	sub.mu.Unlock()
}

type options struct {
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for dropped dispatches.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics counts reduced actions on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Store holds state of type S. The zero value is not usable; call New.
type Store[S any] struct {
	reducer Reducer[S]
	opts    options

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task[S]
	closed bool
	done   chan struct{}

	stateMu sync.RWMutex
	state   S

	subsMu sync.Mutex
	subs   map[uint64]*subscription[S]
	nextID uint64
}

// New creates a store holding initial and starts its dispatch loop.
func New[S any](initial S, reducer Reducer[S], opts ...Option) *Store[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store[S]{
		reducer: reducer,
		opts:    o,
		done:    make(chan struct{}),
		state:   initial,
		subs:    make(map[uint64]*subscription[S]),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Dispatch enqueues action. It never blocks on the loop, so listeners may
// dispatch. Actions dispatched after Close are dropped.
func (s *Store[S]) Dispatch(action Action) {
	if !s.enqueue(task[S]{action: action}) {
		s.opts.logger.Warn("dispatch after close dropped", slog.String("action", action.Type()))
	}
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Subscribe registers l for every action reduced from now on. Once the
// returned func returns, l is never called again. It must not be called from
// inside l itself.
func (s *Store[S]) Subscribe(l Listener[S]) (unsubscribe func()) {
	sub := &subscription[S]{active: true, fn: l}
	id := s.add(sub)
	return s.remover(id, sub)
}

// Sync blocks until every action dispatched before the call has been reduced
// and delivered.
func (s *Store[S]) Sync(ctx context.Context) error {
	reached := make(chan struct{})
	if !s.enqueue(task[S]{fn: func(S) { close(reached) }}) {
		return ErrClosed
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting actions, drains the queue and waits for the loop to
// exit. It must not be called from a listener.
func (s *Store[S]) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *Store[S]) enqueue(t task[S]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.queue = append(s.queue, t)
	s.cond.Signal()
	return true
}

func (s *Store[S]) add(sub *subscription[S]) uint64 {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextID++
	s.subs[s.nextID] = sub
	return s.nextID
}

func (s *Store[S]) remover(id uint64, sub *subscription[S]) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			sub.cancel()
		})
	}
}

func (s *Store[S]) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue[0] = task[S]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.run(t)
	}
}

func (s *Store[S]) run(t task[S]) {
	if t.fn != nil {
		t.fn(s.State())
		return
	}

	next := s.reducer(s.State(), t.action)
	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()
	if s.opts.metrics != nil {
		s.opts.metrics.actions.WithLabelValues(t.action.Type()).Inc()
	}

	s.subsMu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	subs := make([]*subscription[S], 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.deliver(next, t.action)
	}
}
