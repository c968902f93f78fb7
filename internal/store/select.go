package store

// OnAction subscribes fn to actions of concrete type A only.
func OnAction[A Action, S any](s *Store[S], fn func(state S, action A)) (unsubscribe func()) {
	return s.Subscribe(func(state S, action Action) {
		if a, ok := action.(A); ok {
			fn(state, a)
		}
	})
}

// Select reads a projection of the current state.
func Select[S, T any](s *Store[S], selector func(S) T) T {
	return selector(s.State())
}

// Watch calls fn with selector's current value, then again each time the
// value changes. Registration happens on the dispatch loop, so the first value
// is the one in effect after every action dispatched before Watch. Combine
// several projections by returning a comparable struct from selector.
func Watch[S any, T comparable](s *Store[S], selector func(S) T, fn func(T)) (unsubscribe func()) {
	var last T
	sub := &subscription[S]{active: true}
	sub.fn = func(state S, _ Action) {
		if v := selector(state); v != last {
			last = v
			fn(v)
		}
	}

	var id uint64
	registered := make(chan struct{})
	ok := s.enqueue(task[S]{fn: func(state S) {
		defer close(registered)
		sub.mu.Lock()
		defer sub.mu.Unlock()
		if !sub.active {
			return
		}
		last = selector(state)
		id = s.add(sub)
		fn(last)
	}})
	if !ok {
		sub.cancel()
		return func() {}
	}

	return func() {
		sub.cancel()
		select {
		case <-registered:
		case <-s.done:
		}
		if id != 0 {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		}
	}
}
