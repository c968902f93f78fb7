// Package effect runs the asynchronous side effects of dashboard actions and
// reports their outcomes back to the store as follow-up actions.
package effect

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// runner owns the goroutines of one effect. Closing it cancels their context
// and waits for them.
type runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	unsubs []func()
}

func newRunner(parent context.Context) *runner {
	ctx, cancel := context.WithCancel(parent)
	return &runner{ctx: ctx, cancel: cancel}
}

func (r *runner) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

// close unsubscribes first so no listener can spawn while waiting.
func (r *runner) close() {
	for _, u := range r.unsubs {
		u()
	}
	r.cancel()
	r.wg.Wait()
}

// latest implements switch semantics for one kind of request: starting a job
// cancels the one in flight, and only the newest job may publish its outcome.
type latest struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (l *latest) start(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return ctx, l.gen
}

// finish runs publish if gen is still the newest job and ctx was not
// canceled, and reports whether it did. The check and publish happen under
// the lock so a newer start cannot interleave.
func (l *latest) finish(ctx context.Context, gen uint64, publish func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen || ctx.Err() != nil {
		return false
	}
	l.cancel()
	l.cancel = nil
	if publish != nil {
		publish()
	}
	return true
}

// Metrics counts effect outcomes.
type Metrics struct {
	viewPersist *prometheus.CounterVec
	superseded  *prometheus.CounterVec
}

// NewMetrics creates and registers the effect collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		viewPersist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_view_persist_total",
			Help: "View mode changes by outcome (stored, fallback, superseded)",
		}, []string{"outcome"}),
		superseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_effect_superseded_total",
			Help: "Effect results discarded because a newer request replaced them",
		}, []string{"effect"}),
	}
	reg.MustRegister(m.viewPersist, m.superseded)
	return m
}

func (m *Metrics) persist(outcome string) {
	if m != nil {
		m.viewPersist.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) supersede(effect string) {
	if m != nil {
		m.superseded.WithLabelValues(effect).Inc()
	}
}
