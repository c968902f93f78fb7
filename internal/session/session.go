// Package session keeps one dashboard per authenticated admin: its store,
// effects, dialogs and products controller.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/catalogadmin/internal/controller"
	"github.com/utafrali/catalogadmin/internal/dialog"
	"github.com/utafrali/catalogadmin/internal/effect"
	"github.com/utafrali/catalogadmin/internal/persistence"
	"github.com/utafrali/catalogadmin/internal/state"
	"github.com/utafrali/catalogadmin/internal/store"
	"github.com/utafrali/catalogadmin/pkg/logger"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("session manager closed")

// Deps are shared by every session.
type Deps struct {
	Catalog effect.Catalog
	// Storage returns the preference store for one admin.
	Storage       func(namespace string) persistence.Service
	Products      effect.ProductsConfig
	StoreMetrics  *store.Metrics
	EffectMetrics *effect.Metrics
	Logger        *slog.Logger
}

// Config tunes eviction.
type Config struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// Session is the dashboard of one admin.
type Session struct {
	AdminID    string
	Store      *store.Store[state.AppState]
	Dialogs    *dialog.Manager
	Controller *controller.ProductsController

	view     *effect.ViewEffect
	products *effect.ProductsEffect
	cancel   context.CancelFunc
	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// close tears the session down from the outside in: the controller stops
// dispatching, effects finish their work, then the store drains.
func (s *Session) close() {
	s.Controller.Destroy()
	s.Dialogs.CloseAll()
	s.view.Close()
	s.products.Close()
	s.Store.Close()
	s.cancel()
}

// Manager creates sessions on first use and evicts idle ones.
type Manager struct {
	deps    Deps
	cfg     Config
	logger  *slog.Logger
	root    context.Context
	stop    context.CancelFunc
	now     func() time.Time
	active  prometheus.Gauge
	evicted prometheus.Counter

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup
}

// NewManager starts the idle janitor. reg may be nil.
func NewManager(deps Deps, cfg Config, reg prometheus.Registerer) *Manager {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	root, stop := context.WithCancel(context.Background())
	m := &Manager{
		deps:     deps,
		cfg:      cfg,
		logger:   logger.Component(deps.Logger, "sessions"),
		root:     root,
		stop:     stop,
		now:      time.Now,
		sessions: make(map[string]*Session),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_sessions_active",
			Help: "Dashboard sessions currently held in memory",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_sessions_evicted_total",
			Help: "Dashboard sessions closed after being idle",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.active, m.evicted)
	}

	m.wg.Add(1)
	go m.janitor()
	return m
}

// Get returns the admin's session, creating and initialising it on first use.
func (m *Manager) Get(adminID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if s, ok := m.sessions[adminID]; ok {
		s.touch(m.now())
		return s, nil
	}

	s := m.newSession(adminID)
	m.sessions[adminID] = s
	m.active.Set(float64(len(m.sessions)))
	m.logger.Info("dashboard session started", slog.String("admin_id", adminID))
	return s, nil
}

func (m *Manager) newSession(adminID string) *Session {
	ctx, cancel := context.WithCancel(logger.WithAdminID(m.root, adminID))

	var opts []store.Option
	opts = append(opts, store.WithLogger(m.deps.Logger))
	if m.deps.StoreMetrics != nil {
		opts = append(opts, store.WithMetrics(m.deps.StoreMetrics))
	}
	st := store.New(state.Initial(), state.Reduce, opts...)
	dialogs := dialog.NewManager()

	s := &Session{
		AdminID:  adminID,
		Store:    st,
		Dialogs:  dialogs,
		view:     effect.NewViewEffect(ctx, st, m.deps.Storage(adminID), m.deps.Logger, m.deps.EffectMetrics),
		products: effect.NewProductsEffect(ctx, st, m.deps.Catalog, m.deps.Products, m.deps.Logger, m.deps.EffectMetrics),
		cancel:   cancel,
	}
	s.Controller = controller.NewProductsController(ctx, st, dialogs, m.deps.Logger)
	s.touch(m.now())
	s.Controller.Init()
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the janitor and closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.active.Set(0)
	m.mu.Unlock()

	m.stop()
	m.wg.Wait()
	for _, s := range sessions {
		s.close()
	}
}

func (m *Manager) janitor() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.root.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep closes sessions idle for longer than IdleTimeout.
func (m *Manager) sweep() {
	if m.cfg.IdleTimeout <= 0 {
		return
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.active.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
		m.evicted.Inc()
		m.logger.Info("dashboard session evicted", slog.String("admin_id", s.AdminID))
	}
}
