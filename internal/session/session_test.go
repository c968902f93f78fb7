package session

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/effect"
	"github.com/utafrali/catalogadmin/internal/persistence"
	"github.com/utafrali/catalogadmin/internal/repository"
	"github.com/utafrali/catalogadmin/internal/state"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
	"github.com/utafrali/catalogadmin/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *memoryStorage) Set(_ context.Context, key string, value []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return value, nil
}

func (s *memoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, apperrors.NotFound("preference", key)
	}
	return v, nil
}

type stubCatalog struct{}

func (stubCatalog) ListProducts(_ context.Context, f repository.ProductFilter) (domain.ProductPage, error) {
	return domain.ProductPage{Items: []domain.Product{{ID: "p-" + string(f.Lang)}}, TotalNumber: 1}, nil
}

func (stubCatalog) TopProducts(context.Context, domain.Lang, int) ([]domain.Product, error) {
	return []domain.Product{{ID: "top"}}, nil
}

func (stubCatalog) DeleteProduct(context.Context, string) error { return nil }

type fixture struct {
	mgr     *Manager
	storage map[string]*memoryStorage
	mu      sync.Mutex
}

func setup(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{storage: make(map[string]*memoryStorage)}
	reg := prometheus.NewRegistry()
	l := logger.NewWithWriter("test", "error", &bytes.Buffer{})
	f.mgr = NewManager(Deps{
		Catalog: stubCatalog{},
		Storage: func(ns string) persistence.Service {
			f.mu.Lock()
			defer f.mu.Unlock()
			s, ok := f.storage[ns]
			if !ok {
				s = &memoryStorage{data: make(map[string][]byte)}
				f.storage[ns] = s
			}
			return s
		},
		Products:      effect.ProductsConfig{PageSize: 10, TopLimit: 3},
		EffectMetrics: effect.NewMetrics(reg),
		Logger:        l,
	}, cfg, reg)
	t.Cleanup(f.mgr.Close)
	return f
}

func eventually(t *testing.T, s *Session, cond func(state.AppState) bool) {
	t.Helper()
	assert.Eventually(t, func() bool { return cond(s.Store.State()) }, 2*time.Second, 5*time.Millisecond)
}

func TestGet_CreatesAndInitialises(t *testing.T) {
	f := setup(t, Config{IdleTimeout: time.Hour, SweepInterval: time.Hour})

	s, err := f.mgr.Get("admin-1")
	require.NoError(t, err)

	eventually(t, s, func(st state.AppState) bool {
		return len(st.Products.Items) == 1 && len(st.TopProducts.Items) == 1
	})
	assert.Equal(t, "p-en", s.Store.State().Products.Items[0].ID)

	again, err := f.mgr.Get("admin-1")
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, f.mgr.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.mgr.active))
}

func TestSessions_AreIsolated(t *testing.T) {
	f := setup(t, Config{IdleTimeout: time.Hour, SweepInterval: time.Hour})

	a, err := f.mgr.Get("admin-a")
	require.NoError(t, err)
	b, err := f.mgr.Get("admin-b")
	require.NoError(t, err)

	a.Controller.ChangeView(domain.ViewModeList)
	eventually(t, a, func(st state.AppState) bool { return st.View.Persisted && st.View.Mode == domain.ViewModeList })

	assert.Equal(t, domain.DefaultViewMode, b.Store.State().View.Mode)

	f.mu.Lock()
	stored := string(f.storage["admin-a"].data[effect.ViewModeKey])
	_, bWrote := f.storage["admin-b"].data[effect.ViewModeKey]
	f.mu.Unlock()
	assert.Equal(t, `"list"`, stored)
	assert.False(t, bWrote)
}

func TestSweep_EvictsIdle(t *testing.T) {
	f := setup(t, Config{IdleTimeout: time.Minute, SweepInterval: time.Hour})
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.mgr.now = func() time.Time { return now }

	_, err := f.mgr.Get("old")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = f.mgr.Get("fresh")
	require.NoError(t, err)

	f.mgr.sweep()

	assert.Equal(t, 1, f.mgr.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.mgr.evicted))

	s, err := f.mgr.Get("old")
	require.NoError(t, err)
	assert.NotNil(t, s, "evicted admin gets a fresh session")
	assert.Equal(t, 2, f.mgr.Len())
}

func TestSavedViewRestoredOnNewSession(t *testing.T) {
	f := setup(t, Config{IdleTimeout: time.Minute, SweepInterval: time.Hour})
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.mgr.now = func() time.Time { return now }

	s, err := f.mgr.Get("admin-1")
	require.NoError(t, err)
	s.Controller.ChangeView(domain.ViewModeList)
	eventually(t, s, func(st state.AppState) bool { return st.View.Persisted })

	now = now.Add(time.Hour)
	f.mgr.sweep()

	s2, err := f.mgr.Get("admin-1")
	require.NoError(t, err)
	require.NotSame(t, s, s2)
	eventually(t, s2, func(st state.AppState) bool { return st.View.Mode == domain.ViewModeList })
}

func TestClose(t *testing.T) {
	f := setup(t, Config{IdleTimeout: time.Hour, SweepInterval: time.Hour})
	_, err := f.mgr.Get("admin-1")
	require.NoError(t, err)

	f.mgr.Close()
	f.mgr.Close()

	_, err = f.mgr.Get("admin-1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, f.mgr.Len())
}
