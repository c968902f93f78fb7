package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/effect"
	"github.com/utafrali/catalogadmin/internal/persistence"
	"github.com/utafrali/catalogadmin/internal/repository"
	"github.com/utafrali/catalogadmin/internal/service"
	"github.com/utafrali/catalogadmin/internal/session"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
	"github.com/utafrali/catalogadmin/pkg/health"
	"github.com/utafrali/catalogadmin/pkg/httputil"
	"github.com/utafrali/catalogadmin/pkg/logger"
	"github.com/utafrali/catalogadmin/pkg/middleware"
)

const (
	testSecret = "handler-test-secret"
	productID  = "6f1c1f5e-7a43-4c0e-9f8e-2f5e3d1b9a10"

	sessionPageSize = 20
	sessionTopLimit = 5
)

// =============================================================================
// Mock ProductRepository
// =============================================================================

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string, lang domain.Lang) (*domain.Product, error) {
	args := m.Called(ctx, id, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) TopProducts(ctx context.Context, lang domain.Lang, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, lang, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepo) CountBy(ctx context.Context, dim domain.SummaryDimension) ([]domain.SummaryRow, error) {
	args := m.Called(ctx, dim)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SummaryRow), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

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

type testServer struct {
	handler http.Handler
	repo    *mockProductRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	l := logger.NewWithWriter("test", "error", &bytes.Buffer{})
	repo := new(mockProductRepo)
	// Background fetches made by dashboard sessions.
	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.PageSize == sessionPageSize
	})).Return([]domain.Product{}, 0, nil).Maybe()
	repo.On("TopProducts", mock.Anything, mock.Anything, sessionTopLimit).Return([]domain.Product{}, nil).Maybe()

	svc := service.NewProductService(repo, nil, l)
	reg := prometheus.NewRegistry()
	storage := &memoryStorage{data: make(map[string][]byte)}
	sessions := session.NewManager(session.Deps{
		Catalog:  svc,
		Storage:  func(string) persistence.Service { return storage },
		Products: effect.ProductsConfig{PageSize: sessionPageSize, TopLimit: sessionTopLimit},
		Logger:   l,
	}, session.Config{IdleTimeout: time.Hour, SweepInterval: time.Hour}, reg)
	t.Cleanup(sessions.Close)

	cors := middleware.DefaultCORSConfig()
	cors.Environment = "test"
	return &testServer{
		repo: repo,
		handler: NewRouter(RouterConfig{
			ServiceName: "catalog-admin",
			Products:    svc,
			Sessions:    sessions,
			Health:      health.NewHandler(),
			Metrics:     middleware.NewHTTPMetrics(reg, "catalog-admin"),
			Gatherer:    reg,
			Validate:    middleware.HMACValidator(testSecret),
			CORS:        cors,
			Logger:      l,
		}),
	}
}

func token(t *testing.T, adminID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": adminID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.doAs(t, "admin-1", method, path, body)
}

func (s *testServer) doAs(t *testing.T, adminID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+token(t, adminID, AdminRole))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, into))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

// =============================================================================
// Auth
// =============================================================================

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RequiresAdminRole(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/state", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "u-1", "customer"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_HealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

// =============================================================================
// Products
// =============================================================================

func TestListProducts(t *testing.T) {
	s := newTestServer(t)
	items := []domain.Product{{ID: "a", Name: "Bottes"}}
	s.repo.On("List", mock.Anything, repository.ProductFilter{Lang: "fr", Search: "bot", PageIndex: 1, PageSize: 10}).
		Return(items, 11, nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/products?lang=fr&search=bot&page_index=1&page_size=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.PaginatedResponse[domain.Product]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, items, resp.Data)
	assert.Equal(t, 11, resp.TotalNumber)
	assert.Equal(t, 1, resp.PageIndex)
	assert.Equal(t, 2, resp.TotalPages)
	assert.False(t, resp.HasNext)
}

func TestListProducts_BadParams(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products?lang=french", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products?status=gone", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopProducts(t *testing.T) {
	s := newTestServer(t)
	s.repo.On("TopProducts", mock.Anything, domain.Lang("de"), 3).
		Return([]domain.Product{{ID: "t"}}, nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/products/top?lang=de&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.Product
	decodeData(t, rec, &got)
	assert.Equal(t, []domain.Product{{ID: "t"}}, got)

	rec = s.do(t, http.MethodGet, "/api/v1/products/top?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)
	s.repo.On("GetByID", mock.Anything, productID, domain.Lang("en")).
		Return(&domain.Product{ID: productID, Name: "Boots"}, nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/products/"+productID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Product
	decodeData(t, rec, &got)
	assert.Equal(t, "Boots", got.Name)
}

func TestGetProduct_Errors(t *testing.T) {
	s := newTestServer(t)
	s.repo.On("GetByID", mock.Anything, productID, domain.Lang("en")).
		Return(nil, apperrors.NotFound("product", productID)).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/products/"+productID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	s := newTestServer(t)
	s.repo.On("Delete", mock.Anything, productID).Return(nil).Once()

	rec := s.do(t, http.MethodDelete, "/api/v1/products/"+productID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	s.repo.AssertCalled(t, "Delete", mock.Anything, productID)
}

// =============================================================================
// Dashboard
// =============================================================================

func TestDashboard_StateAndLang(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/dashboard/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]any
	decodeData(t, rec, &snap)
	assert.Equal(t, "en", snap["lang"])
	assert.Equal(t, "grid", snap["view_mode"])

	rec = s.do(t, http.MethodPut, "/api/v1/dashboard/lang", `{"lang":"fr"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &snap)
	assert.Equal(t, "fr", snap["lang"])

	rec = s.do(t, http.MethodPut, "/api/v1/dashboard/page", `{"page_index":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &snap)
	assert.Equal(t, 3.0, snap["page_index"])

	rec = s.do(t, http.MethodPut, "/api/v1/dashboard/search", `{"search":"boot"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &snap)
	assert.Equal(t, "boot", snap["search"])
}

func TestDashboard_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path, body string
	}{
		{"/api/v1/dashboard/lang", `{"lang":"FRA"}`},
		{"/api/v1/dashboard/page", `{"page_index":-1}`},
		{"/api/v1/dashboard/page", `{}`},
		{"/api/v1/dashboard/view", `{"mode":"table"}`},
		{"/api/v1/dashboard/view", `{"mode":"grid","extra":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDashboard_ChangeViewIsSaved(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/dashboard/view", `{"mode":"list"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/v1/dashboard/state", "")
		var snap map[string]any
		decodeData(t, rec, &snap)
		return snap["view_mode"] == "list" && snap["view_persisted"] == true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDashboard_SessionsPerAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.doAs(t, "admin-a", http.MethodPut, "/api/v1/dashboard/lang", `{"lang":"de"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.doAs(t, "admin-b", http.MethodGet, "/api/v1/dashboard/state", "")
	var snap map[string]any
	decodeData(t, rec, &snap)
	assert.Equal(t, "en", snap["lang"])
}

func TestDashboard_ConfirmDeleteFlow(t *testing.T) {
	s := newTestServer(t)
	p := &domain.Product{ID: productID, Name: "Boots"}
	s.repo.On("GetByID", mock.Anything, productID, domain.Lang("en")).Return(p, nil)
	deleted := make(chan struct{})
	s.repo.On("Delete", mock.Anything, productID).Return(nil).Run(func(mock.Arguments) { close(deleted) }).Once()

	rec := s.do(t, http.MethodPost, "/api/v1/dashboard/products/"+productID+"/confirm-delete", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var d struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	decodeData(t, rec, &d)
	assert.Equal(t, "confirm-delete", d.Kind)

	rec = s.do(t, http.MethodGet, "/api/v1/dashboard/dialogs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), d.ID)

	rec = s.do(t, http.MethodPost, "/api/v1/dashboard/dialogs/"+d.ID+"/resolve", `{"result":"delete"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	select {
	case <-deleted:
	case <-time.After(2 * time.Second):
		t.Fatal("product was not deleted")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/dashboard/dialogs/"+d.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard_DismissDialog(t *testing.T) {
	s := newTestServer(t)
	s.repo.On("GetByID", mock.Anything, productID, domain.Lang("en")).Return(&domain.Product{ID: productID}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/dashboard/products/"+productID+"/details", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var d struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &d)

	rec = s.do(t, http.MethodDelete, "/api/v1/dashboard/dialogs/"+d.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/dashboard/dialogs/"+d.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
	s.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDashboard_ResolveBadResult(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/dashboard/dialogs/x/resolve", `{"result":"explode"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Summary and charts
// =============================================================================

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	rows := []domain.SummaryRow{{Label: "shoes", Count: 4}}
	s.repo.On("CountBy", mock.Anything, domain.SummaryByCategory).Return(rows, nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/dashboard/summary?by=category", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Summary
	decodeData(t, rec, &got)
	assert.Equal(t, domain.Summary{Dimension: domain.SummaryByCategory, Rows: rows}, got)

	rec = s.do(t, http.MethodGet, "/api/v1/dashboard/summary?by=color", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChart(t *testing.T) {
	s := newTestServer(t)
	s.repo.On("CountBy", mock.Anything, domain.SummaryByStatus).
		Return([]domain.SummaryRow{{Label: "published", Count: 3}, {Label: "draft", Count: 1}}, nil).Once()

	rec := s.do(t, http.MethodGet, "/dashboard/charts/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "published")
}
