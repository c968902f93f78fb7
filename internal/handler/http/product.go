package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/repository"
	"github.com/utafrali/catalogadmin/pkg/httputil"
	"github.com/utafrali/catalogadmin/pkg/pagination"
)

// ProductService is the catalog behind the product and summary endpoints.
type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) (domain.ProductPage, error)
	TopProducts(ctx context.Context, lang domain.Lang, limit int) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string, lang domain.Lang) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Summary(ctx context.Context, dim domain.SummaryDimension) (domain.Summary, error)
}

// ProductHandler serves the stateless product endpoints.
type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a product HTTP handler.
func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	lang, ok := langParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !domain.IsValidStatus(status) {
		httputil.WriteBadParam(w, "status must be one of: draft, published, archived")
		return
	}

	params := pagination.FromRequest(r, pagination.DefaultPageSize)
	page, err := h.service.ListProducts(r.Context(), repository.ProductFilter{
		Lang:      lang,
		Search:    q.Get("search"),
		Status:    status,
		PageIndex: params.PageIndex,
		PageSize:  params.PageSize,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(page.Items, page.TotalNumber, params))
}

// TopProducts handles GET /api/v1/products/top
func (h *ProductHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	lang, ok := langParam(w, r)
	if !ok {
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			httputil.WriteBadParam(w, "limit must be an integer between 1 and 50")
			return
		}
		limit = n
	}

	items, err := h.service.TopProducts(r.Context(), lang, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, items)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	lang, ok := langParam(w, r)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String(), lang)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func langParam(w http.ResponseWriter, r *http.Request) (domain.Lang, bool) {
	lang, err := domain.ParseLang(r.URL.Query().Get("lang"))
	if err != nil {
		httputil.WriteBadParam(w, "lang must be a two-letter language code")
		return "", false
	}
	return lang, true
}
