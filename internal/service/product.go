package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/event"
	"github.com/utafrali/catalogadmin/internal/repository"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxTopLimit     = 50
	sharedTimeout   = 10 * time.Second
)

// EventPublisher publishes product events. A nil publisher disables events.
type EventPublisher interface {
	PublishProductDeleted(ctx context.Context, data event.ProductDeletedData) error
}

// ProductService implements the catalog operations behind the dashboard.
type ProductService struct {
	repo     repository.ProductRepository
	producer EventPublisher
	logger   *slog.Logger
	top      singleflight.Group
}

// NewProductService creates a product service.
func NewProductService(repo repository.ProductRepository, producer EventPublisher, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// ListProducts returns one page of products localized into filter.Lang.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) (domain.ProductPage, error) {
	if filter.PageIndex < 0 {
		return domain.ProductPage{}, apperrors.InvalidInput("page index must not be negative")
	}
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return domain.ProductPage{}, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", filter.Status))
	}
	if filter.Lang == "" {
		filter.Lang = domain.DefaultLang
	}
	switch {
	case filter.PageSize <= 0:
		filter.PageSize = defaultPageSize
	case filter.PageSize > maxPageSize:
		filter.PageSize = maxPageSize
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return domain.ProductPage{Items: items, TotalNumber: total}, nil
}

// TopProducts returns the best sellers for lang. Concurrent calls for the
// same lang and limit share one query; a caller whose ctx ends stops waiting
// without cancelling the query for the others.
func (s *ProductService) TopProducts(ctx context.Context, lang domain.Lang, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > maxTopLimit {
		return nil, apperrors.InvalidInput(fmt.Sprintf("limit must be between 1 and %d", maxTopLimit))
	}
	if lang == "" {
		lang = domain.DefaultLang
	}

	key := string(lang) + ":" + strconv.Itoa(limit)
	ch := s.top.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedTimeout)
		defer cancel()
		return s.repo.TopProducts(qctx, lang, limit)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("top products: %w", res.Err)
		}
		shared, ok := res.Val.([]domain.Product)
		if !ok {
			return nil, fmt.Errorf("top products: unexpected result %T", res.Val)
		}
		return append([]domain.Product(nil), shared...), nil
	}
}

// GetProduct returns one product localized into lang.
func (s *ProductService) GetProduct(ctx context.Context, id string, lang domain.Lang) (*domain.Product, error) {
	if lang == "" {
		lang = domain.DefaultLang
	}
	product, err := s.repo.GetByID(ctx, id, lang)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// DeleteProduct deletes a product and publishes product.deleted. A failed
// publish is logged and does not fail the delete.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishProductDeleted(ctx, event.ProductDeletedData{ID: id}); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// Summary counts products grouped by dim.
func (s *ProductService) Summary(ctx context.Context, dim domain.SummaryDimension) (domain.Summary, error) {
	rows, err := s.repo.CountBy(ctx, dim)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize products by %s: %w", dim, err)
	}
	return domain.Summary{Dimension: dim, Rows: rows}, nil
}
