package repository

import (
	"context"

	"github.com/utafrali/catalogadmin/internal/domain"
)

// ProductFilter selects one page of localized products.
type ProductFilter struct {
	Lang      domain.Lang
	Search    string
	Status    string
	PageIndex int
	PageSize  int
}

// ProductRepository reads and deletes catalog products.
type ProductRepository interface {
	// List returns the requested page and the total number of matches.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// GetByID returns one product localized into lang.
	GetByID(ctx context.Context, id string, lang domain.Lang) (*domain.Product, error)

	// TopProducts returns the best-selling published products.
	TopProducts(ctx context.Context, lang domain.Lang, limit int) ([]domain.Product, error)

	// Delete removes a product and its translations.
	Delete(ctx context.Context, id string) error

	// CountBy groups products by dimension.
	CountBy(ctx context.Context, dimension domain.SummaryDimension) ([]domain.SummaryRow, error)
}
