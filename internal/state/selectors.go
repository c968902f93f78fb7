package state

import (
	"strings"

	"github.com/utafrali/catalogadmin/internal/domain"
)

// Products returns the current page filtered by the search text, matched
// case-insensitively against the product name.
func Products(s AppState) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(s.Products.Search))
	if q == "" {
		return s.Products.Items
	}
	out := make([]domain.Product, 0, len(s.Products.Items))
	for _, p := range s.Products.Items {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

func PageIndex(s AppState) int                { return s.Products.PageIndex }
func TotalNumber(s AppState) int              { return s.Products.TotalNumber }
func TopProducts(s AppState) []domain.Product { return s.TopProducts.Items }
func Search(s AppState) string                { return s.Products.Search }
func Lang(s AppState) domain.Lang             { return s.Lang }
func IsLoading(s AppState) bool               { return s.Products.IsLoading }
func IsGlobalLoading(s AppState) bool         { return s.TopProducts.IsLoading }
func ViewMode(s AppState) domain.ViewMode     { return s.View.Mode }
func ViewPersisted(s AppState) bool           { return s.View.Persisted }

// Query is the pair a product page is fetched by.
type Query struct {
	Lang      domain.Lang
	PageIndex int
}

// ProductsQuery combines Lang and PageIndex.
func ProductsQuery(s AppState) Query {
	return Query{Lang: s.Lang, PageIndex: s.Products.PageIndex}
}

// DashboardSnapshot is the JSON view of AppState.
type DashboardSnapshot struct {
	Lang            domain.Lang      `json:"lang"`
	Products        []domain.Product `json:"products"`
	PageIndex       int              `json:"page_index"`
	TotalNumber     int              `json:"total_number"`
	Search          string           `json:"search"`
	IsLoading       bool             `json:"is_loading"`
	ProductsError   string           `json:"products_error,omitempty"`
	TopProducts     []domain.Product `json:"top_products"`
	IsGlobalLoading bool             `json:"is_global_loading"`
	TopError        string           `json:"top_products_error,omitempty"`
	Deleting        string           `json:"deleting,omitempty"`
	DeleteError     string           `json:"delete_error,omitempty"`
	ViewMode        domain.ViewMode  `json:"view_mode"`
	ViewPersisted   bool             `json:"view_persisted"`
}

// Snapshot projects s for the API.
func Snapshot(s AppState) DashboardSnapshot {
	snap := DashboardSnapshot{
		Lang:            s.Lang,
		Products:        Products(s),
		PageIndex:       s.Products.PageIndex,
		TotalNumber:     s.Products.TotalNumber,
		Search:          s.Products.Search,
		IsLoading:       s.Products.IsLoading,
		ProductsError:   s.Products.Err,
		TopProducts:     s.TopProducts.Items,
		IsGlobalLoading: s.TopProducts.IsLoading,
		TopError:        s.TopProducts.Err,
		DeleteError:     s.StoredProduct.Err,
		ViewMode:        s.View.Mode,
		ViewPersisted:   s.View.Persisted,
	}
	if s.StoredProduct.IsDeleting {
		snap.Deleting = s.StoredProduct.ProductID
	}
	if snap.Products == nil {
		snap.Products = []domain.Product{}
	}
	if snap.TopProducts == nil {
		snap.TopProducts = []domain.Product{}
	}
	return snap
}
