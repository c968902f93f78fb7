package state

import (
	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/store"
)

// Reduce returns the state after action. Slices are never mutated in place.
func Reduce(s AppState, action store.Action) AppState {
	switch a := action.(type) {
	case SetViewFromStorage:
		s.View = ViewState{Mode: a.Mode, Persisted: true}
	case SetViewFromComponent:
		s.View = ViewState{Mode: a.Mode, Persisted: false}

	case ChangeLang:
		s.Lang = a.Lang

	case GetProducts:
		s.Products.IsLoading = true
		s.Products.Err = ""
	case GetProductsSuccess:
		s.Products.Items = a.Products
		s.Products.TotalNumber = a.TotalNumber
		s.Products.IsLoading = false
		if len(a.Products) == 0 {
			s.Products.PageIndex = clampPage(s.Products.PageIndex, a.TotalNumber, a.PageSize)
		}
	case GetProductsFailure:
		s.Products.IsLoading = false
		s.Products.Err = errString(a.Err)
	case ChangePage:
		if a.PageIndex >= 0 {
			s.Products.PageIndex = a.PageIndex
		}
	case SearchProduct:
		s.Products.Search = a.Search

	case DeleteProduct:
		s.StoredProduct = StoredProductState{ProductID: a.Product.ID, IsDeleting: true}
	case DeleteProductSuccess:
		s.StoredProduct = StoredProductState{ProductID: a.ProductID}
		if items, ok := without(s.Products.Items, a.ProductID); ok {
			s.Products.Items = items
			s.Products.TotalNumber--
		}
		s.TopProducts.Items, _ = without(s.TopProducts.Items, a.ProductID)
	case DeleteProductFailure:
		s.StoredProduct = StoredProductState{ProductID: a.ProductID, Err: errString(a.Err)}

	case GetTopProducts:
		s.TopProducts.IsLoading = true
		s.TopProducts.Err = ""
	case GetTopProductsSuccess:
		s.TopProducts.Items = a.Products
		s.TopProducts.IsLoading = false
	case GetTopProductsFailure:
		s.TopProducts.IsLoading = false
		s.TopProducts.Err = errString(a.Err)
	}
	return s
}

// clampPage moves an index past the last page back onto it, e.g. after the
// only product of the last page was deleted.
func clampPage(index, total, size int) int {
	if size <= 0 || index <= 0 {
		return index
	}
	last := 0
	if total > 0 {
		last = (total - 1) / size
	}
	return min(index, last)
}

func without(items []domain.Product, id string) ([]domain.Product, bool) {
	for i := range items {
		if items[i].ID != id {
			continue
		}
		out := make([]domain.Product, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...), true
	}
	return items, false
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
