// Package state defines the dashboard's application state, the actions that
// change it, its reducer, and read-only selectors over it.
package state

import (
	"github.com/utafrali/catalogadmin/internal/domain"
)

// ProductsState is the paged product list.
type ProductsState struct {
	Items       []domain.Product
	PageIndex   int
	TotalNumber int
	Search      string
	IsLoading   bool
	Err         string
}

// TopProductsState is the best-sellers panel.
type TopProductsState struct {
	Items     []domain.Product
	IsLoading bool
	Err       string
}

// StoredProductState tracks the product being deleted.
type StoredProductState struct {
	ProductID  string
	IsDeleting bool
	Err        string
}

// ViewState is the list layout and whether it was saved.
type ViewState struct {
	Mode      domain.ViewMode
	Persisted bool
}

// AppState is the whole dashboard state of one admin.
type AppState struct {
	Lang          domain.Lang
	Products      ProductsState
	TopProducts   TopProductsState
	StoredProduct StoredProductState
	View          ViewState
}

// Initial returns the state of a fresh session.
func Initial() AppState {
	return AppState{
		Lang: domain.DefaultLang,
		View: ViewState{Mode: domain.DefaultViewMode},
	}
}
