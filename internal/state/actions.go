package state

import (
	"github.com/utafrali/catalogadmin/internal/domain"
)

// View mode actions.
type (
	// ChangeView asks for the view mode to be changed and saved.
	ChangeView struct{ Mode domain.ViewMode }
	// SetViewFromStorage applies a mode read back from persistent storage.
	SetViewFromStorage struct{ Mode domain.ViewMode }
	// SetViewFromComponent applies the requested mode without it being saved.
	SetViewFromComponent struct{ Mode domain.ViewMode }
	// LoadView asks for the saved mode to be loaded.
	LoadView struct{}
)

func (ChangeView) Type() string           { return "[Products View] Change View" }
func (SetViewFromStorage) Type() string   { return "[Products View] Set View From Storage" }
func (SetViewFromComponent) Type() string { return "[Products View] Set View From Component" }
func (LoadView) Type() string             { return "[Products View] Load View" }

// ChangeLang switches the language products are shown in.
type ChangeLang struct{ Lang domain.Lang }

func (ChangeLang) Type() string { return "[Lang] Change Lang" }

// Product list actions.
type (
	GetProducts struct {
		Lang      domain.Lang
		PageIndex int
	}
	GetProductsSuccess struct {
		Products    []domain.Product
		TotalNumber int
		// PageSize is the size the page was fetched with; zero disables
		// clamping of the page index.
		PageSize    int
	}
	GetProductsFailure struct{ Err error }
	ChangePage         struct{ PageIndex int }
	SearchProduct      struct{ Search string }
)

func (GetProducts) Type() string        { return "[Product] Get Products" }
func (GetProductsSuccess) Type() string { return "[Product] Get Products Success" }
func (GetProductsFailure) Type() string { return "[Product] Get Products Failure" }
func (ChangePage) Type() string         { return "[Product] Change Page" }
func (SearchProduct) Type() string      { return "[Product] Search Product" }

// Delete actions.
type (
	DeleteProduct struct {
		Product domain.Product
		Lang    domain.Lang
	}
	DeleteProductSuccess struct {
		ProductID string
		Lang      domain.Lang
	}
	DeleteProductFailure struct {
		ProductID string
		Err       error
	}
)

func (DeleteProduct) Type() string        { return "[Stored Product] Delete Product" }
func (DeleteProductSuccess) Type() string { return "[Stored Product] Delete Product Success" }
func (DeleteProductFailure) Type() string { return "[Stored Product] Delete Product Failure" }

// Top products actions.
type (
	GetTopProducts        struct{ Lang domain.Lang }
	GetTopProductsSuccess struct{ Products []domain.Product }
	GetTopProductsFailure struct{ Err error }
)

func (GetTopProducts) Type() string        { return "[Top Products] Get Top Products" }
func (GetTopProductsSuccess) Type() string { return "[Top Products] Get Top Products Success" }
func (GetTopProductsFailure) Type() string { return "[Top Products] Get Top Products Failure" }
