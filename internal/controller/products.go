package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/utafrali/catalogadmin/internal/dialog"
	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/state"
	"github.com/utafrali/catalogadmin/internal/store"
	"github.com/utafrali/catalogadmin/pkg/logger"
)

// ErrDestroyed is returned by operations on a destroyed controller.
var ErrDestroyed = errors.New("controller destroyed")

// ProductsController drives the products screen of one dashboard session.
// It keeps the product page and top products in step with the selected
// language and page, and turns resolved dialogs into deletes.
type ProductsController struct {
	store   *store.Store[state.AppState]
	dialogs *dialog.Manager
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	unsubs    []func()
	started   bool
	destroyed bool
}

// NewProductsController creates a controller. Nothing is dispatched until Init.
func NewProductsController(ctx context.Context, st *store.Store[state.AppState], dialogs *dialog.Manager, l *slog.Logger) *ProductsController {
	ctx, cancel := context.WithCancel(ctx)
	return &ProductsController{
		store:   st,
		dialogs: dialogs,
		logger:  logger.WithContext(ctx, logger.Component(l, "products-controller")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init clears the search, loads the saved view mode and starts fetching
// products whenever the language or page changes. Calls after the first are
// no-ops.
func (c *ProductsController) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.destroyed {
		return
	}
	c.started = true

	c.store.Dispatch(state.SearchProduct{Search: ""})
	c.store.Dispatch(state.LoadView{})

	c.unsubs = append(c.unsubs,
		store.Watch(c.store, state.ProductsQuery, func(q state.Query) {
			if c.ctx.Err() != nil {
				return
			}
			c.store.Dispatch(state.GetProducts{Lang: q.Lang, PageIndex: q.PageIndex})
		}),
		store.Watch(c.store, state.Lang, func(l domain.Lang) {
			if c.ctx.Err() != nil {
				return
			}
			c.store.Dispatch(state.GetTopProducts{Lang: l})
		}),
	)
}

// Destroy stops every watch and dialog waiter. No handler runs after it
// returns.
func (c *ProductsController) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	c.cancel()
	for _, unsub := range unsubs {
		unsub()
	}
	c.wg.Wait()
	c.logger.Debug("products controller destroyed")
}

// OnPageChange selects a page.
func (c *ProductsController) OnPageChange(pageIndex int) {
	c.dispatch(state.ChangePage{PageIndex: pageIndex})
}

// ChangeLang selects the product language.
func (c *ProductsController) ChangeLang(lang domain.Lang) {
	c.dispatch(state.ChangeLang{Lang: lang})
}

// Search filters the current page by name.
func (c *ProductsController) Search(search string) {
	c.dispatch(state.SearchProduct{Search: search})
}

// ChangeView asks for mode to be shown and saved.
func (c *ProductsController) ChangeView(mode domain.ViewMode) {
	c.dispatch(state.ChangeView{Mode: mode})
}

// ShowProductDetails opens the details dialog for p. Resolving it with
// dialog.ResultDelete deletes p.
func (c *ProductsController) ShowProductDetails(p domain.Product) (dialog.Dialog, error) {
	return c.open(dialog.KindDetails, p)
}

// ShowConfirmDeleteDialog opens the delete confirmation for p.
func (c *ProductsController) ShowConfirmDeleteDialog(p domain.Product) (dialog.Dialog, error) {
	return c.open(dialog.KindConfirmDelete, p)
}

// OnDeleteProduct deletes p in the current language.
func (c *ProductsController) OnDeleteProduct(p domain.Product) {
	lang := store.Select(c.store, state.Lang)
	c.dispatch(state.DeleteProduct{Product: p, Lang: lang})
}

func (c *ProductsController) open(kind dialog.Kind, p domain.Product) (dialog.Dialog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return dialog.Dialog{}, ErrDestroyed
	}

	h := c.dialogs.Open(kind, p)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer h.Close()

		result, ok := h.Wait(c.ctx)
		if !ok || result != dialog.ResultDelete || c.ctx.Err() != nil {
			return
		}
		c.logger.Info("dialog confirmed delete",
			slog.String("dialog_id", h.ID()),
			slog.String("kind", string(kind)),
			slog.String("product_id", p.ID),
		)
		c.OnDeleteProduct(p)
	}()
	return h.Dialog(), nil
}

func (c *ProductsController) dispatch(a store.Action) {
	if c.ctx.Err() != nil {
		return
	}
	c.store.Dispatch(a)
}
