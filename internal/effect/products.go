package effect

import (
	"context"
	"log/slog"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/repository"
	"github.com/utafrali/catalogadmin/internal/state"
	"github.com/utafrali/catalogadmin/internal/store"
	"github.com/utafrali/catalogadmin/pkg/logger"
)

// Catalog is the product service the effect calls.
type Catalog interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) (domain.ProductPage, error)
	TopProducts(ctx context.Context, lang domain.Lang, limit int) ([]domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductsConfig sizes the fetches.
type ProductsConfig struct {
	PageSize int
	TopLimit int
}

// ProductsEffect fetches product pages and top products and deletes
// products. List and top fetches follow switch semantics; deletes run
// independently and refresh both lists when they succeed.
type ProductsEffect struct {
	store   *store.Store[state.AppState]
	catalog Catalog
	cfg     ProductsConfig
	logger  *slog.Logger
	metrics *Metrics
	run     *runner
	list    latest
	top     latest
}

// NewProductsEffect subscribes the effect to st.
func NewProductsEffect(ctx context.Context, st *store.Store[state.AppState], catalog Catalog, cfg ProductsConfig, l *slog.Logger, m *Metrics) *ProductsEffect {
	e := &ProductsEffect{
		store:   st,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.WithContext(ctx, logger.Component(l, "products-effect")),
		metrics: m,
		run:     newRunner(ctx),
	}
	e.run.unsubs = append(e.run.unsubs,
		store.OnAction(st, func(_ state.AppState, a state.GetProducts) { e.getProducts(a) }),
		store.OnAction(st, func(_ state.AppState, a state.GetTopProducts) { e.getTopProducts(a) }),
		store.OnAction(st, func(_ state.AppState, a state.DeleteProduct) { e.deleteProduct(a) }),
	)
	return e
}

// Close cancels in-flight work and waits for it.
func (e *ProductsEffect) Close() {
	e.run.close()
}

func (e *ProductsEffect) getProducts(a state.GetProducts) {
	ctx, gen := e.list.start(e.run.ctx)
	e.run.spawn(func() {
		page, err := e.catalog.ListProducts(ctx, repository.ProductFilter{
			Lang:      a.Lang,
			PageIndex: a.PageIndex,
			PageSize:  e.cfg.PageSize,
		})
		var out store.Action = state.GetProductsSuccess{
			Products:    page.Items,
			TotalNumber: page.TotalNumber,
			PageSize:    e.cfg.PageSize,
		}
		if err != nil {
			out = state.GetProductsFailure{Err: err}
		}
		if !e.list.finish(ctx, gen, func() { e.store.Dispatch(out) }) {
			e.metrics.supersede("get_products")
			return
		}
		if err != nil {
			e.logger.Error("get products failed",
				slog.String("lang", a.Lang.String()),
				slog.Int("page_index", a.PageIndex),
				slog.String("error", err.Error()),
			)
		}
	})
}

func (e *ProductsEffect) getTopProducts(a state.GetTopProducts) {
	ctx, gen := e.top.start(e.run.ctx)
	e.run.spawn(func() {
		items, err := e.catalog.TopProducts(ctx, a.Lang, e.cfg.TopLimit)
		var out store.Action = state.GetTopProductsSuccess{Products: items}
		if err != nil {
			out = state.GetTopProductsFailure{Err: err}
		}
		if !e.top.finish(ctx, gen, func() { e.store.Dispatch(out) }) {
			e.metrics.supersede("get_top_products")
			return
		}
		if err != nil {
			e.logger.Error("get top products failed", slog.String("error", err.Error()))
		}
	})
}

func (e *ProductsEffect) deleteProduct(a state.DeleteProduct) {
	ctx := e.run.ctx
	e.run.spawn(func() {
		err := e.catalog.DeleteProduct(ctx, a.Product.ID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			e.logger.Warn("delete product failed",
				slog.String("product_id", a.Product.ID),
				slog.String("error", err.Error()),
			)
			e.store.Dispatch(state.DeleteProductFailure{ProductID: a.Product.ID, Err: err})
			return
		}
		e.logger.Info("product deleted", slog.String("product_id", a.Product.ID))
		e.store.Dispatch(state.DeleteProductSuccess{ProductID: a.Product.ID, Lang: a.Lang})
		e.store.Dispatch(state.GetProducts{Lang: a.Lang, PageIndex: store.Select(e.store, state.PageIndex)})
		e.store.Dispatch(state.GetTopProducts{Lang: a.Lang})
	})
}
