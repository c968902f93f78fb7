package effect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/persistence"
	"github.com/utafrali/catalogadmin/internal/state"
	"github.com/utafrali/catalogadmin/internal/store"
	"github.com/utafrali/catalogadmin/pkg/logger"
)

// ViewModeKey is the storage key of the products view mode.
const ViewModeKey = "view-mode"

// ViewEffect keeps the chosen view mode in persistent storage.
//
// Every ChangeView that is not superseded yields exactly one action:
// SetViewFromStorage with the value read back from storage when the write
// succeeds, or SetViewFromComponent with the requested mode when anything
// fails. Errors never reach the store. A newer ChangeView or LoadView
// cancels the one in flight and its outcome is dropped. There is no retry.
type ViewEffect struct {
	store   *store.Store[state.AppState]
	svc     persistence.Service
	logger  *slog.Logger
	metrics *Metrics
	run     *runner
	group   latest
}

// NewViewEffect subscribes the effect to st. ctx scopes its background work;
// Close stops it.
func NewViewEffect(ctx context.Context, st *store.Store[state.AppState], svc persistence.Service, l *slog.Logger, m *Metrics) *ViewEffect {
	e := &ViewEffect{
		store:   st,
		svc:     svc,
		logger:  logger.WithContext(ctx, logger.Component(l, "view-effect")),
		metrics: m,
		run:     newRunner(ctx),
	}
	e.run.unsubs = append(e.run.unsubs,
		store.OnAction(st, func(_ state.AppState, a state.ChangeView) { e.changeView(a) }),
		store.OnAction(st, func(_ state.AppState, _ state.LoadView) { e.loadView() }),
	)
	return e
}

// Close cancels in-flight work and waits for it. No action is dispatched
// after Close returns.
func (e *ViewEffect) Close() {
	e.run.close()
}

func (e *ViewEffect) changeView(a state.ChangeView) {
	ctx, gen := e.group.start(e.run.ctx)
	e.run.spawn(func() {
		out, outcome := e.persist(ctx, a.Mode)
		if !e.group.finish(ctx, gen, func() { e.store.Dispatch(out) }) {
			e.metrics.persist("superseded")
			return
		}
		e.metrics.persist(outcome)
	})
}

func (e *ViewEffect) persist(ctx context.Context, requested domain.ViewMode) (store.Action, string) {
	stored, err := persistence.Set(ctx, e.svc, ViewModeKey, requested)
	if err == nil && !stored.Valid() {
		err = fmt.Errorf("storage returned invalid view mode %q", stored)
	}
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("view mode not saved, applying requested mode",
				slog.String("mode", string(requested)),
				slog.String("error", err.Error()),
			)
		}
		return state.SetViewFromComponent{Mode: requested}, "fallback"
	}
	return state.SetViewFromStorage{Mode: stored}, "stored"
}

func (e *ViewEffect) loadView() {
	ctx, gen := e.group.start(e.run.ctx)
	e.run.spawn(func() {
		mode, err := persistence.Get[domain.ViewMode](ctx, e.svc, ViewModeKey)
		switch {
		case err == nil && mode.Valid():
			e.group.finish(ctx, gen, func() { e.store.Dispatch(state.SetViewFromStorage{Mode: mode}) })
			return
		case persistence.IsNotFound(err):
			e.logger.Debug("no saved view mode")
		case err != nil && ctx.Err() == nil:
			e.logger.Warn("load view mode failed", slog.String("error", err.Error()))
		case err == nil:
			e.logger.Warn("ignoring invalid saved view mode", slog.String("mode", string(mode)))
		}
		e.group.finish(ctx, gen, nil)
	})
}
