package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalogadmin/internal/dialog"
	"github.com/utafrali/catalogadmin/internal/domain"
	"github.com/utafrali/catalogadmin/internal/session"
	"github.com/utafrali/catalogadmin/internal/state"
	"github.com/utafrali/catalogadmin/internal/store"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
	"github.com/utafrali/catalogadmin/pkg/httputil"
	"github.com/utafrali/catalogadmin/pkg/middleware"
	"github.com/utafrali/catalogadmin/pkg/validator"
)

// syncTimeout bounds how long a handler waits for its action to be reduced.
const syncTimeout = 2 * time.Second

// Sessions hands out the dashboard of the calling admin.
type Sessions interface {
	Get(adminID string) (*session.Session, error)
}

// --- Request DTOs ---

// ChangeLangRequest is the body of PUT /dashboard/lang.
type ChangeLangRequest struct {
	Lang string `json:"lang" validate:"required,lang"`
}

// ChangePageRequest is the body of PUT /dashboard/page.
type ChangePageRequest struct {
	PageIndex *int `json:"page_index" validate:"required,gte=0"`
}

// SearchRequest is the body of PUT /dashboard/search.
type SearchRequest struct {
	Search string `json:"search" validate:"max=200"`
}

// ChangeViewRequest is the body of PUT /dashboard/view.
type ChangeViewRequest struct {
	Mode string `json:"mode" validate:"required,oneof=grid list"`
}

// DashboardHandler serves the per-admin dashboard endpoints.
type DashboardHandler struct {
	sessions Sessions
	products ProductService
	logger   *slog.Logger
}

// NewDashboardHandler creates a dashboard HTTP handler.
func NewDashboardHandler(sessions Sessions, products ProductService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, products: products, logger: logger}
}

// State handles GET /api/v1/dashboard/state
func (h *DashboardHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, state.Snapshot(sess.Store.State()))
}

// ChangeLang handles PUT /api/v1/dashboard/lang
func (h *DashboardHandler) ChangeLang(w http.ResponseWriter, r *http.Request) {
	var req ChangeLangRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Controller.ChangeLang(domain.Lang(req.Lang))
	h.writeSnapshot(w, r, sess)
}

// ChangePage handles PUT /api/v1/dashboard/page
func (h *DashboardHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	var req ChangePageRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Controller.OnPageChange(*req.PageIndex)
	h.writeSnapshot(w, r, sess)
}

// Search handles PUT /api/v1/dashboard/search
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Search(req.Search)
	h.writeSnapshot(w, r, sess)
}

// ChangeView handles PUT /api/v1/dashboard/view. The mode is saved in the
// background, so the response only acknowledges the request.
func (h *DashboardHandler) ChangeView(w http.ResponseWriter, r *http.Request) {
	var req ChangeViewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	mode := domain.ViewMode(req.Mode)
	sess.Controller.ChangeView(mode)
	httputil.WriteData(w, http.StatusAccepted, map[string]domain.ViewMode{"requested_mode": mode})
}

// ShowDetails handles POST /api/v1/dashboard/products/{id}/details
func (h *DashboardHandler) ShowDetails(w http.ResponseWriter, r *http.Request) {
	h.openDialog(w, r, dialog.KindDetails)
}

// ConfirmDelete handles POST /api/v1/dashboard/products/{id}/confirm-delete
func (h *DashboardHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	h.openDialog(w, r, dialog.KindConfirmDelete)
}

func (h *DashboardHandler) openDialog(w http.ResponseWriter, r *http.Request, kind dialog.Kind) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	lang := store.Select(sess.Store, state.Lang)
	product, err := h.products.GetProduct(r.Context(), id.String(), lang)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var d dialog.Dialog
	switch kind {
	case dialog.KindDetails:
		d, err = sess.Controller.ShowProductDetails(*product)
	default:
		d, err = sess.Controller.ShowConfirmDeleteDialog(*product)
	}
	if err != nil {
		httputil.WriteError(w, r, apperrors.Unavailable("dashboard session", err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, d)
}

func (h *DashboardHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	adminID := middleware.AdminIDFromContext(r.Context())
	if adminID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("no authenticated admin"), h.logger)
		return nil, false
	}
	sess, err := h.sessions.Get(adminID)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Unavailable("dashboard session", err), h.logger)
		return nil, false
	}
	return sess, true
}

// writeSnapshot waits for the dispatched action to be reduced and returns
// the resulting state. Fetches it triggered may still be loading.
func (h *DashboardHandler) writeSnapshot(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()
	if err := sess.Store.Sync(ctx); err != nil {
		httputil.WriteError(w, r, apperrors.Unavailable("dashboard session", err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state.Snapshot(sess.Store.State()))
}
