package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalogadmin/internal/dialog"
	"github.com/utafrali/catalogadmin/pkg/httputil"
	"github.com/utafrali/catalogadmin/pkg/validator"
)

// ResolveDialogRequest is the body of POST /dashboard/dialogs/{dialogId}/resolve.
type ResolveDialogRequest struct {
	Result string `json:"result" validate:"required,oneof=delete"`
}

// ListDialogs handles GET /api/v1/dashboard/dialogs
func (h *DashboardHandler) ListDialogs(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, sess.Dialogs.List())
}

// GetDialog handles GET /api/v1/dashboard/dialogs/{dialogId}
func (h *DashboardHandler) GetDialog(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	d, err := sess.Dialogs.Get(chi.URLParam(r, "dialogId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, d)
}

// ResolveDialog handles POST /api/v1/dashboard/dialogs/{dialogId}/resolve
func (h *DashboardHandler) ResolveDialog(w http.ResponseWriter, r *http.Request) {
	var req ResolveDialogRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	result, err := dialog.ParseResult(req.Result)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.Dialogs.Resolve(chi.URLParam(r, "dialogId"), result); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DismissDialog handles DELETE /api/v1/dashboard/dialogs/{dialogId}
func (h *DashboardHandler) DismissDialog(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Dialogs.Dismiss(chi.URLParam(r, "dialogId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
