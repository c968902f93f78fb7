// Package dialog tracks open dialogs and hands their outcome back to the
// code that opened them.
package dialog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/catalogadmin/internal/domain"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

// Kind identifies which dialog is open.
type Kind string

const (
	KindDetails       Kind = "details"
	KindConfirmDelete Kind = "confirm-delete"
)

// Result is the outcome a dialog resolves with.
type Result string

// ResultDelete asks the opener to delete the dialog's product.
const ResultDelete Result = "delete"

// ParseResult returns the result named by s.
func ParseResult(s string) (Result, error) {
	if r := Result(s); r == ResultDelete {
		return r, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("unknown dialog result %q", s))
}

// Dialog describes an open dialog.
type Dialog struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	Product  domain.Product `json:"product"`
	OpenedAt time.Time      `json:"opened_at"`
}

// Handle is the opener's side of a dialog.
type Handle struct {
	dialog  Dialog
	manager *Manager
	once    sync.Once
	done    chan struct{}
	result  Result
	ok      bool
}

// ID returns the dialog id.
func (h *Handle) ID() string { return h.dialog.ID }

// Dialog returns the dialog description.
func (h *Handle) Dialog() Dialog { return h.dialog }

// Wait blocks until the dialog resolves, is dismissed or closed, or ctx ends.
// ok is true only when the dialog resolved with a result.
func (h *Handle) Wait(ctx context.Context) (result Result, ok bool) {
	select {
	case <-h.done:
		return h.result, h.ok
	case <-ctx.Done():
		return "", false
	}
}

// Done is closed once the dialog has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Close closes the dialog without a result. It is safe to call repeatedly.
func (h *Handle) Close() {
	h.finish("", false)
}

func (h *Handle) finish(result Result, ok bool) bool {
	finished := false
	h.once.Do(func() {
		h.manager.remove(h.dialog.ID)
		h.result, h.ok = result, ok
		close(h.done)
		finished = true
	})
	return finished
}

// Manager owns the open dialogs of one session.
type Manager struct {
	mu   sync.Mutex
	open map[string]*Handle
	now  func() time.Time
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		open: make(map[string]*Handle),
		now:  time.Now,
	}
}

// Open registers a new dialog about product.
func (m *Manager) Open(kind Kind, product domain.Product) *Handle {
	h := &Handle{
		dialog: Dialog{
			ID:       uuid.NewString(),
			Kind:     kind,
			Product:  product,
			OpenedAt: m.now().UTC(),
		},
		manager: m,
		done:    make(chan struct{}),
	}
	m.mu.Lock()
	m.open[h.dialog.ID] = h
	m.mu.Unlock()
	return h
}

// Resolve finishes the dialog with result.
func (m *Manager) Resolve(id string, result Result) error {
	h, err := m.handle(id)
	if err != nil {
		return err
	}
	if !h.finish(result, true) {
		return apperrors.NotFound("dialog", id)
	}
	return nil
}

// Dismiss finishes the dialog without a result.
func (m *Manager) Dismiss(id string) error {
	h, err := m.handle(id)
	if err != nil {
		return err
	}
	if !h.finish("", false) {
		return apperrors.NotFound("dialog", id)
	}
	return nil
}

// Get returns an open dialog.
func (m *Manager) Get(id string) (Dialog, error) {
	h, err := m.handle(id)
	if err != nil {
		return Dialog{}, err
	}
	return h.dialog, nil
}

// List returns the open dialogs, oldest first.
func (m *Manager) List() []Dialog {
	m.mu.Lock()
	out := make([]Dialog, 0, len(m.open))
	for _, h := range m.open {
		out = append(out, h.dialog)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b Dialog) int {
		if c := a.OpenedAt.Compare(b.OpenedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// CloseAll closes every open dialog.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.open))
	for _, h := range m.open {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
}

func (m *Manager) handle(id string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.open[id]
	if !ok {
		return nil, apperrors.NotFound("dialog", id)
	}
	return h, nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.open, id)
	m.mu.Unlock()
}
