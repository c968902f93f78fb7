package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/utafrali/catalogadmin/internal/domain"
	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitAsync(h *Handle) <-chan [2]any {
	out := make(chan [2]any, 1)
	go func() {
		r, ok := h.Wait(context.Background())
		out <- [2]any{r, ok}
	}()
	return out
}

func TestResolve_DeliversResult(t *testing.T) {
	m := NewManager()
	h := m.Open(KindConfirmDelete, domain.Product{ID: "p1"})
	got := waitAsync(h)

	require.NoError(t, m.Resolve(h.ID(), ResultDelete))

	res := <-got
	assert.Equal(t, ResultDelete, res[0])
	assert.Equal(t, true, res[1])
	assert.Empty(t, m.List())
}

func TestDismiss_NoResult(t *testing.T) {
	m := NewManager()
	h := m.Open(KindDetails, domain.Product{ID: "p1"})

	require.NoError(t, m.Dismiss(h.ID()))

	r, ok := h.Wait(context.Background())
	assert.False(t, ok)
	assert.Empty(t, r)
}

func TestClose_IdempotentAndFinal(t *testing.T) {
	m := NewManager()
	h := m.Open(KindDetails, domain.Product{ID: "p1"})

	h.Close()
	h.Close()

	_, ok := h.Wait(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, m.Resolve(h.ID(), ResultDelete), apperrors.ErrNotFound)
	assert.ErrorIs(t, m.Dismiss(h.ID()), apperrors.ErrNotFound)
}

func TestResolveTwice(t *testing.T) {
	m := NewManager()
	h := m.Open(KindConfirmDelete, domain.Product{ID: "p1"})

	require.NoError(t, m.Resolve(h.ID(), ResultDelete))
	assert.ErrorIs(t, m.Resolve(h.ID(), ResultDelete), apperrors.ErrNotFound)
}

func TestWait_ContextCancelled(t *testing.T) {
	m := NewManager()
	h := m.Open(KindDetails, domain.Product{ID: "p1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := h.Wait(ctx)
	assert.False(t, ok)

	_, err := m.Get(h.ID())
	assert.NoError(t, err, "a cancelled waiter leaves the dialog open")
}

func TestGetUnknown(t *testing.T) {
	_, err := NewManager().Get("nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestList_OldestFirst(t *testing.T) {
	m := NewManager()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	a := m.Open(KindDetails, domain.Product{ID: "a"})
	b := m.Open(KindConfirmDelete, domain.Product{ID: "b"})

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID(), list[0].ID)
	assert.Equal(t, b.ID(), list[1].ID)
	assert.Equal(t, KindConfirmDelete, list[1].Kind)
}

func TestCloseAll(t *testing.T) {
	m := NewManager()
	h1 := m.Open(KindDetails, domain.Product{ID: "a"})
	h2 := m.Open(KindConfirmDelete, domain.Product{ID: "b"})
	w1, w2 := waitAsync(h1), waitAsync(h2)

	m.CloseAll()

	assert.Equal(t, false, (<-w1)[1])
	assert.Equal(t, false, (<-w2)[1])
	assert.Empty(t, m.List())
}

func TestParseResult(t *testing.T) {
	r, err := ParseResult("delete")
	require.NoError(t, err)
	assert.Equal(t, ResultDelete, r)

	_, err = ParseResult("explode")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
