package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

// BreakerConfig controls when the persistence backend is considered down.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// Metrics exposes breaker state.
type Metrics struct {
	breakerState *prometheus.GaugeVec
}

// NewMetrics creates and registers the persistence collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "persistence_breaker_state",
			Help: "Persistence circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}
	reg.MustRegister(m.breakerState)
	return m
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

// newBreaker builds a breaker that trips once FailureRatio of at least
// MinRequests calls failed. A missing key is a successful call, and so is a
// call its caller canceled.
func newBreaker(cfg BreakerConfig, l *slog.Logger, m *Metrics) *gobreaker.CircuitBreaker[[]byte] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, apperrors.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("persistence breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if m != nil {
				m.breakerState.WithLabelValues(name).Set(stateValue(to))
			}
		},
	}
	if m != nil {
		m.breakerState.WithLabelValues(cfg.Name).Set(0)
	}
	return gobreaker.NewCircuitBreaker[[]byte](settings)
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
