package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// WithRateLimit wraps the model's provider call with a token bucket so bursts
// of resolver lookups cannot exhaust the provider quota.
func WithRateLimit(m *Model, rps float64, burst int) *Model {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	inner := m.callFunc
	m.callFunc = func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error) {
		if err := limiter.Wait(ctx); err != nil {
			return AIMessage{}, err
		}
		return inner(ctx, model, messages, tools)
	}
	return m
}

// WithBreaker wraps the model's provider call with a circuit breaker. After
// repeated provider failures the breaker opens and calls fail fast instead of
// stacking timeouts.
func WithBreaker(m *Model, name string) *Model {
	cb := gobreaker.NewCircuitBreaker[AIMessage](gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("model breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	inner := m.callFunc
	m.callFunc = func(ctx context.Context, model *Model, messages []Message, tools []Tool) (AIMessage, error) {
		return cb.Execute(func() (AIMessage, error) {
			return inner(ctx, model, messages, tools)
		})
	}
	return m
}
