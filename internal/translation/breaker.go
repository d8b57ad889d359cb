package translation

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures the per-provider circuit breaker
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request
	OpenTimeout time.Duration
	// OnStateChange is called with the provider name on every transition
	OnStateChange func(provider, from, to string)
}

// DefaultBreakerSettings returns conservative breaker settings
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         60 * time.Second,
	}
}

// BreakerProvider fails fast while its vendor keeps failing. An open
// breaker is reported as KindTransport so the dispatcher moves on to the
// next fallback candidate.
type BreakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker
}

// WithBreaker wraps p in a circuit breaker
func WithBreaker(p Provider, settings BreakerSettings) *BreakerProvider {
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerSettings().ConsecutiveFailures
	}

	cbSettings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Missing keys and bad input say nothing about vendor health
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			kind := KindOf(err)
			return kind == KindConfiguration || kind == KindInput
		},
	}
	if settings.OnStateChange != nil {
		cbSettings.OnStateChange = func(name string, from, to gobreaker.State) {
			settings.OnStateChange(name, from.String(), to.String())
		}
	}

	return &BreakerProvider{
		Provider: p,
		cb:       gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// Translate runs the wrapped provider through the breaker
func (b *BreakerProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (*Reply, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Provider.Translate(ctx, text, targetLang, sourceLang)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, transportError(b.Name(), err)
		}
		return nil, err
	}
	return out.(*Reply), nil
}

// State returns the breaker state name
func (b *BreakerProvider) State() string {
	return b.cb.State().String()
}
