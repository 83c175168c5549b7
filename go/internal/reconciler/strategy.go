package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoStrategy is returned when every strategy failed.
var ErrNoStrategy = errors.New("no strategy produced a countdown end")

// Fetcher reads the authoritative end timestamp.
type Fetcher interface {
	Get(ctx context.Context) (int64, error)
}

// Strategy is one way of obtaining an end timestamp.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context) (int64, error)
}

type strategyFunc struct {
	name string
	fn   func(ctx context.Context) (int64, error)
}

func (s strategyFunc) Name() string                               { return s.name }
func (s strategyFunc) Resolve(ctx context.Context) (int64, error) { return s.fn(ctx) }

// NewStrategy wraps fn as a named Strategy.
func NewStrategy(name string, fn func(ctx context.Context) (int64, error)) Strategy {
	return strategyFunc{name: name, fn: fn}
}

// ServerStrategy fetches from the server, giving up after timeout.
func ServerStrategy(fetcher Fetcher, timeout time.Duration) Strategy {
	return NewStrategy("server", func(ctx context.Context) (int64, error) {
		if fetcher == nil {
			return 0, errors.New("no server configured")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return fetcher.Get(ctx)
	})
}

// CacheStrategy uses the cached value when it still lies in the future.
func CacheStrategy(cache Cache, clock clockwork.Clock) Strategy {
	return NewStrategy("cache", func(context.Context) (int64, error) {
		end, ok := cache.Load()
		if !ok {
			return 0, errors.New("cache empty")
		}
		if end <= clock.Now().UnixMilli() {
			return 0, fmt.Errorf("cached end %d already passed", end)
		}
		return end, nil
	})
}

// DefaultStrategy starts a fresh default window from now. It never fails.
func DefaultStrategy(clock clockwork.Clock) Strategy {
	return NewStrategy("default", func(context.Context) (int64, error) {
		return models.DefaultEnd(clock.Now()), nil
	})
}

// FirstSuccess tries strategies in order and returns the first result along
// with the name of the strategy that produced it.
func FirstSuccess(ctx context.Context, strategies ...Strategy) (int64, string, error) {
	var errs []error
	for _, s := range strategies {
		end, err := s.Resolve(ctx)
		if err == nil {
			return end, s.Name(), nil
		}
		log.Debug().Err(err).Str("strategy", s.Name()).Msg("countdown strategy failed")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return 0, "", errors.Join(append([]error{ErrNoStrategy}, errs...)...)
}
