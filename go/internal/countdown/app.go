package countdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNotInFuture is returned when an absolute end time is not strictly after now.
var ErrNotInFuture = errors.New("endTimestamp must be in the future")

// CountdownRepository defines what the countdown app layer needs from storage
type CountdownRepository interface {
	ReadEndTimestamp(ctx context.Context) (int64, bool)
	WriteEndTimestamp(ctx context.Context, endTimestamp int64) error
}

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
}

// App enforces the countdown rules over the repository
type App struct {
	repo     CountdownRepository
	clock    Clock
	notifier events.Notifier

	// mu serializes writes so concurrent first reads agree on one value
	mu sync.Mutex
}

// NewApp creates a new countdown App. A nil clock uses the wall clock and a
// nil notifier disables change events.
func NewApp(repo CountdownRepository, clock Clock, notifier events.Notifier) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:     repo,
		clock:    clock,
		notifier: notifier,
	}
}

// GetOrInit returns the stored end timestamp, replacing a missing or expired
// one with a fresh default window.
func (a *App) GetOrInit(ctx context.Context) (int64, error) {
	if stored, ok := a.repo.ReadEndTimestamp(ctx); ok && stored > a.clock.Now().UnixMilli() {
		return stored, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// another caller may have initialized while we waited
	now := a.clock.Now()
	if stored, ok := a.repo.ReadEndTimestamp(ctx); ok && stored > now.UnixMilli() {
		return stored, nil
	}

	end := models.DefaultEnd(now)
	if err := a.repo.WriteEndTimestamp(ctx, end); err != nil {
		return 0, fmt.Errorf("failed to initialize countdown: %w", err)
	}

	log.Info().Int64("end_timestamp", end).Msg("countdown initialized")
	a.notify(ctx, events.EventTypeCountdownInitialized, end, now)
	return end, nil
}

// SetAbsolute stores endTimestamp if it lies strictly in the future.
func (a *App) SetAbsolute(ctx context.Context, endTimestamp int64) (int64, error) {
	now := a.clock.Now()
	if endTimestamp <= now.UnixMilli() {
		return 0, ErrNotInFuture
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.repo.WriteEndTimestamp(ctx, endTimestamp); err != nil {
		return 0, fmt.Errorf("failed to set countdown: %w", err)
	}

	log.Info().Int64("end_timestamp", endTimestamp).Msg("countdown end time set")
	a.notify(ctx, events.EventTypeCountdownUpdated, endTimestamp, now)
	return endTimestamp, nil
}

// Reset unconditionally starts a fresh default window from now.
func (a *App) Reset(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	end := models.DefaultEnd(now)
	if err := a.repo.WriteEndTimestamp(ctx, end); err != nil {
		return 0, fmt.Errorf("failed to reset countdown: %w", err)
	}

	log.Info().Int64("end_timestamp", end).Msg("countdown reset")
	a.notify(ctx, events.EventTypeCountdownReset, end, now)
	return end, nil
}

func (a *App) notify(ctx context.Context, eventType events.EventType, end int64, at time.Time) {
	if a.notifier == nil {
		return
	}
	a.notifier.Notify(ctx, events.NewCountdownEvent(eventType, end, at))
}
