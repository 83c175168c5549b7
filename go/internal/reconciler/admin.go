package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotInFuture mirrors the server rule so obviously bad input never leaves the client.
	ErrNotInFuture = errors.New("end time must be in the future")
	// ErrInvalidDuration is returned for non-positive durations.
	ErrInvalidDuration = errors.New("duration must be positive")
)

// AdminAPI is the server surface the admin controls need.
type AdminAPI interface {
	Fetcher
	SetAbsolute(ctx context.Context, endTimestamp int64) (int64, error)
	Reset(ctx context.Context) (int64, error)
}

// AdminController issues admin mutations and refreshes the reconciler from
// the server afterwards. A failed request leaves the reconciler untouched.
type AdminController struct {
	api   AdminAPI
	rec   *Reconciler
	clock clockwork.Clock
}

// NewAdminController creates a controller. rec may be nil when only the
// server state matters.
func NewAdminController(api AdminAPI, rec *Reconciler, clock clockwork.Clock) *AdminController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AdminController{api: api, rec: rec, clock: clock}
}

// SetAbsolute sets the end to at.
func (a *AdminController) SetAbsolute(ctx context.Context, at time.Time) (int64, error) {
	end := at.UnixMilli()
	if end <= a.clock.Now().UnixMilli() {
		return 0, ErrNotInFuture
	}
	if _, err := a.api.SetAbsolute(ctx, end); err != nil {
		return 0, fmt.Errorf("set end time: %w", err)
	}
	return a.Refresh(ctx)
}

// SetDuration sets the end to now + d.
func (a *AdminController) SetDuration(ctx context.Context, d time.Duration) (int64, error) {
	if d <= 0 {
		return 0, ErrInvalidDuration
	}
	return a.SetAbsolute(ctx, a.clock.Now().Add(d))
}

// Reset starts a fresh default window on the server.
func (a *AdminController) Reset(ctx context.Context) (int64, error) {
	if _, err := a.api.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset countdown: %w", err)
	}
	return a.Refresh(ctx)
}

// Refresh re-reads the server value and hands it to the reconciler.
func (a *AdminController) Refresh(ctx context.Context) (int64, error) {
	end, err := a.api.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh countdown: %w", err)
	}
	if a.rec != nil {
		a.rec.Adopt(end)
	}
	return end, nil
}
