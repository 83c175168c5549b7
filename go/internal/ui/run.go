package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdev12/countdown/go/internal/reconciler"
)

// Options configures the watch program.
type Options struct {
	Reconciler reconciler.Options
	// API backs the refresh and reset keys; may be nil.
	API reconciler.AdminAPI
	// AdminEnabled shows the reset binding.
	AdminEnabled bool
	// Updates carries end timestamps pushed by the server; may be nil.
	Updates <-chan int64
}

// Run shows the countdown until the user quits or ctx is cancelled. The
// program stays open after expiry so the final state remains visible.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	var rec *reconciler.Reconciler

	recOpts := opts.Reconciler
	recOpts.Hooks = reconciler.Hooks{
		OnTick: func(remaining int64) {
			program.Send(tickMsg{remaining: remaining, end: rec.EndTimestamp(), source: rec.Source()})
		},
		OnExpired: func() {
			program.Send(expiredMsg{})
		},
	}
	rec = reconciler.New(recOpts)

	var controls Controls
	if opts.API != nil {
		controls = reconciler.NewAdminController(opts.API, rec, recOpts.Clock)
	}

	program = tea.NewProgram(
		New(ctx, controls, opts.AdminEnabled && controls != nil),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	go func() {
		_ = rec.Run(ctx, opts.Updates)
	}()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
