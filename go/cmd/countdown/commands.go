package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/countdown/go/clients/countdown_client"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/mcdev12/countdown/go/internal/logging"
	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/mcdev12/countdown/go/internal/reconciler"
	"github.com/mcdev12/countdown/go/internal/ui"
)

const resubscribeDelay = 5 * time.Second

var errAdminKeyRequired = errors.New("admin key required (-key or ADMIN_KEY)")

func newClient(opts globalOptions) *countdown_client.Client {
	client := countdown_client.NewClient(opts.server, opts.key)
	client.SetTimeout(opts.timeout)
	return client
}

func newController(opts globalOptions, clock clockwork.Clock) (*reconciler.AdminController, error) {
	if opts.key == "" {
		return nil, errAdminKeyRequired
	}
	return reconciler.NewAdminController(newClient(opts), nil, clock), nil
}

func printEnd(w io.Writer, end int64, clock clockwork.Clock) {
	fmt.Fprintf(w, "%d\t%s\t%s\n",
		end,
		time.UnixMilli(end).Local().Format(time.RFC3339),
		reconciler.FormatHHMMSS(models.RemainingSeconds(end, clock.Now())),
	)
}

func runGet(ctx context.Context, opts globalOptions, stdout io.Writer) error {
	end, err := newClient(opts).Get(ctx)
	if err != nil {
		return err
	}
	printEnd(stdout, end, clockwork.NewRealClock())
	return nil
}

func runSet(ctx context.Context, opts globalOptions, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(stderr)
	at := fs.String("at", "", "end time in RFC3339, e.g. 2026-12-31T23:59:00+01:00")
	in := fs.Duration("in", 0, "end after this duration from now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*at == "") == (*in == 0) {
		return errors.New("set needs exactly one of -at or -in")
	}

	clock := clockwork.NewRealClock()
	ctrl, err := newController(opts, clock)
	if err != nil {
		return err
	}

	var end int64
	if *at != "" {
		t, perr := time.Parse(time.RFC3339, *at)
		if perr != nil {
			return fmt.Errorf("parse -at: %w", perr)
		}
		end, err = ctrl.SetAbsolute(ctx, t)
	} else {
		end, err = ctrl.SetDuration(ctx, *in)
	}
	if err != nil {
		return err
	}
	printEnd(stdout, end, clock)
	return nil
}

func runReset(ctx context.Context, opts globalOptions, stdout io.Writer) error {
	clock := clockwork.NewRealClock()
	ctrl, err := newController(opts, clock)
	if err != nil {
		return err
	}
	end, err := ctrl.Reset(ctx)
	if err != nil {
		return err
	}
	printEnd(stdout, end, clock)
	return nil
}

func runWatch(ctx context.Context, opts globalOptions) error {
	// the alt screen owns the terminal; logs go to a file or nowhere
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.Logger = logging.New(f, "info", "json")
	} else {
		log.Logger = zerolog.Nop()
	}

	cachePath := opts.cache
	if cachePath == "" {
		cachePath = reconciler.DefaultCachePath()
	}

	client := newClient(opts)
	updates := make(chan int64, 1)
	go subscribe(ctx, client, updates)

	return ui.Run(ctx, ui.Options{
		Reconciler: reconciler.Options{
			Fetcher:     client,
			Cache:       reconciler.NewFileCache(cachePath),
			BootTimeout: opts.timeout,
		},
		API:          client,
		AdminEnabled: opts.key != "",
		Updates:      updates,
	})
}

// subscribe feeds pushed end timestamps into updates, reconnecting until ctx ends.
func subscribe(ctx context.Context, client *countdown_client.Client, updates chan<- int64) {
	for {
		err := client.Subscribe(ctx, func(event events.CountdownEvent) {
			end, ok := countdown_client.EndTimestampFromEvent(event)
			if !ok {
				return
			}
			select {
			case updates <- end:
			case <-ctx.Done():
			}
		})
		if ctx.Err() != nil {
			return
		}
		log.Debug().Err(err).Msg("countdown stream closed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}
