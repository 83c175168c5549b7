package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const usage = `usage: countdown [flags] <command> [args]

commands:
  watch                 show the live countdown
  get                   print the current end time
  set -at <RFC3339>     end the countdown at a fixed time (admin)
  set -in <duration>    end the countdown after a duration, e.g. 2h30m (admin)
  reset                 start a fresh 12h window (admin)

flags:
`

type globalOptions struct {
	server  string
	key     string
	cache   string
	timeout time.Duration
	logFile string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("countdown", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var opts globalOptions
	fs.StringVar(&opts.server, "server", envOr("COUNTDOWN_SERVER", "http://localhost:3000"), "countdown server base URL")
	fs.StringVar(&opts.key, "key", os.Getenv("ADMIN_KEY"), "admin key for set and reset")
	fs.StringVar(&opts.cache, "cache", "", "local cache file (default ~/.cache/countdown/state.toml)")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Second, "server request timeout")
	fs.StringVar(&opts.logFile, "log-file", "", "write watch logs to this file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var err error
	switch cmd {
	case "watch":
		err = runWatch(ctx, opts)
	case "get":
		err = runGet(ctx, opts, stdout)
	case "set":
		err = runSet(ctx, opts, rest, stdout, stderr)
	case "reset":
		err = runReset(ctx, opts, stdout)
	default:
		fmt.Fprintf(stderr, "countdown: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "countdown: %v\n", err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
