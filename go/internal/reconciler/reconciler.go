package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/rs/zerolog/log"
)

// State is the reconciler lifecycle position.
type State int

const (
	StateBooting State = iota
	StateSynced
	StateCounting
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateSynced:
		return "synced"
	case StateCounting:
		return "counting"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

const (
	defaultBootTimeout  = 5 * time.Second
	defaultTickInterval = time.Second
)

// Hooks observe the reconciler. All hooks run on the goroutine that calls
// Boot or Run.
type Hooks struct {
	OnState   func(State)
	OnTick    func(remaining int64)
	OnExpired func()
}

// Options configures a Reconciler.
type Options struct {
	Fetcher     Fetcher
	Cache       Cache
	Clock       clockwork.Clock
	Hooks       Hooks
	BootTimeout time.Duration
}

// Reconciler drives the client countdown.
type Reconciler struct {
	fetcher     Fetcher
	cache       Cache
	clock       clockwork.Clock
	hooks       Hooks
	bootTimeout time.Duration

	mu          sync.Mutex
	state       State
	end         int64
	source      string
	expiryFired bool
}

// New builds a Reconciler in the Booting state.
func New(opts Options) *Reconciler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Cache == nil {
		opts.Cache = &MemoryCache{}
	}
	if opts.BootTimeout <= 0 {
		opts.BootTimeout = defaultBootTimeout
	}
	return &Reconciler{
		fetcher:     opts.Fetcher,
		cache:       opts.Cache,
		clock:       opts.Clock,
		hooks:       opts.Hooks,
		bootTimeout: opts.BootTimeout,
		state:       StateBooting,
	}
}

// Boot resolves the end timestamp and moves to Synced. It always succeeds
// because the default strategy cannot fail.
func (r *Reconciler) Boot(ctx context.Context) int64 {
	end, source, err := FirstSuccess(ctx,
		ServerStrategy(r.fetcher, r.bootTimeout),
		CacheStrategy(r.cache, r.clock),
		DefaultStrategy(r.clock),
	)
	if err != nil {
		// unreachable with DefaultStrategy last; keep the loop alive anyway
		end, source = models.DefaultEnd(r.clock.Now()), "default"
	}

	r.mu.Lock()
	r.end = end
	r.source = source
	r.mu.Unlock()
	r.storeCache(end)

	log.Info().Int64("end_timestamp", end).Str("source", source).Msg("countdown synced")
	r.setState(StateSynced)
	return end
}

// Run boots if needed, then ticks until the countdown expires (returning nil)
// or ctx is cancelled. Values received on updates are adopted as they arrive;
// updates may be nil.
func (r *Reconciler) Run(ctx context.Context, updates <-chan int64) error {
	if r.State() == StateBooting {
		r.Boot(ctx)
	}
	if r.State() == StateExpired {
		return nil
	}

	ticker := r.clock.NewTicker(defaultTickInterval)
	defer ticker.Stop()

	r.setState(StateCounting)
	if r.tick() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if r.tick() {
				return nil
			}
		case end, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if r.Adopt(end) && r.tick() {
				return nil
			}
		}
	}
}

// Adopt replaces the end timestamp with a fresher authoritative value and
// caches it. It reports false once the countdown has expired.
func (r *Reconciler) Adopt(end int64) bool {
	r.mu.Lock()
	if r.expiryFired {
		r.mu.Unlock()
		return false
	}
	changed := r.end != end
	r.end = end
	r.source = "server"
	// stored under the lock so it can never land after expire clears the cache
	r.storeCache(end)
	r.mu.Unlock()

	if changed {
		log.Info().Int64("end_timestamp", end).Msg("countdown updated")
	}
	return true
}

// tick publishes the remaining seconds and reports whether the countdown expired.
func (r *Reconciler) tick() bool {
	remaining := r.Remaining()
	if r.hooks.OnTick != nil {
		r.hooks.OnTick(remaining)
	}
	if remaining > 0 {
		return false
	}
	r.expire()
	return true
}

func (r *Reconciler) expire() {
	r.mu.Lock()
	if r.expiryFired {
		r.mu.Unlock()
		return
	}
	r.expiryFired = true
	if err := r.cache.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear countdown cache")
	}
	r.mu.Unlock()

	r.setState(StateExpired)
	log.Info().Msg("countdown expired")
	if r.hooks.OnExpired != nil {
		r.hooks.OnExpired()
	}
}

func (r *Reconciler) storeCache(end int64) {
	if err := r.cache.Store(end); err != nil {
		log.Warn().Err(err).Msg("failed to cache countdown end")
	}
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	if r.hooks.OnState != nil {
		r.hooks.OnState(s)
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// EndTimestamp returns the adopted end timestamp, zero while Booting.
func (r *Reconciler) EndTimestamp() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.end
}

// Source names where the current end timestamp came from.
func (r *Reconciler) Source() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// Remaining returns the whole seconds left, rounded up.
func (r *Reconciler) Remaining() int64 {
	return models.RemainingSeconds(r.EndTimestamp(), r.clock.Now())
}
