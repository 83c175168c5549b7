// Package reconciler keeps a client's view of the countdown in step with the
// server.
//
// # Lifecycle
//
// A Reconciler moves through four states:
//
//	Booting ──> Synced ──> Counting ──> Expired
//
// Booting resolves an end timestamp by trying strategies in order and taking
// the first that succeeds:
//
//  1. ServerStrategy: GET /api/countdown, bounded by the boot timeout
//  2. CacheStrategy: the locally cached value, only if still in the future
//  3. DefaultStrategy: now + 12h
//
// The adopted value is written to the Cache and the state becomes Synced.
// The last strategy cannot fail, so Booting always ends.
//
// Counting ticks once per second. Each tick recomputes
//
//	remaining = max(0, ceil((end - now) / 1s))
//
// from the clock instead of decrementing a counter, so a suspended process
// shows the right value as soon as it wakes.
//
// When remaining reaches zero the cache entry is cleared, OnExpired fires
// exactly once and ticking stops. Expired is terminal.
//
// # Updates
//
// Values pushed over the websocket stream or fetched after an admin mutation
// go through Adopt, which follows the same rule as the boot fetch: replace the
// end timestamp and cache it. Adopt is ignored once Expired.
//
// # Testing
//
// Time comes from a clockwork.Clock. Tests drive the tick loop with a
// FakeClock and observe it through Hooks.
package reconciler
