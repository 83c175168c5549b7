package models

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// DefaultDuration is the window used whenever a countdown is (re)initialized.
const DefaultDuration = 12 * time.Hour

// DefaultDurationMs is DefaultDuration expressed in epoch milliseconds.
const DefaultDurationMs = int64(DefaultDuration / time.Millisecond)

// CountdownRecord is the single persisted countdown entity.
type CountdownRecord struct {
	EndTimestamp int64 `json:"endTimestamp"` // ms since epoch
}

// EndTime returns the end timestamp as a time.Time.
func (r CountdownRecord) EndTime() time.Time {
	return time.UnixMilli(r.EndTimestamp)
}

// DefaultEnd returns the end timestamp of a fresh window starting at now.
func DefaultEnd(now time.Time) int64 {
	return now.UnixMilli() + DefaultDurationMs
}

// RemainingSeconds returns max(0, ceil((end - now) / 1s)).
func RemainingSeconds(end int64, now time.Time) int64 {
	diff := end - now.UnixMilli()
	if diff <= 0 {
		return 0
	}
	return (diff + 999) / 1000
}

// ParseTimestamp interprets a raw JSON value as an epoch-millisecond
// timestamp. Only JSON numbers are accepted; fractional values are truncated.
func ParseTimestamp(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}
	if c := trimmed[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}
