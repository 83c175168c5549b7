package countdown

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/mcdev12/countdown/go/internal/models"
)

// MutationKind identifies which branch a POST body selects.
type MutationKind int

const (
	// MutationFallback re-reads the countdown with GetOrInit semantics.
	MutationFallback MutationKind = iota
	// MutationReset starts a fresh default window.
	MutationReset
	// MutationSetAbsolute stores an explicit end timestamp.
	MutationSetAbsolute
)

func (k MutationKind) String() string {
	switch k {
	case MutationReset:
		return "reset"
	case MutationSetAbsolute:
		return "set_absolute"
	default:
		return "fallback"
	}
}

// MutationRequest is a decoded POST /api/countdown body
type MutationRequest struct {
	Kind         MutationKind
	EndTimestamp int64
}

// ErrInvalidBody is returned for bodies that are not a JSON object or carry a
// non-numeric endTimestamp.
var ErrInvalidBody = errors.New("invalid countdown mutation body")

// ParseMutationRequest decodes a POST body. Precedence is
// reset > explicit endTimestamp > fallback.
func ParseMutationRequest(body []byte) (MutationRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return MutationRequest{}, ErrInvalidBody
	}

	if raw, ok := fields["reset"]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("true")) {
		return MutationRequest{Kind: MutationReset}, nil
	}

	if raw, ok := fields["endTimestamp"]; ok && !isNull(raw) {
		ts, ok := models.ParseTimestamp(raw)
		if !ok {
			return MutationRequest{}, ErrInvalidBody
		}
		return MutationRequest{Kind: MutationSetAbsolute, EndTimestamp: ts}, nil
	}

	return MutationRequest{Kind: MutationFallback}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ErrorResponse is the JSON error body returned by the countdown API
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	errMsgInvalidJSON   = "Invalid JSON"
	errMsgNotInFuture   = "endTimestamp must be in the future"
	errMsgPersistFailed = "Failed to persist countdown"
)
