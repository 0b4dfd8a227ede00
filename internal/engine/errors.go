package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors making up the engine's failure taxonomy. Handlers map them
// onto the status envelope; nothing here ever crashes a request.
var (
	// ErrNotFound: the user, topic or conversation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: requester is not a friend of the target or not a member
	// of the topic.
	ErrForbidden = errors.New("forbidden")
	// ErrNotConnected: the operation requires an active binding.
	ErrNotConnected = errors.New("not connected")
	// ErrStaleBinding: the target resolves to a conversation other than the
	// one this session is bound to.
	ErrStaleBinding = errors.New("stale binding")
	// ErrValidation: a required field is missing or malformed.
	ErrValidation = errors.New("validation")
	// ErrAppendFailed: the broker accepted the message but the durable append
	// did not; the publish is not retracted.
	ErrAppendFailed = errors.New("message delivered but not stored")
)

// UpstreamError carries a non-success response from the broker proxy
// verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("broker proxy returned %d: %s", e.StatusCode, e.Body)
}
