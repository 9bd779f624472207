package wikitree

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel conditions the traversal engine reacts to. Both server
// strings are recognized by prefix match because the server appends
// detail after them.
var (
	// ErrRateLimited maps the server's "Limit exceeded" status.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrMaxProfiles maps the server's "Maximum number of profiles"
	// status.
	ErrMaxProfiles = errors.New("maximum number of profiles reached")
	// ErrPermissionDenied marks a privacy exclusion. It is not an
	// error condition for the run.
	ErrPermissionDenied = errors.New("permission denied")
)

const (
	rateLimitPrefix   = "Limit exceeded"
	maxProfilesPrefix = "Maximum number of profiles"
	permissionDenied  = "Permission denied"
)

// Error represents a failed API request.
type Error struct {
	Op      string // API action, e.g. "getPeople"
	Key     string // request key(s), possibly truncated
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("wikitree %s error for %s: %s: %v", e.Op, e.Key, e.Message, e.Cause)
	}
	return fmt.Sprintf("wikitree %s error for %s: %s", e.Op, e.Key, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// statusError maps a server-reported status string to its sentinel, or
// to a generic Error for anything else non-empty.
func statusError(op, key, status string) error {
	switch {
	case status == "" || status == "0":
		return nil
	case strings.HasPrefix(status, rateLimitPrefix):
		return ErrRateLimited
	case strings.HasPrefix(status, maxProfilesPrefix):
		return ErrMaxProfiles
	case status == permissionDenied:
		return ErrPermissionDenied
	default:
		return &Error{Op: op, Key: key, Message: status}
	}
}
