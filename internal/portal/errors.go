package portal

import (
	"errors"
	"fmt"
)

// AuthReason classifies login and session failures.
type AuthReason string

const (
	ReasonMissingCredentials AuthReason = "missing_credentials"
	ReasonUpstreamRejected   AuthReason = "upstream_rejected"
	ReasonNoSessionCookie    AuthReason = "no_session_cookie"
	ReasonNetwork            AuthReason = "network"
)

// AuthError is a login or session failure. Recoverable by re-prompting the
// reviewer or silently retrying with cached credentials.
type AuthError struct {
	Reason  AuthReason
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth failed (%s): %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("auth failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamHTTPError is a non-2xx response from a portal. Write-path callers
// surface it to the reviewer; read-path callers degrade to "nothing to show".
type UpstreamHTTPError struct {
	Portal string
	Status int
	URL    string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("%s portal returned %d for %s", e.Portal, e.Status, e.URL)
}

// ErrNoSession signals that a portal call was attempted without a cached
// session token.
var ErrNoSession = errors.New("no active session")
