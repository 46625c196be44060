package check

import "fmt"

// Kind classifies a failed check. Every failure is terminal for its request;
// nothing in this package retries.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"   // 400, malformed input
	KindUnauthorized Kind = "unauthorized"  // 401, bad or missing credential
	KindRateLimited  Kind = "rate_limited"  // 429, quota exceeded
	KindServerError  Kind = "server_error"  // Any other non-2xx status
	KindNetworkError Kind = "network_error" // No response at all
)

// Error is the typed failure returned by Client.Check. Message is safe to
// surface to the user as-is.
type Error struct {
	Kind    Kind
	Status  int // HTTP status when one was received, 0 otherwise
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// classify maps a received status code to a typed error. 2xx never reaches
// here.
func classify(status int) *Error {
	switch status {
	case 400:
		return &Error{
			Kind:    KindBadRequest,
			Status:  status,
			Message: "the server could not understand the request.",
		}
	case 401:
		return &Error{
			Kind:    KindUnauthorized,
			Status:  status,
			Message: "provide a valid credential.",
		}
	case 429:
		return &Error{
			Kind:    KindRateLimited,
			Status:  status,
			Message: "rate limit reached: sign in with a credential for a higher quota.",
		}
	default:
		return &Error{
			Kind:    KindServerError,
			Status:  status,
			Message: fmt.Sprintf("the server returned an unexpected status: %d.", status),
		}
	}
}
