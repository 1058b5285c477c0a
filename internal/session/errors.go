package session

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidIdentifier = errors.New("invalid SESSION_ID provided")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrBodyTooLarge      = errors.New("credential body too large")
)

// FetchError reports a failed credential download. StatusCode and Body are set
// when the server answered; they are zero for transport failures and timeouts.
type FetchError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch credentials from %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch credentials from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
