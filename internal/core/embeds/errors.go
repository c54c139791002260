package embeds

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when the resolver produced nothing usable
	// for a URL (nil response or empty canonical url).
	ErrSourceNotFound = errors.New("embed source not found")

	// ErrRecordNotFound is returned when a record lookup by identity misses.
	ErrRecordNotFound = errors.New("embed record not found")
)

// TypeMismatchError is returned when a caller restricts the embed type and the
// resolved record reports a different, non-empty type.
type TypeMismatchError struct {
	URL  string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("embed %s resolved to type %q, field requires %q", e.URL, e.Got, e.Want)
}

// IsTypeMismatch checks if error is a type mismatch error
func IsTypeMismatch(err error) bool {
	var mismatch *TypeMismatchError
	return errors.As(err, &mismatch)
}

// FetchError wraps a transport or parse failure from the embed resolver.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch embed data for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError checks if error is a resolver transport failure
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// IsNotFound checks if error means the source or record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSourceNotFound) || errors.Is(err, ErrRecordNotFound)
}
