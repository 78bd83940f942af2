package labor

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingBaseline is returned when an incremental update runs without a persisted dataset.
	ErrMissingBaseline = errors.New("baseline dataset not found; run bootstrap first")

	// ErrEmptyBootstrap is returned when a bootstrap fetch produced no observations.
	ErrEmptyBootstrap = errors.New("bootstrap fetched no observations")
)

// TransportError reports that the upstream API was unreachable or answered with a
// non-success HTTP status. StatusCode is 0 for network-level failures.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream transport error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
