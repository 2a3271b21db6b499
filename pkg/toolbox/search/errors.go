package search

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrEmptyQuery = errors.New("search query is empty")
	ErrTransient  = errors.New("transient search failure")
)

// TransientError reports a failure worth retrying later: network errors,
// rate limiting and server-side errors.
type TransientError struct {
	Backend    string
	StatusCode int
	Cause      error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s search failed with status %d: %v", e.Backend, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s search failed: %v", e.Backend, e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
