package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrBackendUnavailable = errors.New("backend unavailable")

// BackendUnavailableError wraps a failed call to the reasoning backend
// (network, timeout, authentication, malformed answer).
type BackendUnavailableError struct {
	Engine string
	Cause  error
}

func (e *BackendUnavailableError) Error() string {
	if e.Engine == "" {
		return fmt.Sprintf("backend unavailable: %v", e.Cause)
	}
	return fmt.Sprintf("backend %s unavailable: %v", e.Engine, e.Cause)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Cause
}

func (e *BackendUnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// Unavailable wraps err as a *BackendUnavailableError unless it already is one.
func Unavailable(engine string, err error) error {
	if err == nil {
		return nil
	}
	var bue *BackendUnavailableError
	if errors.As(err, &bue) {
		return err
	}
	return &BackendUnavailableError{Engine: engine, Cause: err}
}
