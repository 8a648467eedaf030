package monitor

import (
	"github.com/cockroachdb/errors"

	"github.com/jacobreesgit/MusicTrackingNew/internal/domain/player"
)

// Errors
var (
	ErrNotMonitoring     = errors.New("engine is not monitoring")
	ErrAlreadyMonitoring = errors.New("engine is already monitoring")
	ErrNotPaused         = errors.New("engine is not paused")
	ErrExecutionExpired  = errors.New("execution deadline expired")
	ErrInvalidConfig     = errors.New("invalid monitor configuration")
)

// ErrorCategory classifies an error for the event sink. The presentation
// layer decides what to show; the engine only categorizes.
type ErrorCategory string

const (
	CategoryAuthorization       ErrorCategory = "authorization"
	CategoryProviderUnavailable ErrorCategory = "provider_unavailable"
	CategoryExecutionExpired    ErrorCategory = "execution_expired"
	CategoryConfiguration       ErrorCategory = "configuration"
)

// Classify maps an error to its category, recoverability and retryability.
// Authorization loss is never retried automatically; the caller must
// re-authorize and restart. Everything else from the provider is transient.
func Classify(err error) (category ErrorCategory, recoverable, retryable bool) {
	switch {
	case errors.Is(err, player.ErrAuthorizationRequired):
		return CategoryAuthorization, false, false
	case errors.Is(err, ErrExecutionExpired):
		return CategoryExecutionExpired, true, true
	case errors.Is(err, ErrInvalidConfig):
		return CategoryConfiguration, false, false
	default:
		return CategoryProviderUnavailable, true, true
	}
}
