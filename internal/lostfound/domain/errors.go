package domain

import "errors"

var (
	ErrNetworkFailure      = errors.New("network failure")
	ErrAccessDenied        = errors.New("access denied by image host")
	ErrProviderUnavailable = errors.New("similarity provider unavailable")
	ErrMalformedResponse   = errors.New("malformed similarity response")
	ErrModelLoadFailed     = errors.New("embedding model failed to load")
	ErrValidationFailure   = errors.New("validation failure")

	ErrPostingNotFound   = errors.New("posting not found")
	ErrDuplicatePosting  = errors.New("posting already exists")
	ErrInvalidTransition = errors.New("invalid handoff transition")
	ErrScoringInFlight   = errors.New("scoring already in flight")
	ErrSubmitInFlight    = errors.New("submission already in flight")
	ErrNoFlow            = errors.New("no open handoff flow")
	ErrCacheMiss         = errors.New("cache miss")
)

// Kind is the taxonomy label of an error, used for notices and metrics.
type Kind string

const (
	KindNetworkFailure      Kind = "network_failure"
	KindAccessDenied        Kind = "access_denied"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindMalformedResponse   Kind = "malformed_response"
	KindModelLoadFailed     Kind = "model_load_failed"
	KindValidationFailure   Kind = "validation_failure"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUnknown             Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrAccessDenied, KindAccessDenied},
	{ErrNetworkFailure, KindNetworkFailure},
	{ErrMalformedResponse, KindMalformedResponse},
	{ErrModelLoadFailed, KindModelLoadFailed},
	{ErrProviderUnavailable, KindProviderUnavailable},
	{ErrValidationFailure, KindValidationFailure},
	{ErrPostingNotFound, KindNotFound},
	{ErrNoFlow, KindNotFound},
	{ErrDuplicatePosting, KindConflict},
	{ErrInvalidTransition, KindConflict},
	{ErrScoringInFlight, KindConflict},
	{ErrSubmitInFlight, KindConflict},
}

// KindOf classifies err. The first matching sentinel in the table wins, so an
// error wrapping both ErrAccessDenied and ErrNetworkFailure is access_denied.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// IsProviderError reports whether err belongs to the similarity pipeline
// taxonomy that the handoff flow recovers from.
func IsProviderError(err error) bool {
	switch KindOf(err) {
	case KindNetworkFailure, KindAccessDenied, KindProviderUnavailable,
		KindMalformedResponse, KindModelLoadFailed:
		return true
	}
	return false
}
