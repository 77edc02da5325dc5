package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies provider failures. The orchestration layer keys all of
// its decisions off this taxonomy: only KindRateLimited is retried, and
// KindNotConfigured means the provider is skipped entirely.
type Kind int

const (
	KindRateLimited Kind = iota
	KindUnauthenticated
	KindNotConfigured
	KindUnreachable
	KindBadResponse
	KindExhaustedRetries
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotConfigured:
		return "not_configured"
	case KindUnreachable:
		return "unreachable"
	case KindBadResponse:
		return "bad_response"
	case KindExhaustedRetries:
		return "exhausted_retries"
	default:
		return "unknown"
	}
}

// Error wraps a provider failure with its classification.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified provider error.
func NewError(provider string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from an error chain. Plain transport
// and deadline errors read as unreachable; anything else unclassified is
// treated as a bad response since the provider did answer.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnreachable
	}
	return KindBadResponse
}

// IsRateLimited reports whether an error is safe to retry.
func IsRateLimited(err error) bool {
	return err != nil && KindOf(err) == KindRateLimited
}

// kindFromStatus maps an HTTP status code onto the failure taxonomy.
func kindFromStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthenticated
	case status >= 500 && status <= 599:
		return KindUnreachable
	default:
		return KindBadResponse
	}
}

// classifyTransport wraps SDK and transport errors that carry no HTTP
// status, e.g. connection refusals and timeouts.
func classifyTransport(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(provider, KindUnreachable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewError(provider, KindUnreachable, err)
	}
	return NewError(provider, KindBadResponse, err)
}

// errNoImageSupport is the shared refusal for text-only adapters.
func errNoImageSupport(provider string) *Error {
	return NewError(provider, KindBadResponse, fmt.Errorf("%s does not accept image input", provider))
}
