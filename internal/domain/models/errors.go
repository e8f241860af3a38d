package models

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is returned when every adapter failed and no cached
// reading inside the fallback window exists. No synthetic value is ever
// fabricated in its place.
var ErrDataUnavailable = errors.New("sentiment data unavailable")

// ErrInvalidSubscription is returned by SubscriptionStore validation for
// malformed notify times, unknown timezones, or unsupported languages.
var ErrInvalidSubscription = errors.New("invalid subscription")

// AdapterErrorKind classifies provider adapter failures.
type AdapterErrorKind string

const (
	AdapterTimeout     AdapterErrorKind = "timeout"
	AdapterBadResponse AdapterErrorKind = "bad_response"
	AdapterRateLimited AdapterErrorKind = "rate_limited"
)

// AdapterError is a retryable provider failure. Timeouts, bad responses, and
// rate limits are handled identically by the fallback ladder.
type AdapterError struct {
	Adapter   string
	Indicator Indicator
	Kind      AdapterErrorKind
	Err       error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adapter %s (%s): %s: %v", e.Adapter, e.Indicator, e.Kind, e.Err)
	}
	return fmt.Sprintf("adapter %s (%s): %s", e.Adapter, e.Indicator, e.Kind)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError wraps a provider failure with its classification.
func NewAdapterError(adapter string, ind Indicator, kind AdapterErrorKind, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Indicator: ind, Kind: kind, Err: err}
}

// SendErrorKind classifies outbound delivery failures.
type SendErrorKind string

const (
	SendThrottled   SendErrorKind = "throttled"
	SendUnreachable SendErrorKind = "unreachable"
	SendRejected    SendErrorKind = "rejected"
)

// SendError is an outbound delivery failure. The scheduler never advances
// last_fired_at on one, so the next tick retries within the grace window.
type SendError struct {
	Destination string
	Kind        SendErrorKind
	Err         error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("send to %s: %s: %v", e.Destination, e.Kind, e.Err)
	}
	return fmt.Sprintf("send to %s: %s", e.Destination, e.Kind)
}

func (e *SendError) Unwrap() error { return e.Err }

// NewSendError wraps an outbound failure with its classification.
func NewSendError(destination string, kind SendErrorKind, err error) *SendError {
	return &SendError{Destination: destination, Kind: kind, Err: err}
}
