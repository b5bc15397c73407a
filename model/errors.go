package model

import (
	"errors"
	"fmt"
)

// InvalidRequestError is returned for caller mistakes (empty username,
// malformed URL). Never worth a retry.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// RateLimitedError is returned when github signals quota exhaustion.
// ResetEpoch is the unix timestamp at which the quota resets, 0 when the
// header was missing.
type RateLimitedError struct {
	ResetEpoch int64
}

func (e *RateLimitedError) Error() string {
	if e.ResetEpoch > 0 {
		return fmt.Sprintf("rate limit exceeded. try again after %d", e.ResetEpoch)
	}
	return "rate limit exceeded"
}

// UpstreamError is any other 4xx/5xx answer from github
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// NetworkError wraps transport level failures (DNS, timeout, connection reset)
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Cause.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAPIError converts an error from the service layer to the envelope format
func NewAPIError(errReason error) APIError {
	var invalidErr *InvalidRequestError
	var rateErr *RateLimitedError
	var upstreamErr *UpstreamError
	var networkErr *NetworkError

	switch {
	case errors.As(errReason, &invalidErr):
		return APIError{
			Code:    "INVALID_REQUEST",
			Message: invalidErr.Reason,
		}

	case errors.As(errReason, &rateErr):
		return APIError{
			Code:    "RATE_LIMIT_REACHED",
			Message: "github rate limit reached. consider using a token to increase the limit or wait few minutes and try again",
		}

	case errors.As(errReason, &upstreamErr):
		if upstreamErr.StatusCode == 404 {
			return APIError{
				Code:    "USER_NOT_FOUND",
				Message: "no github user exists with this username",
			}
		}

		return APIError{
			Code:    "UPSTREAM_ERROR",
			Message: errReason.Error(),
		}

	case errors.As(errReason, &networkErr):
		return APIError{
			Code:    "NETWORK_ERROR",
			Message: "unable to reach github. try again later",
		}
	}

	return APIError{
		Code:    "GENERIC_ERROR",
		Message: "internal server error. contact our support with the reason code for assistance",
	}
}
