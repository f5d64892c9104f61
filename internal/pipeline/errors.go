package pipeline

import "errors"

var (
	// ErrBackendUnavailable means wake retries were exhausted; maps to 503.
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	// ErrUnknownTenant means no profile is configured for the tenant id.
	ErrUnknownTenant = errors.New("unknown tenant")
)
