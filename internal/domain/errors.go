package domain

import "errors"

// Sentinel errors for cross-provider error classification.
// Providers should wrap these so the CLI can handle error categories
// uniformly without importing provider-specific SDKs.
//
//	return fmt.Errorf("failed to list events: %w", domain.ErrRateLimited)
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServerError indicates the provider failed to serve the request
	// (5xx). These are usually transient.
	ErrServerError = errors.New("provider server error")
)
