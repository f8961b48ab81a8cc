package catalog

import "errors"

var (
	// ErrNotFound means there is no cached record and the platform could not
	// provide one, or no platform could be determined.
	ErrNotFound = errors.New("item not found")

	// ErrUpstreamUnavailable means a cached record exists but could not be
	// refreshed. The record has been flagged outdated.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrValidation means the request was malformed. No I/O was attempted.
	ErrValidation = errors.New("invalid request")
)
