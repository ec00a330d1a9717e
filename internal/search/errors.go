package search

import "errors"

// Pipeline-level errors. Only a failure of the initial code search call is
// fatal to a request; per-hit metadata and content failures degrade the
// result count instead.
var (
	// ErrMissingQuery means the request had no usable query text.
	ErrMissingQuery = errors.New("query is required")

	// ErrUpstreamAuth means the code search provider rejected or is missing
	// credentials.
	ErrUpstreamAuth = errors.New("code search provider credentials missing or rejected")

	// ErrRateLimited means the provider quota is exhausted. The pipeline does
	// not retry these; callers should try again later.
	ErrRateLimited = errors.New("code search provider rate limit exceeded")

	// ErrContentNotFound means a file's content could not be retrieved from
	// any candidate branch.
	ErrContentNotFound = errors.New("file content not found")
)
