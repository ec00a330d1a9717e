package models

import "time"

// SearchRequest describes a single code search. Query is the only required
// field; the rest fall back to defaults via Normalize.
type SearchRequest struct {
	Query        string `json:"query"`
	Language     string `json:"language"`
	MaxResults   int    `json:"max_results"`
	MinStars     int    `json:"min_stars"`
	ContextLines int    `json:"context_lines"`
}

const (
	DefaultMaxResults   = 10
	DefaultMinStars     = 0
	DefaultContextLines = 5
)

// Normalize substitutes defaults for out-of-range fields. Query is left as-is;
// validating it is the pipeline's job.
func (r *SearchRequest) Normalize() {
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MinStars < 0 {
		r.MinStars = DefaultMinStars
	}
	if r.ContextLines < 0 {
		r.ContextLines = DefaultContextLines
	}
}

// RawHit is an unprocessed match from the code search provider, before
// enrichment. Never persisted.
type RawHit struct {
	RepoName string // "owner/repo"
	Path     string
	FileURL  string
}

// UnknownUpdated is the LastUpdated sentinel used when repository metadata
// could not be fetched or carries no usable timestamp.
const UnknownUpdated = "Unknown"

// RepoMetadata holds the per-repository fields the scorer cares about.
type RepoMetadata struct {
	Stars       int
	LastUpdated string // RFC3339 timestamp or UnknownUpdated
}

// ScoredResult is a fully enriched, scored, ready-to-display search result.
// The JSON field names are part of the public API.
type ScoredResult struct {
	RepoName    string  `json:"repo_name"`
	RepoURL     string  `json:"repo_url"`
	FilePath    string  `json:"file_path"`
	FileURL     string  `json:"file_url"`
	CodeSnippet string  `json:"code_snippet"`
	Stars       int     `json:"stars"`
	LastUpdated string  `json:"last_updated"`
	Language    string  `json:"language"`
	MatchScore  float64 `json:"match_score"`
}

// SavedSearch is a persisted search plus the result snapshot it produced,
// keyed by an opaque identifier.
type SavedSearch struct {
	ID           string         `json:"id"`
	UserLogin    string         `json:"user_login"`
	Query        string         `json:"query"`
	Language     string         `json:"language"`
	MinStars     int            `json:"min_stars"`
	ContextLines int            `json:"context_lines"`
	CreatedAt    time.Time      `json:"created_at"`
	Results      []ScoredResult `json:"results,omitempty"`
}
