// Package github adapts the GitHub API to the search pipeline's provider
// ports: code search, repository metadata, and file content.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/mstanton/codefinder/internal/retry"
	"github.com/mstanton/codefinder/internal/search"
	"github.com/mstanton/codefinder/pkg/models"
)

// Branch candidates for content fetches, tried in order.
var contentRefs = []string{"main", "master"}

// Provider implements the pipeline's Searcher, MetadataProvider and
// ContentProvider ports on top of the GitHub API. Repository metadata is
// cached with a TTL since the same repository tends to appear across many
// hits of one search.
type Provider struct {
	client Client
	cache  *gocache.Cache
	logger zerolog.Logger
}

// NewProvider creates a Provider around the given API client.
func NewProvider(client Client, logger zerolog.Logger) *Provider {
	return &Provider{
		client: client,
		cache:  gocache.New(15*time.Minute, 30*time.Minute),
		logger: logger,
	}
}

// SearchCode issues a code search sorted by most recently indexed. Errors are
// mapped to the pipeline's typed errors where the cause is known.
func (p *Provider) SearchCode(ctx context.Context, query string, perPage int) ([]models.RawHit, error) {
	opts := &gh.SearchOptions{
		Sort:        "indexed",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	result, _, err := p.client.SearchCode(ctx, query, opts)
	if err != nil {
		return nil, mapAPIError(err)
	}

	hits := make([]models.RawHit, 0, len(result.CodeResults))
	for _, item := range result.CodeResults {
		hits = append(hits, models.RawHit{
			RepoName: item.GetRepository().GetFullName(),
			Path:     item.GetPath(),
			FileURL:  item.GetHTMLURL(),
		})
	}
	return hits, nil
}

// RepoMetadata fetches star count and last-updated time for a repository,
// using the cache. The lookup is retried a couple of times before the caller
// falls back to defaults.
func (p *Provider) RepoMetadata(ctx context.Context, repoName string) (models.RepoMetadata, error) {
	cacheKey := "repoMeta:" + repoName
	if val, found := p.cache.Get(cacheKey); found {
		if meta, ok := val.(models.RepoMetadata); ok {
			return meta, nil
		}
	}

	owner, repo, err := splitRepoName(repoName)
	if err != nil {
		return models.RepoMetadata{}, err
	}

	var repository *gh.Repository
	err = retry.Do(ctx, func() error {
		var apiErr error
		repository, _, apiErr = p.client.GetRepository(ctx, owner, repo)
		return apiErr
	},
		retry.WithMaxRetries(2),
		retry.WithInitialDelay(200*time.Millisecond),
	)
	if err != nil {
		return models.RepoMetadata{}, fmt.Errorf("get repository %s: %w", repoName, err)
	}

	meta := models.RepoMetadata{
		Stars:       repository.GetStargazersCount(),
		LastUpdated: models.UnknownUpdated,
	}
	if u := repository.GetUpdatedAt(); !u.IsZero() {
		meta.LastUpdated = u.Format(time.RFC3339)
	}
	p.cache.Set(cacheKey, meta, gocache.DefaultExpiration)
	return meta, nil
}

// FileContent fetches and decodes a file's text, trying each candidate
// default branch in order. GitHub serves contents base64 encoded; decoding
// failures count as a miss for that ref.
func (p *Provider) FileContent(ctx context.Context, repoName, path string) (string, error) {
	owner, repo, err := splitRepoName(repoName)
	if err != nil {
		return "", err
	}

	for _, ref := range contentRefs {
		file, _, err := p.client.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
		if err != nil || file == nil {
			continue
		}
		text, err := file.GetContent()
		if err != nil {
			p.logger.Debug().Err(err).Str("repo", repoName).Str("path", path).Str("ref", ref).Msg("content decode failed")
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("%s/%s: %w", repoName, path, search.ErrContentNotFound)
}

// mapAPIError translates go-github errors into the pipeline's taxonomy.
func mapAPIError(err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", search.ErrRateLimited, err)
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", search.ErrUpstreamAuth, err)
	}
	return fmt.Errorf("code search: %w", err)
}

func splitRepoName(repoName string) (owner, repo string, err error) {
	parts := strings.SplitN(repoName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q", repoName)
	}
	return parts[0], parts[1], nil
}
