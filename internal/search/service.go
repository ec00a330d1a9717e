// Package search implements the result pipeline: issue a code search, enrich
// each raw hit with repository metadata and file content, extract a display
// snippet, score it, and return a ranked list.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mstanton/codefinder/internal/score"
	"github.com/mstanton/codefinder/internal/snippet"
	"github.com/mstanton/codefinder/pkg/models"
)

// maxPerPage is the provider's per-page ceiling for code search.
const maxPerPage = 100

// defaultWorkers bounds how many hits are enriched concurrently.
const defaultWorkers = 8

// Service orchestrates a single search request. Requests share no mutable
// state; a Service is safe for concurrent use.
type Service struct {
	Searcher Searcher
	Metadata MetadataProvider
	Content  ContentProvider
	Scorer   *score.Scorer
	Logger   zerolog.Logger

	// Workers caps concurrent per-hit enrichment; defaults when <= 0.
	Workers int
}

// NewService creates a search service with the provided providers and scorer.
func NewService(searcher Searcher, metadata MetadataProvider, content ContentProvider, scorer *score.Scorer, logger zerolog.Logger) *Service {
	return &Service{
		Searcher: searcher,
		Metadata: metadata,
		Content:  content,
		Scorer:   scorer,
		Logger:   logger,
	}
}

// Run executes the pipeline for one request and returns at most
// req.MaxResults results ordered by descending match score. Zero raw hits is
// an empty result set, not an error. Only the initial search call can fail
// the request; per-hit failures skip that hit.
func (s *Service) Run(ctx context.Context, req models.SearchRequest) ([]models.ScoredResult, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, ErrMissingQuery
	}
	req.Normalize()

	effective := req.Query
	if req.Language != "" {
		effective = fmt.Sprintf("%s language:%s", req.Query, req.Language)
	}

	// Request more hits than needed to compensate for filtering.
	perPage := req.MaxResults * 2
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	hits, err := s.Searcher.SearchCode(ctx, effective, perPage)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []models.ScoredResult{}, nil
	}
	s.Logger.Debug().Int("hits", len(hits)).Str("query", effective).Msg("processing raw results")

	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// Enrich hits in bounded parallel batches. Survivors are appended in
	// raw-hit order and the cap applies in that order, so parallelism never
	// changes which hits are kept.
	results := make([]models.ScoredResult, 0, req.MaxResults)
	for start := 0; start < len(hits) && len(results) < req.MaxResults; start += workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := hits[start:min(start+workers, len(hits))]
		enriched := make([]*models.ScoredResult, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, hit := range batch {
			i, hit := i, hit
			g.Go(func() error {
				enriched[i] = s.enrich(gctx, hit, req)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, r := range enriched {
			if r == nil {
				continue
			}
			results = append(results, *r)
			if len(results) >= req.MaxResults {
				break
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	return results, nil
}

// enrich turns one raw hit into a scored result, or nil when the hit is
// filtered out or its metadata/content could not be used.
func (s *Service) enrich(ctx context.Context, hit models.RawHit, req models.SearchRequest) *models.ScoredResult {
	meta, err := s.Metadata.RepoMetadata(ctx, hit.RepoName)
	if err != nil {
		s.Logger.Debug().Err(err).Str("repo", hit.RepoName).Msg("metadata fetch failed, using defaults")
		meta = models.RepoMetadata{Stars: 0, LastUpdated: models.UnknownUpdated}
	}
	if meta.Stars < req.MinStars {
		return nil
	}

	content, err := s.Content.FileContent(ctx, hit.RepoName, hit.Path)
	if err != nil || content == "" {
		s.Logger.Debug().Err(err).Str("repo", hit.RepoName).Str("path", hit.Path).Msg("content unavailable, skipping hit")
		return nil
	}

	lang := req.Language
	if lang == "" {
		lang = "Unknown"
	}

	res := models.ScoredResult{
		RepoName:    hit.RepoName,
		RepoURL:     "https://github.com/" + hit.RepoName,
		FilePath:    hit.Path,
		FileURL:     hit.FileURL,
		CodeSnippet: snippet.Extract(content, req.Query, req.ContextLines),
		Stars:       meta.Stars,
		LastUpdated: meta.LastUpdated,
		Language:    lang,
	}
	res.MatchScore = s.Scorer.Score(res, req.Query)
	return &res
}
