package search

import (
	"context"

	"github.com/mstanton/codefinder/pkg/models"
)

// Searcher issues a code search against the external provider. Results come
// back in provider order, most recently indexed first. A failure here is
// fatal to the whole request and should be one of the typed errors in this
// package when the cause is known.
type Searcher interface {
	SearchCode(ctx context.Context, query string, perPage int) ([]models.RawHit, error)
}

// MetadataProvider fetches per-repository metadata. repoName is the
// "owner/repo" form. May fail; the pipeline substitutes defaults.
type MetadataProvider interface {
	RepoMetadata(ctx context.Context, repoName string) (models.RepoMetadata, error)
}

// ContentProvider fetches a file's full text. Implementations try the
// primary branch first and fall back to the conventional alternate default
// branch; when both fail they return an error wrapping ErrContentNotFound.
type ContentProvider interface {
	FileContent(ctx context.Context, repoName, path string) (string, error)
}
