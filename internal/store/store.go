package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mstanton/codefinder/pkg/models"
)

// ErrNotFound is returned when a saved search does not exist for the user.
var ErrNotFound = errors.New("saved search not found")

// Store provides methods to interact with the database.
type Store struct {
	pool *pgxpool.Pool
}

// SearchStore defines the persistence methods for saved searches. Listing
// returns metadata only; the result snapshot comes back from Get.
type SearchStore interface {
	Migrate(ctx context.Context) error
	SaveSearch(ctx context.Context, s models.SavedSearch) error
	ListSearches(ctx context.Context, userLogin string) ([]models.SavedSearch, error)
	GetSearch(ctx context.Context, userLogin, id string) (models.SavedSearch, error)
	DeleteSearch(ctx context.Context, userLogin, id string) error
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Migrate applies necessary database migrations and schema setup.
func (s *Store) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS saved_searches (
  id            TEXT PRIMARY KEY,
  user_login    TEXT NOT NULL,
  query         TEXT NOT NULL,
  language      TEXT NOT NULL DEFAULT '',
  min_stars     INT NOT NULL DEFAULT 0,
  context_lines INT NOT NULL DEFAULT 5,
  results       JSONB NOT NULL DEFAULT '[]',
  created_at    TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE INDEX IF NOT EXISTS saved_searches_user_idx
  ON saved_searches (user_login, created_at DESC);
`
	_, err := s.pool.Exec(ctx, q)
	return err
}

// SaveSearch stores a search and its result snapshot under the user's login.
func (s *Store) SaveSearch(ctx context.Context, sv models.SavedSearch) error {
	resultsJSON, err := json.Marshal(sv.Results)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO saved_searches (
			id, user_login, query, language, min_stars, context_lines, results, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,now())`

	_, err = s.pool.Exec(ctx, q,
		sv.ID, sv.UserLogin, sv.Query, sv.Language, sv.MinStars, sv.ContextLines, resultsJSON,
	)
	return err
}

// ListSearches returns the user's saved searches, newest first, without
// result snapshots.
func (s *Store) ListSearches(ctx context.Context, userLogin string) ([]models.SavedSearch, error) {
	const q = `
		SELECT id, user_login, query, language, min_stars, context_lines, created_at
		FROM saved_searches
		WHERE user_login = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userLogin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SavedSearch
	for rows.Next() {
		var sv models.SavedSearch
		var createdAt time.Time
		if err := rows.Scan(&sv.ID, &sv.UserLogin, &sv.Query, &sv.Language, &sv.MinStars, &sv.ContextLines, &createdAt); err != nil {
			return nil, err
		}
		sv.CreatedAt = createdAt
		out = append(out, sv)
	}
	return out, rows.Err()
}

// GetSearch returns one saved search including its result snapshot.
func (s *Store) GetSearch(ctx context.Context, userLogin, id string) (models.SavedSearch, error) {
	const q = `
		SELECT id, user_login, query, language, min_stars, context_lines, results, created_at
		FROM saved_searches
		WHERE user_login = $1 AND id = $2`

	var sv models.SavedSearch
	var resultsJSON []byte
	err := s.pool.QueryRow(ctx, q, userLogin, id).Scan(
		&sv.ID, &sv.UserLogin, &sv.Query, &sv.Language, &sv.MinStars, &sv.ContextLines, &resultsJSON, &sv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SavedSearch{}, ErrNotFound
		}
		return models.SavedSearch{}, err
	}
	if err := json.Unmarshal(resultsJSON, &sv.Results); err != nil {
		return models.SavedSearch{}, err
	}
	return sv, nil
}

// DeleteSearch removes a saved search owned by the user.
func (s *Store) DeleteSearch(ctx context.Context, userLogin, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_searches WHERE user_login = $1 AND id = $2`, userLogin, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
