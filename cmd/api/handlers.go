package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/mstanton/codefinder/internal/auth"
	"github.com/mstanton/codefinder/internal/search"
	"github.com/mstanton/codefinder/internal/store"
	"github.com/mstanton/codefinder/pkg/models"
)

const searchTimeout = 30 * time.Second

// searchRunner is what the search handler needs from the pipeline.
type searchRunner interface {
	Run(ctx context.Context, req models.SearchRequest) ([]models.ScoredResult, error)
}

// searchBody is the inbound request shape. ContextLines is a pointer so an
// explicit 0 survives while an absent field gets the default.
type searchBody struct {
	Query        string `json:"query"`
	Language     string `json:"language"`
	MaxResults   int    `json:"max_results"`
	MinStars     int    `json:"min_stars"`
	ContextLines *int   `json:"context_lines"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing sensible left to do.
		_, _ = w.Write([]byte("{}"))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error, production bool) {
	body := errorBody{Error: msg}
	if err != nil && !production {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// searchHandler runs the result pipeline for POST /api/search and maps
// pipeline errors onto distinct status codes.
func searchHandler(svc searchRunner, production bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil, production)
			return
		}

		var body searchBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err, production)
			return
		}
		if strings.TrimSpace(body.Query) == "" {
			writeError(w, http.StatusBadRequest, "Query parameter is required", nil, production)
			return
		}

		req := models.SearchRequest{
			Query:        body.Query,
			Language:     body.Language,
			MaxResults:   body.MaxResults,
			MinStars:     body.MinStars,
			ContextLines: models.DefaultContextLines,
		}
		if body.ContextLines != nil && *body.ContextLines >= 0 {
			req.ContextLines = *body.ContextLines
		}

		ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
		defer cancel()

		results, err := svc.Run(ctx, req)
		if err != nil {
			switch {
			case errors.Is(err, search.ErrMissingQuery):
				writeError(w, http.StatusBadRequest, "Query parameter is required", nil, production)
			case errors.Is(err, search.ErrUpstreamAuth):
				writeError(w, http.StatusUnauthorized, "GitHub credentials missing or rejected", err, production)
			case errors.Is(err, search.ErrRateLimited):
				writeError(w, http.StatusTooManyRequests, "GitHub rate limit exceeded, please retry later", err, production)
			default:
				writeError(w, http.StatusInternalServerError, "Internal Server Error", err, production)
			}
			return
		}

		if results == nil {
			results = []models.ScoredResult{}
		}
		writeJSON(w, http.StatusOK, map[string][]models.ScoredResult{"results": results})
	}
}

// userLogin resolves the owner for saved searches. Open mode (auth disabled)
// shares a single anonymous namespace.
func userLogin(r *http.Request) string {
	if user := auth.GetUserFromContext(r); user != nil {
		return user.Login
	}
	return "anonymous"
}

type saveSearchBody struct {
	Query        string                `json:"query"`
	Language     string                `json:"language"`
	MinStars     int                   `json:"min_stars"`
	ContextLines int                   `json:"context_lines"`
	Results      []models.ScoredResult `json:"results"`
}

// searchesHandler serves GET (list) and POST (save) on /api/searches.
func searchesHandler(st store.SearchStore, production bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		switch r.Method {
		case http.MethodGet:
			searches, err := st.ListSearches(ctx, userLogin(r))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to list saved searches", err, production)
				return
			}
			if searches == nil {
				searches = []models.SavedSearch{}
			}
			writeJSON(w, http.StatusOK, searches)

		case http.MethodPost:
			var body saveSearchBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body", err, production)
				return
			}
			if strings.TrimSpace(body.Query) == "" {
				writeError(w, http.StatusBadRequest, "Query parameter is required", nil, production)
				return
			}

			sv := models.SavedSearch{
				ID:           xid.New().String(),
				UserLogin:    userLogin(r),
				Query:        body.Query,
				Language:     body.Language,
				MinStars:     body.MinStars,
				ContextLines: body.ContextLines,
				Results:      body.Results,
			}
			if err := st.SaveSearch(ctx, sv); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to save search", err, production)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"id": sv.ID})

		default:
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil, production)
		}
	}
}

// searchByIDHandler serves GET and DELETE on /api/searches/{id}.
func searchByIDHandler(st store.SearchStore, production bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/searches/"), "/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		switch r.Method {
		case http.MethodGet:
			sv, err := st.GetSearch(ctx, userLogin(r), id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusNotFound, "Saved search not found", nil, production)
					return
				}
				writeError(w, http.StatusInternalServerError, "Failed to load saved search", err, production)
				return
			}
			writeJSON(w, http.StatusOK, sv)

		case http.MethodDelete:
			if err := st.DeleteSearch(ctx, userLogin(r), id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusNotFound, "Saved search not found", nil, production)
					return
				}
				writeError(w, http.StatusInternalServerError, "Failed to delete saved search", err, production)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil, production)
		}
	}
}
