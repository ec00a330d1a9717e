package score

import (
	"testing"
	"time"

	"github.com/mstanton/codefinder/pkg/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func TestPopularity(t *testing.T) {
	tests := []struct {
		stars int
		want  float64
	}{
		{0, 0},
		{10, 0},
		{11, 1},
		{50, 1},
		{51, 2},
		{100, 2},
		{101, 3},
		{500, 3},
		{501, 4},
		{1000, 4},
		{1001, 5},
		{200000, 5},
	}

	for _, tt := range tests {
		if got := Popularity(tt.stars); got != tt.want {
			t.Errorf("Popularity(%d) = %v, want %v", tt.stars, got, tt.want)
		}
	}
}

func TestRecency(t *testing.T) {
	s := NewWithClock(fixedClock)

	tests := []struct {
		name        string
		lastUpdated string
		want        float64
	}{
		{"updated yesterday", testNow.AddDate(0, 0, -1).Format(time.RFC3339), 3},
		{"29 days old", testNow.AddDate(0, 0, -29).Format(time.RFC3339), 3},
		{"30 days old", testNow.AddDate(0, 0, -30).Format(time.RFC3339), 2},
		{"89 days old", testNow.AddDate(0, 0, -89).Format(time.RFC3339), 2},
		{"90 days old", testNow.AddDate(0, 0, -90).Format(time.RFC3339), 1},
		{"364 days old", testNow.AddDate(0, 0, -364).Format(time.RFC3339), 1},
		{"365 days old", testNow.AddDate(0, 0, -365).Format(time.RFC3339), 0},
		{"years old", "2020-01-01T00:00:00Z", 0},
		{"unknown sentinel", models.UnknownUpdated, 0},
		{"garbage", "not-a-date", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.recency(tt.lastUpdated); got != tt.want {
				t.Errorf("recency(%q) = %v, want %v", tt.lastUpdated, got, tt.want)
			}
		})
	}
}

func TestContentMatch(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		query   string
		want    float64
	}{
		{
			name:    "all terms present",
			snippet: "def quicksort(arr): return sorted(arr)",
			query:   "quicksort sorted",
			want:    5,
		},
		{
			name:    "half the terms present",
			snippet: "def quicksort(arr)",
			query:   "quicksort partition",
			want:    2.5,
		},
		{
			name:    "no terms present",
			snippet: "completely unrelated",
			query:   "quicksort partition",
			want:    0,
		},
		{
			name:    "language filter stripped before matching",
			snippet: "def quicksort(arr)",
			query:   "quicksort language:python",
			want:    5,
		},
		{
			name:    "case insensitive",
			snippet: "QuickSort implementation",
			query:   "quicksort",
			want:    5,
		},
		{
			name:    "query reduced to nothing",
			snippet: "anything",
			query:   "language:python",
			want:    5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentMatch(tt.snippet, tt.query); got != tt.want {
				t.Errorf("ContentMatch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualitySignals(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    float64
	}{
		{"plain code", "x = 1", 0},
		{"docstring token", "this has a Docstring marker", 1},
		{"triple quotes", `"""Sorts the input."""`, 1},
		{"two hashes only", "# one\n# two", 0},
		{"three hashes", "# one\n# two\n# three", 1},
		{"docstring and comments", "\"\"\"doc\"\"\"\n# a\n# b\n# c", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualitySignals(tt.snippet); got != tt.want {
				t.Errorf("QualitySignals(%q) = %v, want %v", tt.snippet, got, tt.want)
			}
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	s := NewWithClock(fixedClock)

	best := models.ScoredResult{
		Stars:       5000,
		LastUpdated: testNow.AddDate(0, 0, -1).Format(time.RFC3339),
		CodeSnippet: "\"\"\"quicksort docstring\"\"\"\n# a\n# b\n# c",
	}
	if got := s.Score(best, "quicksort"); got != Max {
		t.Errorf("best-case score = %v, want %v", got, Max)
	}

	worst := models.ScoredResult{
		Stars:       0,
		LastUpdated: models.UnknownUpdated,
		CodeSnippet: "nothing",
	}
	if got := s.Score(worst, "quicksort"); got != 0 {
		t.Errorf("worst-case score = %v, want 0", got)
	}
}
