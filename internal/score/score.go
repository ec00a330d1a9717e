// Package score computes the relevance score of a search result as the
// unweighted sum of four independent bands: repository popularity, recency,
// content match quality, and code-quality signals. The thresholds are a
// deliberately simple linear heuristic, not a calibrated ranking model.
package score

import (
	"regexp"
	"strings"
	"time"

	"github.com/mstanton/codefinder/pkg/models"
)

// Max is the highest total a result can score.
const Max = 15.0

var languageFilter = regexp.MustCompile(`language:\w+`)

// popularityBands maps a minimum star count (exclusive) to points. Bands are
// coarse so marginal star differences do not dominate the total.
var popularityBands = []struct {
	MinStars int
	Points   float64
}{
	{1000, 5},
	{500, 4},
	{100, 3},
	{50, 2},
	{10, 1},
}

// recencyBands maps a maximum age in whole days (exclusive) to points.
var recencyBands = []struct {
	MaxAgeDays int
	Points     float64
}{
	{30, 3},
	{90, 2},
	{365, 1},
}

// Scorer scores results against a query. The clock is injectable so recency
// can be tested deterministically.
type Scorer struct {
	nowFunc func() time.Time
}

// New returns a Scorer using the wall clock.
func New() *Scorer {
	return &Scorer{nowFunc: time.Now}
}

// NewWithClock returns a Scorer with a fixed clock, for tests.
func NewWithClock(now func() time.Time) *Scorer {
	return &Scorer{nowFunc: now}
}

// Score computes the total match score for a result, always in [0, Max].
func (s *Scorer) Score(res models.ScoredResult, query string) float64 {
	return Popularity(res.Stars) +
		s.recency(res.LastUpdated) +
		ContentMatch(res.CodeSnippet, query) +
		QualitySignals(res.CodeSnippet)
}

// Popularity returns the star-count band contribution, one of {0,1,2,3,4,5}.
func Popularity(stars int) float64 {
	for _, b := range popularityBands {
		if stars > b.MinStars {
			return b.Points
		}
	}
	return 0
}

// recency returns the age band contribution, one of {0,1,2,3}. Unparseable
// timestamps (including the "Unknown" sentinel) contribute 0 silently.
func (s *Scorer) recency(lastUpdated string) float64 {
	t, err := time.Parse(time.RFC3339, lastUpdated)
	if err != nil {
		return 0
	}
	days := int(s.nowFunc().Sub(t).Hours() / 24)
	for _, b := range recencyBands {
		if days < b.MaxAgeDays {
			return b.Points
		}
	}
	return 0
}

// ContentMatch awards up to 5 points for query terms appearing in the
// snippet: the full 5 when every term is present, otherwise partial credit
// proportional to the matching term count. Unlike snippet matching, no
// stoplist is applied here.
func ContentMatch(codeSnippet, query string) float64 {
	cleaned := strings.TrimSpace(languageFilter.ReplaceAllString(strings.ToLower(query), ""))
	terms := strings.Fields(cleaned)
	if len(terms) == 0 {
		return 5
	}

	lower := strings.ToLower(codeSnippet)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	if matched == len(terms) {
		return 5
	}
	return 5 * float64(matched) / float64(len(terms))
}

// QualitySignals awards up to 2 points for documentation and comment
// heuristics: a docstring marker, and more than two '#' characters.
func QualitySignals(codeSnippet string) float64 {
	points := 0.0
	lower := strings.ToLower(codeSnippet)
	if strings.Contains(lower, "docstring") || strings.Contains(codeSnippet, `"""`) {
		points++
	}
	if strings.Count(codeSnippet, "#") > 2 {
		points++
	}
	return points
}
