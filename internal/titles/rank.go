package titles

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"
)

var numberRe = regexp.MustCompile(`\b\d+\b`)

// Confidence buckets a similarity score.
type Confidence int

const (
	ConfidenceNone   Confidence = iota // below 0.70
	ConfidenceLow                      // 0.70 and up
	ConfidenceMedium                   // 0.85 and up
	ConfidenceHigh                     // 0.95 and up
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	}
	return "none"
}

func confidenceOf(score float64) Confidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	}
	return ConfidenceNone
}

// Match is a candidate that scored against a query.
type Match struct {
	Index      int // position in the candidate slice
	Title      string
	Score      float64 // 0 to 1
	Confidence Confidence
}

// Score rates how well candidate matches query, from 0 to 1. It is the
// Jaro-Winkler similarity of the cleaned titles, raised when the query
// appears whole in the candidate, and adjusted for sequel numbers.
func Score(query, candidate string) float64 {
	q, c := Clean(query), Clean(candidate)
	if q == "" || c == "" {
		return 0
	}
	score := float64(edlib.JaroWinklerSimilarity(q, c))
	if q != c && containsWords(c, q) {
		// "dune" in "dune part two": strong, but below an exact match.
		score = max(score, 0.85+0.1*float64(len(q))/float64(len(c)))
	}
	return adjustForNumbers(score, numberRe.FindAllString(q, -1), numberRe.FindAllString(c, -1))
}

// Rank scores every candidate and returns those at or above minScore, best
// first. Ties keep candidate order.
func Rank(query string, candidates []string, minScore float64) []Match {
	var out []Match
	for i, c := range candidates {
		s := Score(query, c)
		if s < minScore || s == 0 {
			continue
		}
		out = append(out, Match{Index: i, Title: c, Score: s, Confidence: confidenceOf(s)})
	}
	slices.SortStableFunc(out, func(a, b Match) int { return cmp.Compare(b.Score, a.Score) })
	return out
}

// Best returns the top match, or a zero Match with ConfidenceNone when
// nothing reaches the low threshold.
func Best(query string, candidates []string) Match {
	ranked := Rank(query, candidates, 0.70)
	if len(ranked) == 0 {
		return Match{Index: -1}
	}
	return ranked[0]
}

// containsWords reports whether needle occurs in s on word boundaries.
func containsWords(s, needle string) bool {
	return strings.Contains(" "+s+" ", " "+needle+" ")
}

// adjustForNumbers rewards a shared sequel number and penalizes a missing or
// different one. Queries without numbers are unaffected.
func adjustForNumbers(score float64, queryNums, candNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(candNums) == 0 {
		return score * 0.85
	}
	for _, n := range queryNums {
		if slices.Contains(candNums, n) {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
