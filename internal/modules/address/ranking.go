package address

import (
	"math"
	"strings"

	"ridesafe/internal/types"
)

const (
	exactMatchScore  = 100
	wordMatchScore   = 10
	proximityHorizon = 50.0
)

// RelevanceScore rates how well a formatted address matches the user's query:
// 100 for a case-insensitive substring match, otherwise 10 per query word
// longer than two characters found in the address.
func RelevanceScore(formatted, query string) float64 {
	hay := strings.ToLower(formatted)
	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" && strings.Contains(hay, q) {
		return exactMatchScore
	}
	var score float64
	for _, w := range strings.Fields(q) {
		if len(w) > 2 && strings.Contains(hay, w) {
			score += wordMatchScore
		}
	}
	return score
}

// ProximityBonus favours candidates within the proximity horizon of the reference.
func ProximityBonus(distanceKm float64) float64 {
	return math.Max(0, proximityHorizon-distanceKm)
}

// scoreCandidates returns a copy of cands with Score and, when ref is set,
// DistanceKm populated.
func scoreCandidates(cands []Candidate, query string, ref *types.Point) []Candidate {
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		c.Score = RelevanceScore(c.FormattedAddress, query)
		c.DistanceKm = nil
		if ref != nil {
			d := DistanceKm(*ref, c.Location)
			c.DistanceKm = &d
			c.Score += ProximityBonus(d)
		}
		out[i] = c
	}
	return out
}

// byDistanceThenScore is the resolver's ordering: nearest first, relevance
// breaks ties.
func byDistanceThenScore(a, b Candidate) bool {
	da, db := distanceOrInf(a), distanceOrInf(b)
	if da != db {
		return da < db
	}
	return a.Score > b.Score
}

func distanceOrInf(c Candidate) float64 {
	if c.DistanceKm == nil {
		return math.Inf(1)
	}
	return *c.DistanceKm
}
