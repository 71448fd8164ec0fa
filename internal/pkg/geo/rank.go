package geo

import (
	"math"
	"sort"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// proximityCutoffKm is where the distance term bottoms out. Beyond it a
// candidate contributes zero proximity (never negative), so a famous
// far-away place can still outrank a nearby obscure one.
const proximityCutoffKm = 50.0

// RankWeights blends proximity against popularity. The two call sites
// keep distinct policies: viewport refetch trusts popularity a bit more
// since the user already framed the area.
type RankWeights struct {
	Distance   float64
	Popularity float64
}

var (
	FreeTextWeights = RankWeights{Distance: 0.6, Popularity: 0.4}
	ViewportWeights = RankWeights{Distance: 0.5, Popularity: 0.5}
)

// Score computes the blended ranking score for one candidate.
func Score(p domain.GeoPoint, popularity float64, origin domain.GeoPoint, w RankWeights) float64 {
	proximity := math.Max(0, 1-DistanceKm(origin, p)/proximityCutoffKm)
	return proximity*w.Distance + popularity/100*w.Popularity
}

// Rank returns the candidates sorted by descending score. The sort is
// stable and candidates without geometry always sort last; they never
// break the comparator.
func Rank(results []domain.SearchResult, origin domain.GeoPoint, w RankWeights) []domain.SearchResult {
	out := make([]domain.SearchResult, len(results))
	copy(out, results)

	for i := range out {
		if out[i].Geometry == nil {
			out[i].Score = nil
			continue
		}
		s := Score(*out[i].Geometry, out[i].PopularityScore, origin, w)
		out[i].Score = &s
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Score, out[j].Score
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return *si > *sj
		}
	})
	return out
}
