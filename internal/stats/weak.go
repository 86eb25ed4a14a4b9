package stats

import (
	"sort"

	"github.com/verte-zerg/versetype/internal/model"
)

// WeakestChars returns up to top characters with the lowest first-attempt
// accuracy among those seen at least minSeen times.
func WeakestChars(aggs []model.CharAggregate, top, minSeen int) []model.CharAggregate {
	candidates := make([]model.CharAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Correct+agg.Incorrect < minSeen || agg.Incorrect == 0 {
			continue
		}
		candidates = append(candidates, agg)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := charAccuracy(candidates[i])
		aj := charAccuracy(candidates[j])
		if ai == aj {
			return candidates[i].Char < candidates[j].Char
		}
		return ai < aj
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}

func charAccuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
