package scoring

import (
	"math"
	"sort"
)

const DefaultTieEpsilon = 1e-6

type Ranked struct {
	Stats
	Rank int
}

// Rank orders students by average descending and assigns competition ranks:
// a student within eps of the previous student's average shares its rank, and
// the next distinct average resumes at its own position ([10,10,9] → 1,1,3).
// Equal averages are ordered by student id so output is deterministic.
func Rank(stats map[string]Stats, eps float64) []Ranked {
	ranked := make([]Ranked, 0, len(stats))
	for _, s := range stats {
		ranked = append(ranked, Ranked{Stats: s})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Average != ranked[j].Average {
			return ranked[i].Average > ranked[j].Average
		}
		return ranked[i].StudentID < ranked[j].StudentID
	})

	for i := range ranked {
		if i > 0 && math.Abs(ranked[i].Average-ranked[i-1].Average) < eps {
			ranked[i].Rank = ranked[i-1].Rank
			continue
		}
		ranked[i].Rank = i + 1
	}
	return ranked
}
