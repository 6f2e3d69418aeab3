package scoring

import (
	"math"
	"sort"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

type reviewPass struct {
	reviewer string
	round    int
}

type localScore struct {
	target string
	total  int
}

// CountInversions counts, per student, how often a single reviewer ordered
// that student against another one opposite to the global averages.
//
// Each (reviewer, round) pass is compared independently. Within a pass every
// unordered pair of rated targets is checked; pairs are skipped when either
// target has no global average, when the global averages are within eps, or
// when the reviewer gave both the same local total (professional+innovation).
// A disagreement adds one to both students of the pair.
func CountInversions(ratings []models.Rating, stats map[string]Stats, eps float64) map[string]int {
	passes := make(map[reviewPass][]localScore)
	seen := make(map[reviewPass]map[string]bool)
	for _, r := range ratings {
		if r.IsPlaceholder() {
			continue
		}
		key := reviewPass{reviewer: r.ReviewerID, round: r.Round}
		if seen[key] == nil {
			seen[key] = make(map[string]bool)
		}
		// one local score per target within a pass
		if seen[key][r.TargetID] {
			continue
		}
		seen[key][r.TargetID] = true
		passes[key] = append(passes[key], localScore{
			target: r.TargetID,
			total:  r.ProfessionalScore + r.InnovationScore,
		})
	}

	inversions := make(map[string]int)
	for _, scores := range passes {
		sort.Slice(scores, func(i, j int) bool { return scores[i].target < scores[j].target })

		for a := 0; a < len(scores); a++ {
			for b := a + 1; b < len(scores); b++ {
				i, j := scores[a], scores[b]

				si, okI := stats[i.target]
				sj, okJ := stats[j.target]
				if !okI || !okJ {
					continue
				}
				if math.Abs(si.Average-sj.Average) < eps {
					continue
				}
				if i.total == j.total {
					continue
				}

				globalGreater := si.Average > sj.Average
				localGreater := i.total > j.total
				if globalGreater != localGreater {
					inversions[i.target]++
					inversions[j.target]++
				}
			}
		}
	}
	return inversions
}
