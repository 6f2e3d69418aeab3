package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

// Comparisons builds the per-reviewer pairwise table: for every pair of
// students rated in ratings, each reviewer who rated both gets a verdict
// comparing the two weighted totals. Reviewers who rated only one side of a
// pair are left out of that row. Placeholders are ignored, and totals within
// eps count as equal.
//
// Callers scope ratings to a single round; a reviewer's later rating of the
// same target overrides an earlier one.
func Comparisons(ratings []models.Rating, eps float64) models.ComparisonTable {
	totals := make(map[string]map[string]float64)
	targets := make(map[string]bool)
	for _, r := range ratings {
		if r.IsPlaceholder() {
			continue
		}
		if totals[r.ReviewerID] == nil {
			totals[r.ReviewerID] = make(map[string]float64)
		}
		totals[r.ReviewerID][r.TargetID] = TotalScore(r.ProfessionalScore, r.InnovationScore)
		targets[r.TargetID] = true
	}

	reviewers := make([]string, 0, len(totals))
	for id := range totals {
		reviewers = append(reviewers, id)
	}
	sort.Strings(reviewers)

	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := models.ComparisonTable{
		Reviewers: reviewers,
		Pairs:     []models.PairVerdict{},
	}
	for a := 0; a < len(ids); a++ {
		for b := a + 1; b < len(ids); b++ {
			i, j := ids[a], ids[b]
			row := models.PairVerdict{First: i, Second: j, Verdicts: map[string]string{}}
			for _, reviewer := range reviewers {
				ti, okI := totals[reviewer][i]
				tj, okJ := totals[reviewer][j]
				if !okI || !okJ {
					continue
				}
				switch {
				case math.Abs(ti-tj) < eps:
					row.Verdicts[reviewer] = fmt.Sprintf("%s=%s", i, j)
				case ti > tj:
					row.Verdicts[reviewer] = fmt.Sprintf("%s>%s", i, j)
				default:
					row.Verdicts[reviewer] = fmt.Sprintf("%s>%s", j, i)
				}
			}
			table.Pairs = append(table.Pairs, row)
		}
	}
	return table
}
