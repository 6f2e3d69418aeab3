package scoring

import (
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

// Stats is the aggregate of every qualifying rating a student received.
type Stats struct {
	StudentID string
	Average   float64
	Variance  float64
	Count     int
}

// Aggregate collapses ratings into per-target averages and population
// variances of TotalScore. Placeholder (0,0) ratings are skipped, so students
// that only received placeholders are absent from the result.
func Aggregate(ratings []models.Rating) map[string]Stats {
	totals := make(map[string][]float64)
	for _, r := range ratings {
		if r.IsPlaceholder() {
			continue
		}
		totals[r.TargetID] = append(totals[r.TargetID], TotalScore(r.ProfessionalScore, r.InnovationScore))
	}

	stats := make(map[string]Stats, len(totals))
	for id, values := range totals {
		n := float64(len(values))

		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / n

		var sq float64
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}

		stats[id] = Stats{
			StudentID: id,
			Average:   mean,
			Variance:  sq / n,
			Count:     len(values),
		}
	}
	return stats
}
