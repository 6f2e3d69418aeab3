package scoring

import (
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

// BuildReport runs aggregation, ranking and inversion detection once and
// joins the results per student. Students without a defined average are left
// out; rows come back in rank order.
func BuildReport(students []models.Student, ratings []models.Rating, eps float64) []models.AnalysisRow {
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	stats := Aggregate(ratings)
	ranked := Rank(stats, eps)
	inversions := CountInversions(ratings, stats, eps)

	rows := make([]models.AnalysisRow, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, models.AnalysisRow{
			StudentID:      r.StudentID,
			Name:           names[r.StudentID],
			AverageScore:   r.Average,
			Variance:       r.Variance,
			Rank:           r.Rank,
			InversionCount: inversions[r.StudentID],
		})
	}
	return rows
}
