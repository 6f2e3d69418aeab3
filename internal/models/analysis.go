package models

import "encoding/json"

// AnalysisRow is one ranked student in an analysis report.
type AnalysisRow struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	AverageScore   float64 `json:"average_score"`
	Variance       float64 `json:"variance"`
	Rank           int     `json:"rank"`
	InversionCount int     `json:"inversion_count"`
}

// AnalysisRequest scopes one analysis pass. Round 0 covers all rounds and a
// nil ReviewerGroup covers all reviewer groups of the class.
type AnalysisRequest struct {
	ClassID       string
	Round         int
	ReviewerGroup *int
}

// PairVerdict is one reviewer's ordering of a pair, such as "B1>B2" or "B1=B2".
type PairVerdict struct {
	First    string
	Second   string
	Verdicts map[string]string
}

// MarshalJSON flattens the verdicts next to the pair so reviewer ids become
// columns of the row.
func (p PairVerdict) MarshalJSON() ([]byte, error) {
	row := make(map[string]interface{}, len(p.Verdicts)+1)
	for reviewer, verdict := range p.Verdicts {
		row[reviewer] = verdict
	}
	row["pair"] = [2]string{p.First, p.Second}
	return json.Marshal(row)
}

// ComparisonTable lists, for every pair of rated students, how each reviewer
// ordered the two.
type ComparisonTable struct {
	Reviewers []string      `json:"reviewers"`
	Pairs     []PairVerdict `json:"data"`
}
