package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Rating is a single reviewer→target score for one round. ReviewerClass and
// ReviewerGroup are a snapshot taken at write time and are not kept in sync
// with later re-grouping of the reviewer.
type Rating struct {
	ID                int64  `db:"id" json:"id"`
	BatchID           string `db:"batch_id" json:"batch_id"`
	ReviewerID        string `db:"reviewer_id" json:"reviewer_id"`
	ReviewerClass     string `db:"reviewer_class" json:"reviewer_class"`
	ReviewerGroup     int    `db:"reviewer_group" json:"reviewer_group"`
	TargetGroup       int    `db:"target_group" json:"target_group"`
	TargetID          string `db:"target_id" json:"target_id"`
	InnovationScore   int    `db:"innovation_score" json:"innovation_score"`
	ProfessionalScore int    `db:"professional_score" json:"professional_score"`
	Round             int    `db:"round" json:"round"`
	CreatedAt         int64  `db:"created_at" json:"created_at"`
}

// IsPlaceholder reports whether the rating marks a target that had nothing
// submitted. Placeholders count as completed reviews but never as scores.
func (r Rating) IsPlaceholder() bool {
	return r.ProfessionalScore == 0 && r.InnovationScore == 0
}

// RatingBatch is everything a reviewer submits for one round.
type RatingBatch struct {
	ID         string
	ReviewerID string
	Round      int
	CreatedAt  int64
	Ratings    []Rating
}

// RatingFilter narrows RatingsBy. Zero values mean "any".
type RatingFilter struct {
	Round         int
	ReviewerClass string
	ReviewerGroup *int
	TargetID      string
}

// GradeLetters is what a reviewer sends for one target.
type GradeLetters struct {
	Innovation   string `json:"innovation" validate:"required,oneof=A B C D E"`
	Professional string `json:"professional" validate:"required,oneof=A B C D E"`
}

// GradePayload maps target student ids to their letter grades.
type GradePayload map[string]GradeLetters

func (g GradeLetters) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: grades must be A-E: %v", ErrValidation, err)
	}
	return nil
}
