package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
	"github.com/shrimpsizemoose/peerbulle/internal/scoring"
)

// Store is the part of the rating store the review flow needs.
type Store interface {
	StudentsIn(ctx context.Context, classID string, group int, submittedOnly bool) ([]models.SubmittedStudent, error)
	GetGroupAssignment(ctx context.Context, classID string, reviewerGroup int) (*models.GroupAssignment, error)
	RatingExists(ctx context.Context, reviewerID string, round int) (bool, error)
	InsertRatings(ctx context.Context, batch models.RatingBatch) error
}

type Service struct {
	store   Store
	rounds  RoundState
	sampler *Sampler
	now     func() time.Time
}

func NewService(store Store, rounds RoundState, sampler *Sampler) *Service {
	return &Service{
		store:   store,
		rounds:  rounds,
		sampler: sampler,
		now:     time.Now,
	}
}

type Worklist struct {
	ReviewerID  string                    `json:"reviewer_id"`
	TargetGroup int                       `json:"target_group"`
	Targets     []models.SubmittedStudent `json:"targets"`
}

// Worklist returns the students reviewer has to rate.
func (s *Service) Worklist(ctx context.Context, reviewer models.Student) (*Worklist, error) {
	assignment, err := s.store.GetGroupAssignment(ctx, reviewer.ClassID, reviewer.Group)
	if err != nil {
		return nil, fmt.Errorf("failed to get group assignment: %w", err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("%w: class %s group %d", models.ErrMissingAssignment, reviewer.ClassID, reviewer.Group)
	}

	classmates, err := s.store.StudentsIn(ctx, reviewer.ClassID, models.AnyGroup, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list classmates: %w", err)
	}

	return &Worklist{
		ReviewerID:  reviewer.ID,
		TargetGroup: assignment.TargetGroup,
		Targets:     s.sampler.Sample(reviewer, assignment.TargetGroup, classmates),
	}, nil
}

// Submit records one round of ratings for reviewer. The payload must grade
// every worklist target that has a submitted project; targets without one get
// a (0,0) placeholder. Nothing is written unless the whole batch is valid.
func (s *Service) Submit(ctx context.Context, reviewer models.Student, round int, payload models.GradePayload) (*models.RatingBatch, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: round must be positive, got %d", models.ErrValidation, round)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: ratings payload is empty", models.ErrValidation)
	}

	open, err := s.rounds.IsOpen(ctx, reviewer.ClassID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to check round state: %w", err)
	}
	if !open {
		return nil, fmt.Errorf("%w: round %d for class %s", models.ErrRoundClosed, round, reviewer.ClassID)
	}

	worklist, err := s.Worklist(ctx, reviewer)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.RatingExists(ctx, reviewer.ID, round)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Debug.Printf("Rejecting repeated round %d submission from %s", round, reviewer.ID)
		return nil, fmt.Errorf("%w: reviewer %s round %d", models.ErrDuplicateSubmission, reviewer.ID, round)
	}
	if len(worklist.Targets) == 0 {
		return nil, fmt.Errorf("%w: nothing to review for %s", models.ErrValidation, reviewer.ID)
	}

	now := s.now().Unix()
	batch := models.RatingBatch{
		ID:         uuid.NewString(),
		ReviewerID: reviewer.ID,
		Round:      round,
		CreatedAt:  now,
	}

	// backfill drawn with replacement can repeat a target; it is rated once
	rated := make(map[string]bool, len(worklist.Targets))
	for _, target := range worklist.Targets {
		if rated[target.ID] {
			continue
		}
		rated[target.ID] = true

		rating := models.Rating{
			ReviewerID:    reviewer.ID,
			ReviewerClass: reviewer.ClassID,
			ReviewerGroup: reviewer.Group,
			TargetGroup:   worklist.TargetGroup,
			TargetID:      target.ID,
			Round:         round,
			CreatedAt:     now,
		}

		if target.Submitted {
			grades, ok := payload[target.ID]
			if !ok {
				return nil, fmt.Errorf("%w: missing rating for student %s", models.ErrValidation, target.ID)
			}
			if err := grades.Validate(); err != nil {
				return nil, fmt.Errorf("student %s: %w", target.ID, err)
			}
			if rating.InnovationScore, err = scoring.GradeToScore(grades.Innovation); err != nil {
				return nil, err
			}
			if rating.ProfessionalScore, err = scoring.GradeToScore(grades.Professional); err != nil {
				return nil, err
			}
		}

		batch.Ratings = append(batch.Ratings, rating)
	}

	if err := s.store.InsertRatings(ctx, batch); err != nil {
		return nil, err
	}

	logger.Info.Printf("Stored %d round %d ratings from %s", len(batch.Ratings), round, reviewer.ID)
	return &batch, nil
}
