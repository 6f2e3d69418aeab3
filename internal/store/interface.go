package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

type ReviewStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateStudent(ctx context.Context, student models.Student) error
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	StudentsIn(ctx context.Context, classID string, group int, submittedOnly bool) ([]models.SubmittedStudent, error)

	GetProject(ctx context.Context, studentID string) (*models.Project, error)
	MarkProjectSubmitted(ctx context.Context, studentID string, at int64) error

	GetGroupAssignment(ctx context.Context, classID string, reviewerGroup int) (*models.GroupAssignment, error)
	SetGroupAssignment(ctx context.Context, assignment models.GroupAssignment) error

	RatingExists(ctx context.Context, reviewerID string, round int) (bool, error)
	InsertRatings(ctx context.Context, batch models.RatingBatch) error
	RatingsBy(ctx context.Context, filter models.RatingFilter) ([]models.Rating, error)
	CountRatings(ctx context.Context) (int, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name order,
// translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		names = append(names, file.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *BaseStore) CreateStudent(ctx context.Context, student models.Student) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO students (id, name, class_id, group_id, created_at)
		VALUES (:id, :name, :class_id, :group_id, :created_at)
	`, student); err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.Converter(`
		INSERT INTO projects (student_id, submitted, submitted_at)
		VALUES (?, ?, NULL)
	`), student.ID, false); err != nil {
		return fmt.Errorf("failed to create project for %s: %w", student.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit student %s: %w", student.ID, err)
	}
	return nil
}

func (s *BaseStore) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, name, class_id, group_id, created_at
		FROM students
		WHERE id = ?
	`)

	err := s.DB.GetContext(ctx, &student, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

// StudentsIn lists students of a class joined with their project state.
// Pass models.AnyGroup to list every group.
func (s *BaseStore) StudentsIn(ctx context.Context, classID string, group int, submittedOnly bool) ([]models.SubmittedStudent, error) {
	query := `
		SELECT
			s.id,
			s.name,
			s.class_id,
			s.group_id,
			s.created_at,
			p.submitted
		FROM students s
		JOIN projects p ON p.student_id = s.id
		WHERE s.class_id = ?`
	args := []interface{}{classID}

	if group != models.AnyGroup {
		query += ` AND s.group_id = ?`
		args = append(args, group)
	}
	if submittedOnly {
		query += ` AND p.submitted = ?`
		args = append(args, true)
	}
	query += ` ORDER BY s.id`

	var students []models.SubmittedStudent
	if err := s.DB.SelectContext(ctx, &students, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list students of class %s: %w", classID, err)
	}
	return students, nil
}

func (s *BaseStore) GetProject(ctx context.Context, studentID string) (*models.Project, error) {
	var project models.Project
	query := s.Converter(`
		SELECT student_id, submitted, submitted_at
		FROM projects
		WHERE student_id = ?
	`)

	err := s.DB.GetContext(ctx, &project, query, studentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (s *BaseStore) MarkProjectSubmitted(ctx context.Context, studentID string, at int64) error {
	res, err := s.DB.ExecContext(ctx, s.Converter(`
		UPDATE projects
		SET submitted = ?, submitted_at = ?
		WHERE student_id = ?
	`), true, at, studentID)
	if err != nil {
		return fmt.Errorf("failed to mark project submitted: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark project submitted: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrStudentNotFound, studentID)
	}
	return nil
}

func (s *BaseStore) GetGroupAssignment(ctx context.Context, classID string, reviewerGroup int) (*models.GroupAssignment, error) {
	var assignment models.GroupAssignment
	query := s.Converter(`
		SELECT class_id, reviewer_group, target_group
		FROM group_assignments
		WHERE class_id = ? AND reviewer_group = ?
	`)

	err := s.DB.GetContext(ctx, &assignment, query, classID, reviewerGroup)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group assignment: %w", err)
	}
	return &assignment, nil
}

func (s *BaseStore) SetGroupAssignment(ctx context.Context, assignment models.GroupAssignment) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO group_assignments (class_id, reviewer_group, target_group)
		VALUES (:class_id, :reviewer_group, :target_group)
		ON CONFLICT(class_id, reviewer_group) DO UPDATE SET
		target_group = :target_group
	`, assignment)
	if err != nil {
		return fmt.Errorf("failed to set group assignment: %w", err)
	}
	return nil
}

func (s *BaseStore) RatingExists(ctx context.Context, reviewerID string, round int) (bool, error) {
	return s.ratingExists(ctx, s.DB, reviewerID, round)
}

func (s *BaseStore) ratingExists(ctx context.Context, q sqlx.QueryerContext, reviewerID string, round int) (bool, error) {
	var count int
	query := s.Converter(`
		SELECT COUNT(*)
		FROM rating_batches
		WHERE reviewer_id = ? AND round = ?
	`)
	if err := sqlx.GetContext(ctx, q, &count, query, reviewerID, round); err != nil {
		return false, fmt.Errorf("failed to check existing ratings: %w", err)
	}
	return count > 0, nil
}

// InsertRatings persists a reviewer's whole round in one transaction. The
// (reviewer, round) pair is claimed in rating_batches first, so a duplicate
// submission fails before any rating row is written.
func (s *BaseStore) InsertRatings(ctx context.Context, batch models.RatingBatch) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.ratingExists(ctx, tx, batch.ReviewerID, batch.Round)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: reviewer %s round %d", models.ErrDuplicateSubmission, batch.ReviewerID, batch.Round)
	}

	res, err := tx.ExecContext(ctx, s.Converter(`
		INSERT INTO rating_batches (reviewer_id, round, batch_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(reviewer_id, round) DO NOTHING
	`), batch.ReviewerID, batch.Round, batch.ID, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to claim rating batch: %w", err)
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to claim rating batch: %w", err)
	}
	if claimed == 0 {
		return fmt.Errorf("%w: reviewer %s round %d", models.ErrDuplicateSubmission, batch.ReviewerID, batch.Round)
	}

	for _, rating := range batch.Ratings {
		rating.BatchID = batch.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO ratings (
				batch_id, reviewer_id, reviewer_class, reviewer_group, target_group,
				target_id, innovation_score, professional_score, round, created_at
			)
			VALUES (
				:batch_id, :reviewer_id, :reviewer_class, :reviewer_group, :target_group,
				:target_id, :innovation_score, :professional_score, :round, :created_at
			)
		`, rating); err != nil {
			return fmt.Errorf("failed to insert rating for %s: %w", rating.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ratings: %w", err)
	}
	return nil
}

func (s *BaseStore) RatingsBy(ctx context.Context, filter models.RatingFilter) ([]models.Rating, error) {
	query := `
		SELECT
			id,
			batch_id,
			reviewer_id,
			reviewer_class,
			reviewer_group,
			target_group,
			target_id,
			innovation_score,
			professional_score,
			round,
			created_at
		FROM ratings
		WHERE 1=1`
	var args []interface{}

	if filter.Round != 0 {
		query += ` AND round = ?`
		args = append(args, filter.Round)
	}
	if filter.ReviewerClass != "" {
		query += ` AND reviewer_class = ?`
		args = append(args, filter.ReviewerClass)
	}
	if filter.ReviewerGroup != nil {
		query += ` AND reviewer_group = ?`
		args = append(args, *filter.ReviewerGroup)
	}
	if filter.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, filter.TargetID)
	}
	query += ` ORDER BY reviewer_id, round, target_id`

	var ratings []models.Rating
	if err := s.DB.SelectContext(ctx, &ratings, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}
	return ratings, nil
}

func (s *BaseStore) CountRatings(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM ratings`); err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return count, nil
}
