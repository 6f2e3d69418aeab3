package models

// AnyGroup matches students of every group in a class.
const AnyGroup = -1

type Student struct {
	ID        string `db:"id" json:"student_id" validate:"required,max=64"`
	Name      string `db:"name" json:"name" validate:"required"`
	ClassID   string `db:"class_id" json:"class_id" validate:"required,max=32"`
	Group     int    `db:"group_id" json:"group" validate:"gte=0"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// Project is one-to-one with Student and is created unsubmitted together with it.
type Project struct {
	StudentID   string `db:"student_id" json:"student_id"`
	Submitted   bool   `db:"submitted" json:"submitted"`
	SubmittedAt *int64 `db:"submitted_at" json:"submitted_at,omitempty"`
}

// SubmittedStudent is a student row joined with its project state.
type SubmittedStudent struct {
	Student
	Submitted bool `db:"submitted" json:"submitted"`
}

// GroupAssignment maps a reviewing group to the group whose work it rates.
/*
CREATE TABLE group_assignments (
    class_id TEXT NOT NULL,
    reviewer_group INTEGER NOT NULL,
    target_group INTEGER NOT NULL,
    PRIMARY KEY (class_id, reviewer_group)
);
*/
type GroupAssignment struct {
	ClassID       string `db:"class_id" json:"class_id" validate:"required"`
	ReviewerGroup int    `db:"reviewer_group" json:"reviewer_group" validate:"gte=0"`
	TargetGroup   int    `db:"target_group" json:"target_group" validate:"gte=0,nefield=ReviewerGroup"`
}

func (s *Student) Validate() error {
	return validate.Struct(s)
}

func (a *GroupAssignment) Validate() error {
	return validate.Struct(a)
}
