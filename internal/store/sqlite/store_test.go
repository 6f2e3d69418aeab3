// internal/store/sqlite/store_test.go
package sqlite

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
	"github.com/shrimpsizemoose/peerbulle/internal/store"
)

// setupTestDB creates an in-memory SQLite database and applies the real migrations
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(&store.DBConfig{
		DSN:           ":memory:",
		Type:          store.DBTypeSQLite,
		MigrationsDir: "../../../migrations",
	})
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type testData struct {
	store *SQLiteStore
	ctx   context.Context
	now   time.Time
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

	students := []models.Student{
		{ID: "A1", Name: "Student_A1", ClassID: "c1", Group: 0},
		{ID: "A2", Name: "Student_A2", ClassID: "c1", Group: 0},
		{ID: "B1", Name: "Student_B1", ClassID: "c1", Group: 1},
		{ID: "B2", Name: "Student_B2", ClassID: "c1", Group: 1},
		{ID: "X1", Name: "Student_X1", ClassID: "c2", Group: 1},
	}
	for _, st := range students {
		st.CreatedAt = now.Unix()
		require.NoError(t, s.CreateStudent(ctx, st), "Failed to insert test data")
	}
	for _, id := range []string{"A1", "A2", "B1", "X1"} {
		require.NoError(t, s.MarkProjectSubmitted(ctx, id, now.Unix()))
	}

	return &testData{
		store: s,
		ctx:   ctx,
		now:   now,
	}, cleanup
}

func batchFor(reviewer string, round int, targets ...string) models.RatingBatch {
	batch := models.RatingBatch{
		ID:         uuid.NewString(),
		ReviewerID: reviewer,
		Round:      round,
		CreatedAt:  1,
	}
	for _, target := range targets {
		batch.Ratings = append(batch.Ratings, models.Rating{
			ReviewerID:        reviewer,
			ReviewerClass:     "c1",
			ReviewerGroup:     0,
			TargetGroup:       1,
			TargetID:          target,
			InnovationScore:   4,
			ProfessionalScore: 5,
			Round:             round,
			CreatedAt:         1,
		})
	}
	return batch
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestStudentsAndProjects(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("get student", func(t *testing.T) {
		got, err := td.store.GetStudent(td.ctx, "A1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Student_A1", got.Name)
		assert.Equal(t, "c1", got.ClassID)
		assert.Equal(t, 0, got.Group)
	})

	t.Run("get non-existent student", func(t *testing.T) {
		got, err := td.store.GetStudent(td.ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("project created with student", func(t *testing.T) {
		project, err := td.store.GetProject(td.ctx, "B2")
		require.NoError(t, err)
		require.NotNil(t, project)
		assert.False(t, project.Submitted)
		assert.Nil(t, project.SubmittedAt)

		project, err = td.store.GetProject(td.ctx, "B1")
		require.NoError(t, err)
		require.NotNil(t, project)
		assert.True(t, project.Submitted)
		require.NotNil(t, project.SubmittedAt)
		assert.Equal(t, td.now.Unix(), *project.SubmittedAt)
	})

	t.Run("mark unknown project", func(t *testing.T) {
		err := td.store.MarkProjectSubmitted(td.ctx, "nobody", td.now.Unix())
		assert.ErrorIs(t, err, models.ErrStudentNotFound)
	})

	t.Run("students in group", func(t *testing.T) {
		all, err := td.store.StudentsIn(td.ctx, "c1", 1, false)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "B1", all[0].ID)
		assert.True(t, all[0].Submitted)
		assert.False(t, all[1].Submitted)

		submitted, err := td.store.StudentsIn(td.ctx, "c1", 1, true)
		require.NoError(t, err)
		require.Len(t, submitted, 1)
		assert.Equal(t, "B1", submitted[0].ID)
	})

	t.Run("students in any group", func(t *testing.T) {
		all, err := td.store.StudentsIn(td.ctx, "c1", models.AnyGroup, true)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestGroupAssignments(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	got, err := td.store.GetGroupAssignment(td.ctx, "c1", 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, td.store.SetGroupAssignment(td.ctx, models.GroupAssignment{ClassID: "c1", ReviewerGroup: 0, TargetGroup: 1}))
	got, err = td.store.GetGroupAssignment(td.ctx, "c1", 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.TargetGroup)

	require.NoError(t, td.store.SetGroupAssignment(td.ctx, models.GroupAssignment{ClassID: "c1", ReviewerGroup: 0, TargetGroup: 2}))
	got, err = td.store.GetGroupAssignment(td.ctx, "c1", 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.TargetGroup, "assignment is replaced, not duplicated")
}

func TestInsertRatings(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("first submission", func(t *testing.T) {
		exists, err := td.store.RatingExists(td.ctx, "A1", 1)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, td.store.InsertRatings(td.ctx, batchFor("A1", 1, "B1", "B2")))

		exists, err = td.store.RatingExists(td.ctx, "A1", 1)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate submission leaves no rows behind", func(t *testing.T) {
		before, err := td.store.CountRatings(td.ctx)
		require.NoError(t, err)

		err = td.store.InsertRatings(td.ctx, batchFor("A1", 1, "B1"))
		assert.ErrorIs(t, err, models.ErrDuplicateSubmission)

		after, err := td.store.CountRatings(td.ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("second round is independent", func(t *testing.T) {
		require.NoError(t, td.store.InsertRatings(td.ctx, batchFor("A1", 2, "B1")))
	})

	t.Run("failed batch rolls back entirely", func(t *testing.T) {
		before, err := td.store.CountRatings(td.ctx)
		require.NoError(t, err)

		// unknown target violates the foreign key on the second row
		err = td.store.InsertRatings(td.ctx, batchFor("A2", 1, "B1", "ghost"))
		require.Error(t, err)

		after, err := td.store.CountRatings(td.ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		exists, err := td.store.RatingExists(td.ctx, "A2", 1)
		require.NoError(t, err)
		assert.False(t, exists, "batch claim is rolled back with the rows")
	})
}

func TestRatingsBy(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	require.NoError(t, td.store.InsertRatings(td.ctx, batchFor("A1", 1, "B1", "B2")))
	require.NoError(t, td.store.InsertRatings(td.ctx, batchFor("A2", 1, "B1")))
	require.NoError(t, td.store.InsertRatings(td.ctx, batchFor("A1", 2, "B2")))

	all, err := td.store.RatingsBy(td.ctx, models.RatingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	first, err := td.store.RatingsBy(td.ctx, models.RatingFilter{Round: 1, ReviewerClass: "c1"})
	require.NoError(t, err)
	assert.Len(t, first, 3)
	for _, r := range first {
		assert.Equal(t, 1, r.Round)
		assert.NotEmpty(t, r.BatchID)
		assert.Equal(t, 5, r.ProfessionalScore)
		assert.Equal(t, 4, r.InnovationScore)
	}

	group := 0
	byGroup, err := td.store.RatingsBy(td.ctx, models.RatingFilter{ReviewerGroup: &group, TargetID: "B2"})
	require.NoError(t, err)
	assert.Len(t, byGroup, 2)

	other := 3
	none, err := td.store.RatingsBy(td.ctx, models.RatingFilter{ReviewerGroup: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}
