package review

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

func classmate(id string, group int, submitted bool) models.SubmittedStudent {
	return models.SubmittedStudent{
		Student:   models.Student{ID: id, Name: "Student_" + id, ClassID: "c1", Group: group},
		Submitted: submitted,
	}
}

func ids(students []models.SubmittedStudent) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func countOf(students []models.SubmittedStudent) map[string]int {
	counts := make(map[string]int)
	for _, s := range students {
		counts[s.ID]++
	}
	return counts
}

var reviewer = models.Student{ID: "A1", ClassID: "c1", Group: 0}

func TestSampler_BackfillWithoutReplacement(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("A1", 0, true),
		classmate("A2", 0, true),
		classmate("B1", 1, true),
		classmate("B2", 1, true),
		classmate("B3", 1, false),
	}
	for i := 1; i <= 5; i++ {
		classmates = append(classmates, classmate(fmt.Sprintf("C%d", i), 2, true))
	}

	sampler := NewSampler(4, false)
	for seed := int64(0); seed < 50; seed++ {
		seed := seed
		sampler.NewRand = func(models.Student) *rand.Rand { return rand.New(rand.NewSource(seed)) }

		targets := sampler.Sample(reviewer, 1, classmates)
		require.Len(t, targets, 4)
		assert.Equal(t, []string{"B1", "B2"}, ids(targets[:2]))

		counts := countOf(targets)
		for id, n := range counts {
			assert.Equal(t, 1, n, "duplicate %s with a large enough pool", id)
		}
		for _, target := range targets[2:] {
			assert.Equal(t, 2, target.Group, "backfill comes from neither own nor target group")
		}
	}
}

func TestSampler_BackfillWithReplacement(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("A1", 0, true),
		classmate("B1", 1, true),
		classmate("B2", 1, true),
		classmate("C1", 2, true),
		classmate("C2", 2, false),
	}

	targets := NewSampler(4, false).Sample(reviewer, 1, classmates)

	require.Len(t, targets, 4)
	counts := countOf(targets)
	assert.Equal(t, 1, counts["B1"])
	assert.Equal(t, 1, counts["B2"])
	assert.Equal(t, 2, counts["C1"], "single candidate is drawn twice")
}

func TestSampler_NoBackfillNeeded(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("B1", 1, true),
		classmate("B2", 1, true),
		classmate("B3", 1, true),
		classmate("B4", 1, true),
		classmate("B5", 1, true),
		classmate("C1", 2, true),
	}

	targets := NewSampler(4, false).Sample(reviewer, 1, classmates)
	assert.Equal(t, []string{"B1", "B2", "B3", "B4", "B5"}, ids(targets), "mandatory targets are never cut")
}

func TestSampler_EmptyPool(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("A1", 0, true),
		classmate("A2", 0, true),
		classmate("B1", 1, true),
		classmate("C1", 2, false),
	}

	targets := NewSampler(4, false).Sample(reviewer, 1, classmates)
	assert.Equal(t, []string{"B1"}, ids(targets))
}

func TestSampler_NeverSelfOrOwnGroup(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("A1", 0, true),
		classmate("A2", 0, true),
		classmate("A3", 0, true),
	}
	assert.Empty(t, NewSampler(4, false).Sample(reviewer, 1, classmates))

	// a misconfigured self-assignment still never returns the reviewer
	targets := NewSampler(4, false).Sample(reviewer, 0, classmates)
	assert.Equal(t, []string{"A2", "A3"}, ids(targets))
}

func TestSampler_IncludeUnsubmitted(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("B1", 1, true),
		classmate("B2", 1, false),
		classmate("C1", 2, true),
		classmate("C2", 2, true),
	}

	// B2 rides along as a placeholder; three backfill draws still top up B1
	targets := NewSampler(4, true).Sample(reviewer, 1, classmates)
	require.Len(t, targets, 5)
	assert.Equal(t, []string{"B1", "B2"}, ids(targets[:2]))
	for _, target := range targets[2:] {
		assert.Equal(t, 2, target.Group)
		assert.True(t, target.Submitted)
	}
}

func TestSampler_UnsubmittedTargetsDoNotCountTowardK(t *testing.T) {
	classmates := []models.SubmittedStudent{
		classmate("B1", 1, true),
		classmate("B2", 1, false),
		classmate("B3", 1, false),
		classmate("B4", 1, false),
		classmate("C1", 2, true),
		classmate("C2", 2, true),
		classmate("C3", 2, true),
	}

	targets := NewSampler(4, true).Sample(reviewer, 1, classmates)
	require.Len(t, targets, 7)
	assert.Equal(t, []string{"B1", "B2", "B3", "B4"}, ids(targets[:4]))
	assert.ElementsMatch(t, []string{"C1", "C2", "C3"}, ids(targets[4:]))

	submitted := 0
	for _, target := range targets {
		if target.Submitted {
			submitted++
		}
	}
	assert.Equal(t, 4, submitted)

	// without placeholders the worklist is the same minus B2-B4
	targets = NewSampler(4, false).Sample(reviewer, 1, classmates)
	assert.Equal(t, []string{"B1"}, ids(targets[:1]))
	assert.ElementsMatch(t, []string{"C1", "C2", "C3"}, ids(targets[1:]))
}

func TestSampler_StablePerReviewer(t *testing.T) {
	var classmates []models.SubmittedStudent
	classmates = append(classmates, classmate("B1", 1, true))
	for i := 1; i <= 8; i++ {
		classmates = append(classmates, classmate(fmt.Sprintf("C%d", i), 2, true))
	}

	sampler := NewSampler(4, false)
	first := sampler.Sample(reviewer, 1, classmates)
	second := sampler.Sample(reviewer, 1, classmates)
	assert.Equal(t, ids(first), ids(second))
}

func TestStaticRounds(t *testing.T) {
	rounds := &StaticRounds{
		Open:     []int{1},
		PerClass: map[string][]int{"c2": {1, 2}},
	}

	open, err := rounds.IsOpen(context.Background(), "c1", 1)
	require.NoError(t, err)
	assert.True(t, open)

	open, err = rounds.IsOpen(context.Background(), "c1", 2)
	require.NoError(t, err)
	assert.False(t, open)

	open, err = rounds.IsOpen(context.Background(), "c2", 2)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestRedisRoundsKey(t *testing.T) {
	r := NewRedisRounds(nil, "", nil)
	assert.Equal(t, "round:c1:2", r.key("c1", 2))

	r = NewRedisRounds(nil, "peer:{class}:r{round}", nil)
	assert.Equal(t, "peer:c9:r1", r.key("c9", 1))
}
