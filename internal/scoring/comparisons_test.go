package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

func TestComparisons(t *testing.T) {
	ratings := []models.Rating{
		rating("r1", "s1", 5, 5), // 5
		rating("r1", "s2", 3, 3), // 3
		rating("r1", "s3", 3, 3), // 3
		rating("r2", "s1", 2, 2), // 2
		rating("r2", "s2", 4, 4), // 4
		rating("r2", "s4", 0, 0), // placeholder
		rating("r3", "s3", 5, 1), // 1
	}

	table := Comparisons(ratings, DefaultTieEpsilon)

	assert.Equal(t, []string{"r1", "r2", "r3"}, table.Reviewers)
	require.Len(t, table.Pairs, 3, "s4 only has a placeholder")

	byPair := make(map[[2]string]map[string]string)
	for _, p := range table.Pairs {
		byPair[[2]string{p.First, p.Second}] = p.Verdicts
	}

	// r2 disagrees with r1 on s1/s2
	assert.Equal(t, map[string]string{"r1": "s1>s2", "r2": "s2>s1"}, byPair[[2]string{"s1", "s2"}])
	assert.Equal(t, map[string]string{"r1": "s1>s3"}, byPair[[2]string{"s1", "s3"}])
	assert.Equal(t, map[string]string{"r1": "s2=s3"}, byPair[[2]string{"s2", "s3"}])
}

func TestComparisons_Empty(t *testing.T) {
	table := Comparisons(nil, DefaultTieEpsilon)
	assert.Empty(t, table.Reviewers)
	assert.NotNil(t, table.Pairs)
}

func TestComparisons_JSONRows(t *testing.T) {
	table := Comparisons([]models.Rating{
		rating("r1", "s1", 5, 5),
		rating("r1", "s2", 3, 3),
	}, DefaultTieEpsilon)

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reviewers":["r1"],"data":[{"pair":["s1","s2"],"r1":"s1>s2"}]}`, string(data))
}
