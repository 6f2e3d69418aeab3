// internal/scoring/grades.go
package scoring

import (
	"fmt"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

var gradeScores = map[string]int{
	"A": 5,
	"B": 4,
	"C": 3,
	"D": 2,
	"E": 1,
}

func GradeToScore(letter string) (int, error) {
	score, ok := gradeScores[letter]
	if !ok {
		return 0, &models.InvalidGradeError{Grade: letter}
	}
	return score, nil
}

func ScoreToGrade(score int) (string, error) {
	for letter, s := range gradeScores {
		if s == score {
			return letter, nil
		}
	}
	return "", fmt.Errorf("%w: score %d has no grade", models.ErrValidation, score)
}

// TotalScore blends professional and innovation scores. The innovation weight
// grows with the professional score: at P=1 the total is P, at P=5 it is I.
func TotalScore(professional, innovation int) float64 {
	p := float64(professional)
	i := float64(innovation)
	return (1-(p-1)/4)*p + ((p-1)/4)*i
}
