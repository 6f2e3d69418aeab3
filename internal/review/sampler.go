package review

import (
	"hash/fnv"
	"math/rand"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

const DefaultTargetsPerReviewer = 4

// Sampler builds a reviewer's worklist: every submitted student of the
// assigned target group, topped up from the other groups of the class until
// the worklist holds K submitted projects.
type Sampler struct {
	K int
	// IncludeUnsubmitted keeps target group members without a project in the
	// worklist. They are rated with a (0,0) placeholder.
	IncludeUnsubmitted bool
	// NewRand returns the random source for one reviewer. The default seeds
	// from the reviewer id so the worklist shown before rating is the same one
	// that is checked on submission.
	NewRand func(reviewer models.Student) *rand.Rand
}

func NewSampler(k int, includeUnsubmitted bool) *Sampler {
	if k <= 0 {
		k = DefaultTargetsPerReviewer
	}
	return &Sampler{
		K:                  k,
		IncludeUnsubmitted: includeUnsubmitted,
		NewRand:            reviewerRand,
	}
}

func reviewerRand(reviewer models.Student) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(reviewer.ClassID))
	h.Write([]byte{0})
	h.Write([]byte(reviewer.ID))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Sample picks targets for reviewer out of classmates (students of the
// reviewer's class with their project state). Backfill is drawn without
// replacement when the pool is large enough and with replacement otherwise,
// so the worklist may repeat a backfill student in small classes. An empty
// pool yields fewer than K targets.
func (s *Sampler) Sample(reviewer models.Student, targetGroup int, classmates []models.SubmittedStudent) []models.SubmittedStudent {
	var targets, pool []models.SubmittedStudent
	mandatory := 0
	for _, c := range classmates {
		if c.ID == reviewer.ID || c.ClassID != reviewer.ClassID {
			continue
		}
		switch {
		case c.Group == targetGroup:
			if c.Submitted {
				mandatory++
				targets = append(targets, c)
			} else if s.IncludeUnsubmitted {
				targets = append(targets, c)
			}
		case c.Group != reviewer.Group && c.Submitted:
			pool = append(pool, c)
		}
	}

	// placeholders for unsubmitted targets do not count toward K
	need := s.K - mandatory
	if need <= 0 || len(pool) == 0 {
		return targets
	}

	rng := s.NewRand(reviewer)
	if len(pool) >= need {
		for _, idx := range rng.Perm(len(pool))[:need] {
			targets = append(targets, pool[idx])
		}
		return targets
	}

	for i := 0; i < need; i++ {
		targets = append(targets, pool[rng.Intn(len(pool))])
	}
	return targets
}
