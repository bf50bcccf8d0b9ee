package brackets

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/Vbif322/cue-bot/models"
)

var ErrInvalidManualSeeds = errors.New("manual seeds must form a permutation of 1..N")

// SeedAssigner turns a set of confirmed participants into an ordered seed
// list. The default policy is a uniform random shuffle, so assignment is not
// idempotent: it must run exactly once per tournament, immediately before
// bracket generation.
type SeedAssigner struct {
	rnd *rand.Rand
}

func NewSeedAssigner() *SeedAssigner {
	return &SeedAssigner{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededAssigner builds an assigner with a fixed source, for
// deterministic tests.
func NewSeededAssigner(src rand.Source) *SeedAssigner {
	return &SeedAssigner{rnd: rand.New(src)}
}

// Assign shuffles the participants and stamps seeds 1..N onto the result.
// The input slice is not modified; an empty input yields an empty output.
func (a *SeedAssigner) Assign(participants []*models.Participant) []*models.Participant {
	shuffled := make([]*models.Participant, len(participants))
	copy(shuffled, participants)
	a.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i, p := range shuffled {
		seed := i + 1
		p.Seed = &seed
	}
	return shuffled
}

// AssignManual keeps pre-assigned seeds, validating that they form a
// permutation of 1..N, and returns the participants in seed order.
func (a *SeedAssigner) AssignManual(participants []*models.Participant) ([]*models.Participant, error) {
	n := len(participants)
	seen := make(map[int]bool, n)
	for _, p := range participants {
		if p.Seed == nil || *p.Seed < 1 || *p.Seed > n || seen[*p.Seed] {
			return nil, ErrInvalidManualSeeds
		}
		seen[*p.Seed] = true
	}
	ordered := make([]*models.Participant, n)
	copy(ordered, participants)
	sort.Slice(ordered, func(i, j int) bool { return *ordered[i].Seed < *ordered[j].Seed })
	return ordered, nil
}
