package brackets

import (
	"context"
	"errors"

	"github.com/Vbif322/cue-bot/models"
)

var (
	ErrInsufficientParticipants    = errors.New("not enough participants to generate a bracket (minimum 2)")
	ErrUnsupportedParticipantCount = errors.New("participant count is not supported by this bracket format")
	ErrSeedsNotAssigned            = errors.New("participants must carry seeds 1..N before generation")
)

// Link addresses a downstream match slot by generation-time position.
// Positions are resolved to persistent match IDs by the persistence layer.
type Link struct {
	Position int
	Slot     models.MatchSlot
}

// Match is a generated match skeleton. Byes are resolved before the graph
// is returned: a bye match is already completed with its winner propagated
// downstream.
type Match struct {
	Position int
	Round    int
	Section  models.BracketSection

	Player1ID *int64
	Player2ID *int64

	WinnerTo *Link
	// LoserTo routes the loser of a winners-section match in double
	// elimination. Nil means the loser is eliminated.
	LoserTo *Link

	Bye      bool
	Status   models.MatchStatus
	WinnerID *int64
}

// Bracket is the full generated graph for one tournament: ordered match
// skeletons plus the advancement links embedded in them.
type Bracket struct {
	Format models.TournamentFormat
	Rounds int
	// Matches are ordered by position, positions starting at 1.
	Matches []*Match
}

// ByPosition returns the match at the given generation-time position.
func (b *Bracket) ByPosition(position int) *Match {
	for _, m := range b.Matches {
		if m.Position == position {
			return m
		}
	}
	return nil
}

type GenerateParams struct {
	Tournament *models.Tournament
	// Participants in seed order, seed 1 first. Every participant must
	// have a seed assigned (see SeedAssigner).
	Participants []*models.Participant
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*Bracket, error)

	Name() string
}

// ForFormat selects the generator strategy for a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElim16:
		return NewDoubleElim16Generator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, errors.New("unknown tournament format: " + string(format))
	}
}

func seedOrder(participants []*models.Participant) ([]*models.Participant, error) {
	n := len(participants)
	ordered := make([]*models.Participant, n)
	for _, p := range participants {
		if p.Seed == nil || *p.Seed < 1 || *p.Seed > n || ordered[*p.Seed-1] != nil {
			return nil, ErrSeedsNotAssigned
		}
		ordered[*p.Seed-1] = p
	}
	return ordered, nil
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

func log2(n int) int {
	r := 0
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}

// seedPositions returns the seed occupying each bracket slot for a bracket
// of the given size (a power of two), using the standard mirroring rule:
// seeds 1 and 2 can only meet in the final, 1 and 3/4 in the semifinal, etc.
func seedPositions(size int) []int {
	positions := []int{1, 2}
	for len(positions) < size {
		doubled := len(positions) * 2
		next := make([]int, 0, doubled)
		for _, s := range positions {
			next = append(next, s, doubled+1-s)
		}
		positions = next
	}
	return positions
}
