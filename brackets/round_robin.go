package brackets

import (
	"context"

	"github.com/Vbif322/cue-bot/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate pairs every participant against every other exactly once using
// the circle method: the first entry stays fixed while the rest rotate one
// place per round. Round robin has no advancement graph, so matches carry
// no links and no byes need resolving; pairings against the synthetic bye
// slot (odd N) are simply skipped.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) (*Bracket, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}
	ordered, err := seedOrder(params.Participants)
	if err != nil {
		return nil, err
	}

	// -1 marks the bye slot.
	const byeSlot = -1
	circle := make([]int, 0, n+1)
	for i := range ordered {
		circle = append(circle, i)
	}
	if n%2 != 0 {
		circle = append(circle, byeSlot)
	}
	effective := len(circle)
	rounds := effective - 1

	bracket := &Bracket{
		Format:  models.FormatRoundRobin,
		Rounds:  rounds,
		Matches: make([]*Match, 0, n*(n-1)/2),
	}

	position := 0
	for r := 1; r <= rounds; r++ {
		for i := 0; i < effective/2; i++ {
			a := circle[i]
			b := circle[effective-1-i]
			if a == byeSlot || b == byeSlot {
				continue
			}
			position++
			p1 := ordered[a].UserID
			p2 := ordered[b].UserID
			bracket.Matches = append(bracket.Matches, &Match{
				Position:  position,
				Round:     r,
				Section:   models.BracketWinners,
				Player1ID: &p1,
				Player2ID: &p2,
				Status:    models.MatchStatusScheduled,
			})
		}
		// Rotate everything but the first entry.
		last := circle[effective-1]
		copy(circle[2:], circle[1:effective-1])
		circle[1] = last
	}

	return bracket, nil
}
