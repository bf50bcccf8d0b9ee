package brackets

import (
	"context"

	"github.com/Vbif322/cue-bot/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds the full single elimination graph: nextPowerOfTwo(N)-1
// matches across log2(nextPowerOfTwo(N)) rounds, with seeds placed by the
// mirroring rule and byes already resolved.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) (*Bracket, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}
	ordered, err := seedOrder(params.Participants)
	if err != nil {
		return nil, err
	}

	size := nextPowerOfTwo(n)
	rounds := log2(size)

	// Slots beyond N are byes.
	slots := make([]*int64, size)
	for idx, seed := range seedPositions(size) {
		if seed <= n {
			uid := ordered[seed-1].UserID
			slots[idx] = &uid
		}
	}

	bracket := &Bracket{
		Format:  models.FormatSingleElimination,
		Rounds:  rounds,
		Matches: make([]*Match, 0, size-1),
	}

	position := 0
	roundStart := make([]int, rounds+2) // first position of each round
	for r := 1; r <= rounds; r++ {
		roundStart[r] = position + 1
		position += size >> r
	}
	roundStart[rounds+1] = position + 1

	position = 0
	for r := 1; r <= rounds; r++ {
		matchesInRound := size >> r
		for i := 0; i < matchesInRound; i++ {
			position++
			m := &Match{
				Position: position,
				Round:    r,
				Section:  models.BracketWinners,
				Status:   models.MatchStatusScheduled,
			}
			if r == 1 {
				m.Player1ID = slots[2*i]
				m.Player2ID = slots[2*i+1]
			}
			if r < rounds {
				m.WinnerTo = &Link{
					Position: roundStart[r+1] + i/2,
					Slot:     slotForIndex(i),
				}
			}
			bracket.Matches = append(bracket.Matches, m)
		}
	}

	resolveByes(bracket)
	return bracket, nil
}

func slotForIndex(i int) models.MatchSlot {
	if i%2 == 0 {
		return models.Slot1
	}
	return models.Slot2
}

// resolveByes auto-completes every match that has exactly one participant
// and no pending feeder for the empty slot, propagating the present player
// downstream as if they had won. Resolution is transitive, so bye chains
// never surface as playable matches.
func resolveByes(b *Bracket) {
	byPos := make(map[int]*Match, len(b.Matches))
	for _, m := range b.Matches {
		byPos[m.Position] = m
	}

	// feeders[pos][slot] lists matches whose winner goes to that slot.
	type slotKey struct {
		pos  int
		slot models.MatchSlot
	}
	feeders := make(map[slotKey][]*Match)
	for _, m := range b.Matches {
		if m.WinnerTo != nil {
			k := slotKey{m.WinnerTo.Position, m.WinnerTo.Slot}
			feeders[k] = append(feeders[k], m)
		}
	}

	pending := func(pos int, slot models.MatchSlot) bool {
		for _, f := range feeders[slotKey{pos, slot}] {
			if f.Status != models.MatchStatusCompleted {
				return true
			}
		}
		return false
	}

	queue := make([]*Match, len(b.Matches))
	copy(queue, b.Matches)
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if m.Status != models.MatchStatusScheduled {
			continue
		}

		var present *int64
		var emptySlot models.MatchSlot
		switch {
		case m.Player1ID != nil && m.Player2ID == nil:
			present, emptySlot = m.Player1ID, models.Slot2
		case m.Player2ID != nil && m.Player1ID == nil:
			present, emptySlot = m.Player2ID, models.Slot1
		default:
			continue
		}
		if pending(m.Position, emptySlot) {
			continue
		}

		m.Bye = true
		m.Status = models.MatchStatusCompleted
		m.WinnerID = present

		if m.WinnerTo != nil {
			target := byPos[m.WinnerTo.Position]
			if m.WinnerTo.Slot == models.Slot1 {
				target.Player1ID = present
			} else {
				target.Player2ID = present
			}
			queue = append(queue, target)
		}
	}
}
