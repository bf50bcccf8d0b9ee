package brackets

import (
	"context"

	"github.com/Vbif322/cue-bot/models"
)

// DoubleElim16Generator produces the fixed 27-match, 5-round double
// elimination topology for exactly 16 entrants. It is deliberately not a
// general double elimination generator: from round 3 on the bracket merges
// and plays out as single elimination, so a loss there eliminates outright.
type DoubleElim16Generator struct{}

const doubleElimEntrants = 16

// Static position layout. Positions are contiguous per block.
const (
	de16UpperR1 = 1  // 8 matches, 1..8
	de16LowerR1 = 9  // 4 matches, 9..12
	de16UpperR2 = 13 // 4 matches, 13..16
	de16LowerR2 = 17 // 4 matches, 17..20
	de16Round3  = 21 // 4 matches, 21..24
	de16Round4  = 25 // 2 matches, 25..26
	de16Final   = 27 // grand final
)

func NewDoubleElim16Generator() Generator {
	return &DoubleElim16Generator{}
}

func (g *DoubleElim16Generator) Name() string {
	return "DoubleElimination16"
}

func (g *DoubleElim16Generator) Generate(ctx context.Context, params GenerateParams) (*Bracket, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}
	if n != doubleElimEntrants {
		return nil, ErrUnsupportedParticipantCount
	}
	ordered, err := seedOrder(params.Participants)
	if err != nil {
		return nil, err
	}

	slots := make([]int64, doubleElimEntrants)
	for idx, seed := range seedPositions(doubleElimEntrants) {
		slots[idx] = ordered[seed-1].UserID
	}

	bracket := &Bracket{
		Format:  models.FormatDoubleElim16,
		Rounds:  5,
		Matches: make([]*Match, 0, 27),
	}
	add := func(m *Match) {
		m.Status = models.MatchStatusScheduled
		bracket.Matches = append(bracket.Matches, m)
	}

	// Round 1 upper: all seeded pairs. Winners pair up into round 2 upper,
	// losers drop into round 1 lower, two per lower match.
	for i := 0; i < 8; i++ {
		p1 := slots[2*i]
		p2 := slots[2*i+1]
		add(&Match{
			Position:  de16UpperR1 + i,
			Round:     1,
			Section:   models.BracketWinners,
			Player1ID: &p1,
			Player2ID: &p2,
			WinnerTo:  &Link{Position: de16UpperR2 + i/2, Slot: slotForIndex(i)},
			LoserTo:   &Link{Position: de16LowerR1 + i/2, Slot: slotForIndex(i)},
		})
	}

	// Round 1 lower: winners advance 1:1 into round 2 lower slot 1,
	// losers are eliminated.
	for i := 0; i < 4; i++ {
		add(&Match{
			Position: de16LowerR1 + i,
			Round:    1,
			Section:  models.BracketLosers,
			WinnerTo: &Link{Position: de16LowerR2 + i, Slot: models.Slot1},
		})
	}

	// Round 2 upper: winners take slot 1 of the merged round 3, losers get
	// one more life in round 2 lower slot 2.
	for i := 0; i < 4; i++ {
		add(&Match{
			Position: de16UpperR2 + i,
			Round:    2,
			Section:  models.BracketWinners,
			WinnerTo: &Link{Position: de16Round3 + i, Slot: models.Slot1},
			LoserTo:  &Link{Position: de16LowerR2 + i, Slot: models.Slot2},
		})
	}

	// Round 2 lower: winners take slot 2 of round 3, losers are eliminated.
	for i := 0; i < 4; i++ {
		add(&Match{
			Position: de16LowerR2 + i,
			Round:    2,
			Section:  models.BracketLosers,
			WinnerTo: &Link{Position: de16Round3 + i, Slot: models.Slot2},
		})
	}

	// Round 3 merges both tracks; from here a loss eliminates.
	for i := 0; i < 4; i++ {
		add(&Match{
			Position: de16Round3 + i,
			Round:    3,
			Section:  models.BracketWinners,
			WinnerTo: &Link{Position: de16Round4 + i/2, Slot: slotForIndex(i)},
		})
	}

	// Round 4: semifinals feeding the grand final.
	for i := 0; i < 2; i++ {
		add(&Match{
			Position: de16Round4 + i,
			Round:    4,
			Section:  models.BracketWinners,
			WinnerTo: &Link{Position: de16Final, Slot: slotForIndex(i)},
		})
	}

	// Round 5: grand final, the single sink of the graph.
	add(&Match{
		Position: de16Final,
		Round:    5,
		Section:  models.BracketGrandFinal,
	})

	return bracket, nil
}
