package brackets

import (
	"fmt"

	"github.com/Vbif322/cue-bot/models"
)

// RoundName returns a human readable label for a round, given the total
// number of rounds in the match's bracket section.
func RoundName(section models.BracketSection, round, totalRounds int) string {
	switch section {
	case models.BracketGrandFinal:
		return "Grand Final"
	case models.BracketLosers:
		if round == totalRounds {
			return "Losers Final"
		}
		return fmt.Sprintf("Losers Round %d", round)
	}

	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

// AnnotateRoundNames fills RoundName on every match, deriving the per-section
// round counts from the set itself.
func AnnotateRoundNames(matches []*models.Match) {
	totals := make(map[models.BracketSection]int)
	for _, m := range matches {
		if m.Round > totals[m.BracketSection] {
			totals[m.BracketSection] = m.Round
		}
	}
	for _, m := range matches {
		m.RoundName = RoundName(m.BracketSection, m.Round, totals[m.BracketSection])
	}
}
