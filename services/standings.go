package services

import (
	"sort"

	"github.com/Vbif322/cue-bot/models"
)

// StandingRow is a read-only projection of one participant's record in a
// round robin tournament, for the UI collaborators.
type StandingRow struct {
	UserID        int64 `json:"user_id"`
	Played        int   `json:"played"`
	Wins          int   `json:"wins"`
	Losses        int   `json:"losses"`
	GamesWon      int   `json:"games_won"`
	GamesLost     int   `json:"games_lost"`
	TechnicalWins int   `json:"technical_wins"`
}

// ComputeStandings builds the round robin table from completed matches,
// ordered by wins, then game difference, then user id for stability.
func ComputeStandings(matches []*models.Match) []StandingRow {
	byUser := map[int64]*StandingRow{}
	row := func(userID int64) *StandingRow {
		if r, ok := byUser[userID]; ok {
			return r
		}
		r := &StandingRow{UserID: userID}
		byUser[userID] = r
		return r
	}

	for _, m := range matches {
		if m.Player1ID != nil {
			row(*m.Player1ID)
		}
		if m.Player2ID != nil {
			row(*m.Player2ID)
		}
		if m.Status != models.MatchStatusCompleted || m.WinnerID == nil {
			continue
		}
		if m.Player1ID == nil || m.Player2ID == nil {
			continue
		}

		p1 := row(*m.Player1ID)
		p2 := row(*m.Player2ID)
		p1.Played++
		p2.Played++
		if m.Player1Score != nil && m.Player2Score != nil {
			p1.GamesWon += *m.Player1Score
			p1.GamesLost += *m.Player2Score
			p2.GamesWon += *m.Player2Score
			p2.GamesLost += *m.Player1Score
		}

		winner, loser := p1, p2
		if *m.WinnerID == *m.Player2ID {
			winner, loser = p2, p1
		}
		winner.Wins++
		loser.Losses++
		if m.IsTechnicalResult {
			winner.TechnicalWins++
		}
	}

	standings := make([]StandingRow, 0, len(byUser))
	for _, r := range byUser {
		standings = append(standings, *r)
	}
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		diffA := a.GamesWon - a.GamesLost
		diffB := b.GamesWon - b.GamesLost
		if diffA != diffB {
			return diffA > diffB
		}
		return a.UserID < b.UserID
	})
	return standings
}

// RoundRobinChampion returns the table leader, or nil if there were no
// decided matches at all.
func RoundRobinChampion(matches []*models.Match) *int64 {
	standings := ComputeStandings(matches)
	if len(standings) == 0 {
		return nil
	}
	champion := standings[0].UserID
	return &champion
}
