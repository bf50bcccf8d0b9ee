package services

import "github.com/Vbif322/cue-bot/models"

// Notifier receives the advisory signals produced by the lifecycle and
// advancement operations. Delivery is best effort: core correctness never
// depends on it. The websocket hub implements this.
type Notifier interface {
	BracketGenerated(tournamentID int, matches []*models.Match)
	MatchReady(tournamentID int, match *models.Match)
	MatchUpdated(tournamentID int, match *models.Match)
	TournamentCompleted(tournamentID int, championID int64)
}

// NopNotifier discards every signal.
type NopNotifier struct{}

func (NopNotifier) BracketGenerated(int, []*models.Match) {}
func (NopNotifier) MatchReady(int, *models.Match)       {}
func (NopNotifier) MatchUpdated(int, *models.Match)     {}
func (NopNotifier) TournamentCompleted(int, int64)      {}
