package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled           MatchStatus = "scheduled"
	MatchStatusInProgress          MatchStatus = "in_progress"
	MatchStatusPendingConfirmation MatchStatus = "pending_confirmation"
	MatchStatusCompleted           MatchStatus = "completed"
	MatchStatusCancelled           MatchStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

type BracketSection string

const (
	BracketWinners    BracketSection = "winners"
	BracketLosers     BracketSection = "losers"
	BracketGrandFinal BracketSection = "grand_final"
)

// MatchSlot addresses one of the two participant slots of a match.
type MatchSlot int

const (
	Slot1 MatchSlot = 1
	Slot2 MatchSlot = 2
)

// Match is the central mutable entity of a tournament. Rows are created in
// bulk when the bracket is generated and afterwards mutated only through the
// match lifecycle operations.
type Match struct {
	ID           int `json:"id" db:"id"`
	TournamentID int `json:"tournament_id" db:"tournament_id"`

	// Position is the generation-time addressing scheme, unique per
	// tournament. Round is 1-based.
	Round    int `json:"round" db:"round"`
	Position int `json:"position" db:"position"`

	Player1ID *int64 `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID *int64 `json:"player2_id,omitempty" db:"player2_id"`

	BracketSection   BracketSection `json:"bracket_section" db:"bracket_section"`
	NextMatchID      *int           `json:"next_match_id,omitempty" db:"next_match_id"`
	NextSlot         *MatchSlot     `json:"next_slot,omitempty" db:"next_slot"`
	LoserNextMatchID *int           `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextSlot    *MatchSlot     `json:"loser_next_slot,omitempty" db:"loser_next_slot"`

	Player1Score      *int    `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score      *int    `json:"player2_score,omitempty" db:"player2_score"`
	WinnerID          *int64  `json:"winner_id,omitempty" db:"winner_id"`
	ReportedBy        *int64  `json:"reported_by,omitempty" db:"reported_by"`
	ConfirmedBy       *int64  `json:"confirmed_by,omitempty" db:"confirmed_by"`
	IsTechnicalResult bool    `json:"is_technical_result" db:"is_technical_result"`
	TechnicalReason   *string `json:"technical_reason,omitempty" db:"technical_reason"`

	// RoundName is derived for presentation and never stored.
	RoundName string `json:"round_name,omitempty" db:"-"`

	Status      MatchStatus `json:"status" db:"status"`
	StartedAt   *time.Time  `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// HasPlayer reports whether userID occupies one of the match slots.
func (m *Match) HasPlayer(userID int64) bool {
	if m.Player1ID != nil && *m.Player1ID == userID {
		return true
	}
	if m.Player2ID != nil && *m.Player2ID == userID {
		return true
	}
	return false
}

// LoserID returns the non-winning participant of a decided match, or nil if
// the match is undecided or was a bye.
func (m *Match) LoserID() *int64 {
	if m.WinnerID == nil {
		return nil
	}
	if m.Player1ID != nil && *m.Player1ID != *m.WinnerID {
		return m.Player1ID
	}
	if m.Player2ID != nil && *m.Player2ID != *m.WinnerID {
		return m.Player2ID
	}
	return nil
}
