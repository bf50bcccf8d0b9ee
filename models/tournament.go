package models

import "time"

// TournamentStatus matches the ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusActive       TournamentStatus = "active"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCancelled    TournamentStatus = "cancelled"
)

type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	// FormatDoubleElim16 is the fixed 16-entrant double elimination
	// topology. It is not a general double elimination generator.
	FormatDoubleElim16 TournamentFormat = "double_elimination"
	FormatRoundRobin   TournamentFormat = "round_robin"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElim16, FormatRoundRobin:
		return true
	}
	return false
}

// Tournament owns all of its matches for its lifetime; deleting a tournament
// cascades to them.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Format          TournamentFormat `json:"format" db:"format"`
	WinScore        int              `json:"win_score" db:"win_score"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	Status          TournamentStatus `json:"status" db:"status"`
	ChampionID      *int64           `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty" db:"completed_at"`

	// Optional related entities, loaded on demand.
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}
