package models

import "time"

// Participant is a confirmed tournament entrant. UserID is an opaque
// identity owned by the external user directory; DisplayName is carried
// through for presentation only. Seed is assigned once at bracket
// generation time and immutable afterward.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Seed         *int      `json:"seed,omitempty" db:"seed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
