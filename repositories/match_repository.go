package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Vbif322/cue-bot/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchStateConflict is returned when a status-guarded update
	// touches zero rows: the match exists but its status changed under
	// us. The loser of a concurrent confirm/dispute race observes this.
	ErrMatchStateConflict = errors.New("match is not in the expected status")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// GetByID reads through the given executor so callers inside a
	// transaction see their own writes.
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)

	// UpdateAdvancementLinks resolves position-addressed links to
	// persistent match IDs during the second pass of bracket persistence.
	UpdateAdvancementLinks(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int, nextSlot *models.MatchSlot, loserNextMatchID *int, loserNextSlot *models.MatchSlot) error

	// The lifecycle writes below are all status-guarded conditional
	// updates. Zero affected rows maps to ErrMatchStateConflict.
	MarkStarted(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error
	RecordReport(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, winnerID, reporterID int64) error
	ClearReport(ctx context.Context, exec SQLExecutor, id int) error
	Complete(ctx context.Context, exec SQLExecutor, id int, confirmedBy int64, completedAt time.Time) error
	CompleteTechnical(ctx context.Context, exec SQLExecutor, id int, winnerID int64, score1, score2 int, reason string, adjudicatorID int64, completedAt time.Time) error

	AssignPlayer(ctx context.Context, exec SQLExecutor, matchID int, slot models.MatchSlot, userID int64) error
	CancelAllActive(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

// postgresMatchRepository takes every executor from its callers, so the
// services own all transaction boundaries.
type postgresMatchRepository struct{}

func NewPostgresMatchRepository() MatchRepository {
	return &postgresMatchRepository{}
}

const matchColumns = `id, tournament_id, round, position, player1_id, player2_id,
	bracket_section, next_match_id, next_slot, loser_next_match_id, loser_next_slot,
	player1_score, player2_score, winner_id, reported_by, confirmed_by,
	is_technical_result, technical_reason, status, started_at, completed_at, created_at`

func scanMatch(row interface{ Scan(dest ...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.Round,
		&m.Position,
		&m.Player1ID,
		&m.Player2ID,
		&m.BracketSection,
		&m.NextMatchID,
		&m.NextSlot,
		&m.LoserNextMatchID,
		&m.LoserNextSlot,
		&m.Player1Score,
		&m.Player2Score,
		&m.WinnerID,
		&m.ReportedBy,
		&m.ConfirmedBy,
		&m.IsTechnicalResult,
		&m.TechnicalReason,
		&m.Status,
		&m.StartedAt,
		&m.CompletedAt,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, round, position, player1_id, player2_id, bracket_section,
			 player1_score, player2_score, winner_id, status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.Position,
		match.Player1ID,
		match.Player2ID,
		match.BracketSection,
		match.Player1Score,
		match.Player2Score,
		match.WinnerID,
		match.Status,
		match.CompletedAt,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match at position %d: %w", match.Position, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(exec.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholder := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholder))
		args = append(args, *roundFilter)
		placeholder++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, position ASC")

	rows, err := exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateAdvancementLinks(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int, nextSlot *models.MatchSlot, loserNextMatchID *int, loserNextSlot *models.MatchSlot) error {
	query := `UPDATE matches SET next_match_id = $1, next_slot = $2, loser_next_match_id = $3, loser_next_slot = $4 WHERE id = $5`
	result, err := exec.ExecContext(ctx, query, nextMatchID, nextSlot, loserNextMatchID, loserNextSlot, matchID)
	if err != nil {
		return fmt.Errorf("failed to link match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkStarted(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error {
	query := `
		UPDATE matches SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4`
	result, err := exec.ExecContext(ctx, query,
		models.MatchStatusInProgress, startedAt, id, models.MatchStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to start match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *postgresMatchRepository) RecordReport(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, winnerID, reporterID int64) error {
	query := `
		UPDATE matches
		SET status = $1, player1_score = $2, player2_score = $3, winner_id = $4, reported_by = $5
		WHERE id = $6 AND status = $7`
	result, err := exec.ExecContext(ctx, query,
		models.MatchStatusPendingConfirmation, score1, score2, winnerID, reporterID,
		id, models.MatchStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to record report for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

// ClearReport rolls a disputed match back to in_progress. Only the
// result fields are cleared; timestamps are left untouched.
func (r *postgresMatchRepository) ClearReport(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE matches
		SET status = $1, player1_score = NULL, player2_score = NULL, winner_id = NULL, reported_by = NULL
		WHERE id = $2 AND status = $3`
	result, err := exec.ExecContext(ctx, query,
		models.MatchStatusInProgress, id, models.MatchStatusPendingConfirmation)
	if err != nil {
		return fmt.Errorf("failed to clear report for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id int, confirmedBy int64, completedAt time.Time) error {
	query := `
		UPDATE matches SET status = $1, confirmed_by = $2, completed_at = $3
		WHERE id = $4 AND status = $5`
	result, err := exec.ExecContext(ctx, query,
		models.MatchStatusCompleted, confirmedBy, completedAt,
		id, models.MatchStatusPendingConfirmation)
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *postgresMatchRepository) CompleteTechnical(ctx context.Context, exec SQLExecutor, id int, winnerID int64, score1, score2 int, reason string, adjudicatorID int64, completedAt time.Time) error {
	query := `
		UPDATE matches
		SET status = $1, player1_score = $2, player2_score = $3, winner_id = $4,
		    is_technical_result = TRUE, technical_reason = $5, confirmed_by = $6, completed_at = $7
		WHERE id = $8 AND status IN ($9, $10, $11)`
	result, err := exec.ExecContext(ctx, query,
		models.MatchStatusCompleted, score1, score2, winnerID, reason, adjudicatorID, completedAt,
		id, models.MatchStatusScheduled, models.MatchStatusInProgress, models.MatchStatusPendingConfirmation)
	if err != nil {
		return fmt.Errorf("failed to set technical result for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *postgresMatchRepository) AssignPlayer(ctx context.Context, exec SQLExecutor, matchID int, slot models.MatchSlot, userID int64) error {
	column := "player1_id"
	if slot == models.Slot2 {
		column = "player2_id"
	}
	query := `UPDATE matches SET ` + column + ` = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, userID, matchID)
	if err != nil {
		return fmt.Errorf("failed to assign player to match %d slot %d: %w", matchID, slot, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CancelAllActive(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `
		UPDATE matches SET status = $1
		WHERE tournament_id = $2 AND status IN ($3, $4, $5)`
	_, err := exec.ExecContext(ctx, query,
		models.MatchStatusCancelled, tournamentID,
		models.MatchStatusScheduled, models.MatchStatusInProgress, models.MatchStatusPendingConfirmation)
	if err != nil {
		return fmt.Errorf("failed to cancel matches of tournament %d: %w", tournamentID, err)
	}
	return nil
}
