package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Vbif322/cue-bot/models"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentStateConflict = errors.New("tournament is not in the expected status")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	// UpdateStatusGuarded flips the status only if the current status
	// matches from; otherwise ErrTournamentStateConflict.
	UpdateStatusGuarded(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error
	// SetCompleted marks an active tournament completed with its champion.
	SetCompleted(ctx context.Context, exec SQLExecutor, id int, championID int64, completedAt time.Time) error
	// Cancel moves a tournament out of any non-terminal status.
	Cancel(ctx context.Context, exec SQLExecutor, id int) error
	// Delete removes the tournament; matches and participants cascade.
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, format, win_score, max_participants, status, champion_id, created_at, completed_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, format, win_score, max_participants, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Format,
		tournament.WinScore,
		tournament.MaxParticipants,
		tournament.Status,
	).Scan(&tournament.ID, &tournament.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Format,
		&tournament.WinScore,
		&tournament.MaxParticipants,
		&tournament.Status,
		&tournament.ChampionID,
		&tournament.CreatedAt,
		&tournament.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Format,
			&t.WinScore,
			&t.MaxParticipants,
			&t.Status,
			&t.ChampionID,
			&t.CreatedAt,
			&t.CompletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatusGuarded(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStateConflict)
}

func (r *postgresTournamentRepository) SetCompleted(ctx context.Context, exec SQLExecutor, id int, championID int64, completedAt time.Time) error {
	query := `
		UPDATE tournaments
		SET status = $1, champion_id = $2, completed_at = $3
		WHERE id = $4 AND status = $5`
	result, err := exec.ExecContext(ctx, query,
		models.TournamentStatusCompleted, championID, completedAt, id, models.TournamentStatusActive)
	if err != nil {
		return fmt.Errorf("failed to complete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStateConflict)
}

func (r *postgresTournamentRepository) Cancel(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status IN ($3, $4)`
	result, err := exec.ExecContext(ctx, query,
		models.TournamentStatusCancelled, id,
		models.TournamentStatusRegistration, models.TournamentStatusActive)
	if err != nil {
		return fmt.Errorf("failed to cancel tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStateConflict)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
