package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vbif322/cue-bot/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrParticipantConflict   = errors.New("user is already registered for this tournament")
	ErrParticipantTournament = errors.New("participant references an unknown tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	// UpdateSeeds stamps the generation-time seeds in one statement batch.
	// Seeds are assigned exactly once, right before bracket generation.
	UpdateSeeds(ctx context.Context, exec SQLExecutor, participants []*models.Participant) error
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_id, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		participant.TournamentID,
		participant.UserID,
		participant.DisplayName,
	).Scan(&participant.ID, &participant.CreatedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, display_name, seed, created_at
		FROM participants
		WHERE tournament_id = $1
		ORDER BY seed NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if scanErr := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.DisplayName, &p.Seed, &p.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateSeeds(ctx context.Context, exec SQLExecutor, participants []*models.Participant) error {
	query := `UPDATE participants SET seed = $1 WHERE id = $2`
	for _, p := range participants {
		result, err := exec.ExecContext(ctx, query, p.Seed, p.ID)
		if err != nil {
			return r.handleParticipantError(err)
		}
		if err := checkAffectedRows(result, ErrParticipantNotFound); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "participants_tournament_id_user_id_key":
			return ErrParticipantConflict
		case "participants_tournament_id_fkey":
			return ErrParticipantTournament
		}
	}
	return err
}
