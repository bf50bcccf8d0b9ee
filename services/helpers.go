package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vbif322/cue-bot/repositories"
)

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapMatchError translates repository sentinels to the service taxonomy.
// A state conflict means a concurrent operation won the race; the caller
// observes InvalidState rather than a silent success.
func mapMatchError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchStateConflict):
		return ErrInvalidMatchState
	default:
		return err
	}
}

func mapTournamentError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}
