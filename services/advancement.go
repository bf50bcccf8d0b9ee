package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/repositories"
)

// AdvanceResult describes the side effects of propagating one completed
// match, for the advisory notification layer.
type AdvanceResult struct {
	// ReadyMatches got both slots filled by this advancement.
	ReadyMatches []*models.Match
	// ChampionID is set when the advancement completed the tournament.
	ChampionID *int64
}

// AdvancementEngine consumes a completed match and the advancement links
// written at generation time, mutating the downstream match(es) and
// detecting tournament completion. It always runs inside the caller's
// transaction, so a confirm whose advancement fails is rolled back with it.
type AdvancementEngine struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func NewAdvancementEngine(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) *AdvancementEngine {
	return &AdvancementEngine{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		logger:         logger,
	}
}

// Advance routes the winner (and, in double elimination, the loser) of a
// completed match. A match without a next-match link is a bracket sink: the
// tournament is completed with the winner as champion. Round robin has no
// links at all; there completion means every match reached completed.
func (e *AdvancementEngine) Advance(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, completed *models.Match) (*AdvanceResult, error) {
	if completed.WinnerID == nil {
		return nil, fmt.Errorf("cannot advance match %d without a winner", completed.ID)
	}
	result := &AdvanceResult{}

	if tournament.Format == models.FormatRoundRobin {
		return result, e.checkRoundRobinCompletion(ctx, exec, tournament, result)
	}

	if completed.NextMatchID == nil {
		champion := *completed.WinnerID
		if err := e.tournamentRepo.SetCompleted(ctx, exec, tournament.ID, champion, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to complete tournament %d: %w", tournament.ID, err)
		}
		result.ChampionID = &champion
		e.logger.Info("tournament completed",
			slog.Int("tournament_id", tournament.ID),
			slog.Int64("champion_id", champion))
		return result, nil
	}

	target, err := e.routeTo(ctx, exec, *completed.NextMatchID, *completed.NextSlot, *completed.WinnerID)
	if err != nil {
		return nil, err
	}
	if target != nil {
		result.ReadyMatches = append(result.ReadyMatches, target)
	}

	// In double elimination a winners-section loss demotes the player to
	// the losers bracket; a nil link means elimination.
	if tournament.Format == models.FormatDoubleElim16 &&
		completed.BracketSection == models.BracketWinners &&
		completed.LoserNextMatchID != nil {
		loser := completed.LoserID()
		if loser == nil {
			return nil, fmt.Errorf("match %d has a loser route but no identifiable loser", completed.ID)
		}
		loserTarget, err := e.routeTo(ctx, exec, *completed.LoserNextMatchID, *completed.LoserNextSlot, *loser)
		if err != nil {
			return nil, err
		}
		if loserTarget != nil {
			result.ReadyMatches = append(result.ReadyMatches, loserTarget)
		}
	}

	return result, nil
}

// routeTo writes a player into the given slot of a downstream match and, if
// both slots are now filled, returns the match as ready to start. The match
// stays scheduled either way; starting it is a separate external action.
func (e *AdvancementEngine) routeTo(ctx context.Context, exec repositories.SQLExecutor, matchID int, slot models.MatchSlot, userID int64) (*models.Match, error) {
	if err := e.matchRepo.AssignPlayer(ctx, exec, matchID, slot, userID); err != nil {
		return nil, fmt.Errorf("failed to route player %d into match %d: %w", userID, matchID, err)
	}
	target, err := e.matchRepo.GetByID(ctx, exec, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match %d after routing: %w", matchID, err)
	}
	if target.Player1ID != nil && target.Player2ID != nil && target.Status == models.MatchStatusScheduled {
		return target, nil
	}
	return nil, nil
}

func (e *AdvancementEngine) checkRoundRobinCompletion(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, result *AdvanceResult) error {
	matches, err := e.matchRepo.ListByTournament(ctx, exec, tournament.ID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to list matches of tournament %d: %w", tournament.ID, err)
	}
	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted {
			return nil
		}
	}

	champion := RoundRobinChampion(matches)
	if champion == nil {
		return fmt.Errorf("round robin tournament %d finished without a decidable champion", tournament.ID)
	}
	if err := e.tournamentRepo.SetCompleted(ctx, exec, tournament.ID, *champion, time.Now()); err != nil {
		return fmt.Errorf("failed to complete tournament %d: %w", tournament.ID, err)
	}
	result.ChampionID = champion
	e.logger.Info("round robin tournament completed",
		slog.Int("tournament_id", tournament.ID),
		slog.Int64("champion_id", *champion))
	return nil
}
