package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vbif322/cue-bot/brackets"
	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/repositories"
)

// BracketService materializes a generated bracket graph into match rows.
// Generation is all-or-nothing: it runs inside the executor handed in by
// the caller, and any failure aborts the entire bracket.
type BracketService interface {
	GenerateAndSaveBracket(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) ([]*models.Match, error)
}

type bracketService struct {
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	seedAssigner    *brackets.SeedAssigner
	logger          *slog.Logger
}

func NewBracketService(
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	seedAssigner *brackets.SeedAssigner,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		seedAssigner:    seedAssigner,
		logger:          logger,
	}
}

// GenerateAndSaveBracket assigns seeds, generates the match graph for the
// tournament format and persists it in two passes: first every match row,
// then the advancement links with positions resolved to row IDs. It must
// run at most once per tournament; running it again would re-shuffle seeds
// and duplicate matches, so callers guard it with the tournament status.
func (s *bracketService) GenerateAndSaveBracket(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) ([]*models.Match, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %d: %w", tournament.ID, err)
	}
	if len(participants) < 2 {
		return nil, brackets.ErrInsufficientParticipants
	}

	seeded, err := s.assignSeeds(participants)
	if err != nil {
		return nil, err
	}
	if err := s.participantRepo.UpdateSeeds(ctx, exec, seeded); err != nil {
		return nil, fmt.Errorf("failed to persist seeds for tournament %d: %w", tournament.ID, err)
	}

	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return nil, err
	}
	bracket, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament:   tournament,
		Participants: seeded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s bracket for tournament %d: %w",
			generator.Name(), tournament.ID, err)
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("generator", generator.Name()),
		slog.Int("participants", len(seeded)),
		slog.Int("matches", len(bracket.Matches)),
		slog.Int("rounds", bracket.Rounds))

	// First pass: create every match row, byes already completed.
	idByPosition := make(map[int]int, len(bracket.Matches))
	created := make([]*models.Match, 0, len(bracket.Matches))
	for _, skeleton := range bracket.Matches {
		match := &models.Match{
			TournamentID:   tournament.ID,
			Round:          skeleton.Round,
			Position:       skeleton.Position,
			Player1ID:      skeleton.Player1ID,
			Player2ID:      skeleton.Player2ID,
			BracketSection: skeleton.Section,
			Status:         skeleton.Status,
			WinnerID:       skeleton.WinnerID,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return nil, err
		}
		idByPosition[skeleton.Position] = match.ID
		created = append(created, match)
	}

	// Second pass: resolve position-addressed links to persistent IDs.
	for i, skeleton := range bracket.Matches {
		if skeleton.WinnerTo == nil && skeleton.LoserTo == nil {
			continue
		}
		match := created[i]
		if skeleton.WinnerTo != nil {
			targetID, ok := idByPosition[skeleton.WinnerTo.Position]
			if !ok {
				return nil, fmt.Errorf("match %d links to unknown position %d", skeleton.Position, skeleton.WinnerTo.Position)
			}
			slot := skeleton.WinnerTo.Slot
			match.NextMatchID = &targetID
			match.NextSlot = &slot
		}
		if skeleton.LoserTo != nil {
			targetID, ok := idByPosition[skeleton.LoserTo.Position]
			if !ok {
				return nil, fmt.Errorf("match %d loser-links to unknown position %d", skeleton.Position, skeleton.LoserTo.Position)
			}
			slot := skeleton.LoserTo.Slot
			match.LoserNextMatchID = &targetID
			match.LoserNextSlot = &slot
		}
		if err := s.matchRepo.UpdateAdvancementLinks(ctx, exec, match.ID,
			match.NextMatchID, match.NextSlot, match.LoserNextMatchID, match.LoserNextSlot); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// assignSeeds keeps manual seeds when every participant carries one, and
// shuffles otherwise.
func (s *bracketService) assignSeeds(participants []*models.Participant) ([]*models.Participant, error) {
	manual := true
	for _, p := range participants {
		if p.Seed == nil {
			manual = false
			break
		}
	}
	if manual {
		seeded, err := s.seedAssigner.AssignManual(participants)
		if err != nil {
			if errors.Is(err, brackets.ErrInvalidManualSeeds) {
				return nil, fmt.Errorf("%w: %v", ErrSeedingFailed, err)
			}
			return nil, err
		}
		return seeded, nil
	}
	return s.seedAssigner.Assign(participants), nil
}
