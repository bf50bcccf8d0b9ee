package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/repositories"
	"golang.org/x/sync/errgroup"
)

// TournamentProgress is the read-only completion projection.
type TournamentProgress struct {
	TournamentID     int                     `json:"tournament_id"`
	Status           models.TournamentStatus `json:"status"`
	TotalMatches     int                     `json:"total_matches"`
	CompletedMatches int                     `json:"completed_matches"`
	Finished         bool                    `json:"finished"`
	ChampionID       *int64                  `json:"champion_id,omitempty"`
}

type CreateTournamentInput struct {
	Name            string                  `json:"name"`
	Format          models.TournamentFormat `json:"format"`
	WinScore        int                     `json:"win_score"`
	MaxParticipants int                     `json:"max_participants"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	Delete(ctx context.Context, id int) error

	RegisterParticipant(ctx context.Context, tournamentID int, userID int64, displayName string) (*models.Participant, error)

	// Start closes registration, assigns seeds, generates and persists the
	// bracket and activates the tournament, all in one transaction.
	Start(ctx context.Context, tournamentID int) (*models.Tournament, error)
	Cancel(ctx context.Context, tournamentID int) error

	GetFullTournamentData(ctx context.Context, tournamentID int) (*models.Tournament, error)
	Progress(ctx context.Context, tournamentID int) (*TournamentProgress, error)
	Standings(ctx context.Context, tournamentID int) ([]StandingRow, error)
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	bracketService  BracketService
	notifier        Notifier
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	bracketService BracketService,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		bracketService:  bracketService,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" || !input.Format.Valid() || input.WinScore < 1 || input.MaxParticipants < 2 {
		return nil, ErrInvalidTournamentConfig
	}

	tournament := &models.Tournament{
		Name:            input.Name,
		Format:          input.Format,
		WinScore:        input.WinScore,
		MaxParticipants: input.MaxParticipants,
		Status:          models.TournamentStatusRegistration,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}
	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Format)))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentError(err)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx, status)
}

// Delete removes the tournament and, through ownership, all of its matches
// and participants.
func (s *tournamentService) Delete(ctx context.Context, id int) error {
	return mapTournamentError(s.tournamentRepo.Delete(ctx, id))
}

func (s *tournamentService) RegisterParticipant(ctx context.Context, tournamentID int, userID int64, displayName string) (*models.Participant, error) {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentStatusRegistration {
		return nil, ErrRegistrationNotOpen
	}
	count, err := s.participantRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if count >= tournament.MaxParticipants {
		return nil, ErrTournamentFull
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		DisplayName:  displayName,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *tournamentService) Start(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var matches []*models.Match
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		// The status guard doubles as the at-most-once guard for
		// generation: a second Start loses the race here.
		if err := s.tournamentRepo.UpdateStatusGuarded(ctx, tx, tournamentID,
			models.TournamentStatusRegistration, models.TournamentStatusActive); err != nil {
			if errors.Is(err, repositories.ErrTournamentStateConflict) {
				return ErrTournamentAlreadyStarted
			}
			return err
		}
		matches, err = s.bracketService.GenerateAndSaveBracket(ctx, tx, tournament)
		return err
	})
	if err != nil {
		return nil, err
	}

	tournament.Status = models.TournamentStatusActive
	s.logger.Info("tournament started",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(matches)))
	s.notifier.BracketGenerated(tournamentID, matches)
	return tournament, nil
}

func (s *tournamentService) Cancel(ctx context.Context, tournamentID int) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.Cancel(ctx, tx, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrTournamentStateConflict) {
				return ErrTournamentNotActive
			}
			return err
		}
		return s.matchRepo.CancelAllActive(ctx, tx, tournamentID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("tournament cancelled", slog.Int("tournament_id", tournamentID))
	return nil
}

// GetFullTournamentData loads the tournament with its participants and
// matches fanned out in parallel.
func (s *tournamentService) GetFullTournamentData(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		tournament.Participants = make([]models.Participant, len(participants))
		for i, p := range participants {
			tournament.Participants[i] = *p
		}
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, s.db, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		tournament.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			tournament.Matches[i] = *m
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) Progress(ctx context.Context, tournamentID int) (*TournamentProgress, error) {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, s.db, tournamentID, nil, nil)
	if err != nil {
		return nil, err
	}

	progress := &TournamentProgress{
		TournamentID: tournamentID,
		Status:       tournament.Status,
		TotalMatches: len(matches),
		ChampionID:   tournament.ChampionID,
	}
	for _, m := range matches {
		if m.Status == models.MatchStatusCompleted {
			progress.CompletedMatches++
		}
	}
	progress.Finished = IsFinished(tournament, matches)
	return progress, nil
}

func (s *tournamentService) Standings(ctx context.Context, tournamentID int) ([]StandingRow, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, s.db, tournamentID, nil, nil)
	if err != nil {
		return nil, err
	}
	return ComputeStandings(matches), nil
}

// IsFinished is the per-format completion predicate: elimination formats
// finish when the bracket sink completes, round robin when every match is
// completed.
func IsFinished(tournament *models.Tournament, matches []*models.Match) bool {
	if len(matches) == 0 {
		return false
	}
	if tournament.Format == models.FormatRoundRobin {
		for _, m := range matches {
			if m.Status != models.MatchStatusCompleted {
				return false
			}
		}
		return true
	}
	for _, m := range matches {
		if m.NextMatchID == nil {
			return m.Status == models.MatchStatusCompleted
		}
	}
	return false
}
