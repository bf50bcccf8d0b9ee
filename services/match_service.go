package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/repositories"
)

// MatchService is the per-match state machine: scheduled -> in_progress ->
// pending_confirmation -> completed, with dispute resetting a pending match
// and technical results short-circuiting from any non-terminal status.
// Every terminal transition invokes the advancement engine in the same
// transaction.
type MatchService interface {
	Get(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)

	Start(ctx context.Context, matchID int) (*models.Match, error)
	Report(ctx context.Context, matchID int, reporterID int64, score1, score2 int) (*models.Match, error)
	Confirm(ctx context.Context, matchID int, confirmerID int64) (*models.Match, error)
	Dispute(ctx context.Context, matchID int, userID int64) (*models.Match, error)
	SetTechnicalResult(ctx context.Context, matchID int, winnerID int64, reason string, adjudicatorID int64) (*models.Match, error)
}

type matchService struct {
	db             *sql.DB
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	engine         *AdvancementEngine
	notifier       Notifier
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	engine *AdvancementEngine,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		engine:         engine,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *matchService) Get(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, s.db, matchID)
	if err != nil {
		return nil, mapMatchError(err)
	}
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, s.db, tournamentID, round, status)
}

func (s *matchService) Start(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrInvalidMatchState
	}
	if match.Player1ID == nil || match.Player2ID == nil {
		return nil, ErrInvalidMatchState
	}

	now := time.Now()
	if err := s.matchRepo.MarkStarted(ctx, s.db, matchID, now); err != nil {
		return nil, mapMatchError(err)
	}
	match.Status = models.MatchStatusInProgress
	match.StartedAt = &now

	s.notifier.MatchUpdated(match.TournamentID, match)
	return match, nil
}

func (s *matchService) Report(ctx context.Context, matchID int, reporterID int64, score1, score2 int) (*models.Match, error) {
	match, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusInProgress {
		return nil, ErrInvalidMatchState
	}
	if !match.HasPlayer(reporterID) {
		return nil, ErrNotParticipant
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, mapTournamentError(err)
	}
	winnerID, err := decideWinner(match, tournament.WinScore, score1, score2)
	if err != nil {
		return nil, err
	}

	if err := s.matchRepo.RecordReport(ctx, s.db, matchID, score1, score2, winnerID, reporterID); err != nil {
		return nil, mapMatchError(err)
	}
	match.Status = models.MatchStatusPendingConfirmation
	match.Player1Score = &score1
	match.Player2Score = &score2
	match.WinnerID = &winnerID
	match.ReportedBy = &reporterID

	s.logger.Info("match result reported",
		slog.Int("match_id", matchID),
		slog.Int64("reported_by", reporterID),
		slog.Int64("winner_id", winnerID))
	s.notifier.MatchUpdated(match.TournamentID, match)
	return match, nil
}

func (s *matchService) Confirm(ctx context.Context, matchID int, confirmerID int64) (*models.Match, error) {
	match, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPendingConfirmation {
		return nil, ErrInvalidMatchState
	}
	if !match.HasPlayer(confirmerID) {
		return nil, ErrNotParticipant
	}
	if match.ReportedBy != nil && *match.ReportedBy == confirmerID {
		return nil, ErrSelfConfirmation
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, mapTournamentError(err)
	}

	now := time.Now()
	var advance *AdvanceResult
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.Complete(ctx, tx, matchID, confirmerID, now); err != nil {
			return mapMatchError(err)
		}
		match.Status = models.MatchStatusCompleted
		match.ConfirmedBy = &confirmerID
		match.CompletedAt = &now

		advance, err = s.engine.Advance(ctx, tx, tournament, match)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result confirmed",
		slog.Int("match_id", matchID),
		slog.Int64("confirmed_by", confirmerID))
	s.publish(tournament.ID, match, advance)
	return match, nil
}

func (s *matchService) Dispute(ctx context.Context, matchID int, userID int64) (*models.Match, error) {
	match, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPendingConfirmation {
		return nil, ErrInvalidMatchState
	}
	if !match.HasPlayer(userID) {
		return nil, ErrNotParticipant
	}

	if err := s.matchRepo.ClearReport(ctx, s.db, matchID); err != nil {
		return nil, mapMatchError(err)
	}
	match.Status = models.MatchStatusInProgress
	match.Player1Score = nil
	match.Player2Score = nil
	match.WinnerID = nil
	match.ReportedBy = nil

	s.logger.Info("match result disputed",
		slog.Int("match_id", matchID),
		slog.Int64("disputed_by", userID))
	s.notifier.MatchUpdated(match.TournamentID, match)
	return match, nil
}

// SetTechnicalResult assigns an administrative outcome, bypassing opponent
// confirmation. Allowed from any non-terminal status, including scheduled.
func (s *matchService) SetTechnicalResult(ctx context.Context, matchID int, winnerID int64, reason string, adjudicatorID int64) (*models.Match, error) {
	match, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrInvalidMatchState
	}
	if !match.HasPlayer(winnerID) {
		return nil, ErrNotParticipant
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, mapTournamentError(err)
	}

	score1, score2 := tournament.WinScore, 0
	if match.Player2ID != nil && *match.Player2ID == winnerID {
		score1, score2 = 0, tournament.WinScore
	}

	now := time.Now()
	var advance *AdvanceResult
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.CompleteTechnical(ctx, tx, matchID, winnerID, score1, score2, reason, adjudicatorID, now); err != nil {
			return mapMatchError(err)
		}
		match.Status = models.MatchStatusCompleted
		match.Player1Score = &score1
		match.Player2Score = &score2
		match.WinnerID = &winnerID
		match.IsTechnicalResult = true
		match.TechnicalReason = &reason
		match.ConfirmedBy = &adjudicatorID
		match.CompletedAt = &now

		advance, err = s.engine.Advance(ctx, tx, tournament, match)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("technical result set",
		slog.Int("match_id", matchID),
		slog.Int64("winner_id", winnerID),
		slog.String("reason", reason),
		slog.Int64("adjudicator_id", adjudicatorID))
	s.publish(tournament.ID, match, advance)
	return match, nil
}

func (s *matchService) publish(tournamentID int, match *models.Match, advance *AdvanceResult) {
	s.notifier.MatchUpdated(tournamentID, match)
	if advance == nil {
		return
	}
	for _, ready := range advance.ReadyMatches {
		s.notifier.MatchReady(tournamentID, ready)
	}
	if advance.ChampionID != nil {
		s.notifier.TournamentCompleted(tournamentID, *advance.ChampionID)
	}
}

// decideWinner enforces the score rule: exactly one side reaches the win
// score, the other stays strictly below it.
func decideWinner(match *models.Match, winScore, score1, score2 int) (int64, error) {
	if score1 < 0 || score2 < 0 {
		return 0, ErrInvalidScore
	}
	p1Wins := score1 == winScore && score2 < winScore
	p2Wins := score2 == winScore && score1 < winScore
	switch {
	case p1Wins && !p2Wins:
		return *match.Player1ID, nil
	case p2Wins && !p1Wins:
		return *match.Player2ID, nil
	default:
		return 0, ErrInvalidScore
	}
}
