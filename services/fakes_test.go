package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/repositories"
	"github.com/stretchr/testify/require"
)

// The services own their transaction boundaries through *sql.DB, so the
// tests register a no-op driver whose only job is handing out transactions.
// All reads and writes go through the in-memory fakes below, which ignore
// the executor entirely.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubOnce sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubOnce.Do(func() {
		sql.Register("servicestub", stubDriver{})
	})
	db, err := sql.Open("servicestub", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) put(t *models.Tournament) *models.Tournament {
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	}
	c := *t
	r.tournaments[t.ID] = &c
	return t
}

func (r *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	tournament.CreatedAt = time.Now()
	r.put(tournament)
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if status != nil && t.Status != *status {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatusGuarded(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok || t.Status != from {
		return repositories.ErrTournamentStateConflict
	}
	t.Status = to
	return nil
}

func (r *fakeTournamentRepo) SetCompleted(_ context.Context, _ repositories.SQLExecutor, id int, championID int64, completedAt time.Time) error {
	t, ok := r.tournaments[id]
	if !ok || t.Status != models.TournamentStatusActive {
		return repositories.ErrTournamentStateConflict
	}
	t.Status = models.TournamentStatusCompleted
	t.ChampionID = &championID
	t.CompletedAt = &completedAt
	return nil
}

func (r *fakeTournamentRepo) Cancel(_ context.Context, _ repositories.SQLExecutor, id int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.TournamentStatusRegistration && t.Status != models.TournamentStatusActive {
		return repositories.ErrTournamentStateConflict
	}
	t.Status = models.TournamentStatusCancelled
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeParticipantRepo struct {
	nextID       int
	participants map[int]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1, participants: make(map[int]*models.Participant)}
}

func (r *fakeParticipantRepo) Create(_ context.Context, participant *models.Participant) error {
	for _, p := range r.participants {
		if p.TournamentID == participant.TournamentID && p.UserID == participant.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	participant.ID = r.nextID
	r.nextID++
	participant.CreatedAt = time.Now()
	c := *participant
	r.participants[participant.ID] = &c
	return nil
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i], out[j]
		if pi.Seed != nil && pj.Seed != nil {
			return *pi.Seed < *pj.Seed
		}
		if (pi.Seed != nil) != (pj.Seed != nil) {
			return pi.Seed != nil
		}
		return pi.ID < pj.ID
	})
	return out, nil
}

func (r *fakeParticipantRepo) UpdateSeeds(_ context.Context, _ repositories.SQLExecutor, participants []*models.Participant) error {
	for _, p := range participants {
		stored, ok := r.participants[p.ID]
		if !ok {
			return repositories.ErrParticipantNotFound
		}
		stored.Seed = p.Seed
	}
	return nil
}

func (r *fakeParticipantRepo) CountByTournament(_ context.Context, tournamentID int) (int, error) {
	count := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) put(m *models.Match) {
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	}
	c := *m
	r.matches[m.ID] = &c
}

func (r *fakeMatchRepo) get(id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.CreatedAt = time.Now()
	r.put(match)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	m, err := r.get(id)
	if err != nil {
		return nil, err
	}
	c := *m
	return &c, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeMatchRepo) UpdateAdvancementLinks(_ context.Context, _ repositories.SQLExecutor, matchID int, nextMatchID *int, nextSlot *models.MatchSlot, loserNextMatchID *int, loserNextSlot *models.MatchSlot) error {
	m, err := r.get(matchID)
	if err != nil {
		return err
	}
	m.NextMatchID = nextMatchID
	m.NextSlot = nextSlot
	m.LoserNextMatchID = loserNextMatchID
	m.LoserNextSlot = loserNextSlot
	return nil
}

func (r *fakeMatchRepo) MarkStarted(_ context.Context, _ repositories.SQLExecutor, id int, startedAt time.Time) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	if m.Status != models.MatchStatusScheduled {
		return repositories.ErrMatchStateConflict
	}
	m.Status = models.MatchStatusInProgress
	m.StartedAt = &startedAt
	return nil
}

func (r *fakeMatchRepo) RecordReport(_ context.Context, _ repositories.SQLExecutor, id int, score1, score2 int, winnerID, reporterID int64) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	if m.Status != models.MatchStatusInProgress {
		return repositories.ErrMatchStateConflict
	}
	m.Status = models.MatchStatusPendingConfirmation
	m.Player1Score = &score1
	m.Player2Score = &score2
	m.WinnerID = &winnerID
	m.ReportedBy = &reporterID
	return nil
}

func (r *fakeMatchRepo) ClearReport(_ context.Context, _ repositories.SQLExecutor, id int) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	if m.Status != models.MatchStatusPendingConfirmation {
		return repositories.ErrMatchStateConflict
	}
	m.Status = models.MatchStatusInProgress
	m.Player1Score = nil
	m.Player2Score = nil
	m.WinnerID = nil
	m.ReportedBy = nil
	return nil
}

func (r *fakeMatchRepo) Complete(_ context.Context, _ repositories.SQLExecutor, id int, confirmedBy int64, completedAt time.Time) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	if m.Status != models.MatchStatusPendingConfirmation {
		return repositories.ErrMatchStateConflict
	}
	m.Status = models.MatchStatusCompleted
	m.ConfirmedBy = &confirmedBy
	m.CompletedAt = &completedAt
	return nil
}

func (r *fakeMatchRepo) CompleteTechnical(_ context.Context, _ repositories.SQLExecutor, id int, winnerID int64, score1, score2 int, reason string, adjudicatorID int64, completedAt time.Time) error {
	m, err := r.get(id)
	if err != nil {
		return err
	}
	if m.Status.IsTerminal() {
		return repositories.ErrMatchStateConflict
	}
	m.Status = models.MatchStatusCompleted
	m.Player1Score = &score1
	m.Player2Score = &score2
	m.WinnerID = &winnerID
	m.IsTechnicalResult = true
	m.TechnicalReason = &reason
	m.ConfirmedBy = &adjudicatorID
	m.CompletedAt = &completedAt
	return nil
}

func (r *fakeMatchRepo) AssignPlayer(_ context.Context, _ repositories.SQLExecutor, matchID int, slot models.MatchSlot, userID int64) error {
	m, err := r.get(matchID)
	if err != nil {
		return err
	}
	if slot == models.Slot1 {
		m.Player1ID = &userID
	} else {
		m.Player2ID = &userID
	}
	return nil
}

func (r *fakeMatchRepo) CancelAllActive(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && !m.Status.IsTerminal() {
			m.Status = models.MatchStatusCancelled
		}
	}
	return nil
}

type notifierEvent struct {
	kind         string
	tournamentID int
	matchID      int
	championID   int64
}

type recordingNotifier struct {
	events []notifierEvent
}

func (n *recordingNotifier) BracketGenerated(tournamentID int, matches []*models.Match) {
	n.events = append(n.events, notifierEvent{kind: "bracket_generated", tournamentID: tournamentID})
}

func (n *recordingNotifier) MatchUpdated(tournamentID int, match *models.Match) {
	n.events = append(n.events, notifierEvent{kind: "match_updated", tournamentID: tournamentID, matchID: match.ID})
}

func (n *recordingNotifier) MatchReady(tournamentID int, match *models.Match) {
	n.events = append(n.events, notifierEvent{kind: "match_ready", tournamentID: tournamentID, matchID: match.ID})
}

func (n *recordingNotifier) TournamentCompleted(tournamentID int, championID int64) {
	n.events = append(n.events, notifierEvent{kind: "tournament_completed", tournamentID: tournamentID, championID: championID})
}

func (n *recordingNotifier) readyMatchIDs() []int {
	var ids []int
	for _, e := range n.events {
		if e.kind == "match_ready" {
			ids = append(ids, e.matchID)
		}
	}
	return ids
}

func (n *recordingNotifier) completedTournaments() []int {
	var ids []int
	for _, e := range n.events {
		if e.kind == "tournament_completed" {
			ids = append(ids, e.tournamentID)
		}
	}
	return ids
}
