package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Vbif322/cue-bot/brackets"
	"github.com/Vbif322/cue-bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tournamentHarness struct {
	matchRepo       *fakeMatchRepo
	tournamentRepo  *fakeTournamentRepo
	participantRepo *fakeParticipantRepo
	notifier        *recordingNotifier
	svc             TournamentService
}

func newTournamentHarness(t *testing.T) *tournamentHarness {
	t.Helper()

	matchRepo := newFakeMatchRepo()
	tournamentRepo := newFakeTournamentRepo()
	participantRepo := newFakeParticipantRepo()
	notifier := &recordingNotifier{}
	logger := discardLogger()

	bracketService := NewBracketService(
		participantRepo,
		matchRepo,
		brackets.NewSeededAssigner(rand.NewSource(1)),
		logger,
	)
	svc := NewTournamentService(
		newStubDB(t),
		tournamentRepo,
		participantRepo,
		matchRepo,
		bracketService,
		notifier,
		logger,
	)

	return &tournamentHarness{
		matchRepo:       matchRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		svc:             svc,
	}
}

func (h *tournamentHarness) createWithPlayers(t *testing.T, format models.TournamentFormat, players int) *models.Tournament {
	t.Helper()
	ctx := context.Background()

	tournament, err := h.svc.Create(ctx, CreateTournamentInput{
		Name:            "Club Championship",
		Format:          format,
		WinScore:        5,
		MaxParticipants: 16,
	})
	require.NoError(t, err)

	for i := 0; i < players; i++ {
		userID := int64(100 + i)
		_, err := h.svc.RegisterParticipant(ctx, tournament.ID, userID, fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
	}
	return tournament
}

func TestCreateTournamentValidation(t *testing.T) {
	valid := CreateTournamentInput{
		Name:            "Open",
		Format:          models.FormatSingleElimination,
		WinScore:        5,
		MaxParticipants: 8,
	}

	tests := []struct {
		name   string
		mutate func(*CreateTournamentInput)
	}{
		{name: "empty name", mutate: func(in *CreateTournamentInput) { in.Name = "" }},
		{name: "unknown format", mutate: func(in *CreateTournamentInput) { in.Format = "swiss" }},
		{name: "zero win score", mutate: func(in *CreateTournamentInput) { in.WinScore = 0 }},
		{name: "too few participants", mutate: func(in *CreateTournamentInput) { in.MaxParticipants = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTournamentHarness(t)
			input := valid
			tt.mutate(&input)
			_, err := h.svc.Create(context.Background(), input)
			assert.ErrorIs(t, err, ErrInvalidTournamentConfig)
		})
	}

	h := newTournamentHarness(t)
	tournament, err := h.svc.Create(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusRegistration, tournament.Status)
	assert.NotZero(t, tournament.ID)
}

func TestRegisterParticipantGuards(t *testing.T) {
	h := newTournamentHarness(t)
	ctx := context.Background()

	tournament, err := h.svc.Create(ctx, CreateTournamentInput{
		Name:            "Tiny Cup",
		Format:          models.FormatSingleElimination,
		WinScore:        3,
		MaxParticipants: 2,
	})
	require.NoError(t, err)

	_, err = h.svc.RegisterParticipant(ctx, tournament.ID, 1, "Ann")
	require.NoError(t, err)

	_, err = h.svc.RegisterParticipant(ctx, tournament.ID, 2, "Ben")
	require.NoError(t, err)

	_, err = h.svc.RegisterParticipant(ctx, tournament.ID, 3, "Cleo")
	assert.ErrorIs(t, err, ErrTournamentFull)

	_, err = h.svc.RegisterParticipant(ctx, 404, 4, "Dana")
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	started, err := h.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusActive, started.Status)

	_, err = h.svc.RegisterParticipant(ctx, tournament.ID, 5, "Eve")
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
}

func TestStartGeneratesAndPersistsBracket(t *testing.T) {
	h := newTournamentHarness(t)
	ctx := context.Background()
	tournament := h.createWithPlayers(t, models.FormatSingleElimination, 4)

	started, err := h.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusActive, started.Status)

	matches, err := h.matchRepo.ListByTournament(ctx, nil, tournament.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	byPosition := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		byPosition[m.Position] = m
	}
	final := byPosition[3]
	require.NotNil(t, final)
	assert.Nil(t, final.NextMatchID)

	// The semifinal links point at the final's database ID, one per slot.
	for pos, wantSlot := range map[int]models.MatchSlot{1: models.Slot1, 2: models.Slot2} {
		semi := byPosition[pos]
		require.NotNil(t, semi)
		require.NotNil(t, semi.NextMatchID)
		assert.Equal(t, final.ID, *semi.NextMatchID)
		require.NotNil(t, semi.NextSlot)
		assert.Equal(t, wantSlot, *semi.NextSlot)
		require.NotNil(t, semi.Player1ID)
		require.NotNil(t, semi.Player2ID)
	}

	// Seeds came out as a permutation of 1..4.
	participants, err := h.participantRepo.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, p := range participants {
		require.NotNil(t, p.Seed)
		seen[*p.Seed] = true
	}
	assert.Len(t, seen, 4)

	_, err = h.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentAlreadyStarted)
}

func TestStartNeedsEnoughParticipants(t *testing.T) {
	h := newTournamentHarness(t)
	tournament := h.createWithPlayers(t, models.FormatSingleElimination, 1)

	_, err := h.svc.Start(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, brackets.ErrInsufficientParticipants)
}

func TestCancelTournament(t *testing.T) {
	h := newTournamentHarness(t)
	ctx := context.Background()
	tournament := h.createWithPlayers(t, models.FormatSingleElimination, 4)

	_, err := h.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)

	// Pretend one match already finished before the plug was pulled.
	matches, err := h.matchRepo.ListByTournament(ctx, nil, tournament.ID, nil, nil)
	require.NoError(t, err)
	h.matchRepo.matches[matches[0].ID].Status = models.MatchStatusCompleted

	require.NoError(t, h.svc.Cancel(ctx, tournament.ID))

	stored, err := h.tournamentRepo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusCancelled, stored.Status)

	matches, err = h.matchRepo.ListByTournament(ctx, nil, tournament.ID, nil, nil)
	require.NoError(t, err)
	for _, m := range matches {
		if m.ID == matches[0].ID && m.Status == models.MatchStatusCompleted {
			continue
		}
		assert.Equal(t, models.MatchStatusCancelled, m.Status)
	}

	assert.ErrorIs(t, h.svc.Cancel(ctx, tournament.ID), ErrTournamentNotActive)
}

func TestProgressTracksCompletion(t *testing.T) {
	h := newTournamentHarness(t)
	ctx := context.Background()
	tournament := h.createWithPlayers(t, models.FormatSingleElimination, 4)

	_, err := h.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)

	progress, err := h.svc.Progress(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalMatches)
	assert.Equal(t, 0, progress.CompletedMatches)
	assert.False(t, progress.Finished)

	matches, err := h.matchRepo.ListByTournament(ctx, nil, tournament.ID, nil, nil)
	require.NoError(t, err)
	for _, m := range matches {
		if m.Position != 3 {
			h.matchRepo.matches[m.ID].Status = models.MatchStatusCompleted
		}
	}

	progress, err = h.svc.Progress(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.CompletedMatches)
	assert.False(t, progress.Finished, "the bracket sink is still open")

	for _, m := range matches {
		h.matchRepo.matches[m.ID].Status = models.MatchStatusCompleted
	}
	progress, err = h.svc.Progress(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.CompletedMatches)
	assert.True(t, progress.Finished)
}

func TestIsFinished(t *testing.T) {
	elim := &models.Tournament{Format: models.FormatSingleElimination}
	roundRobin := &models.Tournament{Format: models.FormatRoundRobin}

	completed := models.MatchStatusCompleted
	scheduled := models.MatchStatusScheduled

	assert.False(t, IsFinished(elim, nil))

	sinkOpen := []*models.Match{
		{Position: 1, NextMatchID: intPtr(2), Status: completed},
		{Position: 2, Status: scheduled},
	}
	assert.False(t, IsFinished(elim, sinkOpen))

	sinkDone := []*models.Match{
		{Position: 1, NextMatchID: intPtr(2), Status: scheduled},
		{Position: 2, Status: completed},
	}
	assert.True(t, IsFinished(elim, sinkDone), "only the sink decides elimination formats")

	rrPartial := []*models.Match{
		{Position: 1, Status: completed},
		{Position: 2, Status: scheduled},
	}
	assert.False(t, IsFinished(roundRobin, rrPartial))

	rrDone := []*models.Match{
		{Position: 1, Status: completed},
		{Position: 2, Status: completed},
	}
	assert.True(t, IsFinished(roundRobin, rrDone))
}

func TestGetFullTournamentData(t *testing.T) {
	h := newTournamentHarness(t)
	ctx := context.Background()
	tournament := h.createWithPlayers(t, models.FormatSingleElimination, 4)

	_, err := h.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)

	full, err := h.svc.GetFullTournamentData(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, full.Participants, 4)
	assert.Len(t, full.Matches, 3)
}
