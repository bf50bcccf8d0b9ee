package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/Vbif322/cue-bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededParticipants(n int) []*models.Participant {
	participants := make([]*models.Participant, n)
	for i := 0; i < n; i++ {
		seed := i + 1
		participants[i] = &models.Participant{
			ID:          i + 1,
			UserID:      int64(100 + i + 1), // seed s -> user 100+s
			DisplayName: fmt.Sprintf("player-%d", i+1),
			Seed:        &seed,
		}
	}
	return participants
}

func generate(t *testing.T, g Generator, n int) *Bracket {
	t.Helper()
	b, err := g.Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 1, WinScore: 3},
		Participants: seededParticipants(n),
	})
	require.NoError(t, err)
	return b
}

func TestSingleEliminationCounts(t *testing.T) {
	testCases := []struct {
		participants int
		matches      int
		rounds       int
	}{
		{participants: 2, matches: 1, rounds: 1},
		{participants: 3, matches: 3, rounds: 2},
		{participants: 4, matches: 3, rounds: 2},
		{participants: 5, matches: 7, rounds: 3},
		{participants: 8, matches: 7, rounds: 3},
		{participants: 9, matches: 15, rounds: 4},
		{participants: 16, matches: 15, rounds: 4},
		{participants: 17, matches: 31, rounds: 5},
	}

	g := NewSingleEliminationGenerator()
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d participants", tc.participants), func(t *testing.T) {
			b := generate(t, g, tc.participants)
			assert.Len(t, b.Matches, tc.matches)
			assert.Equal(t, tc.rounds, b.Rounds)
		})
	}
}

func TestSingleEliminationTooFewParticipants(t *testing.T) {
	g := NewSingleEliminationGenerator()
	for _, n := range []int{0, 1} {
		_, err := g.Generate(context.Background(), GenerateParams{
			Tournament:   &models.Tournament{ID: 1},
			Participants: seededParticipants(n),
		})
		assert.ErrorIs(t, err, ErrInsufficientParticipants)
	}
}

func TestSingleEliminationForwardOnlyGraph(t *testing.T) {
	g := NewSingleEliminationGenerator()
	for _, n := range []int{2, 5, 8, 13, 16} {
		b := generate(t, g, n)

		sinks := 0
		for _, m := range b.Matches {
			if m.WinnerTo == nil {
				sinks++
				assert.Equal(t, b.Rounds, m.Round, "sink must be the final")
				continue
			}
			target := b.ByPosition(m.WinnerTo.Position)
			require.NotNil(t, target)
			assert.Greater(t, target.Position, m.Position)
			assert.Equal(t, m.Round+1, target.Round)
		}
		assert.Equal(t, 1, sinks, "the graph must have exactly one sink")
	}
}

// HasPlayer reports whether userID occupies one of the match slots.
func (m *Match) HasPlayer(userID int64) bool {
	if m.Player1ID != nil && *m.Player1ID == userID {
		return true
	}
	if m.Player2ID != nil && *m.Player2ID == userID {
		return true
	}
	return false
}

// path follows winner links from a match to the bracket sink.
func path(b *Bracket, from *Match) []int {
	positions := []int{from.Position}
	for from.WinnerTo != nil {
		from = b.ByPosition(from.WinnerTo.Position)
		positions = append(positions, from.Position)
	}
	return positions
}

func TestTopSeedsOnlyMeetInTheFinal(t *testing.T) {
	g := NewSingleEliminationGenerator()
	for _, n := range []int{4, 8, 16, 32} {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			b := generate(t, g, n)

			matchOf := func(userID int64) *Match {
				for _, m := range b.Matches {
					if m.Round == 1 && m.HasPlayer(userID) {
						return m
					}
				}
				return nil
			}

			seed1 := matchOf(101)
			seed2 := matchOf(102)
			require.NotNil(t, seed1)
			require.NotNil(t, seed2)

			path1 := path(b, seed1)
			path2 := path(b, seed2)
			final := path1[len(path1)-1]
			assert.Equal(t, final, path2[len(path2)-1])

			// The two paths may only share the final itself.
			for _, p1 := range path1[:len(path1)-1] {
				for _, p2 := range path2[:len(path2)-1] {
					assert.NotEqual(t, p1, p2, "seeds 1 and 2 met before the final")
				}
			}
		})
	}
}

func TestByesResolveTransitively(t *testing.T) {
	g := NewSingleEliminationGenerator()
	b := generate(t, g, 5) // bracket size 8, 3 byes

	byes := 0
	for _, m := range b.Matches {
		if m.Round == 1 {
			onePlayer := (m.Player1ID != nil) != (m.Player2ID != nil)
			if onePlayer {
				assert.True(t, m.Bye)
				assert.Equal(t, models.MatchStatusCompleted, m.Status)
				require.NotNil(t, m.WinnerID)
				byes++

				// The freebie winner must already sit in the next round.
				target := b.ByPosition(m.WinnerTo.Position)
				assert.True(t, target.HasPlayer(*m.WinnerID))
			}
		}
	}
	assert.Equal(t, 3, byes)
}

func TestFourParticipantBracketShape(t *testing.T) {
	g := NewSingleEliminationGenerator()
	b := generate(t, g, 4)

	require.Len(t, b.Matches, 3)
	m1, m2, final := b.Matches[0], b.Matches[1], b.Matches[2]

	assert.Equal(t, 1, m1.Round)
	assert.Equal(t, 1, m2.Round)
	assert.Equal(t, 2, final.Round)
	assert.Nil(t, final.WinnerTo)

	require.NotNil(t, m1.WinnerTo)
	require.NotNil(t, m2.WinnerTo)
	assert.Equal(t, final.Position, m1.WinnerTo.Position)
	assert.Equal(t, models.Slot1, m1.WinnerTo.Slot)
	assert.Equal(t, final.Position, m2.WinnerTo.Position)
	assert.Equal(t, models.Slot2, m2.WinnerTo.Slot)

	// Mirrored seeding: 1v4 on top, 2v3 below.
	assert.Equal(t, int64(101), *m1.Player1ID)
	assert.Equal(t, int64(104), *m1.Player2ID)
	assert.Equal(t, int64(102), *m2.Player1ID)
	assert.Equal(t, int64(103), *m2.Player2ID)
}
