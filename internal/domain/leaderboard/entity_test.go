package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

func TestParseRankingType(t *testing.T) {
	// Пустая строка означает общий рейтинг.
	rt, err := ParseRankingType("")
	require.NoError(t, err)
	assert.Equal(t, RankingTotal, rt)

	for _, s := range []string{"total", "weekly", "monthly", "streak"} {
		rt, err := ParseRankingType(s)
		require.NoError(t, err)
		assert.Equal(t, RankingType(s), rt)
	}

	_, err = ParseRankingType("yearly")
	assert.ErrorIs(t, err, shared.ErrInvalidRankingType)
}

func TestRank(t *testing.T) {
	assert.False(t, Rank(0).IsValid())
	assert.True(t, Rank(1).IsValid())

	assert.True(t, Rank(1).IsTop10())
	assert.True(t, Rank(10).IsTop10())
	assert.False(t, Rank(11).IsTop10())
	assert.False(t, Rank(0).IsTop10())

	assert.Equal(t, "#3", Rank(3).String())
}

func TestBoard_AssignRanks(t *testing.T) {
	board := &Board{Type: RankingTotal, Entries: []*Entry{
		{UserID: "user-a", Score: 900},
		{UserID: "user-b", Score: 500},
		{UserID: "user-c", Score: 100},
	}}

	board.AssignRanks()

	assert.Equal(t, Rank(1), board.Entries[0].Rank)
	assert.Equal(t, Rank(2), board.Entries[1].Rank)
	assert.Equal(t, Rank(3), board.Entries[2].Rank)
}

func TestBoard_AssignRanksEmpty(t *testing.T) {
	board := &Board{Type: RankingStreak}
	board.AssignRanks()
	assert.Empty(t, board.Entries)
}
