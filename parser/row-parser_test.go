package parser

import (
	"testing"
	"time"

	"mlboard/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeaderboardRows(t *testing.T) {
	rows := []client.LeaderboardRow{
		{Rank: 1, TeamName: "alpha", Score: "0.98123", LastSubmissionDate: "2026-03-01T12:30:00Z", TeamMemberUserNames: []string{"alice", "bob"}},
		{Rank: 2, TeamName: "beta", Score: "0.95", TeamMemberUserNames: []string{"carol, dave"}},
		{Rank: 3, TeamName: "gamma", Score: "not-a-number"},
	}

	entries := ParseLeaderboardRows(rows)
	require.Len(t, entries, 3)

	assert.Equal(t, "alpha", entries[0].TeamName)
	assert.True(t, entries[0].HasValue)
	assert.InDelta(t, 0.98123, entries[0].RawValue, 1e-9)
	assert.Equal(t, []string{"alice", "bob"}, entries[0].MemberNames)
	require.NotNil(t, entries[0].SubmittedAt)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), entries[0].SubmittedAt.UTC())

	// comma-joined member lists are split apart
	assert.Equal(t, []string{"carol", "dave"}, entries[1].MemberNames)
	assert.Nil(t, entries[1].SubmittedAt)

	// unparseable scores are kept but flagged
	assert.False(t, entries[2].HasValue)
	assert.Zero(t, entries[2].RawValue)
}

func TestParseLeaderboardRowsRankFallback(t *testing.T) {
	rows := []client.LeaderboardRow{
		{TeamName: "first", Score: "10"},
		{TeamName: "second", Score: "9"},
	}
	entries := ParseLeaderboardRows(rows)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestParseLeaderboardRowsTimestampLayouts(t *testing.T) {
	for _, value := range []string{
		"2026-03-01T12:30:00Z",
		"2026-03-01T12:30:00.123",
		"2026-03-01 12:30:00",
		"2026-03-01",
	} {
		rows := []client.LeaderboardRow{{Rank: 1, TeamName: "t", Score: "1", LastSubmissionDate: value}}
		entries := ParseLeaderboardRows(rows)
		assert.NotNil(t, entries[0].SubmittedAt, "layout %q should parse", value)
	}
}
