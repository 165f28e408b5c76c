package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noResolver(string) (int, bool) {
	return 0, false
}

func mapResolver(users map[string]int) ParticipantResolver {
	return func(identifier string) (int, bool) {
		id, ok := users[identifier]
		return id, ok
	}
}

func TestBuildStandingsEndToEnd(t *testing.T) {
	config := ScoringConfig{
		HigherIsBetter:        false,
		MetricMin:             0.0,
		MetricMax:             1.0,
		PointsForPerfectScore: 100.0,
	}
	rows := []*RawEntry{
		{TeamName: "teamA", RawValue: 0.1, HasValue: true, Rank: 1},
		{TeamName: "teamB", RawValue: 0.5, HasValue: true, Rank: 2},
		{TeamName: "teamC", RawValue: 0.9, HasValue: true, Rank: 3},
	}

	standings := BuildStandings(rows, config, noResolver)
	require.Len(t, standings, 3)

	assert.InDelta(t, 90.0, standings[0].Score, 1e-9)
	assert.InDelta(t, 50.0, standings[1].Score, 1e-9)
	assert.InDelta(t, 10.0, standings[2].Score, 1e-9)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, 3, standings[2].Rank)
}

func TestBuildStandingsSkipsRowsWithoutScore(t *testing.T) {
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	rows := []*RawEntry{
		{TeamName: "teamA", RawValue: 0.8, HasValue: true, Rank: 1},
		{TeamName: "pending", HasValue: false, Rank: 2},
	}

	standings := BuildStandings(rows, config, noResolver)
	require.Len(t, standings, 1)
	assert.Equal(t, "teamA", standings[0].TeamName)
}

func TestBuildStandingsResolvesMembersBeforeTeamName(t *testing.T) {
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	resolve := mapResolver(map[string]int{"alice": 7, "The A Team": 9})
	rows := []*RawEntry{
		{TeamName: "The A Team", MemberNames: []string{"unknown", "alice"}, RawValue: 0.5, HasValue: true, Rank: 1},
	}

	standings := BuildStandings(rows, config, resolve)
	require.Len(t, standings, 1)
	require.NotNil(t, standings[0].UserId)
	assert.Equal(t, 7, *standings[0].UserId)
}

func TestBuildStandingsLeavesMemberSlicesUntouched(t *testing.T) {
	// two rows sharing one backing array must not see each other's team name
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	members := make([]string, 1, 4)
	members[0] = "alice"
	backing := members[:cap(members)]
	backing[1] = "bob"
	rows := []*RawEntry{
		{TeamName: "The A Team", MemberNames: members, RawValue: 0.5, HasValue: true, Rank: 1},
	}

	BuildStandings(rows, config, noResolver)
	assert.Equal(t, []string{"alice"}, members)
	assert.Equal(t, "bob", backing[1])
}

func TestBuildStandingsKeepsUnresolvedParticipants(t *testing.T) {
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	rows := []*RawEntry{
		{TeamName: "externals only", RawValue: 0.3, HasValue: true, Rank: 4},
	}

	standings := BuildStandings(rows, config, noResolver)
	require.Len(t, standings, 1)
	assert.Nil(t, standings[0].UserId)
	assert.Equal(t, "team:externals only", standings[0].Key())
}

func TestBuildStandingsIdempotentUpsert(t *testing.T) {
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	earlier := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(2 * time.Hour)
	rows := []*RawEntry{
		{TeamName: "teamA", RawValue: 0.4, HasValue: true, Rank: 2, SubmittedAt: &earlier},
		{TeamName: "teamA", RawValue: 0.6, HasValue: true, Rank: 1, SubmittedAt: &later},
	}

	standings := BuildStandings(rows, config, noResolver)
	require.Len(t, standings, 1)
	assert.InDelta(t, 60.0, standings[0].Score, 1e-9)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, later, *standings[0].SubmittedAt)
}

func TestBuildStandingsMergesAliasesOfSameUser(t *testing.T) {
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	resolve := mapResolver(map[string]int{"alice": 7, "alice-alt": 7})
	rows := []*RawEntry{
		{TeamName: "alice", RawValue: 0.4, HasValue: true, Rank: 3},
		{TeamName: "alice-alt", RawValue: 0.9, HasValue: true, Rank: 1},
	}

	standings := BuildStandings(rows, config, resolve)
	require.Len(t, standings, 1)
	assert.InDelta(t, 90.0, standings[0].Score, 1e-9)
	assert.Equal(t, "alice-alt", standings[0].TeamName)
}

func TestBuildStandingsPassesSourceRankThrough(t *testing.T) {
	// ranks come from the source even when they disagree with the scores
	config := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100}
	rows := []*RawEntry{
		{TeamName: "teamA", RawValue: 0.2, HasValue: true, Rank: 1},
		{TeamName: "teamB", RawValue: 0.8, HasValue: true, Rank: 2},
	}

	standings := BuildStandings(rows, config, noResolver)
	require.Len(t, standings, 2)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 2, standings[1].Rank)
}
