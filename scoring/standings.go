package scoring

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RawEntry is one row of a competition leaderboard as reported by the
// external platform, after the parser has turned the platform's loosely typed
// payload into something usable. Rows without a parseable score have HasValue
// unset and are skipped during standing construction.
type RawEntry struct {
	TeamName    string
	MemberNames []string
	RawValue    float64
	HasValue    bool
	Rank        int
	SubmittedAt *time.Time
}

// Standing is one participant's normalized result within a single
// competition. UserId is nil for participants that only exist on the external
// platform; they still get a standing keyed by their team name so the full
// leaderboard stays visible.
type Standing struct {
	UserId      *int
	TeamName    string
	Score       float64
	Rank        int
	SubmittedAt *time.Time
}

// Key returns the identity used to deduplicate standings within a
// competition: the resolved user when one exists, otherwise the raw team
// name.
func (s *Standing) Key() string {
	if s.UserId != nil {
		return fmt.Sprintf("user:%d", *s.UserId)
	}
	return "team:" + s.TeamName
}

// ParticipantResolver maps an external identifier (a member username or a
// team name) to a known user id.
type ParticipantResolver func(identifier string) (int, bool)

var standingsBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "standings_build_duration_s",
	Help: "Duration of the standings construction step during a leaderboard sync",
	Buckets: []float64{
		0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.5, 1,
	},
})

// BuildStandings turns raw leaderboard rows into per-competition standings.
//
// Rows are processed in source order, which the platform reports best-first;
// ranks are passed through from the source, never recomputed from the
// normalized score. For each row the participant is resolved by trying the
// member usernames before the team name itself; unresolved rows still produce
// an unlinked standing. Rows mapping to the same participant are merged
// last-write-wins, so the result holds at most one standing per key.
func BuildStandings(rows []*RawEntry, config ScoringConfig, resolve ParticipantResolver) []*Standing {
	timer := prometheus.NewTimer(standingsBuildDuration)
	defer timer.ObserveDuration()

	byKey := make(map[string]*Standing)
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		if !row.HasValue {
			continue
		}
		standing := &Standing{
			TeamName:    row.TeamName,
			Score:       Normalize(row.RawValue, config),
			Rank:        row.Rank,
			SubmittedAt: row.SubmittedAt,
		}
		for _, candidate := range row.MemberNames {
			if candidate == "" {
				continue
			}
			if userId, ok := resolve(candidate); ok {
				standing.UserId = &userId
				break
			}
		}
		if standing.UserId == nil && row.TeamName != "" {
			if userId, ok := resolve(row.TeamName); ok {
				standing.UserId = &userId
			}
		}
		key := standing.Key()
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = standing
	}

	standings := make([]*Standing, 0, len(order))
	for _, key := range order {
		standings = append(standings, byKey[key])
	}
	return standings
}
