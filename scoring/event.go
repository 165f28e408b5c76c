package scoring

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventRow is one team's combined result across all competitions of an
// event. It is derived on demand and never persisted.
type EventRow struct {
	TeamKey                  string
	TeamName                 string
	TotalScore               float64
	AverageScore             float64
	CompetitionsParticipated int
	MissingCompetitions      int
	Rank                     int
}

var eventAggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "event_aggregation_duration_s",
	Help: "Duration of the cross-competition aggregation step",
	Buckets: []float64{
		0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.5, 1,
	},
})

// AggregateEvent combines per-competition standings into a single event
// leaderboard.
//
// Standings are grouped by Standing.Key, so a participant linked to a user in
// one competition and unmatched in another counts as two teams; that is a
// known limitation, not something this function reconciles. The average
// always divides by the full event size, so missing a competition lowers the
// average instead of being excluded. Ties on the total keep their input
// order; the sort is stable and no secondary key is applied.
//
// Competitions are visited in ascending id order so the input iteration order
// (and therefore tie order) is reproducible across calls.
func AggregateEvent(standingsByCompetition map[int][]*Standing, totalCompetitions int) []*EventRow {
	timer := prometheus.NewTimer(eventAggregationDuration)
	defer timer.ObserveDuration()

	if totalCompetitions == 0 {
		return []*EventRow{}
	}

	competitionIds := make([]int, 0, len(standingsByCompetition))
	for competitionId := range standingsByCompetition {
		competitionIds = append(competitionIds, competitionId)
	}
	sort.Ints(competitionIds)

	byKey := make(map[string]*EventRow)
	order := make([]string, 0)
	for _, competitionId := range competitionIds {
		for _, standing := range standingsByCompetition[competitionId] {
			key := standing.Key()
			row, ok := byKey[key]
			if !ok {
				row = &EventRow{TeamKey: key, TeamName: standing.TeamName}
				byKey[key] = row
				order = append(order, key)
			}
			row.TotalScore += standing.Score
			row.CompetitionsParticipated++
		}
	}

	rows := make([]*EventRow, 0, len(order))
	for _, key := range order {
		row := byKey[key]
		row.AverageScore = row.TotalScore / float64(totalCompetitions)
		row.MissingCompetitions = totalCompetitions - row.CompetitionsParticipated
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})
	for i, row := range rows {
		row.Rank = i + 1
	}
	return rows
}
