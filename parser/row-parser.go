package parser

import (
	"strconv"
	"strings"
	"time"

	"mlboard/client"
	"mlboard/scoring"
)

// submission timestamps come in a handful of layouts depending on which
// platform endpoint produced the response
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseLeaderboardRows converts a platform leaderboard response into raw
// scoring entries. Rows whose score cannot be parsed are kept with HasValue
// unset so callers can count them; a missing rank falls back to the row's
// position in the response.
func ParseLeaderboardRows(rows []client.LeaderboardRow) []*scoring.RawEntry {
	entries := make([]*scoring.RawEntry, 0, len(rows))
	for i, row := range rows {
		entry := &scoring.RawEntry{
			TeamName:    strings.TrimSpace(row.TeamName),
			MemberNames: memberNames(row.TeamMemberUserNames),
			Rank:        row.Rank,
		}
		if entry.Rank == 0 {
			entry.Rank = i + 1
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Score), 64)
		if err == nil {
			entry.RawValue = value
			entry.HasValue = true
		}
		if submittedAt := parseTimestamp(row.LastSubmissionDate); submittedAt != nil {
			entry.SubmittedAt = submittedAt
		}
		entries = append(entries, entry)
	}
	return entries
}

func memberNames(names []string) []string {
	members := make([]string, 0, len(names))
	for _, name := range names {
		// some endpoints collapse the member list into one comma-joined string
		for _, part := range strings.Split(name, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				members = append(members, trimmed)
			}
		}
	}
	return members
}

func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
