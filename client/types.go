package client

// LeaderboardRow is one team's entry in the platform's public leaderboard
// response. Scores come over the wire as strings since the platform returns
// them in the precision the evaluation metric was computed with.
type LeaderboardRow struct {
	Rank                int      `json:"rank"`
	TeamId              int      `json:"teamId"`
	TeamName            string   `json:"teamName"`
	Score               string   `json:"score"`
	LastSubmissionDate  string   `json:"lastSubmissionDate"`
	TeamMemberUserNames []string `json:"teamMemberUserNames"`
}

type LeaderboardResponse struct {
	CompetitionSlug string           `json:"competitionSlug"`
	Rows            []LeaderboardRow `json:"submissions"`
}

type CompetitionResponse struct {
	Slug             string `json:"ref"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Url              string `json:"url"`
	EvaluationMetric string `json:"evaluationMetric"`
	EnabledDate      string `json:"enabledDate"`
	Deadline         string `json:"deadline"`
	TeamCount        int    `json:"teamCount"`
}

type ListCompetitionsResponse struct {
	Competitions []CompetitionResponse `json:"competitions"`
}
