package model

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	ProblemsSolved int    `json:"problems_solved"`
	AcceptanceRate int    `json:"acceptance_rate"`
	MaximumStreak  int    `json:"maximum_streak"`
}
