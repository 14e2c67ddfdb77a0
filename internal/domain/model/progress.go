package model

import "math"

// Progress is the per-user aggregate that only accepted final submissions move.
type Progress struct {
	SolvedQuestionCount int `json:"solved_question_count"`
	CurrentStreak       int `json:"current_streak"`
	MaximumStreak       int `json:"maximum_streak"`
	CorrectSubmissions  int `json:"correct_submissions"`
	AcceptanceRate      int `json:"acceptance_rate"`
}

// Acceptance describes one accepted final submission as seen by the progress updater.
type Acceptance struct {
	FirstSolve       bool // problem was not yet in the user's solved set
	DailyActive      bool // problem is the daily question and its window was open at acceptance
	TotalSubmissions int  // all of the user's submissions, run and submit, including this one
}

// ApplyAcceptance folds one accepted final submission into p.
// The streak only moves on the first solve of an open daily question.
func (p *Progress) ApplyAcceptance(a Acceptance) {
	p.CorrectSubmissions++
	if a.FirstSolve {
		p.SolvedQuestionCount++
		if a.DailyActive {
			p.CurrentStreak++
		}
	}
	if p.CurrentStreak > p.MaximumStreak {
		p.MaximumStreak = p.CurrentStreak
	}
	p.AcceptanceRate = AcceptanceRate(p.CorrectSubmissions, a.TotalSubmissions)
}

// AcceptanceRate is round(correct/total*100) bounded to [0, 100].
func AcceptanceRate(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	rate := int(math.Round(float64(correct) / float64(total) * 100))
	if rate > 100 {
		return 100
	}
	return rate
}

// UserStats is the slice of Progress returned to the client after a submit.
type UserStats struct {
	SolvedCount    int `json:"solved_count"`
	Streak         int `json:"streak"`
	MaximumStreak  int `json:"maximum_streak"`
	AcceptanceRate int `json:"acceptance_rate"`
}

func (p Progress) Stats() UserStats {
	return UserStats{
		SolvedCount:    p.SolvedQuestionCount,
		Streak:         p.CurrentStreak,
		MaximumStreak:  p.MaximumStreak,
		AcceptanceRate: p.AcceptanceRate,
	}
}
