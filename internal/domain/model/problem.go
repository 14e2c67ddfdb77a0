package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "easy"
	DifficultyMedium ProblemDifficulty = "medium"
	DifficultyHard   ProblemDifficulty = "hard"
)

func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID                      string            `json:"id"`
	Title                   string            `json:"title"`
	Slug                    string            `json:"slug"`
	Description             string            `json:"description"`
	Difficulty              ProblemDifficulty `json:"difficulty"`
	DifficultyRating        int               `json:"difficulty_rating"`
	Topics                  []string          `json:"topics"`
	Constraints             []string          `json:"constraints"`
	ExpectedTimeComplexity  string            `json:"expected_time_complexity"`
	ExpectedSpaceComplexity string            `json:"expected_space_complexity"`
	IsDaily                 bool              `json:"is_daily"`
	ValidTill               *time.Time        `json:"valid_till,omitempty"`
	CreatedByID             *string           `json:"created_by_id,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
	TestCases               []TestCase        `json:"test_cases,omitempty"`
}

// DailyActiveAt reports whether p is the daily question and its window is
// still open at t. Expiry is only ever checked here, lazily.
func (p *Problem) DailyActiveAt(t time.Time) bool {
	return p.IsDaily && p.ValidTill != nil && p.ValidTill.After(t)
}

type TestCase struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id,omitempty"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"output"`
	SortOrder      int    `json:"sort_order"`
}
