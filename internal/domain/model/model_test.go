package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateAllPassed(t *testing.T) {
	out := Aggregate([]TestResult{
		{Passed: true, Time: "0.021", Memory: 3200},
		{Passed: true, Time: "0.045", Memory: 9100},
	})
	assert.True(t, out.AllPassed)
	assert.Equal(t, StatusAccepted, out.Status)
	assert.Equal(t, "0.021", out.Runtime)
	assert.Equal(t, 3200, out.Memory)
	assert.Equal(t, "0.045", out.MaxRuntime)
	assert.Equal(t, 9100, out.PeakMemory)
}

func TestAggregateAnyFailureIsWrongAnswer(t *testing.T) {
	out := Aggregate([]TestResult{
		{Passed: true, Time: "0.01", Memory: 100},
		{Passed: false, Status: "Time Limit Exceeded", Time: "2.0", Memory: 100},
	})
	assert.False(t, out.AllPassed)
	assert.Equal(t, StatusWrongAnswer, out.Status)
}

func TestAggregateEmpty(t *testing.T) {
	out := Aggregate(nil)
	assert.False(t, out.AllPassed)
	assert.Equal(t, StatusWrongAnswer, out.Status)
	assert.Equal(t, "0", out.Runtime)
	assert.Zero(t, out.Memory)
}

func TestMaxRuntimeAndPeakMemory(t *testing.T) {
	results := []TestResult{
		{Time: "0.2", Memory: 10},
		{Time: "1.5", Memory: 300},
		{Time: "", Memory: 20},
		{Time: "0.9", Memory: 5},
	}
	assert.Equal(t, "1.5", MaxRuntime(results))
	assert.Equal(t, 300, PeakMemory(results))
	assert.Equal(t, "0", MaxRuntime(nil))
}

func TestAcceptanceRate(t *testing.T) {
	assert.Equal(t, 0, AcceptanceRate(0, 0))
	assert.Equal(t, 0, AcceptanceRate(3, 0))
	assert.Equal(t, 33, AcceptanceRate(1, 3))
	assert.Equal(t, 67, AcceptanceRate(2, 3))
	assert.Equal(t, 50, AcceptanceRate(1, 2))
	assert.Equal(t, 100, AcceptanceRate(4, 4))
	assert.Equal(t, 100, AcceptanceRate(5, 4))
}

func TestApplyAcceptanceFirstSolveOnOpenDaily(t *testing.T) {
	p := Progress{SolvedQuestionCount: 2, CurrentStreak: 1, MaximumStreak: 1, CorrectSubmissions: 2}
	p.ApplyAcceptance(Acceptance{FirstSolve: true, DailyActive: true, TotalSubmissions: 4})

	assert.Equal(t, 3, p.SolvedQuestionCount)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 2, p.MaximumStreak)
	assert.Equal(t, 3, p.CorrectSubmissions)
	assert.Equal(t, 75, p.AcceptanceRate)
}

func TestApplyAcceptanceExpiredDaily(t *testing.T) {
	p := Progress{CurrentStreak: 3, MaximumStreak: 5}
	p.ApplyAcceptance(Acceptance{FirstSolve: true, DailyActive: false, TotalSubmissions: 1})

	assert.Equal(t, 1, p.SolvedQuestionCount)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 5, p.MaximumStreak)
}

func TestApplyAcceptanceAlreadySolved(t *testing.T) {
	p := Progress{SolvedQuestionCount: 1, CurrentStreak: 1, MaximumStreak: 1, CorrectSubmissions: 1}
	p.ApplyAcceptance(Acceptance{FirstSolve: false, DailyActive: true, TotalSubmissions: 2})

	assert.Equal(t, 1, p.SolvedQuestionCount)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 2, p.CorrectSubmissions)
	assert.Equal(t, 100, p.AcceptanceRate)
}

func TestDailyActiveAt(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Second)

	assert.True(t, (&Problem{IsDaily: true, ValidTill: &later}).DailyActiveAt(now))
	assert.False(t, (&Problem{IsDaily: true, ValidTill: &earlier}).DailyActiveAt(now))
	assert.False(t, (&Problem{IsDaily: true}).DailyActiveAt(now))
	assert.False(t, (&Problem{IsDaily: false, ValidTill: &later}).DailyActiveAt(now))
}

func TestLanguageByID(t *testing.T) {
	lang, ok := LanguageByID(71)
	assert.True(t, ok)
	assert.Equal(t, "python", lang.Slug)

	_, ok = LanguageByID(9999)
	assert.False(t, ok)
}

func TestSubmissionDailyActive(t *testing.T) {
	created := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	open := created.Add(time.Minute)
	closed := created.Add(-time.Minute)

	assert.True(t, (&Submission{CreatedAt: created, DailyValidTill: &open}).DailyActive())
	assert.False(t, (&Submission{CreatedAt: created, DailyValidTill: &closed}).DailyActive())
	assert.False(t, (&Submission{CreatedAt: created}).DailyActive())
}
