package model

import (
	"strconv"
	"time"
)

type SubmissionStatus string

const (
	StatusAccepted          SubmissionStatus = "Accepted"
	StatusWrongAnswer       SubmissionStatus = "Wrong Answer"
	StatusRuntimeError      SubmissionStatus = "Runtime Error"
	StatusTimeLimitExceeded SubmissionStatus = "Time Limit Exceeded"
	StatusCompileError      SubmissionStatus = "Compile Error"
	StatusPending           SubmissionStatus = "Pending"
)

// Submission is append-only: written once per run or submit, never updated.
type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProblemID       string           `json:"problem_id"`
	SourceCode      string           `json:"source_code"`
	LanguageID      int              `json:"language_id"`
	Status          SubmissionStatus `json:"status"`
	TestResults     []TestResult     `json:"test_results"`
	TotalRuntime    string           `json:"total_runtime"`
	TotalMemory     int              `json:"total_memory"`
	FinalSubmission bool             `json:"final_submission"`
	QuestionTitle   string           `json:"question_title"`
	CreatedAt       time.Time        `json:"created_at"`

	// DailyValidTill is the problem's daily window as it stood when the
	// submission was recorded; nil if the problem was not the daily question.
	DailyValidTill *time.Time `json:"-"`
}

// DailyActive reports whether the submission landed inside the daily window
// captured with it.
func (s *Submission) DailyActive() bool {
	return s.DailyValidTill != nil && s.DailyValidTill.After(s.CreatedAt)
}

// TestResult is the normalized verdict for one test case.
type TestResult struct {
	TestCaseID string  `json:"test_case_id"`
	Passed     bool    `json:"passed"`
	Status     string  `json:"status"`
	Stdout     *string `json:"stdout"`
	Stderr     *string `json:"stderr"`
	Time       string  `json:"time"`
	Memory     int     `json:"memory"`
}

// Outcome is the submission-level reduction of per-case results.
type Outcome struct {
	AllPassed  bool
	Status     SubmissionStatus
	Runtime    string
	Memory     int
	MaxRuntime string
	PeakMemory int
}

// Aggregate reduces results to one outcome. Runtime and Memory are the first
// case's readings; MaxRuntime and PeakMemory are the worst across all cases.
func Aggregate(results []TestResult) Outcome {
	out := Outcome{
		AllPassed:  len(results) > 0,
		Status:     StatusWrongAnswer,
		Runtime:    "0",
		MaxRuntime: MaxRuntime(results),
		PeakMemory: PeakMemory(results),
	}
	for _, r := range results {
		if !r.Passed {
			out.AllPassed = false
			break
		}
	}
	if out.AllPassed {
		out.Status = StatusAccepted
	}
	if len(results) > 0 {
		if results[0].Time != "" {
			out.Runtime = results[0].Time
		}
		out.Memory = results[0].Memory
	}
	return out
}

// MaxRuntime is the slowest case's time as reported by the judge.
func MaxRuntime(results []TestResult) string {
	best, bestVal := "0", -1.0
	for _, r := range results {
		if v, ok := parseSeconds(r.Time); ok && v > bestVal {
			best, bestVal = r.Time, v
		}
	}
	return best
}

// PeakMemory is the largest memory reading across cases, in KB.
func PeakMemory(results []TestResult) int {
	peak := 0
	for _, r := range results {
		if r.Memory > peak {
			peak = r.Memory
		}
	}
	return peak
}

func parseSeconds(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
