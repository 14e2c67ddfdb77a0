package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/model"

	"github.com/google/uuid"
)

// memStore backs every fake repository. txMu serializes transactions the way
// the user row lock does; dataMu guards the maps for single statements.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	users         map[string]*model.User
	problems      map[string]*model.Problem
	testCases     map[string][]model.TestCase
	submissions   map[string]*model.Submission
	solved        map[string]string
	ledger        map[string]bool
	notifications []model.Notification

	failCreateSubmission error
	failLockProgress     error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*model.User{},
		problems:    map[string]*model.Problem{},
		testCases:   map[string][]model.TestCase{},
		submissions: map[string]*model.Submission{},
		solved:      map[string]string{},
		ledger:      map[string]bool{},
	}
}

func (s *memStore) addUser(id string) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.users[id] = &model.User{ID: id, Username: id, Email: id + "@example.com", Role: model.RoleUser}
}

func (s *memStore) addProblem(p model.Problem, cases ...model.TestCase) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.problems[p.ID] = &p
	s.testCases[p.ID] = cases
}

func (s *memStore) progress(userID string) model.Progress {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.users[userID].Progress
}

func (s *memStore) submissionCount() int {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return len(s.submissions)
}

func (s *memStore) notificationCount() int {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return len(s.notifications)
}

func (s *memStore) dailyProblems() []string {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var ids []string
	for id, p := range s.problems {
		if p.IsDaily {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

type memSnapshot struct {
	progress      map[string]model.Progress
	daily         map[string]*time.Time
	solved        map[string]string
	ledger        map[string]bool
	notifications []model.Notification
}

// WithinTx restores everything a transaction may write when fn fails.
func (s *memStore) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.dataMu.Lock()
	snap := memSnapshot{
		progress:      map[string]model.Progress{},
		daily:         map[string]*time.Time{},
		solved:        map[string]string{},
		ledger:        map[string]bool{},
		notifications: append([]model.Notification(nil), s.notifications...),
	}
	for id, u := range s.users {
		snap.progress[id] = u.Progress
	}
	for id, p := range s.problems {
		if p.IsDaily {
			snap.daily[id] = p.ValidTill
		}
	}
	for k, v := range s.solved {
		snap.solved[k] = v
	}
	for k, v := range s.ledger {
		snap.ledger[k] = v
	}
	s.dataMu.Unlock()

	if err := fn(nil); err != nil {
		s.dataMu.Lock()
		for id, p := range snap.progress {
			s.users[id].Progress = p
		}
		for id, p := range s.problems {
			validTill, daily := snap.daily[id]
			p.IsDaily = daily
			p.ValidTill = validTill
		}
		s.solved = snap.solved
		s.ledger = snap.ledger
		s.notifications = snap.notifications
		s.dataMu.Unlock()
		return err
	}
	return nil
}

type fakeUserRepo struct{ *memStore }

func (r fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r fakeUserRepo) LockProgress(ctx context.Context, tx *sql.Tx, userID string) (*model.Progress, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.failLockProgress != nil {
		return nil, r.failLockProgress
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	p := u.Progress
	return &p, nil
}

func (r fakeUserRepo) SaveProgress(ctx context.Context, tx *sql.Tx, userID string, p *model.Progress) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	r.users[userID].Progress = *p
	return nil
}

func (r fakeUserRepo) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return nil, errors.New("not implemented")
}

type fakeProblemRepo struct{ *memStore }

func (r fakeProblemRepo) CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	for _, p := range r.problems {
		if p.Slug == problem.Slug {
			return common.ErrConflict
		}
	}
	cp := *problem
	cp.TestCases = nil
	r.problems[problem.ID] = &cp
	return nil
}

func (r fakeProblemRepo) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakeProblemRepo) ListProblems(ctx context.Context, limit, offset int, difficulty model.ProblemDifficulty, searchTerm string) ([]model.Problem, int, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	var out []model.Problem
	for _, p := range r.problems {
		if difficulty == "" || p.Difficulty == difficulty {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r fakeProblemRepo) AddTestCasesToProblem(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	r.testCases[problemID] = append(r.testCases[problemID], testCases...)
	return nil
}

func (r fakeProblemRepo) GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	return append([]model.TestCase(nil), r.testCases[problemID]...), nil
}

func (r fakeProblemRepo) ClearDailyQuestion(ctx context.Context, tx *sql.Tx) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	for _, p := range r.problems {
		p.IsDaily = false
		p.ValidTill = nil
	}
	return nil
}

func (r fakeProblemRepo) SetDailyQuestion(ctx context.Context, tx *sql.Tx, problemID string, validTill time.Time) (*model.Problem, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	p, ok := r.problems[problemID]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.IsDaily = true
	p.ValidTill = &validTill
	cp := *p
	return &cp, nil
}

type fakeSubmissionRepo struct{ *memStore }

func (r fakeSubmissionRepo) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.failCreateSubmission != nil {
		return r.failCreateSubmission
	}
	sub.CreatedAt = time.Now()
	cp := *sub
	r.submissions[sub.ID] = &cp
	return nil
}

func (r fakeSubmissionRepo) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r fakeSubmissionRepo) ListSubmissionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	var out []model.Submission
	for _, sub := range r.submissions {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return out[offset:end], total, nil
}

func (r fakeSubmissionRepo) HasRecentSubmission(ctx context.Context, userID, problemID string, since time.Time) (bool, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	for _, sub := range r.submissions {
		if sub.UserID == userID && sub.ProblemID == problemID && sub.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeSubmissionRepo) CountByUserUntil(ctx context.Context, tx *sql.Tx, userID string, until time.Time) (int, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	n := 0
	for _, sub := range r.submissions {
		if sub.UserID == userID && !sub.CreatedAt.After(until) {
			n++
		}
	}
	return n, nil
}

func (r fakeSubmissionRepo) MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) (bool, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	key := userID + "|" + problemID
	if _, ok := r.solved[key]; ok {
		return false, nil
	}
	r.solved[key] = submissionID
	return true, nil
}

func (r fakeSubmissionRepo) ClaimProgress(ctx context.Context, tx *sql.Tx, submissionID string) (bool, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	if r.ledger[submissionID] {
		return false, nil
	}
	r.ledger[submissionID] = true
	return true, nil
}

func (r fakeSubmissionRepo) ListUnappliedAccepted(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	var ids []string
	for id, sub := range r.submissions {
		if sub.FinalSubmission && sub.Status == model.StatusAccepted && !r.ledger[id] && sub.CreatedAt.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeNotificationRepo struct{ *memStore }

func (r fakeNotificationRepo) Create(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r fakeNotificationRepo) ListRecent(ctx context.Context, limit int) ([]model.Notification, error) {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	var out []model.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.notifications[i])
	}
	return out, nil
}

// fakeJudge passes a case when the source code equals the expected output.
type fakeJudge struct {
	err   error
	calls atomic.Int32
}

func (j *fakeJudge) Evaluate(ctx context.Context, sourceCode string, languageID int, cases []model.TestCase) ([]model.TestResult, error) {
	j.calls.Add(1)
	if j.err != nil {
		return nil, j.err
	}
	results := make([]model.TestResult, len(cases))
	for i, tc := range cases {
		out := sourceCode
		passed := sourceCode == tc.ExpectedOutput
		status := "Accepted"
		if !passed {
			status = "Wrong Answer"
		}
		results[i] = model.TestResult{
			TestCaseID: tc.ID,
			Passed:     passed,
			Status:     status,
			Stdout:     &out,
			Time:       fmt.Sprintf("%.3f", 0.01*float64(i+1)),
			Memory:     1024 * (i + 1),
		}
	}
	return results, nil
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(ctx context.Context, submissionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, submissionID)
	return nil
}

func (q *fakeQueue) queued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, notification model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

type allowAll struct{}

func (allowAll) Allow(ctx context.Context, userID, problemID string) error { return nil }
func (allowAll) Recorded(ctx context.Context, userID, problemID string) {}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context, userID, problemID string) error { return common.ErrThrottled }
func (denyAll) Recorded(ctx context.Context, userID, problemID string) {}

// harness wires the evaluation workflow over one memStore.
type harness struct {
	store    *memStore
	judge    *fakeJudge
	queue    *fakeQueue
	progress *ProgressService
	eval     *EvaluationService
}

func newHarness(guard RunGuard) *harness {
	store := newMemStore()
	judge := &fakeJudge{}
	queue := &fakeQueue{}
	progress := NewProgressService(store, fakeUserRepo{store}, fakeSubmissionRepo{store}, queue)
	if guard == nil {
		guard = allowAll{}
	}
	eval := NewEvaluationService(fakeUserRepo{store}, fakeProblemRepo{store}, fakeSubmissionRepo{store}, judge, guard, progress)
	return &harness{store: store, judge: judge, queue: queue, progress: progress, eval: eval}
}

// pid is the stable problem id behind a short fixture name.
func pid(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("letscode/problems/"+name)).String()
}

// problemFixture is a problem whose single stored case expects "42".
func problemFixture(name string) (model.Problem, model.TestCase) {
	id := pid(name)
	return model.Problem{ID: id, Title: "Problem " + name, Slug: "problem-" + name, Difficulty: model.DifficultyEasy},
		model.TestCase{ID: name + "-tc1", ProblemID: id, Input: "", ExpectedOutput: "42"}
}

func dailyProblemFixture(name string, validTill time.Time) (model.Problem, model.TestCase) {
	p, tc := problemFixture(name)
	p.IsDaily = true
	p.ValidTill = &validTill
	return p, tc
}

func accepted(problem string) EvaluateRequest {
	return EvaluateRequest{ProblemID: pid(problem), SourceCode: "42", LanguageID: 71}
}

func rejected(problem string) EvaluateRequest {
	return EvaluateRequest{ProblemID: pid(problem), SourceCode: "41", LanguageID: 71}
}
