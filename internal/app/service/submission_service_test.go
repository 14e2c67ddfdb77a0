package service

import (
	"testing"

	"letscode/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionHistoryIsOwnerScoped(t *testing.T) {
	h := newHarness(nil)
	h.store.addUser("u1")
	h.store.addUser("u2")
	h.store.addProblem(problemFixture("p1"))

	mine, err := h.eval.Submit(t.Context(), "u1", accepted("p1"))
	require.NoError(t, err)
	_, err = h.eval.Submit(t.Context(), "u2", rejected("p1"))
	require.NoError(t, err)

	svc := NewSubmissionService(fakeSubmissionRepo{h.store})
	subs, total, err := svc.History(t.Context(), "u1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, subs, 1)
	assert.Equal(t, mine.SubmissionID, subs[0].ID)

	got, err := svc.Get(t.Context(), "u1", mine.SubmissionID)
	require.NoError(t, err)
	assert.True(t, got.FinalSubmission)

	_, err = svc.Get(t.Context(), "u2", mine.SubmissionID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSubmissionHistoryEmptyIsNotNil(t *testing.T) {
	svc := NewSubmissionService(fakeSubmissionRepo{newMemStore()})
	subs, total, err := svc.History(t.Context(), "nobody", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, subs)
}
