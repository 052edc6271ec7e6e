package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	sqlcgen "github.com/gokatarajesh/talentquiz/internal/db/sqlc"
)

type mockSubmissionStore struct {
	mock.Mock
}

func (m *mockSubmissionStore) CreateSubmission(ctx context.Context, arg sqlcgen.CreateSubmissionParams) (sqlcgen.Submission, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(sqlcgen.Submission), args.Error(1)
}

func (m *mockSubmissionStore) GetSubmission(ctx context.Context, id pgtype.UUID) (sqlcgen.Submission, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(sqlcgen.Submission), args.Error(1)
}

func (m *mockSubmissionStore) ListSubmissionsByCandidate(ctx context.Context, arg sqlcgen.ListSubmissionsByCandidateParams) ([]sqlcgen.Submission, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]sqlcgen.Submission), args.Error(1)
}

const subID = "00000000-0000-0000-0000-000000000001"

func sampleSubmission() assessment.Submission {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return assessment.Submission{
		ID:          subID,
		TestID:      "test-1",
		TestTitle:   "Go basics",
		CandidateID: "cand-1",
		StartedAt:   start,
		EndedAt:     start.Add(5 * time.Minute),
		Answers: []assessment.AnswerRecord{
			{QuestionID: "1", Value: assessment.SingleAnswer("Paris")},
			{QuestionID: "2", Value: assessment.NewMultipleAnswer("map", "chan")},
		},
		Score:      3,
		MaxScore:   4,
		Percentage: 75,
		Reason:     assessment.ReasonSubmitted,
	}
}

func TestSubmissionRepository_Save(t *testing.T) {
	store := new(mockSubmissionStore)
	repo := NewSubmissionRepository(store)
	sub := sampleSubmission()

	store.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(p sqlcgen.CreateSubmissionParams) bool {
		return p.ID == uuidFromByte(1) &&
			p.CandidateID == "cand-1" &&
			p.Score == 3 && p.MaxScore == 4 && p.Percentage == 75 &&
			p.StartedAt.Valid && p.EndedAt.Valid &&
			string(p.Answers) == `[{"question_id":"1","kind":"single-choice","value":"Paris"},{"question_id":"2","kind":"multiple-choice","value":["chan","map"]}]`
	})).Return(sqlcgen.Submission{ID: uuidFromByte(1)}, nil)

	assert.NoError(t, repo.Save(context.Background(), sub))
	store.AssertExpectations(t)
}

func TestSubmissionRepository_SaveIsIdempotent(t *testing.T) {
	store := new(mockSubmissionStore)
	repo := NewSubmissionRepository(store)
	store.On("CreateSubmission", mock.Anything, mock.Anything).Return(sqlcgen.Submission{}, pgx.ErrNoRows)

	assert.NoError(t, repo.Save(context.Background(), sampleSubmission()))
}

func TestSubmissionRepository_SaveError(t *testing.T) {
	store := new(mockSubmissionStore)
	repo := NewSubmissionRepository(store)
	store.On("CreateSubmission", mock.Anything, mock.Anything).Return(sqlcgen.Submission{}, errors.New("connection refused"))

	err := repo.Save(context.Background(), sampleSubmission())
	assert.ErrorContains(t, err, "connection refused")

	bad := sampleSubmission()
	bad.ID = "not-a-uuid"
	assert.Error(t, repo.Save(context.Background(), bad))
}

func TestSubmissionRepository_Get(t *testing.T) {
	store := new(mockSubmissionStore)
	repo := NewSubmissionRepository(store)
	sub := sampleSubmission()

	row := sqlcgen.Submission{
		ID:          uuidFromByte(1),
		TestID:      sub.TestID,
		TestTitle:   sub.TestTitle,
		CandidateID: sub.CandidateID,
		StartedAt:   pgtype.Timestamptz{Time: sub.StartedAt, Valid: true},
		EndedAt:     pgtype.Timestamptz{Time: sub.EndedAt, Valid: true},
		Answers:     []byte(`[{"question_id":"1","kind":"single-choice","value":"Paris"},{"question_id":"2","kind":"multiple-choice","value":["chan","map"]}]`),
		Score:       3,
		MaxScore:    4,
		Percentage:  75,
		Reason:      "submitted",
	}
	store.On("GetSubmission", mock.Anything, uuidFromByte(1)).Return(row, nil)

	got, err := repo.Get(context.Background(), subID)
	require.NoError(t, err)
	assert.Equal(t, sub, got)
	store.AssertExpectations(t)
}

func TestSubmissionRepository_GetNotFound(t *testing.T) {
	store := new(mockSubmissionStore)
	repo := NewSubmissionRepository(store)
	store.On("GetSubmission", mock.Anything, uuidFromByte(1)).Return(sqlcgen.Submission{}, pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), subID)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = repo.Get(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionRepository_ListByCandidate(t *testing.T) {
	store := new(mockSubmissionStore)
	repo := NewSubmissionRepository(store)
	params := sqlcgen.ListSubmissionsByCandidateParams{CandidateID: "cand-1", Limit: 50}
	store.On("ListSubmissionsByCandidate", mock.Anything, params).Return([]sqlcgen.Submission{
		{ID: uuidFromByte(2), CandidateID: "cand-1", Score: 1, MaxScore: 2, Percentage: 50, Reason: "timer_expired"},
	}, nil)

	got, err := repo.ListByCandidate(context.Background(), "cand-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", got[0].ID)
	assert.Equal(t, assessment.ReasonTimerExpired, got[0].Reason)
	assert.Empty(t, got[0].Answers)
	store.AssertExpectations(t)
}
