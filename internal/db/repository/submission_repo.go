package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	sqlcgen "github.com/gokatarajesh/talentquiz/internal/db/sqlc"
)

// ErrSubmissionNotFound is returned when no row matches.
var ErrSubmissionNotFound = errors.New("submission not found")

const defaultHistoryLimit = 50

type submissionStore interface {
	CreateSubmission(ctx context.Context, arg sqlcgen.CreateSubmissionParams) (sqlcgen.Submission, error)
	GetSubmission(ctx context.Context, id pgtype.UUID) (sqlcgen.Submission, error)
	ListSubmissionsByCandidate(ctx context.Context, arg sqlcgen.ListSubmissionsByCandidateParams) ([]sqlcgen.Submission, error)
}

// SubmissionRepository persists completed submissions.
type SubmissionRepository struct {
	store submissionStore
}

// NewSubmissionRepository constructs a new submission repository.
func NewSubmissionRepository(store submissionStore) *SubmissionRepository {
	return &SubmissionRepository{store: store}
}

// Save inserts sub. Saving the same submission twice is a no-op.
func (r *SubmissionRepository) Save(ctx context.Context, sub assessment.Submission) error {
	id, err := toUUID(sub.ID)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = r.store.CreateSubmission(ctx, sqlcgen.CreateSubmissionParams{
		ID:          id,
		TestID:      sub.TestID,
		TestTitle:   sub.TestTitle,
		CandidateID: sub.CandidateID,
		StartedAt:   pgtype.Timestamptz{Time: sub.StartedAt, Valid: !sub.StartedAt.IsZero()},
		EndedAt:     pgtype.Timestamptz{Time: sub.EndedAt, Valid: !sub.EndedAt.IsZero()},
		Answers:     answers,
		Score:       int32(sub.Score),
		MaxScore:    int32(sub.MaxScore),
		Percentage:  int32(sub.Percentage),
		Reason:      sub.Reason,
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Get loads a submission by id.
func (r *SubmissionRepository) Get(ctx context.Context, id string) (assessment.Submission, error) {
	pgID, err := toUUID(id)
	if err != nil {
		return assessment.Submission{}, ErrSubmissionNotFound
	}
	row, err := r.store.GetSubmission(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assessment.Submission{}, ErrSubmissionNotFound
		}
		return assessment.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return fromRow(row)
}

// ListByCandidate returns a candidate's submissions, newest first.
func (r *SubmissionRepository) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]assessment.Submission, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.store.ListSubmissionsByCandidate(ctx, sqlcgen.ListSubmissionsByCandidateParams{
		CandidateID: candidateID,
		Limit:       int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]assessment.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func toUUID(id string) (pgtype.UUID, error) {
	var out pgtype.UUID
	if err := out.Scan(id); err != nil {
		return pgtype.UUID{}, fmt.Errorf("submission id %q: %w", id, err)
	}
	return out, nil
}

func fromRow(row sqlcgen.Submission) (assessment.Submission, error) {
	var answers []assessment.AnswerRecord
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return assessment.Submission{}, fmt.Errorf("decode answers: %w", err)
		}
	}
	if answers == nil {
		answers = []assessment.AnswerRecord{}
	}
	return assessment.Submission{
		ID:          uuidString(row.ID),
		TestID:      row.TestID,
		TestTitle:   row.TestTitle,
		CandidateID: row.CandidateID,
		StartedAt:   row.StartedAt.Time,
		EndedAt:     row.EndedAt.Time,
		Answers:     answers,
		Score:       int(row.Score),
		MaxScore:    int(row.MaxScore),
		Percentage:  int(row.Percentage),
		Reason:      row.Reason,
	}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	v, err := id.Value()
	if err != nil || v == nil {
		return ""
	}
	return v.(string)
}
