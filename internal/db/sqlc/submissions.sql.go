package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createSubmission = `-- name: CreateSubmission :one
INSERT INTO submissions (
    id, test_id, test_title, candidate_id, started_at, ended_at,
    answers, score, max_score, percentage, reason
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
ON CONFLICT (id) DO NOTHING
RETURNING id, test_id, test_title, candidate_id, started_at, ended_at, answers, score, max_score, percentage, reason, created_at
`

type CreateSubmissionParams struct {
	ID          pgtype.UUID        `json:"id"`
	TestID      string             `json:"test_id"`
	TestTitle   string             `json:"test_title"`
	CandidateID string             `json:"candidate_id"`
	StartedAt   pgtype.Timestamptz `json:"started_at"`
	EndedAt     pgtype.Timestamptz `json:"ended_at"`
	Answers     []byte             `json:"answers"`
	Score       int32              `json:"score"`
	MaxScore    int32              `json:"max_score"`
	Percentage  int32              `json:"percentage"`
	Reason      string             `json:"reason"`
}

func (q *Queries) CreateSubmission(ctx context.Context, arg CreateSubmissionParams) (Submission, error) {
	row := q.db.QueryRow(ctx, createSubmission,
		arg.ID,
		arg.TestID,
		arg.TestTitle,
		arg.CandidateID,
		arg.StartedAt,
		arg.EndedAt,
		arg.Answers,
		arg.Score,
		arg.MaxScore,
		arg.Percentage,
		arg.Reason,
	)
	var i Submission
	err := row.Scan(
		&i.ID,
		&i.TestID,
		&i.TestTitle,
		&i.CandidateID,
		&i.StartedAt,
		&i.EndedAt,
		&i.Answers,
		&i.Score,
		&i.MaxScore,
		&i.Percentage,
		&i.Reason,
		&i.CreatedAt,
	)
	return i, err
}

const getSubmission = `-- name: GetSubmission :one
SELECT id, test_id, test_title, candidate_id, started_at, ended_at, answers, score, max_score, percentage, reason, created_at
FROM submissions
WHERE id = $1
`

func (q *Queries) GetSubmission(ctx context.Context, id pgtype.UUID) (Submission, error) {
	row := q.db.QueryRow(ctx, getSubmission, id)
	var i Submission
	err := row.Scan(
		&i.ID,
		&i.TestID,
		&i.TestTitle,
		&i.CandidateID,
		&i.StartedAt,
		&i.EndedAt,
		&i.Answers,
		&i.Score,
		&i.MaxScore,
		&i.Percentage,
		&i.Reason,
		&i.CreatedAt,
	)
	return i, err
}

const listSubmissionsByCandidate = `-- name: ListSubmissionsByCandidate :many
SELECT id, test_id, test_title, candidate_id, started_at, ended_at, answers, score, max_score, percentage, reason, created_at
FROM submissions
WHERE candidate_id = $1
ORDER BY ended_at DESC
LIMIT $2
`

type ListSubmissionsByCandidateParams struct {
	CandidateID string `json:"candidate_id"`
	Limit       int32  `json:"limit"`
}

func (q *Queries) ListSubmissionsByCandidate(ctx context.Context, arg ListSubmissionsByCandidateParams) ([]Submission, error) {
	rows, err := q.db.Query(ctx, listSubmissionsByCandidate, arg.CandidateID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Submission
	for rows.Next() {
		var i Submission
		if err := rows.Scan(
			&i.ID,
			&i.TestID,
			&i.TestTitle,
			&i.CandidateID,
			&i.StartedAt,
			&i.EndedAt,
			&i.Answers,
			&i.Score,
			&i.MaxScore,
			&i.Percentage,
			&i.Reason,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
