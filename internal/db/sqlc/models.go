package sqlc

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Submission struct {
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
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}
