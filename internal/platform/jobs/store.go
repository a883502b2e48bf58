package jobs

import (
	"context"

	"hrpay/internal/platform/db"
)

type Store struct {
	DB db.Querier
}

func NewStore(querier db.Querier) *Store {
	return &Store{DB: querier}
}

func (s *Store) StartRun(ctx context.Context, jobType, referenceID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, reference_id, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, jobType, referenceID, StatusRunning).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}
