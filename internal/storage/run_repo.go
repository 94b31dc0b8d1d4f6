package storage

import (
	"context"
	"fmt"

	"paperscope/internal/models"
)

// RunRepo is the analysis-run registry backing the listing API and the
// workflow's status updates.
type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Upsert registers a run or refreshes its source fields on retry.
func (r *RunRepo) Upsert(ctx context.Context, run models.Run) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO runs(run_id, source, source_type, title, status, fail_reason, output_dir)
VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''), $7)
ON CONFLICT (run_id) DO UPDATE SET
  source = EXCLUDED.source,
  source_type = EXCLUDED.source_type,
  status = EXCLUDED.status,
  updated_at = now()`,
		run.RunID, run.Source, run.SourceType, run.Title, run.Status, run.FailReason, run.OutputDir)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// UpdateStatus moves a run through pending/running/completed/failed and
// records the failure reason when there is one.
func (r *RunRepo) UpdateStatus(ctx context.Context, runID, status, failReason string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE runs SET status = $2, fail_reason = NULLIF($3,''), updated_at = now()
WHERE run_id = $1`, runID, status, failReason)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// SetResult records the extracted title and review score once known.
func (r *RunRepo) SetResult(ctx context.Context, runID, title string, reviewScore *float64) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE runs SET
  title = COALESCE(NULLIF($2,''), title),
  review_score = COALESCE($3, review_score),
  updated_at = now()
WHERE run_id = $1`, runID, title, reviewScore)
	if err != nil {
		return fmt.Errorf("set run result: %w", err)
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, runID string) (models.Run, error) {
	var run models.Run
	err := r.db.Pool.QueryRow(ctx, `
SELECT run_id, source, source_type, COALESCE(title,''), status, COALESCE(fail_reason,''),
       review_score, output_dir, created_at, updated_at
FROM runs WHERE run_id = $1`, runID).Scan(
		&run.RunID, &run.Source, &run.SourceType, &run.Title, &run.Status, &run.FailReason,
		&run.ReviewScore, &run.OutputDir, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return models.Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepo) List(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id, source, source_type, COALESCE(title,''), status, COALESCE(fail_reason,''),
       review_score, output_dir, created_at, updated_at
FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		if err := rows.Scan(
			&run.RunID, &run.Source, &run.SourceType, &run.Title, &run.Status, &run.FailReason,
			&run.ReviewScore, &run.OutputDir, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
