package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fiapx/frameflow/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Save upserts the ledger row for job.Reference.
func (r *JobRepository) Save(ctx context.Context, job *entity.PreviewJob) error {
	query := `
		INSERT INTO preview_jobs (
			reference, mimetype, state, attempt, step, duration,
			preview_keys, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (reference) DO UPDATE SET
			mimetype=EXCLUDED.mimetype, state=EXCLUDED.state, attempt=EXCLUDED.attempt,
			step=EXCLUDED.step, duration=EXCLUDED.duration, preview_keys=EXCLUDED.preview_keys,
			error_message=EXCLUDED.error_message, updated_at=EXCLUDED.updated_at,
			completed_at=EXCLUDED.completed_at`

	keys := job.PreviewKeys
	if keys == nil {
		keys = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		job.Reference, job.Mimetype, string(job.State), job.Attempt,
		job.Step, job.Duration, keys, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preview job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByReference(ctx context.Context, reference string) (*entity.PreviewJob, error) {
	query := `
		SELECT reference, mimetype, state, attempt, step, duration,
			preview_keys, error_message, created_at, updated_at, completed_at
		FROM preview_jobs WHERE reference=$1`

	job := &entity.PreviewJob{}
	var state string
	err := r.pool.QueryRow(ctx, query, reference).Scan(
		&job.Reference, &job.Mimetype, &state, &job.Attempt,
		&job.Step, &job.Duration, &job.PreviewKeys, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find preview job %q: %w", reference, entity.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find preview job %q: %w", reference, err)
	}
	job.State = entity.JobState(state)
	return job, nil
}
