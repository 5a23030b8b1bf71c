package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toksz/rep0st/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.IndexJob) error {
	query := `
		INSERT INTO index_jobs (
			id, post_id, media_type, status, frame_count,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.PostID, string(job.MediaType), string(job.Status),
		job.FrameCount, job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.IndexJob) error {
	query := `
		UPDATE index_jobs SET
			status=$2, frame_count=$3, attempt=$4,
			error_message=$5, updated_at=$6, completed_at=$7
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.FrameCount, job.Attempt,
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.IndexJob, error) {
	query := `
		SELECT id, post_id, media_type, status, frame_count,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM index_jobs WHERE id=$1`

	job := &entity.IndexJob{}
	var mediaType, status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.PostID, &mediaType, &status, &job.FrameCount,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.MediaType = entity.MediaType(mediaType)
	job.Status = entity.JobStatus(status)
	return job, nil
}
