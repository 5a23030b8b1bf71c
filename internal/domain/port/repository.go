package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/toksz/rep0st/internal/domain/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.IndexJob) error
	Update(ctx context.Context, job *entity.IndexJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.IndexJob, error)
}

type FrameRepository interface {
	SaveBatch(ctx context.Context, frames []*entity.FrameInfo) error
	DeleteByPost(ctx context.Context, postID int64) error
}
