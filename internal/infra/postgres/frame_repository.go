package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toksz/rep0st/internal/domain/entity"
)

type FrameRepository struct {
	pool *pgxpool.Pool
}

func NewFrameRepository(pool *pgxpool.Pool) *FrameRepository {
	return &FrameRepository{pool: pool}
}

// SaveBatch bulk-inserts one batch of frame records.
func (r *FrameRepository) SaveBatch(ctx context.Context, frames []*entity.FrameInfo) error {
	if len(frames) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(frames))
	for _, f := range frames {
		rows = append(rows, []any{f.PostID, f.FrameNumber, f.Timestamp, f.IsKeyframe})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"frame_info"},
		[]string{"post_id", "frame_number", "timestamp", "is_keyframe"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert frame batch: %w", err)
	}
	return nil
}

// DeleteByPost removes all frame records of a post before a re-index.
func (r *FrameRepository) DeleteByPost(ctx context.Context, postID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM frame_info WHERE post_id=$1`, postID)
	if err != nil {
		return fmt.Errorf("delete frames for post %d: %w", postID, err)
	}
	return nil
}
