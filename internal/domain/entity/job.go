package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IndexJob tracks one attempt to extract and record the frames of a post.
type IndexJob struct {
	ID           uuid.UUID
	PostID       int64
	MediaType    MediaType
	Status       JobStatus
	FrameCount   int
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewIndexJob(postID int64, mediaType MediaType, maxAttempts int) *IndexJob {
	now := time.Now().UTC()
	return &IndexJob{
		ID:          uuid.New(),
		PostID:      postID,
		MediaType:   mediaType,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *IndexJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *IndexJob) MarkCompleted(frameCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.FrameCount = frameCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *IndexJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *IndexJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
