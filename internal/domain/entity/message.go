package entity

import "github.com/google/uuid"

// PostIndexMessage is the inbound message from the post.indexing queue.
type PostIndexMessage struct {
	JobID       uuid.UUID `json:"job_id"`
	PostID      int64     `json:"post_id"`
	MediaType   MediaType `json:"media_type"`
	Image       string    `json:"image"`
	Fullsize    string    `json:"fullsize,omitempty"`
	NotifyEmail string    `json:"notify_email,omitempty"`
}

// PostIndexStatusMessage is the outbound message published to the post.status queue.
type PostIndexStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	PostID       int64     `json:"post_id"`
	Status       JobStatus `json:"status"`
	FrameCount   int       `json:"frame_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
