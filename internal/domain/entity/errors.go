package entity

import "fmt"

// The media pipeline reports failures through a closed set of typed errors so
// callers can distinguish missing files, undecodable media and unsupported
// post types with errors.As.

// MediaNotFoundError means the media file for a post is missing or unreadable.
type MediaNotFoundError struct {
	PostID int64
	Path   string
	Err    error
}

func (e *MediaNotFoundError) Error() string {
	return fmt.Sprintf("could not read media for post %d from %s: %v", e.PostID, e.Path, e.Err)
}

func (e *MediaNotFoundError) Unwrap() error {
	return e.Err
}

// DecodeError means the media bytes could not be decoded into frames: a
// violated limit, a malformed pixel-map record, or a failed ffmpeg run.
// Limit names the violated limit when the failure is limit-related. Stderr
// carries ffmpeg diagnostics when available.
type DecodeError struct {
	Reason string
	Limit  string
	Stderr string
}

func (e *DecodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("decode failed: %s: %s", e.Reason, e.Stderr)
	}
	return "decode failed: " + e.Reason
}

// RetryableError marks a failed indexing attempt that a later delivery may
// still complete. Attempt mirrors the job's own attempt counter, which is
// the only retry accounting in the system; consumers derive their
// redelivery backoff from it instead of keeping broker-side state.
type RetryableError struct {
	Attempt     int
	MaxAttempts int
	Err         error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable failure (attempt %d/%d): %v", e.Attempt, e.MaxAttempts, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError means no decoder is registered for a post's media type.
type UnsupportedTypeError struct {
	Type MediaType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no decoder registered for media type %s", e.Type)
}
