package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, email string, jobID string, postID int64, errorMsg string) error
}
