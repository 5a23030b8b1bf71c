package port

import (
	"context"

	"github.com/toksz/rep0st/internal/domain/entity"
)

type StatusPublisher interface {
	PublishStatus(ctx context.Context, status entity.PostIndexStatusMessage) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
