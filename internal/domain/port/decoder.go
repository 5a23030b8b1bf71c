package port

import (
	"context"
	"os"

	"github.com/toksz/rep0st/internal/domain/entity"
)

// FrameStream is a lazy, single-consumer sequence of decoded frames. Next
// returns io.EOF once the stream is exhausted; any other error is terminal.
// The stream is finite and not restartable. Close must be called whenever
// iteration stops, for any reason, so the decode session's external process
// and file handle are reclaimed. Close is idempotent.
type FrameStream interface {
	Next() (*entity.Frame, error)
	Close() error
}

// MediaDecoder turns an opened media file into a frame stream. The returned
// stream does not own the file; the caller closes it after the stream is
// closed.
type MediaDecoder interface {
	Decode(ctx context.Context, f *os.File, limits entity.Limits) (FrameStream, error)
}

// MediaSource resolves a post's stored media and decodes it. The returned
// stream owns every resource acquired during resolution.
type MediaSource interface {
	GetFrames(ctx context.Context, post *entity.Post) (FrameStream, error)
}
